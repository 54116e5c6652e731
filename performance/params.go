// Расчёт характеристик оптоэлектронных устройств по измеренной кривой.
// Чистая числовая стадия: никаких обращений к прибору.

package performance

import "github.com/pkg/errors"

// Класс устройства определяет набор вычисляемых метрик.
type DeviceClass string

const (
	ClassLED DeviceClass = "led"
	ClassPV  DeviceClass = "pv"
)

// Физические константы, используемые в расчётах.
const (
	// Элементарный заряд, Кл.
	elementaryCharge = 1.6e-19
	// Постоянная Планка, умноженная на скорость света, Дж*м.
	planckTimesC = 1.98e-25
	// Максимальная световая отдача, лм/Вт.
	LuminousEfficacy = 683
)

// Параметры устройства, геометрии и калибровки. Поставляются извне
// и только читаются расчётом. Спектральные интегралы — непрозрачные
// калиброванные скаляры конкретной установки.
type DeviceParameters struct {
	Class DeviceClass

	// Активная площадь устройства, м².
	DeviceArea float64

	// Площадь диафрагмы перед фотодиодом, м² (LED).
	PinholeArea float64

	// Площадь кремниевого фотодиода, м² (PV).
	PhotodiodeArea float64

	// Интеграл чувствительности фотодиода, взвешенной спектром источника.
	Ksi float64

	// Интеграл чувствительности глаза, взвешенной спектром источника.
	EyeEl float64

	// Спектральный интеграл для расчёта EQE (LED).
	LambdaEQE float64

	// Интеграл чувствительности фотодиода на спектре источника (PV).
	IntSiSpec float64

	// Нормированный интеграл спектра источника (PV).
	IntSpec float64

	// Плотность мощности падающего излучения, мВт/см² (PV).
	// Ноль означает, что эффективность преобразования не вычисляется.
	IncidentPower float64
}

func (p DeviceParameters) Validate() error {

	if p.DeviceArea <= 0 {
		return errors.Errorf("device area %g must be positive", p.DeviceArea)
	}
	switch p.Class {
	case ClassLED:
		if p.PinholeArea <= 0 {
			return errors.Errorf("pinhole area %g must be positive", p.PinholeArea)
		}
		if p.Ksi <= 0 || p.EyeEl <= 0 || p.LambdaEQE <= 0 {
			return errors.New("LED spectral integrals (ksi, eye_el, lambda_eqe) must be positive")
		}
	case ClassPV:
		if p.PhotodiodeArea <= 0 {
			return errors.Errorf("photodiode area %g must be positive", p.PhotodiodeArea)
		}
		if p.IntSiSpec <= 0 || p.IntSpec <= 0 || p.EyeEl <= 0 {
			return errors.New("PV spectral integrals (int_si_spec, int_spec, eye_el) must be positive")
		}
		if p.IncidentPower < 0 {
			return errors.Errorf("incident power %g must not be negative", p.IncidentPower)
		}
	default:
		return errors.Errorf("unknown device class \"%s\"", p.Class)
	}
	return nil
}

// Плотность тока, А/м². Линейна и сохраняет знак тока.
func CurrentDensity(current, area float64) float64 {
	return current / area
}
