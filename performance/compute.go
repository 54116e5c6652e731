package performance

import (
	"github.com/pkg/errors"

	"github.com/SDayneko/optoelectronics/sweep"
)

// Детерминированное преобразование (кривая, параметры устройства) в
// таблицу метрик. Кривая не изменяется.
func Compute(curve *sweep.Curve, params DeviceParameters) (*Result, error) {

	err := params.Validate()
	if err != nil {
		return nil, err
	}
	if curve == nil || curve.Len() == 0 {
		return nil, errors.New("performance calculation needs a non-empty curve")
	}
	if !curve.DualChannel {
		return nil, errors.Errorf(
			"%s metrics need the photodiode channel sampled alongside the device", params.Class)
	}

	switch params.Class {
	case ClassLED:
		return computeLED(curve, params), nil
	default:
		return computePV(curve, params), nil
	}
}

// Значение y в точке пересечения нуля рядом x: точное совпадение или
// линейная интерполяция между двумя точками с разными знаками.
// Второе значение ложно, если пересечения нет.
func crossingValue(xs, ys []float64) (float64, bool) {

	for i := range xs {
		if xs[i] == 0 {
			return ys[i], true
		}
	}
	for i := 0; i+1 < len(xs); i++ {
		if xs[i]*xs[i+1] < 0 {
			t := -xs[i] / (xs[i+1] - xs[i])
			return ys[i] + t*(ys[i+1]-ys[i]), true
		}
	}
	return 0, false
}
