// Развёртка смещения: линейная сетка точек между начальным и конечным
// значением, с опциональным зеркальным обратным проходом для анализа
// гистерезиса.

package sweep

import (
	"time"

	"github.com/pkg/errors"

	"github.com/SDayneko/optoelectronics/instruments"
)

// Направление развёртки.
type Direction string

const (
	// Только прямой проход от начального значения к конечному.
	Forward Direction = "forward"
	// Прямой проход и зеркальный обратный: те же значения смещения
	// в обратном порядке. Удваивает число точек кривой.
	ForwardReverse Direction = "forward-reverse"
)

// Параметры развёртки. Создаются перед прогоном и не меняются.
type Spec struct {
	Start  float64
	Stop   float64
	Points int

	// Время установления выхода после шага смещения до запуска измерения.
	SettleDelay time.Duration

	Direction Direction

	// Канал, на котором задаётся смещение и измеряется ток.
	SweepChannel instruments.Channel

	// Канал фотодиода, измеряемый на каждом шаге. Пустое значение
	// означает одноканальную развёртку.
	PhotodiodeChannel instruments.Channel
}

// Проверка параметров развёртки до любого обращения к прибору.
func (sp Spec) Validate() error {

	if sp.Start == sp.Stop {
		return errors.Wrap(instruments.ErrConfiguration, "sweep start and stop must differ")
	}
	if sp.Points < 2 {
		return errors.Wrapf(instruments.ErrConfiguration,
			"sweep needs at least 2 points, got %d", sp.Points)
	}
	if sp.SettleDelay < 0 {
		return errors.Wrap(instruments.ErrConfiguration, "settling delay must not be negative")
	}
	switch sp.Direction {
	case Forward, ForwardReverse, "":
	default:
		return errors.Wrapf(instruments.ErrConfiguration,
			"unknown sweep direction \"%s\"", sp.Direction)
	}
	if sp.SweepChannel == "" {
		return errors.Wrap(instruments.ErrConfiguration, "sweep channel is not set")
	}
	return nil
}

// Двухканальная ли развёртка.
func (sp Spec) DualChannel() bool {
	return sp.PhotodiodeChannel != ""
}

// Полное число шагов развёртки с учётом обратного прохода.
func (sp Spec) TotalSteps() int {
	if sp.Direction == ForwardReverse {
		return 2 * sp.Points
	}
	return sp.Points
}

// Смещение на шаге i. Прямой проход — линейная интерполяция по N-1
// интервалам; шаги обратного прохода зеркалируют прямой в обратном порядке.
func (sp Spec) Bias(i int) float64 {

	if i >= sp.Points {
		i = 2*sp.Points - 1 - i
	}
	return sp.Start + (sp.Stop-sp.Start)*float64(i)/float64(sp.Points-1)
}
