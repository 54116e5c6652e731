// Контроллер развёртки: конечный автомат
// Idle -> Configuring -> Stepping -> Completed | Aborted.
// На каждом шаге: установка смещения, ожидание установления, измерение.
// Любая ошибка прибора прерывает прогон целиком; частичная кривая
// никогда не отдаётся дальше.

package sweep

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/SDayneko/optoelectronics/instruments"
)

// Состояние контроллера развёртки.
type State string

const (
	Idle        State = "idle"
	Configuring State = "configuring"
	Stepping    State = "stepping"
	Completed   State = "completed"
	Aborted     State = "aborted"
)

// Интерфейс сессии измерения, нужный контроллеру.
// Реализуется instruments.Session, в тестах — фальшивым прибором.
type Instrument interface {
	Apply(cfg instruments.ChannelConfig) error
	EnableOutput(channel instruments.Channel) error
	DisableOutputs() error
	SetBias(channel instruments.Channel, value float64) error
	ReadCurrent(channel instruments.Channel) (float64, error)
	EscalateCurrentRange(channel instruments.Channel, rng float64) error
}

// Ступень автоподъёма диапазона тока: при |I| >= Threshold диапазон
// и предел ограничения канала развёртки поднимаются до Range.
type RangeStep struct {
	Threshold float64
	Range     float64
}

type Controller struct {
	instr      Instrument
	state      State
	configured map[instruments.Channel]bool
	rangeSteps []RangeStep
	escalated  float64
}

func NewController(instr Instrument) *Controller {
	return &Controller{
		instr:      instr,
		state:      Idle,
		configured: make(map[instruments.Channel]bool, 2),
	}
}

func (c *Controller) State() State {
	return c.state
}

// Задать ступени автоподъёма диапазона тока канала развёртки.
// Пороги проверяются по возрастанию после каждого измерения.
func (c *Controller) SetRangeSteps(steps []RangeStep) {
	c.rangeSteps = steps
}

// Применить конфигурации каналов через сессию. Переводит контроллер
// в состояние Configuring; без этого развёртка не запускается.
func (c *Controller) Configure(cfgs ...instruments.ChannelConfig) error {

	if c.state != Idle && c.state != Configuring {
		return errors.Wrapf(instruments.ErrConfiguration,
			"cannot configure channels in state %s", c.state)
	}
	if len(cfgs) == 0 {
		return errors.Wrap(instruments.ErrConfiguration, "no channel configurations given")
	}
	for _, cfg := range cfgs {
		err := c.instr.Apply(cfg)
		if err != nil {
			return err
		}
		c.configured[cfg.Channel] = true
	}
	c.state = Configuring
	return nil
}

// Выполнить развёртку и вернуть собранную кривую. При любой ошибке
// прибора прогон прерывается, выходы гасятся, кривая не возвращается.
func (c *Controller) Run(sp Spec) (*Curve, error) {

	err := sp.Validate()
	if err != nil {
		return nil, err
	}
	if c.state != Configuring {
		return nil, errors.Wrapf(instruments.ErrConfiguration,
			"sweep started in state %s, configure the channels first", c.state)
	}
	if !c.configured[sp.SweepChannel] {
		return nil, errors.Wrapf(instruments.ErrConfiguration,
			"sweep channel %s is not configured", sp.SweepChannel)
	}
	if sp.DualChannel() && !c.configured[sp.PhotodiodeChannel] {
		return nil, errors.Wrapf(instruments.ErrConfiguration,
			"photodiode channel %s is not configured", sp.PhotodiodeChannel)
	}

	err = c.instr.EnableOutput(sp.SweepChannel)
	if err != nil {
		return nil, c.abort(err)
	}
	if sp.DualChannel() {
		err = c.instr.EnableOutput(sp.PhotodiodeChannel)
		if err != nil {
			return nil, c.abort(err)
		}
	}

	total := sp.TotalSteps()
	acq := newAcquirer(total, sp.DualChannel())
	c.state = Stepping
	c.escalated = 0
	logrus.Infof("sweep started: %g -> %g, %d steps, settle %s",
		sp.Start, sp.Stop, total, sp.SettleDelay)
	started := time.Now()

	for i := 0; i < total; i++ {
		point, err := c.step(sp, i)
		if err != nil {
			return nil, c.abort(err)
		}
		err = acq.append(point)
		if err != nil {
			return nil, c.abort(err)
		}
	}

	c.instr.DisableOutputs()
	curve, err := acq.finish()
	if err != nil {
		return nil, c.abort(err)
	}
	c.state = Completed
	logrus.Infof("sweep completed: %d samples in %s", curve.Len(), time.Since(started).Round(time.Millisecond))
	return curve, nil
}

func (c *Controller) step(sp Spec, i int) (SamplePoint, error) {

	bias := sp.Bias(i)
	err := c.instr.SetBias(sp.SweepChannel, bias)
	if err != nil {
		return SamplePoint{}, err
	}

	// Выход источника устанавливается не мгновенно: пропуск паузы
	// искажает точки при малых смещениях.
	if sp.SettleDelay > 0 {
		time.Sleep(sp.SettleDelay)
	}

	current, err := c.instr.ReadCurrent(sp.SweepChannel)
	if err != nil {
		return SamplePoint{}, err
	}
	err = c.escalateRange(sp.SweepChannel, current)
	if err != nil {
		return SamplePoint{}, err
	}

	point := SamplePoint{Index: i, Bias: bias, Current: current}
	if sp.DualChannel() {
		// Оба измерения внутри одного шага: точки каналов
		// соответствуют одному и тому же смещению.
		point.PhotoCurrent, err = c.instr.ReadCurrent(sp.PhotodiodeChannel)
		if err != nil {
			return SamplePoint{}, err
		}
	}
	logrus.Debugf("step %d: bias %g, current %g A", i, bias, current)
	return point, nil
}

func (c *Controller) escalateRange(channel instruments.Channel, current float64) error {

	abs := math.Abs(current)
	for _, step := range c.rangeSteps {
		if abs >= step.Threshold && step.Range > c.escalated {
			err := c.instr.EscalateCurrentRange(channel, step.Range)
			if err != nil {
				return err
			}
			c.escalated = step.Range
			logrus.Debugf("current range raised to %g A", step.Range)
		}
	}
	return nil
}

// Прерывание прогона: выходы гасятся, состояние становится Aborted,
// ошибка уходит вызывающему. Частичная кривая отбрасывается.
func (c *Controller) abort(cause error) error {

	c.instr.DisableOutputs()
	c.state = Aborted
	logrus.Errorf("sweep aborted: %v", cause)
	return errors.Wrap(cause, "sweep aborted")
}
