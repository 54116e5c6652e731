package sweep

import "github.com/pkg/errors"

// Точка кривой: приложенное смещение и измеренные токи одного шага.
// После записи не изменяется.
type SamplePoint struct {
	Index int

	// Приложенное смещение (вольты или амперы в зависимости от
	// функции источника канала развёртки).
	Bias float64

	// Ток канала развёртки, амперы.
	Current float64

	// Ток фотодиодного канала, амперы. Значим только для
	// двухканальной кривой.
	PhotoCurrent float64
}

// Кривая измерения: точки в порядке шагов развёртки. Принадлежит одному
// прогону и после завершения сбора только читается.
type Curve struct {
	Points      []SamplePoint
	DualChannel bool
}

func (c *Curve) Len() int {
	return len(c.Points)
}

// Сборщик кривой. Принимает точки строго в порядке шагов и отдаёт
// готовую кривую только в полном составе.
type acquirer struct {
	expected int
	dual     bool
	points   []SamplePoint
}

func newAcquirer(expected int, dual bool) *acquirer {
	return &acquirer{
		expected: expected,
		dual:     dual,
		points:   make([]SamplePoint, 0, expected),
	}
}

func (a *acquirer) append(p SamplePoint) error {

	if p.Index != len(a.points) {
		return errors.Errorf("sample for step %d arrived out of order (expected step %d)",
			p.Index, len(a.points))
	}
	a.points = append(a.points, p)
	return nil
}

func (a *acquirer) finish() (*Curve, error) {

	if len(a.points) != a.expected {
		return nil, errors.Errorf("curve has %d samples, sweep declared %d steps",
			len(a.points), a.expected)
	}
	return &Curve{Points: a.points, DualChannel: a.dual}, nil
}
