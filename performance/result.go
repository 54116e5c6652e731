package performance

import "github.com/pkg/errors"

// Для данной кривой метрика не имеет определённого значения
// (например, не найдено пересечение нуля). Относится только к
// конкретной метрике и не отменяет остальной результат.
var ErrMetricUndefined = errors.New("metric undefined for this curve")

// Скалярная метрика свёртки по всей кривой.
type Metric struct {
	Value   float64
	Defined bool
}

func (m Metric) Get() (float64, error) {
	if !m.Defined {
		return 0, ErrMetricUndefined
	}
	return m.Value, nil
}

// Результат расчёта: таблица значений по точкам кривой плюс скалярные
// метрики по всей развёртке. После вычисления не изменяется.
type Result struct {
	// Имена столбцов таблицы по точкам.
	Columns []string

	// Одна строка на точку кривой, в порядке шагов развёртки.
	Rows [][]float64

	// Порядок скалярных метрик для вывода.
	SummaryOrder []string

	// Скалярные метрики по имени.
	Summary map[string]Metric
}

// Значение скалярной метрики. ErrMetricUndefined, если метрика
// не определена для данной кривой.
func (r *Result) Scalar(name string) (float64, error) {

	m, ok := r.Summary[name]
	if !ok {
		return 0, errors.Wrapf(ErrMetricUndefined, "no metric named \"%s\"", name)
	}
	value, err := m.Get()
	if err != nil {
		return 0, errors.Wrapf(err, "metric \"%s\"", name)
	}
	return value, nil
}

func (r *Result) addScalar(name string, m Metric) {
	if r.Summary == nil {
		r.Summary = make(map[string]Metric)
	}
	r.SummaryOrder = append(r.SummaryOrder, name)
	r.Summary[name] = m
}
