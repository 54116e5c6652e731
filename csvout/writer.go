// Запись кривой и результатов расчёта в CSV: строка заголовка, затем
// строка на каждую точку; сводные метрики дописываются парами
// имя/значение. Неопределённые метрики помечаются словом undefined.

package csvout

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/SDayneko/optoelectronics/performance"
	"github.com/SDayneko/optoelectronics/sweep"
)

var curveColumns = []string{"Voltage (V)", "Current (mA)", "Current_pd (mA)"}

type Writer struct {
	cw *csv.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{cw: csv.NewWriter(w)}
}

// Записать сырую кривую: смещение и токи каналов в миллиамперах.
func (w *Writer) WriteCurve(curve *sweep.Curve) error {

	columns := curveColumns
	if !curve.DualChannel {
		columns = curveColumns[:2]
	}
	err := w.cw.Write(columns)
	if err != nil {
		return errors.Wrap(err, "csv header write fail")
	}
	for _, pt := range curve.Points {
		row := []string{
			formatValue(pt.Bias),
			formatValue(pt.Current * 1000),
		}
		if curve.DualChannel {
			row = append(row, formatValue(pt.PhotoCurrent*1000))
		}
		err = w.cw.Write(row)
		if err != nil {
			return errors.Wrap(err, "csv row write fail")
		}
	}
	w.cw.Flush()
	return errors.Wrap(w.cw.Error(), "csv flush fail")
}

// Записать результат расчёта: таблица по точкам, затем сводные метрики.
func (w *Writer) WriteResult(res *performance.Result) error {

	err := w.cw.Write(res.Columns)
	if err != nil {
		return errors.Wrap(err, "csv header write fail")
	}
	for _, row := range res.Rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = formatValue(value)
		}
		err = w.cw.Write(record)
		if err != nil {
			return errors.Wrap(err, "csv row write fail")
		}
	}
	for _, name := range res.SummaryOrder {
		value := "undefined"
		metric := res.Summary[name]
		if metric.Defined {
			value = formatValue(metric.Value)
		}
		err = w.cw.Write([]string{name, value})
		if err != nil {
			return errors.Wrap(err, "csv summary write fail")
		}
	}
	w.cw.Flush()
	return errors.Wrap(w.cw.Error(), "csv flush fail")
}

func formatValue(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}
