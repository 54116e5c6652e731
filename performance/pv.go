// Метрики фотоэлемента: плотность тока, мощность падающего света и
// освещённость по фотодиоду, эффективность преобразования и сводные
// параметры кривой (Voc, Jsc, точка максимальной мощности, фактор
// заполнения).

package performance

import (
	"math"

	"github.com/SDayneko/optoelectronics/sweep"
)

var pvColumns = []string{
	"Voltage (V)",
	"Current (mA)",
	"Current_pd (mA)",
	"Current (mA/cm^2)",
	"light power (mW/cm^2)",
	"Illuminance (lux)",
}

func computePV(curve *sweep.Curve, p DeviceParameters) *Result {

	withPCE := p.IncidentPower > 0
	columns := pvColumns
	if withPCE {
		columns = append(append([]string{}, pvColumns...), "PCE (%)")
	}

	res := &Result{Columns: columns}
	res.Rows = make([][]float64, 0, curve.Len())

	n := curve.Len()
	biases := make([]float64, n)
	currents := make([]float64, n)
	densities := make([]float64, n) // мА/см²

	for i, pt := range curve.Points {
		jmAcm2 := pt.Current * 1000 / (p.DeviceArea * 1e4)
		lightPower := ((pt.PhotoCurrent * 1000) / (p.PhotodiodeArea * 1e4)) / p.IntSiSpec * p.IntSpec
		illuminance := LuminousEfficacy * ((pt.PhotoCurrent / p.PhotodiodeArea) / p.IntSiSpec) * p.EyeEl

		row := []float64{
			pt.Bias,
			pt.Current * 1000,
			pt.PhotoCurrent * 1000,
			jmAcm2,
			lightPower,
			illuminance,
		}
		if withPCE {
			row = append(row, pt.Bias*jmAcm2/p.IncidentPower*100)
		}
		res.Rows = append(res.Rows, row)

		biases[i] = pt.Bias
		currents[i] = pt.Current
		densities[i] = jmAcm2
	}

	// Сводные метрики считаются после построения всего ряда по точкам.
	voc, vocOK := crossingValue(currents, biases)
	jsc, jscOK := crossingValue(biases, densities)

	// Точка максимальной мощности: образец с наибольшим |V*I|,
	// без интерполяции между шагами.
	mpp := 0
	for i := range biases {
		if math.Abs(biases[i]*currents[i]) > math.Abs(biases[mpp]*currents[mpp]) {
			mpp = i
		}
	}
	vmp := biases[mpp]
	jmp := densities[mpp]

	res.addScalar("Voc (V)", Metric{Value: voc, Defined: vocOK})
	res.addScalar("Jsc (mA/cm^2)", Metric{Value: jsc, Defined: jscOK})
	res.addScalar("Vmp (V)", Metric{Value: vmp, Defined: true})
	res.addScalar("Jmp (mA/cm^2)", Metric{Value: jmp, Defined: true})

	ff := Metric{}
	if vocOK && jscOK && voc*jsc != 0 {
		ff = Metric{Value: (vmp * jmp) / (voc * jsc), Defined: true}
	}
	res.addScalar("FF", ff)

	pce := Metric{}
	if withPCE {
		pce = Metric{Value: math.Abs(vmp*jmp) / p.IncidentPower * 100, Defined: true}
	}
	res.addScalar("PCE_max (%)", pce)
	return res
}
