// Метрики светодиода: яркость, внешняя квантовая эффективность,
// токовая и мощностная эффективности. Ток фотодиода течёт в обратном
// направлении, поэтому входит в формулы с обратным знаком.

package performance

import (
	"math"

	"github.com/SDayneko/optoelectronics/sweep"
)

var ledColumns = []string{
	"Voltage (V)",
	"Current (mA)",
	"Current_pd (mA)",
	"Current (mA/cm^2)",
	"L (cd/m^2)",
	"EQE (%)",
	"LE (cd/A)",
	"PE (lm/W)",
}

func computeLED(curve *sweep.Curve, p DeviceParameters) *Result {

	// Перевод плотности фототока в яркость: излучение диафрагмы
	// пересчитывается через спектральные интегралы установки.
	alpha := LuminousEfficacy * p.EyeEl / (math.Pi * p.PinholeArea * p.Ksi)
	alphaEye := LuminousEfficacy * p.EyeEl

	res := &Result{Columns: ledColumns}
	res.Rows = make([][]float64, 0, curve.Len())

	var eqeMax, lMax Metric
	for _, pt := range curve.Points {
		jDev := CurrentDensity(pt.Current, p.DeviceArea)
		jPD := CurrentDensity(-pt.PhotoCurrent, p.PinholeArea)

		luminance := alpha * (-pt.PhotoCurrent)
		eqe := (elementaryCharge / planckTimesC) * (p.LambdaEQE / p.Ksi) * (jPD / jDev) * 100
		le := luminance / jDev
		pe := (alphaEye / p.Ksi) * (jPD / (jDev * pt.Bias))

		res.Rows = append(res.Rows, []float64{
			pt.Bias,
			pt.Current * 1000,
			-pt.PhotoCurrent * 1000,
			pt.Current * 1000 / (p.DeviceArea * 1e4),
			luminance,
			eqe,
			le,
			pe,
		})

		if !math.IsNaN(eqe) && !math.IsInf(eqe, 0) && (!eqeMax.Defined || eqe > eqeMax.Value) {
			eqeMax = Metric{Value: eqe, Defined: true}
		}
		if !math.IsNaN(luminance) && (!lMax.Defined || luminance > lMax.Value) {
			lMax = Metric{Value: luminance, Defined: true}
		}
	}

	res.addScalar("EQE_max (%)", eqeMax)
	res.addScalar("L_max (cd/m^2)", lMax)
	return res
}
