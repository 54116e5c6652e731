package performance

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SDayneko/optoelectronics/sweep"
)

func pvParams() DeviceParameters {
	return DeviceParameters{
		Class:          ClassPV,
		DeviceArea:     5e-6,
		PhotodiodeArea: 1e-4,
		IntSiSpec:      1,
		IntSpec:        1,
		EyeEl:          1,
		IncidentPower:  100,
	}
}

func pvCurve(biases, currents []float64) *sweep.Curve {
	points := make([]sweep.SamplePoint, len(biases))
	for i := range biases {
		points[i] = sweep.SamplePoint{
			Index:        i,
			Bias:         biases[i],
			Current:      currents[i],
			PhotoCurrent: 1e-5,
		}
	}
	return &sweep.Curve{Points: points, DualChannel: true}
}

func TestCurrentDensityLinearity(t *testing.T) {
	assert.InDelta(t, 200, CurrentDensity(1e-3, 5e-6), 1e-9)
	// doubling the active area halves the density for a fixed current
	assert.InDelta(t, 100, CurrentDensity(1e-3, 1e-5), 1e-9)
	// sign preserving
	assert.InDelta(t, -200, CurrentDensity(-1e-3, 5e-6), 1e-9)
}

func TestExactZeroCrossing(t *testing.T) {
	curve := pvCurve(
		[]float64{-0.2, -0.1, 0.0, 0.1, 0.2},
		[]float64{-1e-3, -0.5e-3, 0.0, 0.5e-3, 1e-3},
	)
	res, err := Compute(curve, pvParams())
	require.NoError(t, err)

	voc, err := res.Scalar("Voc (V)")
	require.NoError(t, err)
	assert.Equal(t, 0.0, voc)

	jsc, err := res.Scalar("Jsc (mA/cm^2)")
	require.NoError(t, err)
	assert.Equal(t, 0.0, jsc)
}

func TestInterpolatedCrossing(t *testing.T) {
	// current crosses zero between 0.6 V and 0.8 V
	curve := pvCurve(
		[]float64{0.0, 0.2, 0.4, 0.6, 0.8},
		[]float64{-1e-3, -0.95e-3, -0.85e-3, -0.6e-3, 0.1e-3},
	)
	res, err := Compute(curve, pvParams())
	require.NoError(t, err)

	voc, err := res.Scalar("Voc (V)")
	require.NoError(t, err)
	assert.InDelta(t, 0.6+0.2*(0.6/0.7), voc, 1e-9)

	jsc, err := res.Scalar("Jsc (mA/cm^2)")
	require.NoError(t, err)
	assert.InDelta(t, -1e-3*1000/(5e-6*1e4), jsc, 1e-9)
}

func TestNoSignChangeReportsUndefined(t *testing.T) {
	// all currents positive, all biases positive: no crossing anywhere
	curve := pvCurve(
		[]float64{0.1, 0.2, 0.3, 0.4},
		[]float64{1e-3, 2e-3, 3e-3, 4e-3},
	)
	res, err := Compute(curve, pvParams())
	require.NoError(t, err)

	_, err = res.Scalar("Voc (V)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetricUndefined))

	_, err = res.Scalar("Jsc (mA/cm^2)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetricUndefined))

	_, err = res.Scalar("FF")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetricUndefined))

	// per-point rows are still produced alongside the undefined scalars
	assert.Len(t, res.Rows, 4)
}

func TestMaxPowerPointAndFillFactor(t *testing.T) {
	// single interior |V*I| maximum at 0.6 V
	curve := pvCurve(
		[]float64{0.0, 0.2, 0.4, 0.6, 0.8},
		[]float64{-1e-3, -0.95e-3, -0.85e-3, -0.6e-3, 0.1e-3},
	)
	res, err := Compute(curve, pvParams())
	require.NoError(t, err)

	vmp, err := res.Scalar("Vmp (V)")
	require.NoError(t, err)
	assert.Equal(t, 0.6, vmp)

	jmp, err := res.Scalar("Jmp (mA/cm^2)")
	require.NoError(t, err)
	assert.InDelta(t, -0.6e-3*1000/(5e-6*1e4), jmp, 1e-9)

	voc, err := res.Scalar("Voc (V)")
	require.NoError(t, err)
	jsc, err := res.Scalar("Jsc (mA/cm^2)")
	require.NoError(t, err)
	ff, err := res.Scalar("FF")
	require.NoError(t, err)
	assert.InEpsilon(t, (vmp*jmp)/(voc*jsc), ff, 1e-9)
}

func TestPerPointColumns(t *testing.T) {
	p := pvParams()
	curve := pvCurve([]float64{0.5, 1.0}, []float64{1e-3, 2e-3})
	res, err := Compute(curve, p)
	require.NoError(t, err)

	require.Equal(t, []string{
		"Voltage (V)", "Current (mA)", "Current_pd (mA)", "Current (mA/cm^2)",
		"light power (mW/cm^2)", "Illuminance (lux)", "PCE (%)",
	}, res.Columns)

	row := res.Rows[0]
	assert.InDelta(t, 0.5, row[0], 1e-12)
	assert.InDelta(t, 1, row[1], 1e-12)       // 1e-3 A in mA
	assert.InDelta(t, 0.01, row[2], 1e-12)    // photodiode 1e-5 A in mA
	assert.InDelta(t, 20, row[3], 1e-9)       // 1 mA over 0.05 cm^2
	assert.InDelta(t, 0.01, row[4], 1e-12)    // (1e-5*1000)/(1e-4*1e4)/1*1
	assert.InDelta(t, 68.3, row[5], 1e-9)     // 683*(1e-5/1e-4)*1
	assert.InDelta(t, 10, row[6], 1e-9)       // 0.5*20/100*100
}

func TestPCEOmittedWithoutIncidentPower(t *testing.T) {
	p := pvParams()
	p.IncidentPower = 0
	curve := pvCurve([]float64{0.5, 1.0}, []float64{1e-3, 2e-3})
	res, err := Compute(curve, p)
	require.NoError(t, err)

	assert.NotContains(t, res.Columns, "PCE (%)")
	_, err = res.Scalar("PCE_max (%)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMetricUndefined))
}

func TestComputeRejectsBadInput(t *testing.T) {
	_, err := Compute(nil, pvParams())
	require.Error(t, err)

	single := pvCurve([]float64{0.5}, []float64{1e-3})
	single.DualChannel = false
	_, err = Compute(single, pvParams())
	require.Error(t, err)

	bad := pvParams()
	bad.DeviceArea = 0
	_, err = Compute(pvCurve([]float64{0.5}, []float64{1e-3}), bad)
	require.Error(t, err)
}
