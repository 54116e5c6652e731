package csvout

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SDayneko/optoelectronics/performance"
	"github.com/SDayneko/optoelectronics/sweep"
)

func TestWriteCurveDualChannel(t *testing.T) {
	curve := &sweep.Curve{
		DualChannel: true,
		Points: []sweep.SamplePoint{
			{Index: 0, Bias: -2, Current: -1.5e-6, PhotoCurrent: -2e-9},
			{Index: 1, Bias: 5, Current: 2.5e-3, PhotoCurrent: -1e-6},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteCurve(curve))

	want := "Voltage (V),Current (mA),Current_pd (mA)\n" +
		"-2,-0.0015,-2e-06\n" +
		"5,2.5,-0.001\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCurveSingleChannel(t *testing.T) {
	curve := &sweep.Curve{
		Points: []sweep.SamplePoint{{Index: 0, Bias: 1, Current: 1e-3}},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteCurve(curve))

	want := "Voltage (V),Current (mA)\n1,1\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteResultWithSummary(t *testing.T) {
	res := &performance.Result{
		Columns: []string{"Voltage (V)", "Current (mA)"},
		Rows: [][]float64{
			{0.5, 1},
			{1, 2},
		},
		SummaryOrder: []string{"Voc (V)", "FF"},
		Summary: map[string]performance.Metric{
			"Voc (V)": {Value: 0.62, Defined: true},
			"FF":      {},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, NewWriter(&buf).WriteResult(res))

	want := "Voltage (V),Current (mA)\n" +
		"0.5,1\n" +
		"1,2\n" +
		"Voc (V),0.62\n" +
		"FF,undefined\n"
	assert.Equal(t, want, buf.String())
}
