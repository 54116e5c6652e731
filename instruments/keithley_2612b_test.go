package instruments

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSMU(t *testing.T, bus *fakeBus) *Keithley2612B {
	t.Helper()
	smu := &Keithley2612B{}
	require.NoError(t, smu.Init(bus))
	return smu
}

func TestInitIdentifiesModel(t *testing.T) {
	bus := newFakeBus()
	smu := &Keithley2612B{}
	require.NoError(t, smu.Init(bus))
	assert.True(t, bus.sent("errorqueue.clear()"))

	bus = newFakeBus()
	bus.vars["localnode.model"] = "2400"
	err := smu.Init(bus)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConnection))
}

func TestChannelLookup(t *testing.T) {
	smu := newTestSMU(t, newFakeBus())

	for _, ch := range []Channel{ChannelA, ChannelB} {
		_, err := smu.Channel(ch)
		assert.NoError(t, err)
	}
	_, err := smu.Channel("c")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestSuitableRange(t *testing.T) {
	smu := newTestSMU(t, newFakeBus())

	tests := []struct {
		target  float64
		voltage bool
		want    float64
	}{
		{target: 10, voltage: true, want: 20},
		{target: 0.2, voltage: true, want: 0.2},
		{target: -1.5, voltage: true, want: 2},
		{target: 0.05, voltage: false, want: 0.1},
		{target: 1.2, voltage: false, want: 1.5},
		{target: 1e-8, voltage: false, want: 1e-7},
	}
	for _, tt := range tests {
		var got float64
		var err error
		if tt.voltage {
			got, err = smu.SuitableVoltageRange(tt.target)
		} else {
			got, err = smu.SuitableCurrentRange(tt.target)
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "target %g", tt.target)
	}

	_, err := smu.SuitableVoltageRange(250)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestLimitMustFitSelectedRange(t *testing.T) {
	bus := newFakeBus()
	smu := newTestSMU(t, bus)
	ch, err := smu.Channel(ChannelA)
	require.NoError(t, err)

	require.NoError(t, ch.SetVoltageRange(2))
	err = ch.SetVoltageLimit(5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfiguration))

	require.NoError(t, ch.SetVoltageLimit(1))
	assert.True(t, bus.sent("smua.source.limitv = 1"))
}

func TestConfigurationCommands(t *testing.T) {
	bus := newFakeBus()
	smu := newTestSMU(t, bus)
	ch, err := smu.Channel(ChannelB)
	require.NoError(t, err)

	require.NoError(t, ch.SetModeVoltageSource())
	require.NoError(t, ch.SetSense2Wire())
	require.NoError(t, ch.SetMeasurementSpeed(SpeedNormal))
	require.NoError(t, ch.DisplayCurrent())
	require.NoError(t, ch.EnableOutput())
	require.NoError(t, ch.DisableOutput())

	assert.True(t, bus.sent("smub.source.func = smub.OUTPUT_DCVOLTS"))
	assert.True(t, bus.sent("smub.sense = smub.SENSE_LOCAL"))
	assert.True(t, bus.sent("smub.measure.nplc = 1"))
	assert.True(t, bus.sent("display.smub.measure.func = display.MEASURE_DCAMPS"))
	assert.True(t, bus.sent("smub.source.output = smub.OUTPUT_ON"))
	assert.True(t, bus.sent("smub.source.output = smub.OUTPUT_OFF"))
}

func TestMeasureReadings(t *testing.T) {
	bus := newFakeBus()
	bus.responses["print(smua.measure.i())"] = "-1.2345e-05"
	bus.responses["i, v = smua.measure.iv() print(i, v)"] = "1.5e-03\t4.9987e-01"
	smu := newTestSMU(t, bus)
	ch, err := smu.Channel(ChannelA)
	require.NoError(t, err)

	current, err := ch.MeasureCurrent()
	require.NoError(t, err)
	assert.InDelta(t, -1.2345e-5, current, 1e-12)

	current, voltage, err := ch.MeasureCurrentAndVoltage()
	require.NoError(t, err)
	assert.InDelta(t, 1.5e-3, current, 1e-12)
	assert.InDelta(t, 0.49987, voltage, 1e-12)
}

func TestInComplianceParsing(t *testing.T) {
	bus := newFakeBus()
	smu := newTestSMU(t, bus)
	ch, err := smu.Channel(ChannelA)
	require.NoError(t, err)

	state, err := ch.InCompliance()
	require.NoError(t, err)
	assert.False(t, state)

	bus.vars["smua.source.compliance"] = "true"
	state, err = ch.InCompliance()
	require.NoError(t, err)
	assert.True(t, state)
}
