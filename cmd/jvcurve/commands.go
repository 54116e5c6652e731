package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SDayneko/optoelectronics/csvout"
	"github.com/SDayneko/optoelectronics/instruments"
	"github.com/SDayneko/optoelectronics/performance"
	"github.com/SDayneko/optoelectronics/sweep"
)

func setDefaults() {
	viper.SetDefault("address", "USB0::0x05E6::0x2612::4439973::INSTR")

	viper.SetDefault("sweep.start", -2.0)
	viper.SetDefault("sweep.stop", 5.0)
	viper.SetDefault("sweep.step", 0.1)
	viper.SetDefault("sweep.settle_ms", 10)
	viper.SetDefault("sweep.direction", string(sweep.Forward))

	viper.SetDefault("channel_a.source_range", 10.0)
	viper.SetDefault("channel_a.compliance", 0.1)
	viper.SetDefault("channel_a.nplc", instruments.SpeedNormal)
	viper.SetDefault("channel_b.source_range", 0.2)
	viper.SetDefault("channel_b.compliance", 0.1)
	viper.SetDefault("channel_b.nplc", instruments.SpeedNormal)

	viper.SetDefault("device.area", 4e-6)
	viper.SetDefault("device.pinhole_area", 4e-6)
	viper.SetDefault("device.photodiode_area", 1e-4)
	viper.SetDefault("device.ksi", 14.64958)
	viper.SetDefault("device.eye_el", 13.04835)
	viper.SetDefault("device.lambda_eqe", 2.54197e-5)
	viper.SetDefault("device.int_si_spec", 1.0)
	viper.SetDefault("device.int_spec", 1.0)
	viper.SetDefault("device.incident_power", 100.0)

	viper.SetDefault("output.prefix", "test")
	viper.SetDefault("output.scan", 1)
}

// Ступени подъёма диапазона тока канала A при росте измеряемого тока,
// как в штатной методике измерения.
var rangeSteps = []sweep.RangeStep{
	{Threshold: 0.09, Range: 0.2},
	{Threshold: 0.19, Range: 0.4},
	{Threshold: 0.29, Range: 0.7},
	{Threshold: 0.69, Range: 1.5},
}

func NewJVCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "jv",
		Short: "Measure a raw J-V curve (no derived metrics)",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMeasurement("")
		},
	}
}

func NewLEDCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "led",
		Short: "Measure an LED and derive luminance, EQE, LE and PE",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMeasurement(performance.ClassLED)
		},
	}
}

func NewPVCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pv",
		Short: "Measure a photovoltaic cell and derive Voc, Jsc, FF and PCE",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runMeasurement(performance.ClassPV)
		},
	}
}

func sweepSpec() sweep.Spec {
	start := viper.GetFloat64("sweep.start")
	stop := viper.GetFloat64("sweep.stop")
	step := viper.GetFloat64("sweep.step")
	points := 2
	if step != 0 {
		points = int((stop-start)/step) + 1
	}
	return sweep.Spec{
		Start:             start,
		Stop:              stop,
		Points:            points,
		SettleDelay:       time.Duration(viper.GetInt("sweep.settle_ms")) * time.Millisecond,
		Direction:         sweep.Direction(viper.GetString("sweep.direction")),
		SweepChannel:      instruments.ChannelA,
		PhotodiodeChannel: instruments.ChannelB,
	}
}

func deviceParameters(class performance.DeviceClass) performance.DeviceParameters {
	return performance.DeviceParameters{
		Class:          class,
		DeviceArea:     viper.GetFloat64("device.area"),
		PinholeArea:    viper.GetFloat64("device.pinhole_area"),
		PhotodiodeArea: viper.GetFloat64("device.photodiode_area"),
		Ksi:            viper.GetFloat64("device.ksi"),
		EyeEl:          viper.GetFloat64("device.eye_el"),
		LambdaEQE:      viper.GetFloat64("device.lambda_eqe"),
		IntSiSpec:      viper.GetFloat64("device.int_si_spec"),
		IntSpec:        viper.GetFloat64("device.int_spec"),
		IncidentPower:  viper.GetFloat64("device.incident_power"),
	}
}

func channelConfigs() []instruments.ChannelConfig {
	return []instruments.ChannelConfig{
		{
			Channel:         instruments.ChannelA,
			Mode:            instruments.SourceVoltage,
			SourceRange:     viper.GetFloat64("channel_a.source_range"),
			ComplianceLimit: viper.GetFloat64("channel_a.compliance"),
			NPLC:            viper.GetFloat64("channel_a.nplc"),
		},
		{
			Channel:         instruments.ChannelB,
			Mode:            instruments.SourceVoltage,
			SourceRange:     viper.GetFloat64("channel_b.source_range"),
			ComplianceLimit: viper.GetFloat64("channel_b.compliance"),
			NPLC:            viper.GetFloat64("channel_b.nplc"),
		},
	}
}

func outputFilename() string {
	return fmt.Sprintf("%s-%s-scan%d.csv",
		viper.GetString("output.prefix"),
		time.Now().Format("2006_01_02"),
		viper.GetInt("output.scan"))
}

// Полный прогон: сессия, конфигурация, развёртка, расчёт, запись CSV.
// Файл создаётся только после успешного завершения всех стадий.
func runMeasurement(class performance.DeviceClass) error {

	session, err := instruments.Open(viper.GetString("address"))
	if err != nil {
		return err
	}
	defer session.Close()

	ctrl := sweep.NewController(session)
	ctrl.SetRangeSteps(rangeSteps)
	err = ctrl.Configure(channelConfigs()...)
	if err != nil {
		return err
	}

	curve, err := ctrl.Run(sweepSpec())
	if err != nil {
		return err
	}

	var result *performance.Result
	if class != "" {
		result, err = performance.Compute(curve, deviceParameters(class))
		if err != nil {
			return err
		}
	}

	filename := outputFilename()
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", filename, err)
	}
	defer file.Close()

	writer := csvout.NewWriter(file)
	if result != nil {
		err = writer.WriteResult(result)
	} else {
		err = writer.WriteCurve(curve)
	}
	if err != nil {
		return err
	}
	logrus.Infof("results written to %s", filename)
	return nil
}
