// Управление двухканальным источником-измерителем Keithley 2612B.
// Прибор серии 2600B программируется командами TSP (Lua):
// https://download.tek.com/manual/2600BS-901-01_C_Aug_2016_Ref_2.pdf

package instruments

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Идентификатор канала источника-измерителя.
type Channel string

const (
	ChannelA Channel = "a"
	ChannelB Channel = "b"
)

// Скорость измерения: апертура АЦП в периодах питающей сети (NPLC).
const (
	SpeedFast       = 0.01
	SpeedMed        = 0.1
	SpeedNormal     = 1
	SpeedHiAccuracy = 10
)

const errorQueue2600B = "errorcode, message = errorqueue.next() print(errorcode, message)"

type Keithley2612B struct {
	instr         Transport
	voltageRanges []float64
	currentRanges []float64
	channelB      bool
}

// Инициализация источника-измерителя: очистка очереди ошибок,
// идентификация модели и установка допустимых диапазонов.
func (smu *Keithley2612B) Init(instr Transport) error {

	smu.instr = instr
	if vw, ok := instr.(*VisaObjectWrapper); ok {
		vw.SetErrorQuery(errorQueue2600B)
	}
	err := smu.instr.WriteWithoutCheck("errorqueue.clear()")
	if err != nil {
		return err
	}
	model, err := smu.instr.Query("print(localnode.model)")
	if err != nil {
		return errors.Wrap(ErrConnection, err.Error())
	}
	if !strings.Contains(model, "2612B") {
		return errors.Wrapf(ErrConnection, "device identifies as \"%s\", not a 2612B", model)
	}
	smu.voltageRanges = []float64{0.2, 2, 20, 200}
	smu.currentRanges = []float64{1e-7, 1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 1e-1, 1, 1.5}
	smu.channelB = true
	return nil
}

// Получить объект для управления отдельным каналом прибора.
func (smu *Keithley2612B) Channel(ch Channel) (*SMUChannel, error) {

	if ch != ChannelA && ch != ChannelB {
		return nil, errors.Wrapf(ErrConfiguration, "unknown channel \"%s\"", ch)
	}
	if ch == ChannelB && !smu.channelB {
		return nil, errors.Wrap(ErrConfiguration, "no channel B on this model")
	}
	return &SMUChannel{smu: smu, ch: ch}, nil
}

// Подобрать ближайший допустимый диапазон напряжения.
func (smu *Keithley2612B) SuitableVoltageRange(targetVoltage float64) (float64, error) {
	return suitableRange(smu.voltageRanges, targetVoltage)
}

// Подобрать ближайший допустимый диапазон тока.
func (smu *Keithley2612B) SuitableCurrentRange(targetCurrent float64) (float64, error) {
	return suitableRange(smu.currentRanges, targetCurrent)
}

// Диапазоны отсортированы по возрастанию: берём наименьший, покрывающий цель.
func suitableRange(rangesArray []float64, target float64) (float64, error) {

	targetAbsValue := math.Abs(target)
	for _, rng := range rangesArray {
		if targetAbsValue <= rng {
			return rng, nil
		}
	}
	return 0, errors.Wrapf(ErrConfiguration,
		"no suitable range found for %s (maximum %s)",
		formatNum(target), formatNum(rangesArray[len(rangesArray)-1]))
}

// Отдельный канал источника-измерителя. Выбранные диапазоны запоминаются,
// чтобы проверять пределы ограничения до отправки команды в прибор.
type SMUChannel struct {
	smu          *Keithley2612B
	ch           Channel
	voltageRange float64
	currentRange float64
}

func (c *SMUChannel) node() string {
	return "smu" + string(c.ch)
}

// Сброс канала к настройкам по умолчанию.
func (c *SMUChannel) Reset() error {
	return c.smu.instr.Write(c.node() + ".reset()")
}

// Режим источника напряжения: задаётся напряжение, измеряется ток.
func (c *SMUChannel) SetModeVoltageSource() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.func = %s.OUTPUT_DCVOLTS", c.node(), c.node()))
}

// Режим источника тока: задаётся ток, измеряется напряжение.
func (c *SMUChannel) SetModeCurrentSource() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.func = %s.OUTPUT_DCAMPS", c.node(), c.node()))
}

// Установить диапазон напряжения для источника и измерителя.
// Значение округляется вверх до ближайшего допустимого диапазона.
func (c *SMUChannel) SetVoltageRange(value float64) error {

	rng, err := c.smu.SuitableVoltageRange(value)
	if err != nil {
		return err
	}
	err = c.smu.instr.Write(fmt.Sprintf("%s.source.rangev = %s", c.node(), formatNum(rng)))
	if err != nil {
		return err
	}
	err = c.smu.instr.Write(fmt.Sprintf("%s.measure.rangev = %s", c.node(), formatNum(rng)))
	if err != nil {
		return err
	}
	c.voltageRange = rng
	return nil
}

// Установить диапазон тока для источника и измерителя.
func (c *SMUChannel) SetCurrentRange(value float64) error {

	rng, err := c.smu.SuitableCurrentRange(value)
	if err != nil {
		return err
	}
	err = c.smu.instr.Write(fmt.Sprintf("%s.source.rangei = %s", c.node(), formatNum(rng)))
	if err != nil {
		return err
	}
	err = c.smu.instr.Write(fmt.Sprintf("%s.measure.rangei = %s", c.node(), formatNum(rng)))
	if err != nil {
		return err
	}
	c.currentRange = rng
	return nil
}

// Включить/выключить автодиапазон по току (источник и измеритель).
func (c *SMUChannel) SetCurrentAutorange(enable bool) error {

	state := "OFF"
	if enable {
		state = "ON"
	}
	err := c.smu.instr.Write(fmt.Sprintf("%s.source.autorangei = %s.AUTORANGE_%s", c.node(), c.node(), state))
	if err != nil {
		return err
	}
	return c.smu.instr.Write(fmt.Sprintf("%s.measure.autorangei = %s.AUTORANGE_%s", c.node(), c.node(), state))
}

// Включить/выключить автодиапазон по напряжению (источник и измеритель).
func (c *SMUChannel) SetVoltageAutorange(enable bool) error {

	state := "OFF"
	if enable {
		state = "ON"
	}
	err := c.smu.instr.Write(fmt.Sprintf("%s.source.autorangev = %s.AUTORANGE_%s", c.node(), c.node(), state))
	if err != nil {
		return err
	}
	return c.smu.instr.Write(fmt.Sprintf("%s.measure.autorangev = %s.AUTORANGE_%s", c.node(), c.node(), state))
}

// Установить предел ограничения по напряжению для источника тока.
// Предел должен лежать внутри выбранного диапазона напряжения.
func (c *SMUChannel) SetVoltageLimit(value float64) error {

	if value <= 0 {
		return errors.Wrapf(ErrConfiguration, "voltage limit %s must be positive", formatNum(value))
	}
	if c.voltageRange != 0 && value > c.voltageRange {
		return errors.Wrapf(ErrConfiguration,
			"voltage limit %s is not within the selected range %s, set the range first",
			formatNum(value), formatNum(c.voltageRange))
	}
	return c.smu.instr.Write(fmt.Sprintf("%s.source.limitv = %s", c.node(), formatNum(value)))
}

// Установить предел ограничения по току для источника напряжения.
// Предел должен лежать внутри выбранного диапазона тока.
func (c *SMUChannel) SetCurrentLimit(value float64) error {

	if value <= 0 {
		return errors.Wrapf(ErrConfiguration, "current limit %s must be positive", formatNum(value))
	}
	if c.currentRange != 0 && value > c.currentRange {
		return errors.Wrapf(ErrConfiguration,
			"current limit %s is not within the selected range %s, set the range first",
			formatNum(value), formatNum(c.currentRange))
	}
	return c.smu.instr.Write(fmt.Sprintf("%s.source.limiti = %s", c.node(), formatNum(value)))
}

// Считать установленный предел ограничения по току.
func (c *SMUChannel) CurrentLimit() (float64, error) {

	response, err := c.smu.instr.Query(fmt.Sprintf("print(%s.source.limiti)", c.node()))
	if err != nil {
		return 0, errors.Wrap(err, "current limit read back fail")
	}
	return parseReading(response)
}

// Считать установленный предел ограничения по напряжению.
func (c *SMUChannel) VoltageLimit() (float64, error) {

	response, err := c.smu.instr.Query(fmt.Sprintf("print(%s.source.limitv)", c.node()))
	if err != nil {
		return 0, errors.Wrap(err, "voltage limit read back fail")
	}
	return parseReading(response)
}

// Установить уровень источника напряжения.
func (c *SMUChannel) SetVoltage(value float64) error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.levelv = %s", c.node(), formatNum(value)))
}

// Установить уровень источника тока.
func (c *SMUChannel) SetCurrent(value float64) error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.leveli = %s", c.node(), formatNum(value)))
}

// Включить выход канала.
func (c *SMUChannel) EnableOutput() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.output = %s.OUTPUT_ON", c.node(), c.node()))
}

// Выключить выход канала.
func (c *SMUChannel) DisableOutput() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.source.output = %s.OUTPUT_OFF", c.node(), c.node()))
}

// Двухпроводная схема подключения.
func (c *SMUChannel) SetSense2Wire() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.sense = %s.SENSE_LOCAL", c.node(), c.node()))
}

// Четырёхпроводная схема подключения.
func (c *SMUChannel) SetSense4Wire() error {
	return c.smu.instr.Write(fmt.Sprintf("%s.sense = %s.SENSE_REMOTE", c.node(), c.node()))
}

// Установить апертуру АЦП в периодах питающей сети.
func (c *SMUChannel) SetMeasurementSpeed(nplc float64) error {

	if nplc <= 0 {
		return errors.Wrapf(ErrConfiguration, "NPLC %s must be positive", formatNum(nplc))
	}
	return c.smu.instr.Write(fmt.Sprintf("%s.measure.nplc = %s", c.node(), formatNum(nplc)))
}

// Вывести измеряемый ток на дисплей прибора.
func (c *SMUChannel) DisplayCurrent() error {
	return c.smu.instr.Write(fmt.Sprintf("display.%s.measure.func = display.MEASURE_DCAMPS", c.node()))
}

// Вывести измеряемое напряжение на дисплей прибора.
func (c *SMUChannel) DisplayVoltage() error {
	return c.smu.instr.Write(fmt.Sprintf("display.%s.measure.func = display.MEASURE_DCVOLTS", c.node()))
}

// Запустить измерение тока и считать одно значение (амперы).
func (c *SMUChannel) MeasureCurrent() (float64, error) {

	response, err := c.smu.instr.Query(fmt.Sprintf("print(%s.measure.i())", c.node()))
	if err != nil {
		return 0, errors.Wrap(err, "current read fail")
	}
	return parseReading(response)
}

// Запустить измерение напряжения и считать одно значение (вольты).
func (c *SMUChannel) MeasureVoltage() (float64, error) {

	response, err := c.smu.instr.Query(fmt.Sprintf("print(%s.measure.v())", c.node()))
	if err != nil {
		return 0, errors.Wrap(err, "voltage read fail")
	}
	return parseReading(response)
}

// Одновременное измерение тока и напряжения одним запуском АЦП.
func (c *SMUChannel) MeasureCurrentAndVoltage() (current float64, voltage float64, err error) {

	cmd := fmt.Sprintf("i, v = %s.measure.iv() print(i, v)", c.node())
	response, err := c.smu.instr.Query(cmd)
	if err != nil {
		return 0, 0, errors.Wrap(err, "simultaneous i/v read fail")
	}
	values, err := parseReadings(response, 2)
	if err != nil {
		return 0, 0, err
	}
	return values[0], values[1], nil
}

// Находится ли канал в состоянии ограничения. В этом состоянии измеренное
// значение является клампом и не отражает реальный отклик устройства.
func (c *SMUChannel) InCompliance() (bool, error) {

	response, err := c.smu.instr.Query(fmt.Sprintf("print(%s.source.compliance)", c.node()))
	if err != nil {
		return false, errors.Wrap(err, "compliance state read fail")
	}
	return strings.TrimSpace(response) == "true", nil
}

func formatNum(value float64) string {
	return strconv.FormatFloat(value, 'g', -1, 64)
}

func parseReading(response string) (float64, error) {

	value, err := strconv.ParseFloat(strings.TrimSpace(response), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "conversion of reading \"%s\" failed", response)
	}
	return value, nil
}

// Ответ TSP на print с несколькими значениями разделён табуляцией.
func parseReadings(response string, count int) ([]float64, error) {

	parts := strings.Split(strings.TrimSpace(response), "\t")
	if len(parts) != count {
		return nil, errors.Errorf("expected %d readings, got \"%s\"", count, response)
	}
	values := make([]float64, count)
	for i, part := range parts {
		value, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "conversion of reading \"%s\" failed", part)
		}
		values[i] = value
	}
	return values, nil
}
