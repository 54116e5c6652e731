// Сессия измерения: монопольное владение соединением с источником-измерителем
// на время одного прогона. Открывается в начале прогона и освобождается на
// любом пути выхода, включая аварийное завершение.

package instruments

import (
	"github.com/jpoirier/visa"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Session struct {
	rm      *visa.Session
	wrapper *VisaObjectWrapper
	smu     *Keithley2612B
	applied map[Channel]ChannelConfig
	closed  bool
}

// Открыть сессию по адресу VISA-ресурса. Завершается с ErrConnection,
// если ресурс недоступен или прибор не опознан как Keithley 2612B.
func Open(address string) (*Session, error) {

	rm, err := GetResourceManager()
	if err != nil {
		return nil, err
	}
	wrapper := &VisaObjectWrapper{ResourceName: address, ResourceManager: &rm}
	err = wrapper.Init()
	if err != nil {
		rm.Close()
		return nil, err
	}

	session, err := NewSession(wrapper)
	if err != nil {
		wrapper.Close()
		rm.Close()
		return nil, err
	}
	session.rm = &rm
	session.wrapper = wrapper
	logrus.Infof("connected to %s (%s)", address, wrapper.GetInfo()["Model"])
	return session, nil
}

// Создать сессию поверх готового транспорта. Используется Open и тестами
// с фальшивой шиной.
func NewSession(instr Transport) (*Session, error) {

	smu := &Keithley2612B{}
	err := smu.Init(instr)
	if err != nil {
		return nil, err
	}
	return &Session{
		smu:     smu,
		applied: make(map[Channel]ChannelConfig, 2),
	}, nil
}

// Применить конфигурацию канала. Последовательность повторяет штатную
// настройку перед развёрткой: сброс, функция источника, диапазоны, предел
// ограничения, нулевой уровень, дисплей, схема подключения, апертура АЦП.
func (s *Session) Apply(cfg ChannelConfig) error {

	err := cfg.Validate()
	if err != nil {
		return err
	}
	ch, err := s.smu.Channel(cfg.Channel)
	if err != nil {
		return err
	}

	err = ch.Reset()
	if err != nil {
		return errors.Wrapf(err, "channel %s configuration fail", cfg.Channel)
	}

	switch cfg.Mode {
	case SourceVoltage:
		err = s.applyVoltageSource(ch, cfg)
	case SourceCurrent:
		err = s.applyCurrentSource(ch, cfg)
	}
	if err != nil {
		return errors.Wrapf(err, "channel %s configuration fail", cfg.Channel)
	}

	if cfg.Sense4Wire {
		err = ch.SetSense4Wire()
	} else {
		err = ch.SetSense2Wire()
	}
	if err != nil {
		return errors.Wrapf(err, "channel %s configuration fail", cfg.Channel)
	}
	err = ch.SetMeasurementSpeed(cfg.NPLC)
	if err != nil {
		return errors.Wrapf(err, "channel %s configuration fail", cfg.Channel)
	}

	s.applied[cfg.Channel] = cfg
	logrus.Debugf("channel %s configured: %s source, range %s, limit %s, NPLC %s",
		cfg.Channel, cfg.Mode, formatNum(cfg.SourceRange),
		formatNum(cfg.ComplianceLimit), formatNum(cfg.NPLC))
	return nil
}

func (s *Session) applyVoltageSource(ch *SMUChannel, cfg ChannelConfig) error {

	err := ch.SetModeVoltageSource()
	if err != nil {
		return err
	}
	err = ch.SetVoltageRange(cfg.SourceRange)
	if err != nil {
		return err
	}
	err = ch.SetVoltage(0)
	if err != nil {
		return err
	}
	if cfg.MeasureRange > 0 {
		err = ch.SetCurrentRange(cfg.MeasureRange)
	} else {
		err = ch.SetCurrentAutorange(true)
	}
	if err != nil {
		return err
	}
	err = ch.SetCurrentLimit(cfg.ComplianceLimit)
	if err != nil {
		return err
	}
	return ch.DisplayCurrent()
}

func (s *Session) applyCurrentSource(ch *SMUChannel, cfg ChannelConfig) error {

	err := ch.SetModeCurrentSource()
	if err != nil {
		return err
	}
	err = ch.SetCurrentRange(cfg.SourceRange)
	if err != nil {
		return err
	}
	err = ch.SetCurrent(0)
	if err != nil {
		return err
	}
	if cfg.MeasureRange > 0 {
		err = ch.SetVoltageRange(cfg.MeasureRange)
	} else {
		err = ch.SetVoltageAutorange(true)
	}
	if err != nil {
		return err
	}
	err = ch.SetVoltageLimit(cfg.ComplianceLimit)
	if err != nil {
		return err
	}
	return ch.DisplayVoltage()
}

// Применена ли конфигурация канала в этой сессии.
func (s *Session) Configured(channel Channel) bool {
	_, ok := s.applied[channel]
	return ok
}

func (s *Session) configuredChannel(channel Channel) (*SMUChannel, ChannelConfig, error) {

	cfg, ok := s.applied[channel]
	if !ok {
		return nil, cfg, errors.Wrapf(ErrConfiguration,
			"channel %s is not configured in this session", channel)
	}
	ch, err := s.smu.Channel(channel)
	if err != nil {
		return nil, cfg, err
	}
	return ch, cfg, nil
}

// Включить выход канала.
func (s *Session) EnableOutput(channel Channel) error {

	ch, _, err := s.configuredChannel(channel)
	if err != nil {
		return err
	}
	return ch.EnableOutput()
}

// Выключить выходы всех сконфигурированных каналов.
// Первая ошибка возвращается, остальные выходы всё равно гасятся.
func (s *Session) DisableOutputs() error {

	var firstErr error
	for channel := range s.applied {
		ch, err := s.smu.Channel(channel)
		if err != nil {
			continue
		}
		err = ch.DisableOutput()
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Установить уровень смещения на канале в соответствии с функцией источника.
func (s *Session) SetBias(channel Channel, value float64) error {

	ch, cfg, err := s.configuredChannel(channel)
	if err != nil {
		return err
	}
	if cfg.Mode == SourceCurrent {
		return ch.SetCurrent(value)
	}
	return ch.SetVoltage(value)
}

// Считать ток канала. Если канал находится в состоянии ограничения,
// возвращается ErrCompliance: измеренное значение является клампом
// и не должно приниматься за реальный отклик устройства.
func (s *Session) ReadCurrent(channel Channel) (float64, error) {

	ch, _, err := s.configuredChannel(channel)
	if err != nil {
		return 0, err
	}
	current, err := ch.MeasureCurrent()
	if err != nil {
		return 0, err
	}
	inCompliance, err := ch.InCompliance()
	if err != nil {
		return 0, err
	}
	if inCompliance {
		return current, errors.Wrapf(ErrCompliance,
			"channel %s hit its compliance limit (clamped reading %s A)",
			channel, formatNum(current))
	}
	return current, nil
}

// Считать установленный предел ограничения дополнительной величины.
// Обратное чтение подтверждает, что конфигурация применена прибором.
func (s *Session) ComplianceLimit(channel Channel) (float64, error) {

	ch, cfg, err := s.configuredChannel(channel)
	if err != nil {
		return 0, err
	}
	if cfg.Mode == SourceCurrent {
		return ch.VoltageLimit()
	}
	return ch.CurrentLimit()
}

// Поднять диапазон тока и предел ограничения канала во время развёртки.
// Используется при росте измеряемого тока вблизи границы диапазона.
func (s *Session) EscalateCurrentRange(channel Channel, rng float64) error {

	ch, _, err := s.configuredChannel(channel)
	if err != nil {
		return err
	}
	err = ch.SetCurrentRange(rng)
	if err != nil {
		return err
	}
	return ch.SetCurrentLimit(rng)
}

// Закрыть сессию: погасить выходы и освободить шину.
// Повторный вызов безопасен.
func (s *Session) Close() error {

	if s.closed {
		return nil
	}
	s.closed = true

	// best effort: never leave the outputs on
	s.DisableOutputs()

	var firstErr error
	if s.wrapper != nil {
		firstErr = s.wrapper.Close()
	}
	if s.rm != nil {
		s.rm.Close()
	}
	return firstErr
}
