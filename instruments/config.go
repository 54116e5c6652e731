package instruments

import "github.com/pkg/errors"

// Функция источника канала.
type SourceMode string

const (
	// Источник напряжения: задаётся напряжение, измеряется ток.
	SourceVoltage SourceMode = "voltage"
	// Источник тока: задаётся ток, измеряется напряжение.
	SourceCurrent SourceMode = "current"
)

// Описание состояния канала, применяемое перед развёрткой.
// Создаётся один раз на измерение и после применения не меняется.
type ChannelConfig struct {
	Channel Channel
	Mode    SourceMode

	// Диапазон источника: вольты для источника напряжения,
	// амперы для источника тока.
	SourceRange float64

	// Диапазон измерителя для дополнительной величины.
	// Ноль включает автодиапазон.
	MeasureRange float64

	// Предел ограничения для дополнительной величины: амперы для
	// источника напряжения, вольты для источника тока.
	ComplianceLimit float64

	// Апертура АЦП в периодах питающей сети.
	NPLC float64

	// Четырёхпроводная схема подключения вместо двухпроводной.
	Sense4Wire bool
}

// Проверка параметров конфигурации. Выполняется до любого обращения
// к прибору.
func (cfg ChannelConfig) Validate() error {

	if cfg.Channel != ChannelA && cfg.Channel != ChannelB {
		return errors.Wrapf(ErrConfiguration, "unknown channel \"%s\"", cfg.Channel)
	}
	if cfg.Mode != SourceVoltage && cfg.Mode != SourceCurrent {
		return errors.Wrapf(ErrConfiguration, "unknown source mode \"%s\"", cfg.Mode)
	}
	if cfg.SourceRange <= 0 {
		return errors.Wrapf(ErrConfiguration,
			"source range %s must be positive", formatNum(cfg.SourceRange))
	}
	if cfg.MeasureRange < 0 {
		return errors.Wrapf(ErrConfiguration,
			"measure range %s must be positive or zero for autorange", formatNum(cfg.MeasureRange))
	}
	if cfg.ComplianceLimit <= 0 {
		return errors.Wrapf(ErrConfiguration,
			"compliance limit %s must be positive", formatNum(cfg.ComplianceLimit))
	}
	if cfg.MeasureRange > 0 && cfg.ComplianceLimit > cfg.MeasureRange {
		return errors.Wrapf(ErrConfiguration,
			"compliance limit %s is not within the measure range %s",
			formatNum(cfg.ComplianceLimit), formatNum(cfg.MeasureRange))
	}
	if cfg.NPLC <= 0 {
		return errors.Wrapf(ErrConfiguration, "NPLC %s must be positive", formatNum(cfg.NPLC))
	}
	return nil
}
