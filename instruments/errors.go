package instruments

import "errors"

// Классы ошибок измерительного тракта. Конкретный контекст добавляется
// через errors.Wrap, классификация проверяется через errors.Is.
var (
	// Шина недоступна, ресурс не найден или прибор не отвечает.
	ErrConnection = errors.New("instrument connection error")

	// Недопустимый параметр канала или развёртки. Выявляется до любого
	// обращения к прибору.
	ErrConfiguration = errors.New("instrument configuration error")

	// Канал упёрся в предел ограничения: измеренное значение является
	// клампом, а не реальным откликом устройства.
	ErrCompliance = errors.New("channel in compliance")
)
