package instruments

import (
	"fmt"
	"strings"
)

// Фальшивая шина для тестов без прибора: присваивания TSP запоминаются,
// print(X) возвращает сохранённое значение, остальные запросы берутся
// из заранее заданных ответов.
type fakeBus struct {
	vars      map[string]string
	responses map[string]string
	commands  []string
	failOn    string
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		vars: map[string]string{
			"localnode.model":        "2612B",
			"smua.source.compliance": "false",
			"smub.source.compliance": "false",
		},
		responses: make(map[string]string),
	}
}

func (b *fakeBus) record(cmd string) error {
	b.commands = append(b.commands, cmd)
	if b.failOn != "" && strings.Contains(cmd, b.failOn) {
		return fmt.Errorf("bus failure on %q", cmd)
	}
	return nil
}

func (b *fakeBus) Write(cmd string) error {
	if err := b.record(cmd); err != nil {
		return err
	}
	if name, value, ok := strings.Cut(cmd, " = "); ok {
		b.vars[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}
	return nil
}

func (b *fakeBus) WriteWithoutCheck(cmd string) error {
	return b.Write(cmd)
}

func (b *fakeBus) Query(cmd string) (string, error) {
	if err := b.record(cmd); err != nil {
		return "", err
	}
	if response, ok := b.responses[cmd]; ok {
		return response, nil
	}
	if strings.HasPrefix(cmd, "print(") && strings.HasSuffix(cmd, ")") {
		name := cmd[len("print(") : len(cmd)-1]
		if value, ok := b.vars[name]; ok {
			return value, nil
		}
	}
	return "", fmt.Errorf("fake bus has no response for %q", cmd)
}

func (b *fakeBus) sent(cmd string) bool {
	for _, c := range b.commands {
		if c == cmd {
			return true
		}
	}
	return false
}
