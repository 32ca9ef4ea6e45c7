package log

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger создаёт настроенный zerolog для сервисов.
func NewLogger(appEnv string) zerolog.Logger {
	return New(os.Stdout, appEnv, false)
}

// NewConsole создаёт человекочитаемый логгер для CLI; пишет в stderr.
func NewConsole(appEnv string) zerolog.Logger {
	return New(os.Stderr, appEnv, true)
}

// New создаёт логгер поверх произвольного writer.
func New(out io.Writer, appEnv string, console bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "dev" {
		level = zerolog.DebugLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339
	if console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	return zerolog.New(out).With().Timestamp().Logger().Level(level)
}

// Component возвращает дочерний логгер с полем component.
func Component(logger zerolog.Logger, name string) zerolog.Logger {
	return logger.With().Str("component", name).Logger()
}
