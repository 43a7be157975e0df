package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	once         sync.Once
	globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Init configures the global zerolog logger. Output always goes to stdout and,
// when filePath is set, is also appended to that file.
func Init(level, filePath string) {
	once.Do(func() {
		writers := []io.Writer{os.Stdout}
		if filePath != "" {
			file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
			if err != nil {
				os.Stderr.WriteString("failed to open log file: " + err.Error() + "\n")
			} else {
				writers = append(writers, file)
			}
		}

		l := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()
		globalLogger = l.Level(ParseLevel(level))
		log.Logger = globalLogger
	})
}

func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}

// WithFields stores a child logger carrying fields in ctx.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	l := From(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// From returns the logger attached to ctx or the global logger.
func From(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &globalLogger
	}
	return l
}
