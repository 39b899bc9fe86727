package cmd

import (
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  zerolog.Level
	}{
		{value: "debug", want: zerolog.DebugLevel},
		{value: " WARN ", want: zerolog.WarnLevel},
		{value: "error", want: zerolog.ErrorLevel},
		{value: "", want: zerolog.InfoLevel},
		{value: "verbose", want: zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, logLevel(tt.value), tt.want)
		})
	}
}

func TestCustomizeLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	defer func(level, format string) { LogLevel, LogFormat = level, format }(LogLevel, LogFormat)

	LogLevel, LogFormat = "debug", "json"
	customizeLogger()
	assert.Equal(t, zerolog.GlobalLevel(), zerolog.DebugLevel)
	assert.Equal(t, gin.Mode(), gin.DebugMode)

	LogLevel = "error"
	customizeLogger()
	assert.Equal(t, zerolog.GlobalLevel(), zerolog.ErrorLevel)
	assert.Equal(t, gin.Mode(), gin.ReleaseMode)
}

func TestLoggingEnv(t *testing.T) {
	defer func(level, format string) { LogLevel, LogFormat = level, format }(LogLevel, LogFormat)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_FORMAT", "pretty")

	initLoggingEnv()
	assert.Equal(t, LogLevel, "warn")
	assert.Equal(t, LogFormat, "pretty")
}
