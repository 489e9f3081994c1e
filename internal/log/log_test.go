package log

import (
	"bytes"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
)

func TestHandleLog(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf)
	h.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger := &log.Logger{Handler: h, Level: log.DebugLevel}
	logger.WithFields(log.Fields{"key": "users/1", "cache": "users"}).Warn("fetch failed")

	assert.Equal(t, "2025-01-02 03:04:05 W fetch failed cache=users key=users/1\n", buf.String())
}

func TestInitLogger(t *testing.T) {
	prev := log.Log
	defer func() { log.Log = prev }()

	tests := []struct {
		env  string
		want log.Level
	}{
		{env: "", want: log.WarnLevel},
		{env: "DEBUG", want: log.DebugLevel},
		{env: "error", want: log.ErrorLevel},
		{env: "loud", want: log.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			t.Setenv(EnvLevel, tt.env)
			var buf bytes.Buffer
			logger := InitLogger(&buf)
			assert.Equal(t, tt.want, logger.Level)
			assert.Same(t, logger, log.Log)
		})
	}
}
