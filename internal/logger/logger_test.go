package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zap.DebugLevel},
		{"WARN", zap.WarnLevel},
		{"", zap.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(Config{Level: tt.level})
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			assert.False(t, l.Core().Enabled(tt.want-1))
		})
	}
}

func TestNew_RejectsUnknownSettings(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.ErrorContains(t, err, "log level")

	_, err = New(Config{Encoding: "yaml"})
	assert.ErrorContains(t, err, `log encoding "yaml"`)
}

func TestNew_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "story.log")
	l, err := New(Config{Level: "info", Encoding: "JSON", OutputPath: path, Fields: map[string]any{"service": "storyserver"}})
	require.NoError(t, err)

	l.Info("chapter loaded", zap.String("file", "chapter1.json"))
	l.Debug("hidden")
	_ = l.Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"chapter loaded"`)
	assert.Contains(t, string(b), `"timestamp"`)
	assert.Contains(t, string(b), `"level":"INFO"`)
	assert.Contains(t, string(b), `"service":"storyserver"`)
	assert.NotContains(t, string(b), "hidden")
}
