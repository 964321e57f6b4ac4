package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogEncoding)
	assert.Equal(t, []string{"stories/chapter1.json"}, cfg.Chapters)
	assert.True(t, cfg.Strict)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORY_ADDR", ":9000")
	t.Setenv("STORY_CHAPTERS", "a.json,b.yaml")
	t.Setenv("STORY_STRICT", "false")
	t.Setenv("STORY_LOG_LEVEL", "debug")
	t.Setenv("STORY_LOG_FILE", "/tmp/story.log")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"a.json", "b.yaml"}, cfg.Chapters)
	assert.False(t, cfg.Strict)
	assert.Equal(t, "debug", cfg.Logger().Level)
	assert.Equal(t, "/tmp/story.log", cfg.Logger().OutputPath)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("STORY_STRICT", "maybe")
	_, err := Load()
	assert.Error(t, err)
}
