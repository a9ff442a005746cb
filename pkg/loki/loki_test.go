package loki

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type noopLogger struct{}

func (l *noopLogger) Error(msg string, args ...any) {}

func Test_New_RejectsConfigWithoutUrl(t *testing.T) {
	_, err := New(context.Background(), Config{}, &noopLogger{})
	assert.Error(t, err)
}

func Test_New_AppliesBatchDefaults(t *testing.T) {

	cfg := Config{Url: "http://loki:3100/loki/api/v1/push"}

	pusher, err := New(context.Background(), cfg, &noopLogger{})
	assert.NoError(t, err)
	defer pusher.Stop()

	assert.Equal(t, cfg.Url, pusher.config.Url)
	assert.Equal(t, 1000, pusher.config.BatchMaxSize)
	assert.Equal(t, 5*time.Second, pusher.config.BatchMaxWait)
	assert.Equal(t, map[string]string{}, pusher.config.Labels)
}
