package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development", "test"} {
		t.Run(env, func(t *testing.T) {
			l, err := New(env)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNamed(t *testing.T) {
	t.Run("nil logger yields a usable no-op", func(t *testing.T) {
		l := Named(nil, "webhook")
		require.NotNil(t, l)
		l.Info("dropped")
	})

	t.Run("adds component field", func(t *testing.T) {
		core, logs := observer.New(zap.InfoLevel)
		l := Named(zap.New(core), "review")
		l.Info("queued")

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "review", entries[0].ContextMap()["component"])
	})
}
