package session

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper(t *testing.T) {
	log := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	layout := testLayout(t)
	reaper := NewReaper(layout, 24*time.Hour, log)

	t.Run("accepts a valid schedule", func(t *testing.T) {
		sweeper, err := NewSweeper("@every 30m", reaper, NewRegistry(), log)
		require.NoError(t, err)
		sweeper.Start()
		sweeper.Stop()
	})

	t.Run("rejects a bad schedule", func(t *testing.T) {
		_, err := NewSweeper("every now and then", reaper, NewRegistry(), log)
		assert.Error(t, err)
	})
}
