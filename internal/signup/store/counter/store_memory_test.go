package counter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	t.Run("load before any save returns not found", func(t *testing.T) {
		_, err := store.Load(ctx)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("save then load round-trips", func(t *testing.T) {
		want := models.DailyCount{Date: "2025-06-01", Count: 7}
		require.NoError(t, store.Save(ctx, want))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("save overwrites previous state", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, models.DailyCount{Date: "2025-06-02", Count: 0}))

		got, err := store.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "2025-06-02", got.Date)
		assert.Zero(t, got.Count)
	})
}
