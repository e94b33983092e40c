package user

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"enroll/internal/signup/models"
	"enroll/pkg/sentinel"
)

func draft(email string) models.UserDraft {
	return models.UserDraft{
		Email:    email,
		FullName: "Jane Doe",
		UserType: "NORMAL",
		Password: "longenough1",
	}
}

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	t.Run("insert assigns sequential ids", func(t *testing.T) {
		store := NewInMemoryStore()

		first, err := store.Insert(ctx, draft("a@b.com"), "hash-a", now)
		require.NoError(t, err)
		second, err := store.Insert(ctx, draft("c@d.com"), "hash-c", now)
		require.NoError(t, err)

		assert.Equal(t, int64(1), first)
		assert.Equal(t, int64(2), second)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.Insert(ctx, draft("a@b.com"), "hash", now)
		require.NoError(t, err)

		_, err = store.Insert(ctx, draft("a@b.com"), "hash", now)
		assert.ErrorIs(t, err, sentinel.ErrConflict)
		assert.Equal(t, 1, store.Count())
	})

	t.Run("exists reflects inserts", func(t *testing.T) {
		store := NewInMemoryStore()

		exists, err := store.ExistsByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.False(t, exists)

		_, err = store.Insert(ctx, draft("a@b.com"), "hash", now)
		require.NoError(t, err)

		exists, err = store.ExistsByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("find returns the full record", func(t *testing.T) {
		store := NewInMemoryStore()
		d := draft("a@b.com")
		d.MarketingOptIn = true
		id, err := store.Insert(ctx, d, "hash", now)
		require.NoError(t, err)

		got, err := store.FindByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, id, got.ID)
		assert.Equal(t, "hash", got.PasswordHash)
		assert.Equal(t, "Jane Doe", got.FullName)
		assert.True(t, got.MarketingOptIn)
		assert.Equal(t, now, got.CreatedAt)
	})

	t.Run("find missing email", func(t *testing.T) {
		store := NewInMemoryStore()
		_, err := store.FindByEmail(ctx, "ghost@b.com")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStoreConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	now := time.Now().UTC()

	const attempts = 50
	var wg sync.WaitGroup
	wg.Add(attempts)

	var mu sync.Mutex
	var winners, conflicts int

	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			_, err := store.Insert(ctx, draft("raced@b.com"), "hash", now)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent insert may win")
	assert.Equal(t, attempts-1, conflicts)
	assert.Equal(t, 1, store.Count())
}
