package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/repository"
)

// memPlayerRepo is an in-memory stand-in for the Redis player repository.
type memPlayerRepo struct {
	byID     map[string]entity.Player
	byHandle map[string]string
}

func newMemPlayerRepo() *memPlayerRepo {
	return &memPlayerRepo{
		byID:     make(map[string]entity.Player),
		byHandle: make(map[string]string),
	}
}

func (that *memPlayerRepo) CreateOrUpdate(_ context.Context, player *entity.Player) error {
	that.byID[player.ID] = *player
	that.byHandle[player.Handle] = player.ID
	return nil
}

func (that *memPlayerRepo) GetByID(_ context.Context, id string) (*entity.Player, error) {
	player, ok := that.byID[id]
	if !ok {
		return &entity.Player{}, repository.ErrPlayerNotFound
	}
	return &player, nil
}

func (that *memPlayerRepo) GetByHandle(ctx context.Context, handle string) (*entity.Player, error) {
	id, ok := that.byHandle[handle]
	if !ok {
		return &entity.Player{}, repository.ErrPlayerNotFound
	}
	return that.GetByID(ctx, id)
}

func TestProfileService_GetOrCreateByHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("CreatesNewProfile", func(t *testing.T) {
		// Given: an empty store
		profiles := NewProfileService(newMemPlayerRepo())

		// When: an unknown handle joins
		player, err := profiles.GetOrCreateByHandle(ctx, "alice")

		// Then: a fresh profile with a generated id is stored
		require.NoError(t, err)
		assert.NotEmpty(t, player.ID)
		assert.Equal(t, "alice", player.Handle)
		assert.Zero(t, player.Wins)
	})

	t.Run("ReturnsExistingProfile", func(t *testing.T) {
		repo := newMemPlayerRepo()
		profiles := NewProfileService(repo)

		created, err := profiles.GetOrCreateByHandle(ctx, "alice")
		require.NoError(t, err)

		// When: the same handle joins again
		again, err := profiles.GetOrCreateByHandle(ctx, "alice")

		// Then: the existing profile is returned, not a new one
		require.NoError(t, err)
		assert.Equal(t, created.ID, again.ID)
	})
}

func TestProfileService_RecordResult(t *testing.T) {
	ctx := context.Background()

	t.Run("WinAndLoss", func(t *testing.T) {
		profiles := NewProfileService(newMemPlayerRepo())

		// When: slot 2 wins a match between alice (slot 1) and bob (slot 2)
		err := profiles.RecordResult(ctx, "alice", "bob", game.ResultSlot2Win)
		require.NoError(t, err)

		// Then: counters land on the right profiles
		alice, err := profiles.GetByHandle(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, 1, alice.Losses)
		assert.Zero(t, alice.Wins)

		bob, err := profiles.GetByHandle(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, 1, bob.Wins)
		assert.Zero(t, bob.Losses)
	})

	t.Run("Draw", func(t *testing.T) {
		profiles := NewProfileService(newMemPlayerRepo())

		err := profiles.RecordResult(ctx, "alice", "bob", game.ResultDraw)
		require.NoError(t, err)

		for _, handle := range []string{"alice", "bob"} {
			player, err := profiles.GetByHandle(ctx, handle)
			require.NoError(t, err)
			assert.Equal(t, 1, player.Draws)
		}
	})

	t.Run("NoneIsIgnored", func(t *testing.T) {
		repo := newMemPlayerRepo()
		profiles := NewProfileService(repo)

		err := profiles.RecordResult(ctx, "alice", "bob", game.ResultNone)

		require.NoError(t, err)
		assert.Empty(t, repo.byID)
	})
}
