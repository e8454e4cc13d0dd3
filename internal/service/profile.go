package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
	"github.com/gridmatch/gridmatch-backend/internal/game"
	"github.com/gridmatch/gridmatch-backend/internal/repository"
)

// ProfileService is the profile-store collaborator: player records keyed by
// handle, updated as matches finish.
type ProfileService interface {
	GetOrCreateByHandle(ctx context.Context, handle string) (*entity.Player, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Player, error)

	RecordResult(ctx context.Context, handle1, handle2 string, result game.Result) error
}

type playerRepo interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
	GetByHandle(ctx context.Context, handle string) (*entity.Player, error)
}

type profileService struct {
	playerRepo playerRepo
}

func NewProfileService(playerRepo playerRepo) ProfileService {
	return &profileService{
		playerRepo: playerRepo,
	}
}

func (that *profileService) GetOrCreateByHandle(ctx context.Context, handle string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByHandle(ctx, handle)
	if err == nil {
		return player, nil
	}

	if !errors.Is(err, repository.ErrPlayerNotFound) {
		return nil, fmt.Errorf("failed to get player by handle: %w", err)
	}

	player = &entity.Player{
		ID:     uuid.NewString(),
		Handle: handle,
	}

	if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}

	return player, nil
}

func (that *profileService) GetByHandle(ctx context.Context, handle string) (*entity.Player, error) {
	player, err := that.playerRepo.GetByHandle(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get player by handle: %w", err)
	}

	return player, nil
}

// RecordResult - bumps the win/loss/draw counters of both participants.
func (that *profileService) RecordResult(ctx context.Context, handle1, handle2 string, result game.Result) error {
	if result == game.ResultNone {
		return nil
	}

	winnerHandle := handle1
	if result.WinnerSlot() == game.Slot2 {
		winnerHandle = handle2
	}

	for _, handle := range []string{handle1, handle2} {
		player, err := that.GetOrCreateByHandle(ctx, handle)
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		switch {
		case result == game.ResultDraw:
			player.Draws++
		case handle == winnerHandle:
			player.Wins++
		default:
			player.Losses++
		}

		if err = that.playerRepo.CreateOrUpdate(ctx, player); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
	}

	return nil
}
