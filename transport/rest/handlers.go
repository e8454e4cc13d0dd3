package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gridmatch/gridmatch-backend/internal/entity"
	"github.com/gridmatch/gridmatch-backend/internal/repository"
)

type Handlers interface {
	PingHandler(w http.ResponseWriter, _ *http.Request)

	GetPlayerHandler(w http.ResponseWriter, r *http.Request)
}

type profileService interface {
	GetByHandle(ctx context.Context, handle string) (*entity.Player, error)
}

type handlers struct {
	logger *slog.Logger

	profiles profileService
}

func NewHandlers(logger *slog.Logger, profiles profileService) Handlers {
	return &handlers{
		logger: logger.With("component", "rest"),

		profiles: profiles,
	}
}

func (that *handlers) PingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

// GetPlayerHandler - returns the stored profile for ?handle=<name>.
func (that *handlers) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		http.Error(w, "handle is required", http.StatusBadRequest)
		return
	}

	player, err := that.profiles.GetByHandle(r.Context(), handle)
	if err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			http.Error(w, "player not found", http.StatusNotFound)
			return
		}

		that.logger.Error("failed to get player", "handle", handle, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(player); err != nil {
		that.logger.Error("failed to encode player", "error", err)
	}
}
