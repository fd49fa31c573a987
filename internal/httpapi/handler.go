package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ziyun99/treasurehunt/internal/hunt"
	"github.com/ziyun99/treasurehunt/internal/user"
)

const (
	serviceTimeout = 8 * time.Second
	maxBodyBytes   = 16 * 1024 // passphrase and profile payloads are tiny
)

// RegisterRoutes registers the player-facing and admin routes.
func RegisterRoutes(r chi.Router, hunts hunt.Service, users user.Service, adminUIDs []string, logger *slog.Logger) {
	r.Route("/v1/hunt", func(r chi.Router) {
		r.Use(middleware.Recoverer)

		r.Get("/state", getState(hunts, logger))
		r.Post("/landmarks/{index}/unlock", unlockTarget(hunts, hunt.TargetLandmark, logger))
		r.Post("/diamonds/{index}/unlock", unlockTarget(hunts, hunt.TargetDiamond, logger))
		r.Post("/checkins", checkIn(hunts, logger))
		r.Get("/awards", listAwards(hunts, logger))
	})

	r.Route("/v1/leaderboard", func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Get("/", getLeaderboard(hunts, logger))
	})

	r.Route("/v1/users", func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Get("/me", getProfile(users, logger))
		r.Patch("/me", updateProfile(users, logger))
	})

	r.Route("/v1/admin", func(r chi.Router) {
		r.Use(middleware.Recoverer)
		r.Use(requireAdmin(adminUIDs))
		r.Get("/users", adminUsers(hunts, logger))
		r.Get("/stats", adminStats(hunts, logger))
		r.Get("/consistency", adminConsistency(hunts, logger))
	})
}

func getState(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		state, err := service.State(ctx, uid)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to load hunt state")
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func unlockTarget(service hunt.Service, kind hunt.TargetKind, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		index, err := strconv.Atoi(chi.URLParam(r, "index"))
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_index", "index must be a number")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		var body struct {
			Passphrase string `json:"passphrase"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, r, http.StatusBadRequest, "bad_request", "invalid request body")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		var resp *hunt.UnlockResponse
		if kind == hunt.TargetDiamond {
			resp, err = service.UnlockDiamond(ctx, uid, index, body.Passphrase)
		} else {
			resp, err = service.UnlockLandmark(ctx, uid, index, body.Passphrase)
		}
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to unlock target")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func checkIn(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.CheckIn(ctx, uid)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to check in")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func listAwards(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		entries, err := service.Awards(ctx, uid)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to load award log")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"awards": entries})
	}
}

func getLeaderboard(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		resp, err := service.Leaderboard(ctx, uid)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to load leaderboard")
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
