package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ziyun99/treasurehunt/internal/hunt"
)

// requireAdmin gates the admin routes on a static UID allow-list.
func requireAdmin(adminUIDs []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(adminUIDs))
	for _, uid := range adminUIDs {
		allowed[uid] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid := playerUID(r)
			if uid == "" {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
				return
			}
			if !allowed[uid] {
				writeError(w, r, http.StatusForbidden, "forbidden", "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func adminUsers(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		sortField := r.URL.Query().Get("sort")
		descending := r.URL.Query().Get("direction") != "asc"

		users, err := service.AdminUsers(ctx, sortField, descending)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to list users")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
	}
}

func adminStats(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		stats, err := service.AdminStats(ctx)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to compute stats")
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func adminConsistency(service hunt.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		rows, err := service.ConsistencyReport(ctx)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to build consistency report")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"rows": rows})
	}
}
