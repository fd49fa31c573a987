package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ziyun99/treasurehunt/internal/auth"
	"github.com/ziyun99/treasurehunt/internal/user"
)

var errInvalidPayload = errors.New("invalid request body")

func getProfile(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		profile, err := service.GetProfile(ctx, uid)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to load profile")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func updateProfile(service user.Service, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := playerUID(r)
		if uid == "" {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "missing user ID")
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		defer r.Body.Close()

		payload, err := decodeProfilePatch(r)
		if err != nil {
			var maxErr *http.MaxBytesError
			switch {
			case errors.Is(err, errInvalidPayload):
				writeError(w, r, http.StatusBadRequest, "bad_request", errInvalidPayload.Error())
			case errors.As(err, &maxErr):
				writeError(w, r, http.StatusRequestEntityTooLarge, "bad_request", "payload too large")
			default:
				writeError(w, r, http.StatusInternalServerError, "internal", "failed to decode profile update")
			}
			return
		}

		// The stored email mirrors the verified token, never the body.
		if player, ok := auth.PlayerFromContext(r.Context()); ok {
			payload.Email = player.Email
		}

		ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
		defer cancel()

		profile, err := service.UpdateProfile(ctx, uid, payload)
		if err != nil {
			writeDomainError(w, r, logger, err, "failed to update profile")
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

func decodeProfilePatch(r *http.Request) (user.UpdateInput, error) {
	var (
		input user.UpdateInput
		body  struct {
			Name           *string `json:"name"`
			Location       *string `json:"location"`
			Helper         *string `json:"helper"`
			PhoneNumber    *string `json:"phone_number"`
			CountryCode    *string `json:"country_code"`
			SecretCodeYear *string `json:"secret_code_year"`
		}
	)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return input, err
		}
		return input, errInvalidPayload
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return input, errInvalidPayload
	}

	input.Name = body.Name
	input.Location = body.Location
	input.Helper = body.Helper
	input.PhoneNumber = body.PhoneNumber
	input.CountryCode = body.CountryCode
	input.SecretCodeYear = body.SecretCodeYear

	if input.Empty() {
		return input, errInvalidPayload
	}
	return input, nil
}
