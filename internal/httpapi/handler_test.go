package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ziyun99/treasurehunt/internal/auth"
	"github.com/ziyun99/treasurehunt/internal/hunt"
	"github.com/ziyun99/treasurehunt/internal/user"
)

type passphraseSeeder interface {
	SetPassphrase(kind hunt.TargetKind, index int, secret hunt.Passphrase)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	huntRepo := hunt.NewMemoryRepository()
	huntRepo.(passphraseSeeder).SetPassphrase(hunt.TargetLandmark, 0, hunt.Passphrase{Keyword: "燈塔"})

	// Campaign started a week ago so every landmark is reachable.
	start := time.Now().AddDate(0, 0, -7)
	huntService, err := hunt.NewService(huntRepo, nil, nil, start, time.UTC)
	if err != nil {
		t.Fatalf("hunt service: %v", err)
	}
	userService := user.NewService(user.NewMemoryRepository())

	verifier, err := auth.NewVerifier(auth.Config{Mode: auth.ModeNoop})
	if err != nil {
		t.Fatalf("verifier: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		RegisterRoutes(r, huntService, userService, []string{"admin-1"}, logger)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, uid, body string) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if uid != "" {
		req.Header.Set("Authorization", "Bearer "+uid)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func TestRoutesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodGet, "/v1/hunt/state", "", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestUnlockLandmarkEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/hunt/landmarks/0/unlock", "u1", `{"passphrase":"燈塔"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}

	var unlock hunt.UnlockResponse
	if err := json.Unmarshal(data, &unlock); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !unlock.FirstTime || unlock.PointsAwarded != 10 {
		t.Fatalf("unlock = %+v", unlock)
	}
}

func TestUnlockLandmarkWrongPassphraseStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, srv, http.MethodPost, "/v1/hunt/landmarks/0/unlock", "u1", `{"passphrase":"nope"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}

	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if errResp.Code != "wrong_passphrase" {
		t.Fatalf("code = %q, want wrong_passphrase", errResp.Code)
	}
	if errResp.Message != hunt.MsgWrongPassphrase {
		t.Fatalf("message = %q, want the campaign copy", errResp.Message)
	}
}

func TestUnlockUnseededTargetStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPost, "/v1/hunt/diamonds/0/unlock", "u1", `{"passphrase":"x"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCheckInConflictStatus(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPost, "/v1/hunt/checkins", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first check-in status = %d", resp.StatusCode)
	}
	resp, _ = doRequest(t, srv, http.MethodPost, "/v1/hunt/checkins", "u1", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("second check-in status = %d, want 409", resp.StatusCode)
	}
}

func TestAdminRoutesGated(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodGet, "/v1/admin/stats", "u1", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("non-admin status = %d, want 403", resp.StatusCode)
	}

	resp, data := doRequest(t, srv, http.MethodGet, "/v1/admin/stats", "admin-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("admin status = %d, body = %s", resp.StatusCode, data)
	}
}

func TestAdminUsersSortParams(t *testing.T) {
	srv := newTestServer(t)

	resp, data := doRequest(t, srv, http.MethodGet, "/v1/admin/users?sort=name&direction=asc", "admin-1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}

	resp, data = doRequest(t, srv, http.MethodGet, "/v1/admin/users?sort=bogus", "admin-1", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", resp.StatusCode, data)
	}
	var errResp errorResponse
	if err := json.Unmarshal(data, &errResp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if errResp.Code != "invalid_sort" {
		t.Fatalf("code = %q, want invalid_sort", errResp.Code)
	}
}

func TestProfilePatchRejectsUnknownFields(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPatch, "/v1/users/me", "u1", `{"diamond_points":999}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestProfileRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := doRequest(t, srv, http.MethodPatch, "/v1/users/me", "u1", `{"name":"Mei"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d", resp.StatusCode)
	}

	resp, data := doRequest(t, srv, http.MethodGet, "/v1/users/me", "u1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var profile user.Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if profile.Name != "Mei" || profile.ProfileCompleted {
		t.Fatalf("profile = %+v", profile)
	}
}
