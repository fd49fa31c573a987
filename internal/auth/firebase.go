package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
)

var errMissingSubject = errors.New("token missing subject claim")

// firebaseVerifier validates Firebase-issued ID tokens using JWKS.
type firebaseVerifier struct {
	jwks     *keyfunc.JWKS
	audience string
	issuer   string
}

func newFirebaseVerifier(cfg Config) (Verifier, error) {
	if cfg.JWKSURL == "" {
		return nil, fmt.Errorf("firebase JWKS URL is required")
	}

	options := keyfunc.Options{
		RefreshInterval: 10 * time.Minute,
		RefreshErrorHandler: func(err error) {
			// Background refresh failures resolve themselves on the next fetch.
		},
	}

	jwks, err := keyfunc.Get(cfg.JWKSURL, options)
	if err != nil {
		return nil, fmt.Errorf("failed to load JWKS: %w", err)
	}

	return &firebaseVerifier{jwks: jwks, audience: cfg.Audience, issuer: cfg.Issuer}, nil
}

func (v *firebaseVerifier) Verify(ctx context.Context, token string) (Player, error) {
	options := []jwt.ParserOption{jwt.WithLeeway(5 * time.Second)}
	if v.audience != "" {
		options = append(options, jwt.WithAudience(v.audience))
	}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	t, err := jwt.Parse(token, v.jwks.Keyfunc, options...)
	if err != nil {
		return Player{}, fmt.Errorf("token verification failed: %w", err)
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return Player{}, errors.New("unexpected claims type")
	}

	subject, ok := claims["sub"].(string)
	if !ok || subject == "" {
		return Player{}, errMissingSubject
	}

	email, _ := claims["email"].(string)

	expiresAt := int64(0)
	if expRaw, ok := claims["exp"].(float64); ok {
		expiresAt = int64(expRaw)
	}

	return Player{
		UID:       subject,
		Email:     email,
		ExpiresAt: expiresAt,
		Token:     token,
	}, nil
}
