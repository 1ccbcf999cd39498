// Package identity handles account linking and sessions. A user is one
// canonical row that any number of external identities (provider +
// subject pairs) resolve to; sessions are short-lived HS256 JWTs whose
// subject is the canonical user id.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/models"
)

const issuer = "romcodex"

// ErrInvalidToken is returned for tokens that fail parsing, signature
// verification or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// Store is what the identity service needs from the relational store.
type Store interface {
	FindIdentity(ctx context.Context, provider, subject string) (*models.Identity, error)
	CreateUserWithIdentity(ctx context.Context, displayName, provider, subject string) (*models.User, error)
	LinkIdentity(ctx context.Context, userID, provider, subject string) (bool, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UserIdentities(ctx context.Context, userID string) ([]models.Identity, error)
}

// Service issues and verifies sessions and manages identity links.
type Service struct {
	store    Store
	log      *zap.Logger
	secret   []byte
	tokenTTL time.Duration
}

// New creates an identity service signing tokens with secret.
func New(store Store, log *zap.Logger, secret string, tokenTTL time.Duration) *Service {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{store: store, log: log, secret: []byte(secret), tokenTTL: tokenTTL}
}

// Login resolves (provider, subject) to its canonical user, creating the
// user on first sight, and returns a signed session token.
func (s *Service) Login(ctx context.Context, provider, subject, displayName string) (string, *models.User, error) {
	if provider == "" || subject == "" {
		return "", nil, fmt.Errorf("provider and subject are required")
	}

	var user *models.User
	ident, err := s.store.FindIdentity(ctx, provider, subject)
	if err != nil {
		return "", nil, err
	}
	if ident != nil {
		user, err = s.store.GetUser(ctx, ident.UserID)
		if err != nil {
			return "", nil, err
		}
		if user == nil {
			return "", nil, fmt.Errorf("identity %s/%s points at a missing user", provider, subject)
		}
	} else {
		if displayName == "" {
			displayName = subject
		}
		user, err = s.store.CreateUserWithIdentity(ctx, displayName, provider, subject)
		if err != nil {
			return "", nil, err
		}
		s.log.Info("new user created",
			zap.String("user_id", user.ID), zap.String("provider", provider))
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Link attaches another identity to an existing user. Re-linking the
// same identity to the same user is benign; an identity already bound to
// a different user surfaces the store's error.
func (s *Service) Link(ctx context.Context, userID, provider, subject string) (bool, error) {
	if provider == "" || subject == "" {
		return false, fmt.Errorf("provider and subject are required")
	}
	created, err := s.store.LinkIdentity(ctx, userID, provider, subject)
	if err != nil {
		return false, err
	}
	if created {
		s.log.Info("identity linked",
			zap.String("user_id", userID), zap.String("provider", provider))
	}
	return created, nil
}

// Resolve verifies a session token and returns the user id it names.
func (s *Service) Resolve(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// Profile returns a user with their linked identities.
func (s *Service) Profile(ctx context.Context, userID string) (*models.Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	idents, err := s.store.UserIdentities(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.Profile{User: *user, Identities: idents}, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
