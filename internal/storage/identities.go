package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pokeromcodex/server/internal/models"
)

// ErrIdentityTaken is returned when an identity is already linked to a
// different user.
var ErrIdentityTaken = errors.New("identity already linked to another user")

// FindIdentity returns the identity for (provider, subject), or nil when
// no such identity exists.
func (s *Store) FindIdentity(ctx context.Context, provider, subject string) (*models.Identity, error) {
	var ident *models.Identity
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var i models.Identity
		err := s.db.QueryRowContext(ctx, `
			SELECT id, provider, subject, user_id, linked_at
			FROM identities WHERE provider = ? AND subject = ?
		`, provider, subject).Scan(&i.ID, &i.Provider, &i.Subject, &i.UserID, &i.LinkedAt)
		if err == sql.ErrNoRows {
			ident = nil
			return nil
		}
		if err != nil {
			return err
		}
		ident = &i
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	return ident, nil
}

// CreateUserWithIdentity creates a user and its first identity in one
// transaction.
func (s *Store) CreateUserWithIdentity(ctx context.Context, displayName, provider, subject string) (*models.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	userID := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, display_name) VALUES (?, ?)
	`, userID, displayName); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO identities (id, provider, subject, user_id) VALUES (?, ?, ?, ?)
	`, uuid.New().String(), provider, subject, userID); err != nil {
		return nil, fmt.Errorf("create identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return s.GetUser(ctx, userID)
}

// LinkIdentity attaches (provider, subject) to an existing user. Linking
// the same identity to the same user again is benign and reported as
// created=false. Linking an identity that belongs to a different user
// returns ErrIdentityTaken.
func (s *Store) LinkIdentity(ctx context.Context, userID, provider, subject string) (bool, error) {
	existing, err := s.FindIdentity(ctx, provider, subject)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.UserID == userID {
			return false, nil
		}
		return false, ErrIdentityTaken
	}

	err = s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO identities (id, provider, subject, user_id) VALUES (?, ?, ?, ?)
		`, uuid.New().String(), provider, subject, userID)
		if isUniqueViolation(err) {
			// Raced with a concurrent link of the same identity.
			return ErrIdentityTaken
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrIdentityTaken) {
			return false, ErrIdentityTaken
		}
		return false, fmt.Errorf("link identity: %w", err)
	}
	return true, nil
}

// GetUser returns a user by ID, or nil when no row exists.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user *models.User
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var u models.User
		err := s.db.QueryRowContext(ctx, `
			SELECT id, display_name, created_at FROM users WHERE id = ?
		`, id).Scan(&u.ID, &u.DisplayName, &u.CreatedAt)
		if err == sql.ErrNoRows {
			user = nil
			return nil
		}
		if err != nil {
			return err
		}
		user = &u
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UserIdentities returns every identity linked to the user, oldest first.
func (s *Store) UserIdentities(ctx context.Context, userID string) ([]models.Identity, error) {
	var out []models.Identity
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT id, provider, subject, user_id, linked_at
			FROM identities WHERE user_id = ? ORDER BY linked_at ASC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var i models.Identity
			if err := rows.Scan(&i.ID, &i.Provider, &i.Subject, &i.UserID, &i.LinkedAt); err != nil {
				return err
			}
			out = append(out, i)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("user identities: %w", err)
	}
	return out, nil
}
