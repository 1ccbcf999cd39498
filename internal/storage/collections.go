package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pokeromcodex/server/internal/models"
)

// AddToCollection inserts a membership row for (userID, romID). A UNIQUE
// violation means the row is already there and is reported as
// created=false with no error.
func (s *Store) AddToCollection(ctx context.Context, userID string, romID int64) (bool, error) {
	created := false
	err := s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO collections (id, user_id, rom_id) VALUES (?, ?, ?)
		`, uuid.New().String(), userID, romID)
		if isUniqueViolation(err) {
			created = false
			return nil
		}
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add to collection: %w", err)
	}
	return created, nil
}

// RemoveFromCollection deletes the membership row for (userID, romID) and
// reports whether a row was actually removed.
func (s *Store) RemoveFromCollection(ctx context.Context, userID string, romID int64) (bool, error) {
	removed := false
	err := s.withRetry(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			DELETE FROM collections WHERE user_id = ? AND rom_id = ?
		`, userID, romID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		removed = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("remove from collection: %w", err)
	}
	return removed, nil
}

// IsInCollection reports whether (userID, romID) has a membership row.
func (s *Store) IsInCollection(ctx context.Context, userID string, romID int64) (bool, error) {
	var exists bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		var id string
		err := s.db.QueryRowContext(ctx, `
			SELECT id FROM collections WHERE user_id = ? AND rom_id = ?
		`, userID, romID).Scan(&id)
		if err == sql.ErrNoRows {
			exists = false
			return nil
		}
		if err != nil {
			return err
		}
		exists = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("check collection: %w", err)
	}
	return exists, nil
}

// UserCollection returns the user's membership rows joined with their
// roms, newest addition first.
func (s *Store) UserCollection(ctx context.Context, userID string) ([]models.CollectionWithRom, error) {
	var out []models.CollectionWithRom
	err := s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `
			SELECT c.id, c.user_id, c.rom_id, c.notes, c.added_at, `+prefixedRomColumns("r")+`
			FROM collections c
			JOIN roms r ON r.id = c.rom_id
			WHERE c.user_id = ?
			ORDER BY c.added_at DESC
		`, userID)
		if err != nil {
			return err
		}
		defer rows.Close()

		out = out[:0]
		for rows.Next() {
			var item models.CollectionWithRom
			var notes sql.NullString
			var console, image, version, author, dateUpdated sql.NullString
			var gallery, baseGame, language, status, content, features, links sql.NullString

			err := rows.Scan(&item.ID, &item.UserID, &item.RomID, &notes, &item.AddedAt,
				&item.Rom.ID, &item.Rom.Name, &item.Rom.Slug, &console, &image,
				&gallery, &baseGame, &language, &status, &content,
				&version, &author, &dateUpdated, &features, &links)
			if err != nil {
				return err
			}
			item.Notes = notes.String
			item.Rom.Console = console.String
			item.Rom.Image = image.String
			item.Rom.Version = version.String
			item.Rom.Author = author.String
			item.Rom.DateUpdated = dateUpdated.String
			unmarshalList(gallery, &item.Rom.Gallery)
			unmarshalList(baseGame, &item.Rom.BaseGame)
			unmarshalList(language, &item.Rom.Language)
			unmarshalList(status, &item.Rom.Status)
			unmarshalList(content, &item.Rom.Content)
			unmarshalList(links, &item.Rom.Links)
			if features.Valid && features.String != "" && features.String != "null" {
				item.Rom.Features = decodeFeatures(features.String)
			}
			out = append(out, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("user collection: %w", err)
	}
	return out, nil
}

// CollectionCount returns the number of roms in the user's collection.
func (s *Store) CollectionCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM collections WHERE user_id = ?
		`, userID).Scan(&count)
	})
	if err != nil {
		return 0, fmt.Errorf("collection count: %w", err)
	}
	return count, nil
}

// UpdateCollectionNotes sets the notes on an existing membership row and
// reports whether the row was found.
func (s *Store) UpdateCollectionNotes(ctx context.Context, userID string, romID int64, notes string) (bool, error) {
	found := false
	err := s.withRetry(ctx, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `
			UPDATE collections SET notes = ? WHERE user_id = ? AND rom_id = ?
		`, notes, userID, romID)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		found = n > 0
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update collection notes: %w", err)
	}
	return found, nil
}
