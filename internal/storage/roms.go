package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pokeromcodex/server/internal/models"
)

const romColumns = `id, name, slug, console, image, gallery, base_game, language, status, content, version, author, date_updated, features, links`

// prefixedRomColumns qualifies every rom column with a table alias for
// use in joins.
func prefixedRomColumns(alias string) string {
	cols := strings.Split(romColumns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// decodeFeatures parses the features JSON column, returning nil on any
// malformed payload.
func decodeFeatures(raw string) *models.Features {
	var f models.Features
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		return nil
	}
	return &f
}

// RomQuery is the server-pushable part of a catalog search: free-text
// terms plus an offset/limit window. Each term must match the name or the
// author (case-insensitive substring); terms combine with AND. Rows come
// back ordered by name ascending.
type RomQuery struct {
	Terms  []string
	Offset int
	Limit  int
}

// QueryRoms returns one window of matching roms plus the exact total
// match count.
func (s *Store) QueryRoms(ctx context.Context, q RomQuery) ([]models.Rom, int, error) {
	where, args := buildRomWhere(q.Terms)

	var total int
	err := s.withRetry(ctx, func(ctx context.Context) error {
		return s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM roms`+where, args...).Scan(&total)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("count roms: %w", err)
	}

	query := `SELECT ` + romColumns + ` FROM roms` + where + ` ORDER BY name ASC LIMIT ? OFFSET ?`
	queryArgs := append(append([]interface{}{}, args...), q.Limit, q.Offset)

	var roms []models.Rom
	err = s.withRetry(ctx, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, query, queryArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		roms = roms[:0]
		for rows.Next() {
			rom, err := scanRom(rows)
			if err != nil {
				return err
			}
			roms = append(roms, *rom)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, fmt.Errorf("query roms: %w", err)
	}

	return roms, total, nil
}

func buildRomWhere(terms []string) (string, []interface{}) {
	if len(terms) == 0 {
		return "", nil
	}
	var clauses []string
	var args []interface{}
	for _, term := range terms {
		pattern := "%" + term + "%"
		clauses = append(clauses, `(name LIKE ? OR author LIKE ?)`)
		args = append(args, pattern, pattern)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// GetRomByID returns a rom by ID, or nil when no row exists.
func (s *Store) GetRomByID(ctx context.Context, id int64) (*models.Rom, error) {
	return s.getRom(ctx, `SELECT `+romColumns+` FROM roms WHERE id = ?`, id)
}

// GetRomBySlug returns a rom by its stored slug, or nil when no row exists.
func (s *Store) GetRomBySlug(ctx context.Context, slug string) (*models.Rom, error) {
	return s.getRom(ctx, `SELECT `+romColumns+` FROM roms WHERE slug = ?`, slug)
}

func (s *Store) getRom(ctx context.Context, query string, arg interface{}) (*models.Rom, error) {
	var rom *models.Rom
	err := s.withRetry(ctx, func(ctx context.Context) error {
		r, err := scanRom(s.db.QueryRowContext(ctx, query, arg))
		if err == sql.ErrNoRows {
			rom = nil
			return nil
		}
		if err != nil {
			return err
		}
		rom = r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get rom: %w", err)
	}
	return rom, nil
}

// AllRoms returns every rom ordered by name. Used for the slug-scan
// fallback and by the seeder's dry-run listing.
func (s *Store) AllRoms(ctx context.Context) ([]models.Rom, error) {
	roms, _, err := s.QueryRoms(ctx, RomQuery{Limit: -1})
	return roms, err
}

// DistinctFacets aggregates the facet vocabulary store-side: every
// distinct base game, status, gameplay difficulty and quality-of-life
// feature across all roms, each list sorted.
func (s *Store) DistinctFacets(ctx context.Context) (*models.FilterOptions, error) {
	opts := &models.FilterOptions{
		BaseGames:    []string{},
		Statuses:     []string{},
		Difficulties: []string{},
		Features:     []string{},
	}

	type facetQuery struct {
		sql  string
		dest *[]string
	}
	queries := []facetQuery{
		{`SELECT DISTINCT je.value FROM roms, json_each(coalesce(nullif(roms.base_game, ''), '[]')) je ORDER BY 1`, &opts.BaseGames},
		{`SELECT DISTINCT je.value FROM roms, json_each(coalesce(nullif(roms.status, ''), '[]')) je ORDER BY 1`, &opts.Statuses},
		{`SELECT DISTINCT je.value FROM roms, json_each(coalesce(json_extract(roms.features, '$.gameplay_difficulty'), '[]')) je ORDER BY 1`, &opts.Difficulties},
		{`SELECT DISTINCT je.value FROM roms, json_each(coalesce(json_extract(roms.features, '$.qol'), '[]')) je ORDER BY 1`, &opts.Features},
	}

	for _, q := range queries {
		err := s.withRetry(ctx, func(ctx context.Context) error {
			rows, err := s.db.QueryContext(ctx, q.sql)
			if err != nil {
				return err
			}
			defer rows.Close()

			*q.dest = (*q.dest)[:0]
			for rows.Next() {
				var v string
				if err := rows.Scan(&v); err != nil {
					return err
				}
				*q.dest = append(*q.dest, v)
			}
			return rows.Err()
		})
		if err != nil {
			return nil, fmt.Errorf("distinct facets: %w", err)
		}
	}

	return opts, nil
}

// UpsertRom inserts or replaces a single rom.
func (s *Store) UpsertRom(ctx context.Context, rom *models.Rom) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `
			INSERT OR REPLACE INTO roms (`+romColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, romArgs(rom)...)
		return err
	})
}

// BulkUpsertRoms inserts or replaces roms in a single transaction.
func (s *Store) BulkUpsertRoms(ctx context.Context, roms []models.Rom) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO roms (`+romColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range roms {
		if _, err := stmt.ExecContext(ctx, romArgs(&roms[i])...); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func romArgs(rom *models.Rom) []interface{} {
	gallery, _ := json.Marshal(rom.Gallery)
	baseGame, _ := json.Marshal(rom.BaseGame)
	language, _ := json.Marshal(rom.Language)
	status, _ := json.Marshal(rom.Status)
	content, _ := json.Marshal(rom.Content)
	links, _ := json.Marshal(rom.Links)
	features := []byte("null")
	if rom.Features != nil {
		features, _ = json.Marshal(rom.Features)
	}
	return []interface{}{
		rom.ID, rom.Name, rom.Slug, rom.Console, rom.Image,
		string(gallery), string(baseGame), string(language), string(status),
		string(content), rom.Version, rom.Author, rom.DateUpdated,
		string(features), string(links),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRom(row rowScanner) (*models.Rom, error) {
	var rom models.Rom
	var console, image, version, author, dateUpdated sql.NullString
	var gallery, baseGame, language, status, content, features, links sql.NullString

	err := row.Scan(&rom.ID, &rom.Name, &rom.Slug, &console, &image,
		&gallery, &baseGame, &language, &status, &content,
		&version, &author, &dateUpdated, &features, &links)
	if err != nil {
		return nil, err
	}

	rom.Console = console.String
	rom.Image = image.String
	rom.Version = version.String
	rom.Author = author.String
	rom.DateUpdated = dateUpdated.String
	unmarshalList(gallery, &rom.Gallery)
	unmarshalList(baseGame, &rom.BaseGame)
	unmarshalList(language, &rom.Language)
	unmarshalList(status, &rom.Status)
	unmarshalList(content, &rom.Content)
	unmarshalList(links, &rom.Links)
	if features.Valid && features.String != "" && features.String != "null" {
		rom.Features = decodeFeatures(features.String)
	}

	return &rom, nil
}

func unmarshalList(col sql.NullString, dest *[]string) {
	if !col.Valid || col.String == "" {
		return
	}
	json.Unmarshal([]byte(col.String), dest)
}
