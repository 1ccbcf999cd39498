// Package catalog is the query layer between the HTTP handlers and the
// relational store: paginated listing, free-text plus faceted search,
// filter-option discovery, and layered TTL caching in front of all of it.
//
// Store failures never propagate: they are logged and absorbed, and the
// caller sees an empty result so page rendering degrades gracefully.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pokeromcodex/server/internal/cache"
	"github.com/pokeromcodex/server/internal/models"
	"github.com/pokeromcodex/server/internal/storage"
)

// DefaultPageSize is used when a caller passes a non-positive page size.
const DefaultPageSize = 20

// overFetchFactor widens the store window when client-side facet
// filtering will discard rows, so enough candidates survive to fill a
// page.
const overFetchFactor = 5

// Store is what the catalog layer needs from the relational store.
type Store interface {
	QueryRoms(ctx context.Context, q storage.RomQuery) ([]models.Rom, int, error)
	GetRomByID(ctx context.Context, id int64) (*models.Rom, error)
	GetRomBySlug(ctx context.Context, slug string) (*models.Rom, error)
	AllRoms(ctx context.Context) ([]models.Rom, error)
	DistinctFacets(ctx context.Context) (*models.FilterOptions, error)
}

// Result is one page of a search together with the total match count.
type Result struct {
	Items []models.Rom
	Count int
}

// Config carries the cache tuning knobs. Zero values fall back to the
// defaults (10 min search TTL, 30 min snapshot and options TTLs).
type Config struct {
	SearchTTL   time.Duration
	SnapshotTTL time.Duration
	OptionsTTL  time.Duration

	// Clock overrides the cache time source; tests step it past the TTLs.
	Clock func() time.Time
}

// Service answers catalog reads. All cache state lives on the service:
// one keyed result cache plus two snapshot slots for the zero-query,
// zero-filter, page-1 case, and a typed slot for filter options. Lookup
// precedence is first-page slot (ListPage only), then the keyed cache,
// then the all-items slot; tiers expire independently and are never
// cross-invalidated, so they may disagree for at most the smaller TTL.
type Service struct {
	store Store
	log   *zap.Logger

	results   *cache.TTL[Result]
	roms      *cache.TTL[*models.Rom]
	allItems  *cache.Slot[Result]
	firstPage *cache.Slot[Result]
	options   *cache.Slot[models.FilterOptions]
}

// New builds a Service with its caches constructed once and owned by it.
func New(store Store, log *zap.Logger, cfg Config) *Service {
	if cfg.SearchTTL <= 0 {
		cfg.SearchTTL = 10 * time.Minute
	}
	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = 30 * time.Minute
	}
	if cfg.OptionsTTL <= 0 {
		cfg.OptionsTTL = 30 * time.Minute
	}
	var opts []cache.Option
	if cfg.Clock != nil {
		opts = append(opts, cache.WithClock(cfg.Clock))
	}
	return &Service{
		store:     store,
		log:       log,
		results:   cache.NewTTL[Result](cfg.SearchTTL, opts...),
		roms:      cache.NewTTL[*models.Rom](cfg.SearchTTL, opts...),
		allItems:  cache.NewSlot[Result](cfg.SnapshotTTL, opts...),
		firstPage: cache.NewSlot[Result](cfg.SnapshotTTL, opts...),
		options:   cache.NewSlot[models.FilterOptions](cfg.OptionsTTL, opts...),
	}
}

// ListPage returns one page of the unfiltered catalog. Page 1 is served
// from a dedicated snapshot when fresh.
func (s *Service) ListPage(ctx context.Context, page, pageSize int) Result {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if page == 1 {
		if snap, ok := s.firstPage.Get(); ok && len(snap.Items) >= min(pageSize, snap.Count) {
			return Result{Items: snap.Items[:min(pageSize, len(snap.Items))], Count: snap.Count}
		}
	}

	result := s.Search(ctx, "", models.SearchFilters{}, page, pageSize)
	if page == 1 {
		s.firstPage.Set(result)
	}
	return result
}

// Search runs the full pipeline: cache lookup, server-pushable query,
// over-fetch when client-only facets are present, client-side facet
// predicates, truncation, caching.
//
// Facet semantics: baseGame and status require every requested value
// (AND); difficulty and features match any requested value (OR). The
// split is deliberate and relied on by the filter UI.
//
// Count policy: with no client-only filtering the store's exact count is
// reported. With client-only filtering the count is the size of the
// locally filtered over-fetched window; it undercounts when more matches
// exist beyond that window. This is an inherent approximation of
// filtering after pagination, not a bug.
func (s *Service) Search(ctx context.Context, query string, filters models.SearchFilters, page, pageSize int) Result {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	key := searchKey(query, filters, page, pageSize)
	if r, ok := s.results.Get(key); ok {
		return r
	}

	noQuery := strings.TrimSpace(query) == ""
	noFilters := filters.Empty()

	if noQuery && noFilters && page == 1 {
		if snap, ok := s.allItems.Get(); ok {
			r := Result{Items: snap.Items[:min(pageSize, len(snap.Items))], Count: snap.Count}
			s.results.Set(key, r)
			return r
		}
	}

	clientOnly := !noFilters
	limit := pageSize
	if clientOnly {
		limit = pageSize * overFetchFactor
	}

	items, total, err := s.store.QueryRoms(ctx, storage.RomQuery{
		Terms:  splitTerms(query),
		Offset: (page - 1) * pageSize,
		Limit:  limit,
	})
	if err != nil {
		s.log.Error("rom search failed", zap.String("query", query), zap.Error(err))
		return Result{Items: []models.Rom{}, Count: 0}
	}

	for i := range items {
		normalize(&items[i])
	}

	filtered := applyFilters(items, filters)

	if noQuery && noFilters && page == 1 {
		s.allItems.Set(Result{Items: filtered, Count: total})
	}

	count := total
	if clientOnly {
		count = len(filtered)
	}
	if len(filtered) > pageSize {
		filtered = filtered[:pageSize]
	}

	r := Result{Items: filtered, Count: count}
	s.results.Set(key, r)
	return r
}

// GetByID returns a rom by ID, nil when the id is malformed, unknown or
// the store fails.
func (s *Service) GetByID(ctx context.Context, id int64) *models.Rom {
	if id <= 0 {
		return nil
	}

	key := fmt.Sprintf("rom:id:%d", id)
	if rom, ok := s.roms.Get(key); ok {
		return rom
	}

	rom, err := s.store.GetRomByID(ctx, id)
	if err != nil {
		s.log.Error("get rom by id failed", zap.Int64("id", id), zap.Error(err))
		return nil
	}
	if rom == nil {
		return nil
	}

	normalize(rom)
	s.roms.Set(key, rom)
	return rom
}

// GetBySlug returns a rom by slug. When no stored slug matches it falls
// back to a linear scan comparing derived slugs, for rows imported
// before slugs were precomputed.
func (s *Service) GetBySlug(ctx context.Context, slug string) *models.Rom {
	if slug == "" {
		return nil
	}

	key := "rom:slug:" + slug
	if rom, ok := s.roms.Get(key); ok {
		return rom
	}

	rom, err := s.store.GetRomBySlug(ctx, slug)
	if err != nil {
		s.log.Error("get rom by slug failed", zap.String("slug", slug), zap.Error(err))
		return nil
	}

	if rom == nil {
		rom = s.scanForSlug(ctx, slug)
		if rom == nil {
			return nil
		}
	}

	normalize(rom)
	s.roms.Set(key, rom)
	return rom
}

func (s *Service) scanForSlug(ctx context.Context, slug string) *models.Rom {
	all, err := s.store.AllRoms(ctx)
	if err != nil {
		s.log.Error("slug scan failed", zap.String("slug", slug), zap.Error(err))
		return nil
	}
	for i := range all {
		if Slugify(all[i].Name) == slug {
			return &all[i]
		}
	}
	return nil
}

// FilterOptions returns the deduplicated facet vocabulary, cached in a
// typed slot so a stale or malformed payload can never be handed out.
func (s *Service) FilterOptions(ctx context.Context) models.FilterOptions {
	if opts, ok := s.options.Get(); ok {
		return opts
	}

	opts, err := s.store.DistinctFacets(ctx)
	if err != nil || opts == nil {
		s.log.Error("filter options fetch failed", zap.Error(err))
		return models.FilterOptions{
			BaseGames:    []string{},
			Statuses:     []string{},
			Difficulties: []string{},
			Features:     []string{},
		}
	}

	s.options.Set(*opts)
	return *opts
}

// normalize applies the read-side invariants: version display form and a
// derived slug when none is stored.
func normalize(rom *models.Rom) {
	rom.Version = NormalizeVersion(rom.Version)
	if rom.Slug == "" {
		rom.Slug = Slugify(rom.Name)
	}
}

// searchKey canonicalizes the query tuple into an opaque cache key.
func searchKey(query string, filters models.SearchFilters, page, pageSize int) string {
	key, _ := json.Marshal(struct {
		Query    string               `json:"q"`
		Filters  models.SearchFilters `json:"f"`
		Page     int                  `json:"p"`
		PageSize int                  `json:"s"`
	}{query, filters, page, pageSize})
	return string(key)
}

func splitTerms(query string) []string {
	return strings.Fields(strings.TrimSpace(query))
}

func applyFilters(items []models.Rom, filters models.SearchFilters) []models.Rom {
	filtered := items
	if len(filters.BaseGame) > 0 {
		filtered = keep(filtered, func(r *models.Rom) bool {
			return containsAll(r.BaseGame, filters.BaseGame)
		})
	}
	if len(filters.Status) > 0 {
		filtered = keep(filtered, func(r *models.Rom) bool {
			return containsAll(r.Status, filters.Status)
		})
	}
	if len(filters.Difficulty) > 0 {
		filtered = keep(filtered, func(r *models.Rom) bool {
			return containsAny(r.Difficulty(), filters.Difficulty)
		})
	}
	if len(filters.Features) > 0 {
		filtered = keep(filtered, func(r *models.Rom) bool {
			return containsAny(r.QolFeatures(), filters.Features)
		})
	}
	return filtered
}

func keep(items []models.Rom, pred func(*models.Rom) bool) []models.Rom {
	out := make([]models.Rom, 0, len(items))
	for i := range items {
		if pred(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// containsAll reports whether have includes every wanted value.
func containsAll(have, want []string) bool {
	for _, w := range want {
		if !contains(have, w) {
			return false
		}
	}
	return true
}

// containsAny reports whether have includes at least one wanted value.
func containsAny(have, want []string) bool {
	for _, w := range want {
		if contains(have, w) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
