package models

// Rom represents a single catalog entry: one ROM hack with its metadata.
// Array-valued and nested fields are stored as JSON in the database.
type Rom struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Console     string    `json:"console,omitempty"`
	Image       string    `json:"image,omitempty"`
	Gallery     []string  `json:"gallery,omitempty"`
	BaseGame    []string  `json:"base_game,omitempty"`
	Language    []string  `json:"language,omitempty"`
	Status      []string  `json:"status,omitempty"`
	Content     []string  `json:"content,omitempty"`
	Version     string    `json:"version,omitempty"`
	Author      string    `json:"author,omitempty"`
	DateUpdated string    `json:"date_updated,omitempty"`
	Features    *Features `json:"features,omitempty"`
	Links       []string  `json:"links,omitempty"`
}

// Features groups the facet lists nested under a rom. Every field is
// optional; a missing group means "nothing recorded", not "none".
type Features struct {
	Qol                     []string `json:"qol,omitempty"`
	Tone                    []string `json:"tone,omitempty"`
	Scale                   []string `json:"scale,omitempty"`
	Sprites                 []string `json:"sprites,omitempty"`
	NewFeatures             []string `json:"new_features,omitempty"`
	CatchablePokemons       []string `json:"catchable_pokemons,omitempty"`
	GameplayDifficulty      []string `json:"gameplay_difficulty,omitempty"`
	AlteredAdjustedGameplay []string `json:"altered_adjusted_gameplay,omitempty"`
}

// Difficulty returns the gameplay-difficulty facet values, nil-safe.
func (r *Rom) Difficulty() []string {
	if r.Features == nil {
		return nil
	}
	return r.Features.GameplayDifficulty
}

// QolFeatures returns the quality-of-life facet values, nil-safe.
func (r *Rom) QolFeatures() []string {
	if r.Features == nil {
		return nil
	}
	return r.Features.Qol
}

// RomList is a page of roms together with the total match count.
type RomList struct {
	Items      []Rom `json:"items"`
	TotalCount int   `json:"total_count"`
}
