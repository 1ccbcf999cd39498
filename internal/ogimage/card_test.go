package ogimage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pokeromcodex/server/internal/models"
)

func TestGenerateEscapesText(t *testing.T) {
	rom := &models.Rom{
		Name:   `Fire <Red> & "Friends"`,
		Author: "A & B",
	}

	svg := Generate(rom, "")
	assert.True(t, strings.HasPrefix(svg, `<svg width="1200" height="630"`))
	assert.Contains(t, svg, "Fire &lt;Red&gt; &amp; &#34;Friends&#34;")
	assert.Contains(t, svg, "by A &amp; B")
	assert.NotContains(t, svg, "<Red>")
}

func TestGeneratePaletteDeterministic(t *testing.T) {
	rom := &models.Rom{Name: "Radical Red"}
	assert.Equal(t, Generate(rom, ""), Generate(rom, ""))

	other := Generate(&models.Rom{Name: "Unbound"}, "")
	// Different names usually land on different palette slots; at minimum
	// the output stays stable per name.
	assert.Equal(t, other, Generate(&models.Rom{Name: "Unbound"}, ""))
}

func TestGenerateDetails(t *testing.T) {
	rom := &models.Rom{
		Name:        "Gaia",
		Version:     "3.2",
		Console:     "GBA",
		Status:      []string{"complete"},
		BaseGame:    []string{"FireRed"},
		DateUpdated: "2023/05/09",
		Features:    &models.Features{Qol: []string{"Reusable TMs", "Exp Share", "Fairy type", "Extra"}},
	}

	svg := Generate(rom, "")
	assert.Contains(t, svg, "v3.2", "version is display-normalized")
	assert.Contains(t, svg, "Console: GBA")
	assert.Contains(t, svg, "Updated: May 9, 2023")
	assert.Contains(t, svg, "Reusable TMs")
	assert.NotContains(t, svg, "Extra", "at most three features are shown")
}

func TestGeneratePlaceholderWithoutImage(t *testing.T) {
	svg := Generate(&models.Rom{Name: "NoArt"}, "")
	assert.Contains(t, svg, ">ROM</text>")
	assert.NotContains(t, svg, "<image")
}

func TestGenerateInlinesImageData(t *testing.T) {
	svg := Generate(&models.Rom{Name: "Art"}, "data:image/png;base64,AAAA")
	assert.Contains(t, svg, `href="data:image/png;base64,AAAA"`)
}

func TestShiftAndContrast(t *testing.T) {
	assert.Equal(t, "#ffffff", shiftColor("#ffffff", 20))
	assert.Equal(t, "#000000", shiftColor("#000000", -20))
	assert.Equal(t, "#ffffff", contrastColor("#2c3e50"))
	assert.Equal(t, "#1a1a1a", contrastColor("#f0f0f0"))
	assert.Equal(t, "not-a-color", shiftColor("not-a-color", 20))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "Jan 2, 2024", formatDate("2024/01/02"))
	assert.Equal(t, "soonish", formatDate("soonish"))
	assert.Equal(t, "", formatDate(""))
}
