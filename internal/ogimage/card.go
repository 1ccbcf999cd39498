// Package ogimage renders 1200x630 social-preview cards as SVG. The card
// palette is derived deterministically from the rom name so a given rom
// always gets the same colors.
package ogimage

import (
	"context"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pokeromcodex/server/internal/catalog"
	"github.com/pokeromcodex/server/internal/models"
)

const (
	cardWidth  = 1200
	cardHeight = 630
)

var basePalette = []string{
	"#2c3e50", "#34495e", "#16a085", "#27ae60",
	"#2980b9", "#8e44ad", "#c0392b", "#d35400",
}

// Generate renders the card for a rom. imageData is an optional data URI
// with the cover art; when empty the card falls back to a placeholder
// block.
func Generate(rom *models.Rom, imageData string) string {
	bg := pickColor(rom.Name)
	bgLight := shiftColor(bg, 20)
	bgDark := shiftColor(bg, -20)
	text := contrastColor(bg)

	title := escape(rom.Name)
	author := escape(firstNonEmpty(rom.Author, "Unknown Author"))
	baseGame := "Pokemon"
	if len(rom.BaseGame) > 0 {
		baseGame = rom.BaseGame[0]
	}
	version := catalog.NormalizeVersion(rom.Version)
	status := ""
	if len(rom.Status) > 0 {
		status = rom.Status[0]
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, cardWidth, cardHeight)
	fmt.Fprintf(&b, `<defs><linearGradient id="bg" x1="0%%" y1="0%%" x2="100%%" y2="100%%">`+
		`<stop offset="0%%" stop-color="%s"/><stop offset="50%%" stop-color="%s"/><stop offset="100%%" stop-color="%s"/>`+
		`</linearGradient>`, bgLight, bg, bgDark)
	b.WriteString(`<clipPath id="cover"><rect x="50" y="50" width="280" height="280" rx="20"/></clipPath></defs>`)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="url(#bg)"/>`, cardWidth, cardHeight)
	fmt.Fprintf(&b, `<rect x="40" y="40" width="1120" height="550" rx="28" fill="%s" fill-opacity="0.08"/>`, text)

	if imageData != "" {
		fmt.Fprintf(&b, `<g clip-path="url(#cover)"><image x="50" y="50" width="280" height="280" href="%s" preserveAspectRatio="xMidYMid slice"/></g>`, escape(imageData))
	} else {
		fmt.Fprintf(&b, `<rect x="50" y="50" width="280" height="280" rx="20" fill="%s"/>`, bgDark)
		fmt.Fprintf(&b, `<text x="190" y="205" font-family="sans-serif" font-size="28" font-weight="600" text-anchor="middle" fill="%s" fill-opacity="0.8">ROM</text>`, text)
	}

	fmt.Fprintf(&b, `<text x="350" y="110" font-family="sans-serif" font-size="52" font-weight="800" fill="%s">%s</text>`, text, title)
	fmt.Fprintf(&b, `<text x="350" y="170" font-family="sans-serif" font-size="34" font-weight="600" fill="%s" fill-opacity="0.9">by %s</text>`, text, author)

	// Badge row: base game, then version and status when present.
	x := 350
	x = badge(&b, x, baseGame, text)
	if version != "" {
		x = badge(&b, x, version, text)
	}
	if status != "" {
		badge(&b, x, status, text)
	}

	// Feature and detail columns.
	fmt.Fprintf(&b, `<text x="380" y="320" font-family="sans-serif" font-size="26" font-weight="700" fill="%s" fill-opacity="0.85">Features</text>`, text)
	features := rom.QolFeatures()
	if len(features) == 0 {
		fmt.Fprintf(&b, `<text x="380" y="360" font-family="sans-serif" font-size="18" fill="%s" fill-opacity="0.6">No features listed</text>`, text)
	}
	for i, f := range features {
		if i == 3 {
			break
		}
		if len(f) > 28 {
			f = f[:28] + "..."
		}
		fmt.Fprintf(&b, `<text x="380" y="%d" font-family="sans-serif" font-size="20" fill="%s" fill-opacity="0.75">- %s</text>`, 360+i*30, text, escape(f))
	}

	fmt.Fprintf(&b, `<text x="710" y="320" font-family="sans-serif" font-size="26" font-weight="700" fill="%s" fill-opacity="0.85">Details</text>`, text)
	y := 360
	if rom.Console != "" {
		fmt.Fprintf(&b, `<text x="710" y="%d" font-family="sans-serif" font-size="20" fill="%s" fill-opacity="0.75">Console: %s</text>`, y, text, escape(rom.Console))
		y += 35
	}
	if updated := formatDate(rom.DateUpdated); updated != "" {
		fmt.Fprintf(&b, `<text x="710" y="%d" font-family="sans-serif" font-size="20" fill="%s" fill-opacity="0.75">Updated: %s</text>`, y, text, escape(updated))
		y += 35
	}
	if version != "" {
		fmt.Fprintf(&b, `<text x="710" y="%d" font-family="sans-serif" font-size="20" fill="%s" fill-opacity="0.75">Version: %s</text>`, y, text, escape(version))
	}

	fmt.Fprintf(&b, `<text x="350" y="560" font-family="sans-serif" font-size="24" font-weight="700" fill="%s" fill-opacity="0.7">PokeRomCodex</text>`, text)
	b.WriteString(`</svg>`)
	return b.String()
}

func badge(b *strings.Builder, x int, label, text string) int {
	width := len(label)*11 + 40
	fmt.Fprintf(b, `<rect x="%d" y="195" width="%d" height="44" rx="22" fill="%s" fill-opacity="0.15"/>`, x, width, text)
	fmt.Fprintf(b, `<text x="%d" y="225" font-family="sans-serif" font-size="18" font-weight="700" text-anchor="middle" fill="%s">%s</text>`, x+width/2, text, escape(label))
	return x + width + 20
}

// FetchImageData downloads a cover image and returns it inlined as a
// base64 data URI. Any failure degrades to an empty string; the card
// falls back to its placeholder block.
func FetchImageData(ctx context.Context, client *http.Client, url string) string {
	if url == "" {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return ""
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(body)
}

// pickColor hashes a name into the base palette.
func pickColor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return basePalette[int(h.Sum32())%len(basePalette)]
}

// shiftColor lightens (positive) or darkens (negative) a #rrggbb color
// by a percentage of full scale.
func shiftColor(hex string, percent int) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return hex
	}
	delta := 255 * percent / 100
	return fmt.Sprintf("#%02x%02x%02x", clamp(r+delta), clamp(g+delta), clamp(b+delta))
}

// contrastColor returns black or white, whichever reads better on the
// given background.
func contrastColor(hex string) string {
	r, g, b, ok := parseHex(hex)
	if !ok {
		return "#ffffff"
	}
	// Perceived luminance, ITU-R BT.601.
	luma := (299*r + 587*g + 114*b) / 1000
	if luma > 140 {
		return "#1a1a1a"
	}
	return "#ffffff"
}

func parseHex(hex string) (r, g, b int, ok bool) {
	if len(hex) != 7 || hex[0] != '#' {
		return 0, 0, 0, false
	}
	rv, err1 := strconv.ParseInt(hex[1:3], 16, 32)
	gv, err2 := strconv.ParseInt(hex[3:5], 16, 32)
	bv, err3 := strconv.ParseInt(hex[5:7], 16, 32)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return int(rv), int(gv), int(bv), true
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// formatDate turns a stored "YYYY/MM/DD" into "Mon D, YYYY", passing
// anything unparseable through unchanged.
func formatDate(raw string) string {
	if raw == "" {
		return ""
	}
	t, err := time.Parse("2006/01/02", raw)
	if err != nil {
		return raw
	}
	return t.Format("Jan 2, 2006")
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
