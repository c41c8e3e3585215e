// Package catalog holds the curated nail-art trend keywords offered by the
// Inspo unlock roulette.
package catalog

import (
	"math/rand"
	"net/url"
)

// Categories groups the curated keywords.
var Categories = map[string][]string{
	"aesthetics": {
		"Kawaii character aesthetic",
		"Harajuku street style",
		"Korean beauty editorial",
		"Gen Z nail art",
	},
	"3d_elements": {
		"3D jelly art",
		"Maximalist 3D charms",
		"Dimensional gem clusters",
		"Sculptural pearl accents",
	},
	"finishes": {
		"Chrome powder mirror finish",
		"Syrup gel gradient",
		"Glass skin translucent",
		"Airbrush aura effect",
		"Velvet matte texture",
	},
	"kawaii": {
		"Coquette bows and ribbons",
		"Magical girl aesthetic",
	},
	"colors": {
		"Digital lavender",
		"Matcha latte greens",
		"Peach fuzz pastels",
		"Cyber Y2K metallics",
	},
	"concepts": {
		"Micro French tips",
		"Negative space minimalism",
		"Abstract squiggle art",
		"Polka dot nail art",
	},
	"details": {
		"Tiny rhinestone clusters",
		"Aurora film strips",
		"Magnetic cat eye",
	},
	"viral": {
		"Glazed donut nails",
		"Aura nails",
		"Velvet nails",
		"Korean blush nails",
		"Balletcore nails",
	},
}

var categoryOrder = []string{"aesthetics", "3d_elements", "finishes", "kawaii", "colors", "concepts", "details", "viral"}

// All returns every keyword in a stable order.
func All() []string {
	out := make([]string, 0, 40)
	for _, name := range categoryOrder {
		out = append(out, Categories[name]...)
	}
	return out
}

// Picker selects keywords at random.
type Picker struct {
	keywords []string
	intn     func(n int) int
}

// NewPicker returns a picker over All. A nil intn uses math/rand.
func NewPicker(intn func(n int) int) *Picker {
	if intn == nil {
		intn = rand.Intn
	}
	return &Picker{keywords: All(), intn: intn}
}

// Pick returns one keyword.
func (p *Picker) Pick() string {
	return p.keywords[p.intn(len(p.keywords))]
}

// PinterestURL builds the search link a keyword opens in the client.
func PinterestURL(keyword string) string {
	return "https://www.pinterest.com/search/pins/?q=" + url.QueryEscape(keyword+" nail art")
}
