package gcal

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// palette lists Google Calendar's event colours by colorId.
var palette = []struct {
	ID  string
	Hex string
}{
	{"1", "#a4bdfc"},  // Lavender
	{"2", "#7ae7bf"},  // Sage
	{"3", "#dbadff"},  // Grape
	{"4", "#ff887c"},  // Flamingo
	{"5", "#fbd75b"},  // Banana
	{"6", "#ffb878"},  // Tangerine
	{"7", "#46d6db"},  // Peacock
	{"8", "#e1e1e1"},  // Graphite
	{"9", "#5484ed"},  // Blueberry
	{"10", "#51b749"}, // Basil
	{"11", "#dc2127"}, // Tomato
}

// families maps common roster colours to the Google colour of the same hue:
// green early, yellow late, blue middle, red night and purple special shifts.
var families = []struct {
	id     string
	colors []string
}{
	{"10", []string{"#22c55e", "#4ade80", "#86efac", "#bbf7d0", "#51b749", "#2ecc71", "#27ae60"}},
	{"5", []string{"#eab308", "#facc15", "#fef08a", "#fbd75b", "#f1c40f", "#f39c12"}},
	{"9", []string{"#3b82f6", "#60a5fa", "#93c5fd", "#5484ed", "#3498db", "#2980b9"}},
	{"11", []string{"#ef4444", "#f87171", "#dc2626", "#dc2127", "#e74c3c", "#c0392b"}},
	{"3", []string{"#8b5cf6", "#a78bfa", "#dbadff", "#9b59b6", "#8e44ad"}},
}

var hexColorRe = regexp.MustCompile(`^#?([0-9a-fA-F]{6})$`)

// ColorID returns the Google colorId closest to a "#rrggbb" colour, or ""
// when hex is not a colour. Exact palette hits win, then the known roster
// families, then the nearest palette entry in RGB space.
func ColorID(hex string) string {
	m := hexColorRe.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return ""
	}
	target := "#" + strings.ToLower(m[1])

	for _, p := range palette {
		if p.Hex == target {
			return p.ID
		}
	}
	for _, f := range families {
		for _, c := range f.colors {
			if c == target {
				return f.id
			}
		}
	}

	tr, tg, tb := rgb(target)
	best, bestDist := "", math.Inf(1)
	for _, p := range palette {
		r, g, b := rgb(p.Hex)
		d := math.Sqrt(sq(tr-r) + sq(tg-g) + sq(tb-b))
		if d < bestDist {
			best, bestDist = p.ID, d
		}
	}
	return best
}

// rgb splits a validated "#rrggbb" string.
func rgb(hex string) (r, g, b float64) {
	v, _ := strconv.ParseUint(hex[1:], 16, 32)
	return float64(v >> 16 & 0xff), float64(v >> 8 & 0xff), float64(v & 0xff)
}

func sq(x float64) float64 { return x * x }
