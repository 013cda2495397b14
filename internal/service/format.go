package service

import (
	"math"
	"strconv"
	"strings"
)

// Formatting helpers shared by the section renderers. Metrics maps store the
// exact same formatted strings that get inlined into chunk text, so a cited
// figure can always be found verbatim in the prose.

func formatCurrency(v float64) string {
	return "$" + groupThousands(int64(math.Round(v)))
}

func formatSignedPct(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	if v >= 0 {
		s = "+" + s
	}
	return s + "%"
}

func formatPct(v float64) string {
	return formatNumber(v) + "%"
}

// formatNumber renders a float without trailing zeros ("10", "50.9").
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatCount(v int) string {
	return groupThousands(int64(v))
}

func groupThousands(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func titleCase(s string) string {
	parts := strings.Split(strings.ReplaceAll(s, "_", " "), " ")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
