package model

import (
	"fmt"
	"strconv"
	"strings"
)

// PaletteEntry is a named badge color.
type PaletteEntry struct {
	Name string
	Code string
}

// ShieldsIO6Palette is the six color shields.io palette, ordered from the
// highest coverage color to the lowest.
var ShieldsIO6Palette = []PaletteEntry{
	{Name: "brightgreen", Code: "#4c1"},
	{Name: "green", Code: "#97ca00"},
	{Name: "yellowgreen", Code: "#a4a61d"},
	{Name: "yellow", Code: "#dfb317"},
	{Name: "orange", Code: "#fe7d37"},
	{Name: "red", Code: "#e05d44"},
}

// DefaultThresholds is the threshold string used when none is configured.
const DefaultThresholds = "90,80,70,60,50"

// ParseThresholds parses comma separated integers such as "90,80,70,60,50".
func ParseThresholds(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	thresholds := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a comma separated list of integers", ErrInvalidThresholds, s)
		}
		thresholds = append(thresholds, v)
	}
	return thresholds, nil
}

// BadgeColor maps a relative coverage to a palette entry. thresholds[i] is the
// minimum coverage for palette[i]; anything below the last threshold gets the
// last palette entry.
type BadgeColor struct {
	palette    []PaletteEntry
	thresholds []int
}

// NewBadgeColor validates the thresholds against the palette.
func NewBadgeColor(palette []PaletteEntry, thresholds []int) (*BadgeColor, error) {
	if len(palette) < 2 {
		return nil, fmt.Errorf("%w: palette needs at least 2 colors, got %d", ErrInvalidThresholds, len(palette))
	}
	if len(thresholds) != len(palette)-1 {
		return nil, fmt.Errorf("%w: expected %d thresholds for %d colors, got %d",
			ErrInvalidThresholds, len(palette)-1, len(palette), len(thresholds))
	}

	last := 100
	for i, t := range thresholds {
		if t < 0 || t > 100 {
			return nil, fmt.Errorf("%w: threshold %d (%d) is outside 0-100", ErrInvalidThresholds, i+1, t)
		}
		if t > last {
			return nil, fmt.Errorf("%w: threshold %d (%d) is greater than the previous one (%d); thresholds must be in descending order",
				ErrInvalidThresholds, i+1, t, last)
		}
		last = t
	}

	return &BadgeColor{
		palette:    append([]PaletteEntry(nil), palette...),
		thresholds: append([]int(nil), thresholds...),
	}, nil
}

// ParseBadgeColor parses a threshold string for the shields.io palette.
func ParseBadgeColor(thresholds string) (*BadgeColor, error) {
	parsed, err := ParseThresholds(thresholds)
	if err != nil {
		return nil, err
	}
	return NewBadgeColor(ShieldsIO6Palette, parsed)
}

// Thresholds returns a copy of the configured thresholds.
func (c *BadgeColor) Thresholds() []int {
	return append([]int(nil), c.thresholds...)
}

// Index returns the palette index for the given relative coverage.
func (c *BadgeColor) Index(relativeCoverage int) int {
	for i, t := range c.thresholds {
		if relativeCoverage >= t {
			return i
		}
	}
	return len(c.palette) - 1
}

// Color returns the palette entry for the given relative coverage.
func (c *BadgeColor) Color(relativeCoverage int) PaletteEntry {
	return c.palette[c.Index(relativeCoverage)]
}

// Badge is a rendered coverage badge.
type Badge struct {
	RelativeCoverage int
	Color            PaletteEntry
	SVG              string
}
