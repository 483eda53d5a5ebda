// Package badge renders shields.io style coverage badges as SVG.
package badge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/a-h/templ"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
	"github.com/ericfisherdev/ciannotate/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.BadgeRenderer = (*Renderer)(nil)

// colorCodePattern accepts #rgb and #rrggbb hex codes.
var colorCodePattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// Renderer renders the fixed 96x20 "coverage | NN%" badge.
type Renderer struct{}

// NewRenderer creates a badge renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render returns the SVG document for the given coverage and color.
func (r *Renderer) Render(ctx context.Context, relativeCoverage int, color model.PaletteEntry) (string, error) {
	if relativeCoverage < 0 || relativeCoverage > 100 {
		return "", fmt.Errorf("relative coverage %d is outside 0-100", relativeCoverage)
	}
	if !colorCodePattern.MatchString(color.Code) {
		return "", fmt.Errorf("badge color %q has invalid code %q", color.Name, color.Code)
	}

	var buf bytes.Buffer
	if err := Coverage(relativeCoverage, color.Code).Render(ctx, &buf); err != nil {
		return "", fmt.Errorf("rendering badge: %w", err)
	}

	slog.Debug("rendered coverage badge", "coverage", relativeCoverage, "color", color.Name)
	return buf.String(), nil
}

// Coverage is the badge component. It is also served directly by the HTTP
// badge endpoint.
func Coverage(relativeCoverage int, colorCode string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		value := templ.EscapeString(strconv.Itoa(relativeCoverage) + "%")
		label := "coverage: " + value
		fill := templ.EscapeString(colorCode)

		_, err := io.WriteString(w, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="96" height="20" role="img" aria-label="`+label+`">`+
			`<title>`+label+`</title>`+
			`<linearGradient id="s" x2="0" y2="100%">`+
			`<stop offset="0" stop-color="#bbb" stop-opacity=".1"/>`+
			`<stop offset="1" stop-opacity=".1"/>`+
			`</linearGradient>`+
			`<clipPath id="r"><rect width="96" height="20" rx="3" fill="#fff"/></clipPath>`+
			`<g clip-path="url(#r)">`+
			`<rect width="61" height="20" fill="#555"/>`+
			`<rect x="61" width="35" height="20" fill="`+fill+`"/>`+
			`<rect width="96" height="20" fill="url(#s)"/>`+
			`</g>`+
			`<g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="110">`+
			`<text aria-hidden="true" x="315" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="510">coverage</text>`+
			`<text x="315" y="140" transform="scale(.1)" fill="#fff" textLength="510">coverage</text>`+
			`<text aria-hidden="true" x="775" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)" textLength="250">`+value+`</text>`+
			`<text x="775" y="140" transform="scale(.1)" fill="#fff" textLength="250">`+value+`</text>`+
			`</g>`+
			`</svg>`)
		return err
	})
}
