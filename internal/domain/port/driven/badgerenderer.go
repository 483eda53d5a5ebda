package driven

import (
	"context"

	"github.com/ericfisherdev/ciannotate/internal/domain/model"
)

// BadgeRenderer renders the coverage badge image. Output must be identical
// for identical inputs.
type BadgeRenderer interface {
	Render(ctx context.Context, relativeCoverage int, color model.PaletteEntry) (string, error)
}
