package catalog

import (
	"context"

	"github.com/vytor/dailyalbum/internal/models"
)

// Client resolves album ids to display summaries.
// A nil summary with a nil error means the id is unknown to the catalog.
type Client interface {
	FetchEntitySummary(ctx context.Context, id string) (*models.EntitySummary, error)
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*CachedClient)(nil)
)
