package ports

import (
	"context"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

// SearchOptions are the recognized per-query options.
type SearchOptions struct {
	UserID               string
	UserContext          *domain.UserContext
	IncludeEnrichments   bool
	IncludeFormatting    bool
	ApplyPersonalization bool
	// DebugScores adds the raw five-score line to each formatted entry.
	DebugScores bool
}

// SessionSearchService is the pipeline's single inbound contract.
type SessionSearchService interface {
	Search(ctx context.Context, query string, limit int, opts SearchOptions) (*domain.SearchResult, error)
}
