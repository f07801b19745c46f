package ports

import (
	"context"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

// Embedder turns query text into a vector for the nearest-neighbor index.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex performs nearest-neighbor search over one logical namespace
// (general agenda vs. the dedicated meal namespace). Implementations map
// index payloads back into domain sessions with SimilarityScore set.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, limit int, filter domain.VectorFilter) ([]domain.Session, error)
}

// SessionRepository is the keyword-searchable record store.
type SessionRepository interface {
	// SearchAllTerms returns sessions whose title or description contains
	// every one of the given terms (case-insensitive).
	SearchAllTerms(ctx context.Context, terms []string) ([]domain.Session, error)
	// SearchAnyTerm returns sessions whose title contains any of the terms,
	// or whose speaker names match namePattern when it is non-empty.
	SearchAnyTerm(ctx context.Context, terms []string, namePattern string) ([]domain.Session, error)
	// ListAll scans the full corpus; used only by the fuzzy fallback tier.
	ListAll(ctx context.Context) ([]domain.Session, error)

	SpeakersByIDs(ctx context.Context, ids []string) ([]domain.SpeakerDetail, error)
	SpeakersByName(ctx context.Context, names []string) ([]domain.SpeakerDetail, error)
	RelatedByOverlap(ctx context.Context, tags []string, track, excludeID string, limit int) ([]domain.RelatedSession, error)
	RegistrationCount(ctx context.Context, sessionID string) (int, error)
}

// EventPublisher emits best-effort search analytics events.
type EventPublisher interface {
	PublishSearchPerformed(ctx context.Context, event domain.SearchEvent) error
}

// EventSink persists consumed analytics events (worker side).
type EventSink interface {
	RecordSearchEvent(ctx context.Context, event domain.SearchEvent) error
}
