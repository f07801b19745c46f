package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

const maxRelatedSessions = 3

// expertiseVocabulary is the fixed keyword list scanned against speaker
// bios to derive expertise tags.
var expertiseVocabulary = []string{
	"artificial intelligence", "machine learning", "insurtech", "claims",
	"underwriting", "cyber", "data science", "analytics", "cloud",
	"blockchain", "distribution", "embedded insurance", "climate",
	"health insurance", "life insurance", "reinsurance", "telematics",
	"fraud", "customer experience", "digital transformation",
}

// speakerDetails resolves, fetches, and caches detail records for every
// speaker attached to the session.
func (e *Enricher) speakerDetails(ctx context.Context, s *domain.Session) ([]domain.SpeakerDetail, error) {
	if len(s.Speakers) == 0 {
		return nil, nil
	}

	var (
		details  []domain.SpeakerDetail
		uncached []string
		byName   []string
	)
	for _, ref := range s.Speakers {
		if ref.ID == "" {
			if ref.Name != "" {
				byName = append(byName, ref.Name)
			}
			continue
		}
		if detail, ok := e.caches.Speakers.Get(ref.ID); ok {
			details = append(details, detail)
			continue
		}
		uncached = append(uncached, ref.ID)
	}

	if len(uncached) > 0 {
		fetched, err := e.repo.SpeakersByIDs(ctx, uncached)
		if err != nil {
			return nil, fmt.Errorf("fetch speakers by id: %w", err)
		}
		for _, detail := range fetched {
			detail.Expertise = deriveExpertise(detail.Bio)
			e.caches.Speakers.Set(detail.ID, detail)
			details = append(details, detail)
		}
	}

	if len(byName) > 0 {
		fetched, err := e.repo.SpeakersByName(ctx, byName)
		if err != nil {
			return nil, fmt.Errorf("fetch speakers by name: %w", err)
		}
		for _, detail := range fetched {
			detail.Expertise = deriveExpertise(detail.Bio)
			if detail.ID != "" {
				e.caches.Speakers.Set(detail.ID, detail)
			}
			details = append(details, detail)
		}
	}

	return details, nil
}

// deriveExpertise scans a bio against the fixed vocabulary.
func deriveExpertise(bio string) []string {
	if bio == "" {
		return nil
	}
	lower := strings.ToLower(bio)
	var out []string
	for _, keyword := range expertiseVocabulary {
		if strings.Contains(lower, keyword) {
			out = append(out, keyword)
		}
	}
	return out
}

// relatedSessions finds up to maxRelatedSessions similar sessions,
// preferring vector similarity on the candidate's title and falling back
// to tag/track overlap in the record store.
func (e *Enricher) relatedSessions(ctx context.Context, s *domain.Session) ([]domain.RelatedSession, error) {
	if cached, ok := e.caches.Related.Get(s.ID); ok {
		return cached, nil
	}

	related := e.relatedByVector(ctx, s)
	if len(related) == 0 {
		var err error
		related, err = e.repo.RelatedByOverlap(ctx, s.Tags, s.Track, s.ID, maxRelatedSessions)
		if err != nil {
			return nil, fmt.Errorf("related by overlap: %w", err)
		}
	}
	if len(related) > maxRelatedSessions {
		related = related[:maxRelatedSessions]
	}

	e.caches.Related.Set(s.ID, related)
	return related, nil
}

// relatedByVector is best-effort; any failure just defers to the overlap
// fallback.
func (e *Enricher) relatedByVector(ctx context.Context, s *domain.Session) []domain.RelatedSession {
	if e.embedder == nil || e.index == nil {
		return nil
	}
	vector, err := e.embedder.EmbedQuery(ctx, s.Title)
	if err != nil {
		e.logger.Debug("related_embed_failed", "session_id", s.ID, "error", err)
		return nil
	}
	matches, err := e.index.Search(ctx, vector, maxRelatedSessions+1, domain.VectorFilter{ExcludeID: s.ID})
	if err != nil {
		e.logger.Debug("related_vector_search_failed", "session_id", s.ID, "error", err)
		return nil
	}

	var out []domain.RelatedSession
	for _, match := range matches {
		if match.ID == s.ID {
			continue
		}
		out = append(out, domain.RelatedSession{ID: match.ID, Title: match.Title, Track: match.Track})
		if len(out) == maxRelatedSessions {
			break
		}
	}
	return out
}
