package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
)

const (
	minVectorResults  = 3
	keywordStageATerm = 2
	keywordStageBTerm = 3
	fuzzyMatchRatio   = 0.5
)

// SearchConfig carries the orchestration knobs.
type SearchConfig struct {
	VectorTopK   int
	EnrichTopN   int
	DisplayLimit int
}

func (c SearchConfig) normalize() SearchConfig {
	if c.VectorTopK <= 0 {
		c.VectorTopK = 25
	}
	if c.EnrichTopN <= 0 {
		c.EnrichTopN = 10
	}
	if c.DisplayLimit <= 0 {
		c.DisplayLimit = defaultDisplayLimit
	}
	return c
}

// SearchUseCase coordinates the full pipeline: strategy selection, staged
// retrieval with fallback, reranking, dedup/diversity, enrichment, and
// formatting.
type SearchUseCase struct {
	embedder  ports.Embedder
	general   ports.VectorIndex
	meals     ports.VectorIndex
	repo      ports.SessionRepository
	enricher  *Enricher
	publisher ports.EventPublisher
	logger    *slog.Logger
	cfg       SearchConfig
}

func NewSearchUseCase(
	embedder ports.Embedder,
	general ports.VectorIndex,
	meals ports.VectorIndex,
	repo ports.SessionRepository,
	enricher *Enricher,
	publisher ports.EventPublisher,
	logger *slog.Logger,
	cfg SearchConfig,
) *SearchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SearchUseCase{
		embedder:  embedder,
		general:   general,
		meals:     meals,
		repo:      repo,
		enricher:  enricher,
		publisher: publisher,
		logger:    logger,
		cfg:       cfg.normalize(),
	}
}

var _ ports.SessionSearchService = (*SearchUseCase)(nil)

// Search runs one query through the pipeline. A malformed or empty query
// is a valid input that produces few or zero matches; backend failures
// degrade to the next retrieval tier and never surface as errors.
func (uc *SearchUseCase) Search(ctx context.Context, query string, limit int, opts ports.SearchOptions) (*domain.SearchResult, error) {
	start := time.Now()
	now := start
	timings := make(map[string]int64, 6)

	decision := classifyQuery(query)

	candidates, method := uc.retrieve(ctx, query, decision)
	timings["retrieval"] = time.Since(start).Milliseconds()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var userCtx *domain.UserContext
	if opts.ApplyPersonalization {
		userCtx = opts.UserContext
	}

	stage := time.Now()
	ranked := rerankSessions(candidates, query, userCtx, now)
	timings["rerank"] = time.Since(stage).Milliseconds()

	stage = time.Now()
	ranked = boostDiversity(dedupeSessions(ranked))
	timings["dedupe"] = time.Since(stage).Milliseconds()

	totalFound := len(ranked)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stage = time.Now()
	if opts.IncludeEnrichments && uc.enricher != nil {
		enrichOpts := DefaultEnrichmentOptions()
		enrichOpts.TopN = uc.cfg.EnrichTopN
		ranked = uc.enricher.EnrichTop(ctx, ranked, enrichOpts, now)
	} else {
		for i := range ranked {
			annotateTemporal(&ranked[i], now)
		}
	}
	timings["enrich"] = time.Since(stage).Milliseconds()

	result := &domain.SearchResult{
		Sessions:     ranked,
		SearchMethod: method,
		QueryType:    decision.QueryType,
		TotalFound:   totalFound,
	}

	if opts.IncludeFormatting {
		stage = time.Now()
		result.FormattedResponse = formatResponse(ranked, query, decision.QueryType, totalFound, now, formatOptions{
			DisplayLimit: uc.cfg.DisplayLimit,
			DebugScores:  opts.DebugScores,
		})
		timings["format"] = time.Since(stage).Milliseconds()
	}

	timings["total"] = time.Since(start).Milliseconds()
	result.Timings = timings

	uc.publishEvent(ctx, query, opts.UserID, result)
	return result, nil
}

// retrieve runs the staged retrieval tiers, catching each tier's failure
// locally so a broken backend only costs its own tier.
func (uc *SearchUseCase) retrieve(ctx context.Context, query string, decision routeDecision) ([]domain.Session, domain.SearchMethod) {
	var (
		candidates []domain.Session
		method     domain.SearchMethod
	)
	seen := make(map[string]struct{})
	add := func(batch []domain.Session) int {
		added := 0
		for _, s := range batch {
			if _, dup := seen[s.ID]; dup {
				continue
			}
			seen[s.ID] = struct{}{}
			candidates = append(candidates, s)
			added++
		}
		return added
	}

	if decision.IsMealQuery {
		method = domain.MethodMealVector
		if batch, err := uc.vectorSearch(ctx, uc.meals, enhanceMealQuery(query)); err != nil {
			uc.logger.Warn("meal_tier_failed", "query", query, "error", err)
		} else if add(batch) > 0 {
			return candidates, method
		}
		if ctx.Err() != nil {
			return candidates, method
		}
	}

	method = domain.MethodVector
	if batch, err := uc.vectorSearch(ctx, uc.general, query); err != nil {
		uc.logger.Warn("vector_tier_failed", "query", query, "error", err)
	} else {
		add(batch)
	}
	if len(candidates) >= minVectorResults || ctx.Err() != nil {
		return candidates, method
	}

	terms := extractSearchTerms(query)
	if len(terms) > 0 {
		method = domain.MethodKeyword
		strict := terms
		if len(strict) > keywordStageATerm {
			strict = strict[:keywordStageATerm]
		}
		if batch, err := uc.repo.SearchAllTerms(ctx, strict); err != nil {
			uc.logger.Warn("keyword_strict_tier_failed", "query", query, "error", err)
		} else {
			add(batch)
		}

		if len(candidates) < minVectorResults && ctx.Err() == nil {
			broad := terms
			if len(broad) > keywordStageBTerm {
				broad = broad[:keywordStageBTerm]
			}
			if batch, err := uc.repo.SearchAnyTerm(ctx, broad, extractNamePattern(query)); err != nil {
				uc.logger.Warn("keyword_broad_tier_failed", "query", query, "error", err)
			} else {
				add(batch)
			}
		}
	}
	if len(candidates) > 0 || ctx.Err() != nil {
		return candidates, method
	}

	method = domain.MethodDatabase
	if batch, err := uc.fuzzyScan(ctx, query); err != nil {
		uc.logger.Warn("fuzzy_tier_failed", "query", query, "error", err)
	} else {
		add(batch)
	}
	return candidates, method
}

func (uc *SearchUseCase) vectorSearch(ctx context.Context, index ports.VectorIndex, query string) ([]domain.Session, error) {
	if uc.embedder == nil || index == nil {
		return nil, domain.ErrBackendUnavailable
	}
	vector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return index.Search(ctx, vector, uc.cfg.VectorTopK, domain.VectorFilter{})
}

// fuzzyScan is the last-resort tier: score every record by the fraction
// of non-trivial query tokens it contains and keep those at or above
// half the token count.
func (uc *SearchUseCase) fuzzyScan(ctx context.Context, query string) ([]domain.Session, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	all, err := uc.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []domain.Session
	for _, s := range all {
		haystack := strings.ToLower(s.Title + " " + s.Description + " " + strings.Join(s.Tags, " "))
		hits := 0
		for _, token := range tokens {
			if strings.Contains(haystack, token) {
				hits++
			}
		}
		ratio := float64(hits) / float64(len(tokens))
		if ratio >= fuzzyMatchRatio {
			score := ratio
			s.SimilarityScore = &score
			out = append(out, s)
		}
	}
	return out, nil
}

// publishEvent is best-effort analytics; failures are logged and dropped.
func (uc *SearchUseCase) publishEvent(ctx context.Context, query, userID string, result *domain.SearchResult) {
	if uc.publisher == nil {
		return
	}
	event := domain.SearchEvent{
		ID:         uuid.NewString(),
		Query:      query,
		UserID:     userID,
		Method:     result.SearchMethod,
		QueryType:  result.QueryType,
		TotalFound: result.TotalFound,
		DurationMS: result.Timings["total"],
	}
	if err := uc.publisher.PublishSearchPerformed(ctx, event); err != nil {
		uc.logger.Warn("search_event_publish_failed", "error", err)
	}
}
