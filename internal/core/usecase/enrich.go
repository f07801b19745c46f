package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/adb1146/itc-conference-app-sub001/internal/cache"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
)

// EnrichmentOptions toggles each enrichment kind independently.
type EnrichmentOptions struct {
	Speakers     bool
	Related      bool
	Availability bool
	Location     bool
	Dietary      bool
	// TopN caps how many leading candidates are enriched; the rest pass
	// through with only their temporal fields computed.
	TopN int
}

// DefaultEnrichmentOptions enables every kind for the top 10 candidates.
func DefaultEnrichmentOptions() EnrichmentOptions {
	return EnrichmentOptions{
		Speakers:     true,
		Related:      true,
		Availability: true,
		Location:     true,
		Dietary:      true,
		TopN:         10,
	}
}

// CapacityEstimator is the pluggable capacity policy used when a session
// carries no stored capacity.
type CapacityEstimator interface {
	EstimateCapacity(location, track string) int
}

// EnricherCaches bundles the TTL caches shared across queries. They are
// constructed once at startup and passed in; the enricher never owns
// global state.
type EnricherCaches struct {
	Speakers  *cache.TTL[domain.SpeakerDetail]
	Related   *cache.TTL[[]domain.RelatedSession]
	Locations *cache.TTL[domain.LocationDetail]
}

// Enricher populates enrichment bundles for the top candidates. Sub-tasks
// for all candidates run concurrently; each is failure-isolated so one
// broken lookup costs exactly one absent field.
type Enricher struct {
	repo     ports.SessionRepository
	embedder ports.Embedder
	index    ports.VectorIndex
	caches   EnricherCaches
	capacity CapacityEstimator
	pool     *ants.Pool
	logger   *slog.Logger

	// onFailure, when set, is invoked once per failed sub-task with the
	// enrichment kind; bootstrap points it at a metrics counter.
	onFailure func(kind string)
}

func NewEnricher(
	repo ports.SessionRepository,
	embedder ports.Embedder,
	index ports.VectorIndex,
	caches EnricherCaches,
	capacity CapacityEstimator,
	pool *ants.Pool,
	logger *slog.Logger,
) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Enricher{
		repo:     repo,
		embedder: embedder,
		index:    index,
		caches:   caches,
		capacity: capacity,
		pool:     pool,
		logger:   logger,
	}
}

// SetFailureHook registers the per-kind failure callback.
func (e *Enricher) SetFailureHook(hook func(kind string)) {
	e.onFailure = hook
}

// EnrichTop fills enrichment bundles for the first opts.TopN sessions and
// returns the same slice. Temporal status and countdown are computed for
// every session regardless of toggles. The call joins on every sub-task
// (success or caught failure) before returning.
func (e *Enricher) EnrichTop(ctx context.Context, sessions []domain.Session, opts EnrichmentOptions, now time.Time) []domain.Session {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultEnrichmentOptions().TopN
	}
	if topN > len(sessions) {
		topN = len(sessions)
	}

	for i := range sessions {
		annotateTemporal(&sessions[i], now)
	}

	var wg sync.WaitGroup
	for i := 0; i < topN; i++ {
		s := &sessions[i]
		// Each task writes a distinct field of this session's bundle, so
		// sibling tasks never contend.
		if opts.Speakers {
			e.submit(ctx, &wg, "speakers", s.ID, func(taskCtx context.Context) error {
				details, err := e.speakerDetails(taskCtx, s)
				if err != nil {
					return err
				}
				s.Enrichment.Speakers = details
				return nil
			})
		}
		if opts.Related {
			e.submit(ctx, &wg, "related", s.ID, func(taskCtx context.Context) error {
				related, err := e.relatedSessions(taskCtx, s)
				if err != nil {
					return err
				}
				s.Enrichment.Related = related
				return nil
			})
		}
		if opts.Availability {
			e.submit(ctx, &wg, "availability", s.ID, func(taskCtx context.Context) error {
				availability, err := e.availability(taskCtx, s)
				if err != nil {
					return err
				}
				s.Enrichment.Availability = availability
				return nil
			})
		}
		if opts.Location {
			e.submit(ctx, &wg, "location", s.ID, func(taskCtx context.Context) error {
				detail := e.locationDetail(s.Location)
				if detail != nil {
					s.Enrichment.Location = detail
				}
				return nil
			})
		}
		if opts.Dietary {
			e.submit(ctx, &wg, "dietary", s.ID, func(taskCtx context.Context) error {
				if info := dietaryInfo(s); info != nil {
					s.Enrichment.Dietary = info
				}
				return nil
			})
		}
	}
	wg.Wait()
	return sessions
}

// submit schedules one failure-isolated sub-task on the pool, falling
// back to inline execution if the pool rejects it.
func (e *Enricher) submit(ctx context.Context, wg *sync.WaitGroup, kind, sessionID string, task func(context.Context) error) {
	wg.Add(1)
	run := func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				e.fail(kind, sessionID, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := ctx.Err(); err != nil {
			e.fail(kind, sessionID, err)
			return
		}
		if err := task(ctx); err != nil {
			e.fail(kind, sessionID, err)
		}
	}
	if e.pool != nil {
		if err := e.pool.Submit(run); err == nil {
			return
		}
	}
	run()
}

func (e *Enricher) fail(kind, sessionID string, err error) {
	e.logger.Warn("enrichment_task_failed", "kind", kind, "session_id", sessionID, "error", err)
	if e.onFailure != nil {
		e.onFailure(kind)
	}
}

// annotateTemporal sets the always-computed temporal fields, allocating
// the bundle when absent.
func annotateTemporal(s *domain.Session, now time.Time) {
	if s.Enrichment == nil {
		s.Enrichment = &domain.Enrichment{}
	}
	s.Enrichment.TemporalStatus = domain.TemporalStatusOf(s.StartTime, s.EndTime, now)
	s.Enrichment.TimeUntilStart = timeUntilStart(s.StartTime, s.Enrichment.TemporalStatus, now)
}

// timeUntilStart renders a human-readable countdown at day/hour/minute
// granularity.
func timeUntilStart(start *time.Time, status domain.TemporalStatus, now time.Time) string {
	switch status {
	case domain.StatusLive:
		return "Started"
	case domain.StatusCompleted:
		return "Ended"
	case domain.StatusUnknown:
		return ""
	}

	until := start.Sub(now)
	if until < time.Minute {
		return "Starting now"
	}
	days := int(until.Hours()) / 24
	hours := int(until.Hours()) % 24
	minutes := int(until.Minutes()) % 60
	switch {
	case days > 0:
		return fmt.Sprintf("in %dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("in %dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("in %dm", minutes)
	}
}
