package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/core/ports"
)

type fakeEmbedder struct {
	err   error
	calls int
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

type fakeIndex struct {
	sessions []domain.Session
	err      error
	calls    int
}

func (f *fakeIndex) Search(_ context.Context, _ []float32, _ int, _ domain.VectorFilter) ([]domain.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.sessions, nil
}

type fakeRepo struct {
	allTerms     []domain.Session
	allTermsErr  error
	anyTerm      []domain.Session
	anyTermErr   error
	corpus       []domain.Session
	listErr      error
	speakers     []domain.SpeakerDetail
	speakersErr  error
	related      []domain.RelatedSession
	relatedErr   error
	registered   int
	registeredBy map[string]int
	countErr     error

	speakerIDCalls [][]string
}

func (f *fakeRepo) SearchAllTerms(_ context.Context, _ []string) ([]domain.Session, error) {
	return f.allTerms, f.allTermsErr
}

func (f *fakeRepo) SearchAnyTerm(_ context.Context, _ []string, _ string) ([]domain.Session, error) {
	return f.anyTerm, f.anyTermErr
}

func (f *fakeRepo) ListAll(_ context.Context) ([]domain.Session, error) {
	return f.corpus, f.listErr
}

func (f *fakeRepo) SpeakersByIDs(_ context.Context, ids []string) ([]domain.SpeakerDetail, error) {
	f.speakerIDCalls = append(f.speakerIDCalls, ids)
	return f.speakers, f.speakersErr
}

func (f *fakeRepo) SpeakersByName(_ context.Context, _ []string) ([]domain.SpeakerDetail, error) {
	return f.speakers, f.speakersErr
}

func (f *fakeRepo) RelatedByOverlap(_ context.Context, _ []string, _, _ string, _ int) ([]domain.RelatedSession, error) {
	return f.related, f.relatedErr
}

func (f *fakeRepo) RegistrationCount(_ context.Context, id string) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	if f.registeredBy != nil {
		return f.registeredBy[id], nil
	}
	return f.registered, nil
}

type fakePublisher struct {
	events []domain.SearchEvent
}

func (f *fakePublisher) PublishSearchPerformed(_ context.Context, event domain.SearchEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newSearchUC(embedder *fakeEmbedder, general, meals *fakeIndex, repo *fakeRepo, publisher ports.EventPublisher) *SearchUseCase {
	return NewSearchUseCase(embedder, general, meals, repo, nil, publisher, nil, SearchConfig{})
}

func futureSession(id, title string) domain.Session {
	start := time.Now().Add(6 * time.Hour)
	end := start.Add(time.Hour)
	return domain.Session{
		ID:          id,
		Title:       title,
		Description: "A session description with enough substance to pass the quality floor easily.",
		Track:       "Technology",
		Location:    "Ballroom A",
		StartTime:   &start,
		EndTime:     &end,
		Tags:        []string{"insurtech"},
	}
}

func TestSearchVectorTier(t *testing.T) {
	general := &fakeIndex{sessions: []domain.Session{
		futureSession("s-1", "AI in Underwriting"),
		futureSession("s-2", "Claims Automation"),
		futureSession("s-3", "Data Platforms"),
	}}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, &fakeRepo{}, nil)

	result, err := uc.Search(context.Background(), "AI underwriting", 10, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.SearchMethod != domain.MethodVector {
		t.Fatalf("method = %s, want vector", result.SearchMethod)
	}
	if result.TotalFound != 3 {
		t.Fatalf("total = %d, want 3", result.TotalFound)
	}
}

func TestSearchFallsBackToKeyword(t *testing.T) {
	general := &fakeIndex{sessions: []domain.Session{futureSession("s-1", "AI in Underwriting")}}
	repo := &fakeRepo{allTerms: []domain.Session{
		futureSession("s-2", "Underwriting Workbench Demo"),
		futureSession("s-3", "Risk Scoring Deep Dive"),
	}}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, repo, nil)

	result, err := uc.Search(context.Background(), "underwriting risk", 10, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.SearchMethod != domain.MethodKeyword {
		t.Fatalf("method = %s, want keyword", result.SearchMethod)
	}
	if result.TotalFound != 3 {
		t.Fatalf("total = %d, want 3 (vector + keyword merged)", result.TotalFound)
	}
}

func TestSearchFallbackOrderingToFuzzy(t *testing.T) {
	// Vector errors, keyword stages empty, fuzzy has one match.
	general := &fakeIndex{err: errors.New("index down")}
	repo := &fakeRepo{corpus: []domain.Session{
		futureSession("s-9", "Telematics and Pricing Innovation"),
		futureSession("s-8", "Unrelated Marketing Session"),
	}}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, repo, nil)

	result, err := uc.Search(context.Background(), "telematics pricing", 10, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.SearchMethod != domain.MethodDatabase {
		t.Fatalf("method = %s, want database", result.SearchMethod)
	}
	if result.TotalFound == 0 {
		t.Fatalf("expected fuzzy matches, got none")
	}
	for _, s := range result.Sessions {
		if s.ID == "s-8" {
			t.Fatalf("fuzzy tier kept a below-threshold record")
		}
	}
}

func TestSearchAllTiersFailReturnsEmpty(t *testing.T) {
	general := &fakeIndex{err: errors.New("index down")}
	repo := &fakeRepo{
		allTermsErr: errors.New("db down"),
		anyTermErr:  errors.New("db down"),
		listErr:     errors.New("db down"),
	}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, repo, nil)

	result, err := uc.Search(context.Background(), "anything at all", 10, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("backend failures must not surface: %v", err)
	}
	if result.TotalFound != 0 {
		t.Fatalf("expected empty result, got %d", result.TotalFound)
	}
	if result.SearchMethod != domain.MethodDatabase {
		t.Fatalf("method should record last attempted tier, got %s", result.SearchMethod)
	}
}

func TestSearchMealRouting(t *testing.T) {
	meals := &fakeIndex{sessions: []domain.Session{
		futureSession("m-1", "Networking Lunch – Ballroom F"),
	}}
	general := &fakeIndex{}
	uc := newSearchUC(&fakeEmbedder{}, general, meals, &fakeRepo{}, nil)

	result, err := uc.Search(context.Background(), "lunch", 10, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if result.SearchMethod != domain.MethodMealVector {
		t.Fatalf("method = %s, want meal-vector", result.SearchMethod)
	}
	if result.QueryType != domain.QueryTypeMeal {
		t.Fatalf("query type = %s, want meal", result.QueryType)
	}
	if general.calls != 0 {
		t.Fatalf("general index must not be hit when the meal tier succeeds")
	}
}

func TestSearchPersonalizationToggle(t *testing.T) {
	general := &fakeIndex{sessions: []domain.Session{
		futureSession("s-1", "AI in Underwriting"),
		futureSession("s-2", "Claims Automation"),
		futureSession("s-3", "Data Platforms"),
	}}
	userCtx := &domain.UserContext{ScheduledSessions: []string{"s-1"}}

	withPers := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, &fakeRepo{}, nil)
	result, err := withPers.Search(context.Background(), "sessions", 10, ports.SearchOptions{
		UserContext:          userCtx,
		ApplyPersonalization: true,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, s := range result.Sessions {
		if s.ID == "s-1" && s.Scores.Personalization >= defaultPersonalScore {
			t.Fatalf("scheduled session must be penalized, got %.3f", s.Scores.Personalization)
		}
	}

	without, err := withPers.Search(context.Background(), "sessions", 10, ports.SearchOptions{
		UserContext: userCtx,
	})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, s := range without.Sessions {
		if s.Scores.Personalization != defaultPersonalScore {
			t.Fatalf("personalization off must default to %.1f, got %.3f", defaultPersonalScore, s.Scores.Personalization)
		}
	}
}

func TestSearchPublishesEvent(t *testing.T) {
	general := &fakeIndex{sessions: []domain.Session{futureSession("s-1", "AI in Underwriting"), futureSession("s-2", "Claims"), futureSession("s-3", "Data")}}
	publisher := &fakePublisher{}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, &fakeRepo{}, publisher)

	if _, err := uc.Search(context.Background(), "underwriting", 5, ports.SearchOptions{UserID: "u-1"}); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	event := publisher.events[0]
	if event.Query != "underwriting" || event.UserID != "u-1" || event.Method != domain.MethodVector {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestSearchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	uc := newSearchUC(&fakeEmbedder{}, &fakeIndex{}, &fakeIndex{}, &fakeRepo{}, nil)

	if _, err := uc.Search(ctx, "anything", 5, ports.SearchOptions{}); err == nil {
		t.Fatalf("expected context error after cancellation")
	}
}

func TestSearchLimitTruncatesButKeepsTotal(t *testing.T) {
	var sessions []domain.Session
	titles := []string{"Alpha Pricing", "Beta Claims", "Gamma Cyber", "Delta Data", "Epsilon Embedded"}
	for i, title := range titles {
		sessions = append(sessions, futureSession(string(rune('a'+i)), title))
	}
	general := &fakeIndex{sessions: sessions}
	uc := newSearchUC(&fakeEmbedder{}, general, &fakeIndex{}, &fakeRepo{}, nil)

	result, err := uc.Search(context.Background(), "conference", 2, ports.SearchOptions{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(result.Sessions) != 2 {
		t.Fatalf("expected 2 displayed sessions, got %d", len(result.Sessions))
	}
	if result.TotalFound != 5 {
		t.Fatalf("expected total 5, got %d", result.TotalFound)
	}
}
