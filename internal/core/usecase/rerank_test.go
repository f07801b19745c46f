package usecase

import (
	"fmt"
	"testing"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

func sessionAt(id string, start time.Time) domain.Session {
	end := start.Add(time.Hour)
	return domain.Session{
		ID:          id,
		Title:       "Session " + id,
		Description: "A reasonably detailed description of the session content, long enough to count.",
		Track:       "Technology",
		Location:    "Ballroom A",
		StartTime:   &start,
		EndTime:     &end,
		Tags:        []string{"insurtech", "data", "cloud"},
		Speakers:    []domain.SpeakerRef{{ID: "sp-1", Name: "Jane Smith"}},
	}
}

func TestRelevanceScoreDeterministicLowerBound(t *testing.T) {
	s := domain.Session{
		ID:          "s-1",
		Title:       "AI and Machine Learning in Insurance",
		Description: "How carriers apply machine learning.",
		Tags:        []string{"AI", "machine-learning"},
	}

	got := relevanceScore(&s, "AI machine learning")

	// No raw score: base 0.5. Tokens "machine" and "learning" each hit
	// title and tags, so at least 2*(0.05+0.04) on top of the base.
	want := defaultRawScore + 2*(titleTokenBonus+tagTokenBonus)
	if got < want {
		t.Fatalf("relevance = %.3f, want >= %.3f", got, want)
	}
	if got <= defaultRawScore {
		t.Fatalf("relevance = %.3f, must exceed the default base", got)
	}
}

func TestRelevanceScoreIsPure(t *testing.T) {
	s := domain.Session{Title: "Claims Automation Deep Dive", Tags: []string{"claims"}}
	first := relevanceScore(&s, "claims automation")
	for i := 0; i < 5; i++ {
		if again := relevanceScore(&s, "claims automation"); again != first {
			t.Fatalf("relevanceScore not idempotent: %.4f vs %.4f", again, first)
		}
	}
}

func TestRelevanceScoreClamped(t *testing.T) {
	raw := 0.95
	s := domain.Session{
		Title:           "Cyber Risk Workshop for cyber risk teams",
		Description:     "cyber risk workshop covering cyber risk",
		Tags:            []string{"cyber", "risk", "workshop"},
		Format:          "workshop",
		SimilarityScore: &raw,
	}
	if got := relevanceScore(&s, "cyber risk workshop"); got > 1.0 {
		t.Fatalf("relevance %.3f exceeds 1.0", got)
	}
}

func TestPersonalizationScheduledPenalty(t *testing.T) {
	s := sessionAt("s-42", time.Now().Add(3*time.Hour))

	base, _ := personalizationScore(&s, &domain.UserContext{})
	penalized, reasons := personalizationScore(&s, &domain.UserContext{
		ScheduledSessions: []string{"s-42"},
	})

	if penalized >= base {
		t.Fatalf("scheduled session must score strictly lower: %.3f vs %.3f", penalized, base)
	}
	if len(reasons) == 0 {
		t.Fatalf("expected a reason for the schedule penalty")
	}
}

func TestPersonalizationInterestsAndTrack(t *testing.T) {
	s := sessionAt("s-1", time.Now().Add(3*time.Hour))
	score, reasons := personalizationScore(&s, &domain.UserContext{
		Interests:       []string{"insurtech", "blockchain"},
		PreferredTracks: []string{"Technology"},
	})

	// Half the interests match (0.15) plus the track bonus (0.20).
	want := defaultPersonalScore + interestWeight/2 + preferredTrackBonus
	if diff := score - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("personalization = %.3f, want %.3f", score, want)
	}
	if len(reasons) != 2 {
		t.Fatalf("expected 2 reasons, got %v", reasons)
	}
}

func TestPersonalizationDefaultsWithoutContext(t *testing.T) {
	s := sessionAt("s-1", time.Now())
	score, reasons := personalizationScore(&s, nil)
	if score != defaultPersonalScore || reasons != nil {
		t.Fatalf("expected default %.1f with no reasons, got %.3f %v", defaultPersonalScore, score, reasons)
	}
}

func TestRecencyScoreSteps(t *testing.T) {
	now := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		offset time.Duration
		want   float64
	}{
		{-time.Hour, 0.1},
		{time.Hour, 1.0},
		{12 * time.Hour, 0.8},
		{36 * time.Hour, 0.7},
		{5 * 24 * time.Hour, 0.5},
		{30 * 24 * time.Hour, 0.3},
	}
	for _, tc := range cases {
		start := now.Add(tc.offset)
		s := domain.Session{StartTime: &start}
		if got := recencyScore(&s, now); got != tc.want {
			t.Fatalf("recency(offset=%v) = %.2f, want %.2f", tc.offset, got, tc.want)
		}
	}

	noTime := domain.Session{}
	if got := recencyScore(&noTime, now); got != 0.5 {
		t.Fatalf("recency without start = %.2f, want 0.5", got)
	}
}

func TestQualityScoreFloor(t *testing.T) {
	empty := domain.Session{}
	if got := qualityScore(&empty); got < qualityFloor {
		t.Fatalf("quality of empty session = %.2f, below floor", got)
	}
}

func TestRerankBoundedAndFiltered(t *testing.T) {
	now := time.Now()
	var sessions []domain.Session
	for i := 0; i < 35; i++ {
		sessions = append(sessions, sessionAt(fmt.Sprintf("s-%02d", i), now.Add(time.Duration(i)*time.Hour)))
	}

	out := rerankSessions(sessions, "insurtech", nil, now)
	if len(out) > rerankLimit {
		t.Fatalf("rerank returned %d, cap is %d", len(out), rerankLimit)
	}
	for _, s := range out {
		if s.Scores.Quality < qualityFloor {
			t.Fatalf("session %s survived with quality %.2f", s.ID, s.Scores.Quality)
		}
		if s.Scores.Combined == 0 {
			t.Fatalf("session %s missing combined score", s.ID)
		}
	}
	for i := 1; i < len(out); i++ {
		if out[i].Scores.Combined > out[i-1].Scores.Combined {
			t.Fatalf("output not sorted descending at %d", i)
		}
	}
}

func TestCombineUsesFixedWeights(t *testing.T) {
	b := domain.ScoreBundle{Relevance: 1, Personalization: 1, Recency: 1, Popularity: 1, Quality: 1}
	b.Combine()
	if diff := b.Combined - 1.0; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("weights must sum to 1.0, combined = %.4f", b.Combined)
	}

	b = domain.ScoreBundle{Relevance: 1}
	b.Combine()
	if diff := b.Combined - 0.40; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("relevance weight = %.2f, want 0.40", b.Combined)
	}
}
