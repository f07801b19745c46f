package usecase

import (
	"strings"
	"testing"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

func TestFormatResponseLunchScenario(t *testing.T) {
	now := time.Date(2026, 5, 12, 9, 0, 0, 0, time.UTC)
	start := now.Add(3 * time.Hour)
	end := start.Add(time.Hour)

	s := domain.Session{
		ID:        "meal-1",
		Title:     "Networking Lunch – Ballroom F",
		Location:  "Ballroom F, Level 2",
		StartTime: &start,
		EndTime:   &end,
		Enrichment: &domain.Enrichment{
			TemporalStatus: domain.StatusUpcoming,
			TimeUntilStart: "in 3h 0m",
			Dietary:        &domain.DietaryInfo{Generic: genericDietaryNote},
			Location:       &domain.LocationDetail{Raw: "Ballroom F, Level 2", WalkingTimeMinutes: 3},
		},
	}

	out := formatResponse([]domain.Session{s}, "lunch", domain.QueryTypeMeal, 1, now, formatOptions{})

	if !strings.Contains(out, "## Lunch") {
		t.Fatalf("expected Lunch grouping, got:\n%s", out)
	}
	if !strings.Contains(out, "Location: Ballroom F, Level 2") {
		t.Fatalf("expected location line, got:\n%s", out)
	}
	if !strings.Contains(out, genericDietaryNote) {
		t.Fatalf("expected dietary fallback note, got:\n%s", out)
	}
	if !strings.Contains(out, "Showing 1 of 1") {
		t.Fatalf("expected showing header, got:\n%s", out)
	}
}

func TestFormatResponseRelevanceTiersDefault(t *testing.T) {
	now := time.Now()
	mk := func(id, title string, combined float64) domain.Session {
		s := domain.Session{ID: id, Title: title}
		s.Scores.Combined = combined
		return s
	}
	sessions := []domain.Session{
		mk("a", "Top Match", 0.85),
		mk("b", "Decent Match", 0.65),
		mk("c", "Weak Match", 0.45),
	}

	out := formatResponse(sessions, "insurtech", domain.QueryTypeGeneral, 3, now, formatOptions{})

	for _, heading := range []string{"## Highly Relevant", "## Relevant", "## Possibly Relevant"} {
		if !strings.Contains(out, heading) {
			t.Fatalf("missing %q in:\n%s", heading, out)
		}
	}
}

func TestFormatResponseTruncatesDisplayKeepsTotal(t *testing.T) {
	now := time.Now()
	var sessions []domain.Session
	for i := 0; i < 15; i++ {
		s := domain.Session{ID: string(rune('a' + i)), Title: "Session " + string(rune('A'+i))}
		s.Scores.Combined = 0.9
		sessions = append(sessions, s)
	}

	out := formatResponse(sessions, "everything", domain.QueryTypeGeneral, 15, now, formatOptions{DisplayLimit: 10})
	if !strings.Contains(out, "Showing 10 of 15") {
		t.Fatalf("expected showing 10 of 15 header, got:\n%s", out)
	}
}

func TestFormatResponseEmpty(t *testing.T) {
	out := formatResponse(nil, "nothing here", domain.QueryTypeGeneral, 0, time.Now(), formatOptions{})
	if !strings.Contains(out, "No sessions found") {
		t.Fatalf("expected empty message, got:\n%s", out)
	}
	if !strings.Contains(out, "Not finding what you need?") {
		t.Fatalf("expected alternate suggestions, got:\n%s", out)
	}
}

func TestFormatResponseSparseSuggestions(t *testing.T) {
	s := domain.Session{ID: "a", Title: "Lone Result"}
	s.Scores.Combined = 0.9
	out := formatResponse([]domain.Session{s}, "rare topic", domain.QueryTypeGeneral, 1, time.Now(), formatOptions{})
	if !strings.Contains(out, "Not finding what you need?") {
		t.Fatalf("sparse results must append suggestions, got:\n%s", out)
	}
}

func TestFormatResponseRecommendationFooter(t *testing.T) {
	s := domain.Session{ID: "a", Title: "Pick"}
	s.Scores.Combined = 0.9
	out := formatResponse([]domain.Session{s}, "recommend for me", domain.QueryTypeRecommendation, 1, time.Now(), formatOptions{})
	if !strings.Contains(out, "personalized schedule") {
		t.Fatalf("expected recommendation footer, got:\n%s", out)
	}
}

func TestFormatResponseDebugScores(t *testing.T) {
	s := domain.Session{ID: "a", Title: "Debuggable"}
	s.Scores = domain.ScoreBundle{Relevance: 0.7, Quality: 0.5}
	s.Scores.Combine()
	out := formatResponse([]domain.Session{s}, "debug", domain.QueryTypeGeneral, 1, time.Now(), formatOptions{DebugScores: true})
	if !strings.Contains(out, "scores: rel=0.70") {
		t.Fatalf("expected debug score line, got:\n%s", out)
	}
}

func TestFormatResponseAvailabilityWarnings(t *testing.T) {
	full := domain.Session{ID: "a", Title: "Full House", Enrichment: &domain.Enrichment{
		Availability: &domain.Availability{Registered: 120, Capacity: 120, SpotsRemaining: 0, Waitlist: true},
	}}
	full.Scores.Combined = 0.9
	low := domain.Session{ID: "b", Title: "Nearly Full", Enrichment: &domain.Enrichment{
		Availability: &domain.Availability{Registered: 96, Capacity: 100, SpotsRemaining: 4},
	}}
	low.Scores.Combined = 0.85

	out := formatResponse([]domain.Session{full, low}, "popular", domain.QueryTypeGeneral, 2, time.Now(), formatOptions{})
	if !strings.Contains(out, "waitlist available") {
		t.Fatalf("expected waitlist warning, got:\n%s", out)
	}
	if !strings.Contains(out, "Only 4 spots left") {
		t.Fatalf("expected low-spots warning, got:\n%s", out)
	}
}

func TestTimeBucketOfExcludesPast(t *testing.T) {
	now := time.Date(2026, 5, 12, 15, 0, 0, 0, time.UTC)
	past := now.Add(-3 * time.Hour)
	s := domain.Session{StartTime: &past}
	if got := timeBucketOf(&s, now); got != "" {
		t.Fatalf("past session must be excluded, got %q", got)
	}

	soon := now.Add(30 * time.Minute)
	s = domain.Session{StartTime: &soon}
	if got := timeBucketOf(&s, now); got != "Starting Soon" {
		t.Fatalf("got %q", got)
	}
}

func TestMealTypeOf(t *testing.T) {
	cases := map[string]string{
		"Opening Breakfast":             "Breakfast",
		"Networking Lunch – Ballroom F": "Lunch",
		"Awards Dinner":                 "Dinner",
		"Welcome Reception":             "Reception",
		"Afternoon Coffee & Connects":   "Coffee Break",
		"Keynote: Future of Insurance":  "Other",
	}
	for title, want := range cases {
		s := domain.Session{Title: title}
		if got := mealTypeOf(&s); got != want {
			t.Fatalf("mealTypeOf(%q) = %q, want %q", title, got, want)
		}
	}
}
