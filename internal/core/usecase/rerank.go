package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

const (
	rerankLimit     = 20
	qualityFloor    = 0.3
	defaultRawScore = 0.5

	titleMatchBonus       = 0.30
	descriptionMatchBonus = 0.15
	titleTokenBonus       = 0.05
	descriptionTokenBonus = 0.03
	tagTokenBonus         = 0.04
	formatIntentBonus     = 0.10

	interestWeight       = 0.30
	preferredTrackBonus  = 0.20
	preferredTimeBonus   = 0.10
	scheduledPenalty     = 0.40
	defaultPersonalScore = 0.5
)

// formatKeywords maps query intent words to the session format/tag value
// they should boost.
var formatKeywords = map[string]string{
	"workshop": "workshop",
	"panel":    "panel",
	"keynote":  "keynote",
	"demo":     "demo",
	"hands-on": "workshop",
	"fireside": "fireside",
}

// rerankSessions scores every candidate, filters out low-quality entries,
// sorts by combined score, and caps the list at the rerank limit. userCtx
// may be nil. All scoring functions are pure in their inputs.
func rerankSessions(sessions []domain.Session, query string, userCtx *domain.UserContext, now time.Time) []domain.Session {
	out := make([]domain.Session, 0, len(sessions))
	for _, s := range sessions {
		s.Scores.Relevance = relevanceScore(&s, query)
		s.Scores.Personalization, s.Reasons = personalizationScore(&s, userCtx)
		s.Scores.Recency = recencyScore(&s, now)
		s.Scores.Popularity = popularityScore(&s)
		s.Scores.Quality = qualityScore(&s)
		s.Scores.Combine()

		if s.Scores.Quality < qualityFloor {
			continue
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Scores.Combined != out[j].Scores.Combined {
			return out[i].Scores.Combined > out[j].Scores.Combined
		}
		return out[i].ID < out[j].ID
	})

	if len(out) > rerankLimit {
		out = out[:rerankLimit]
	}
	return out
}

// relevanceScore measures text match quality between query and session.
func relevanceScore(s *domain.Session, query string) float64 {
	score := defaultRawScore
	if s.SimilarityScore != nil {
		score = *s.SimilarityScore
	}

	lowerQuery := strings.ToLower(strings.TrimSpace(query))
	lowerTitle := strings.ToLower(s.Title)
	lowerDesc := strings.ToLower(s.Description)
	lowerTags := strings.ToLower(strings.Join(s.Tags, " "))

	if lowerQuery != "" {
		if strings.Contains(lowerTitle, lowerQuery) {
			score += titleMatchBonus
		} else if strings.Contains(lowerDesc, lowerQuery) {
			score += descriptionMatchBonus
		}
	}

	for _, token := range tokenize(query) {
		if strings.Contains(lowerTitle, token) {
			score += titleTokenBonus
		}
		if strings.Contains(lowerDesc, token) {
			score += descriptionTokenBonus
		}
		if strings.Contains(lowerTags, token) {
			score += tagTokenBonus
		}
	}

	lowerFormat := strings.ToLower(s.Format)
	for keyword, format := range formatKeywords {
		if strings.Contains(lowerQuery, keyword) &&
			(lowerFormat == format || strings.Contains(lowerTags, format)) {
			score += formatIntentBonus
		}
	}

	return clamp01(score)
}

// personalizationScore measures fit against the user context and records
// a human-readable reason per triggered condition.
func personalizationScore(s *domain.Session, userCtx *domain.UserContext) (float64, []string) {
	if userCtx == nil {
		return defaultPersonalScore, nil
	}

	score := defaultPersonalScore
	var reasons []string

	if len(userCtx.Interests) > 0 {
		haystack := strings.ToLower(s.Title + " " + s.Description + " " + strings.Join(s.Tags, " "))
		var matched []string
		for _, interest := range userCtx.Interests {
			if strings.Contains(haystack, strings.ToLower(interest)) {
				matched = append(matched, interest)
			}
		}
		if len(matched) > 0 {
			score += interestWeight * float64(len(matched)) / float64(len(userCtx.Interests))
			reasons = append(reasons, "Matches your interests: "+strings.Join(matched, ", "))
		}
	}

	for _, track := range userCtx.PreferredTracks {
		if track != "" && strings.EqualFold(track, s.Track) {
			score += preferredTrackBonus
			reasons = append(reasons, "In your preferred track: "+s.Track)
			break
		}
	}

	if bucket := timeOfDayBucket(s.StartTime); bucket != "" {
		for _, preferred := range userCtx.PreferredTimes {
			if strings.EqualFold(preferred, bucket) {
				score += preferredTimeBonus
				reasons = append(reasons, "At your preferred time of day ("+bucket+")")
				break
			}
		}
	}

	if userCtx.IsScheduled(s.ID) {
		score -= scheduledPenalty
		reasons = append(reasons, "Already on your schedule")
	}

	return clamp01(score), reasons
}

// recencyScore is a step function of time until start.
func recencyScore(s *domain.Session, now time.Time) float64 {
	if s.StartTime == nil {
		return 0.5
	}
	until := s.StartTime.Sub(now)
	switch {
	case until < 0:
		return 0.1
	case until <= 2*time.Hour:
		return 1.0
	case until <= 24*time.Hour:
		return 0.8
	case until <= 48*time.Hour:
		return 0.7
	case until <= 7*24*time.Hour:
		return 0.5
	default:
		return 0.3
	}
}

// popularityScore folds engagement signals into a 0-1 score.
func popularityScore(s *domain.Session) float64 {
	score := 0.5
	switch {
	case s.RegistrationCount >= 100:
		score += 0.15
	case s.RegistrationCount >= 50:
		score += 0.10
	case s.RegistrationCount >= 20:
		score += 0.05
	}
	switch {
	case s.ExpectedAttendance >= 300:
		score += 0.10
	case s.ExpectedAttendance >= 100:
		score += 0.05
	}
	if s.Rating >= 4.5 {
		score += 0.10
	}
	if s.Featured {
		score += 0.10
	}
	if s.Keynote {
		score += 0.15
	}
	return clamp01(score)
}

// qualityScore measures content completeness.
func qualityScore(s *domain.Session) float64 {
	score := 0.3
	switch {
	case len(s.Description) >= 300:
		score += 0.15
	case len(s.Description) >= 100:
		score += 0.10
	case len(s.Description) >= 30:
		score += 0.05
	}
	if len(s.Speakers) > 0 {
		score += 0.10
		if len(s.Speakers) >= 2 {
			score += 0.05
		}
	}
	if s.Location != "" {
		score += 0.05
	}
	if s.StartTime != nil {
		if s.EndTime != nil {
			score += 0.10
		} else {
			score += 0.05
		}
	}
	switch {
	case len(s.Tags) >= 3:
		score += 0.10
	case len(s.Tags) >= 1:
		score += 0.05
	}
	if s.Level != "" {
		score += 0.05
	}
	if s.HasSlides || s.HasRecording {
		score += 0.05
	}
	return clamp01(score)
}

// timeOfDayBucket maps a start time to morning/afternoon/evening.
func timeOfDayBucket(start *time.Time) string {
	if start == nil {
		return ""
	}
	switch h := start.Hour(); {
	case h < 12:
		return "morning"
	case h < 17:
		return "afternoon"
	default:
		return "evening"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// debugScoreLine renders the raw component scores for troubleshooting.
func debugScoreLine(b domain.ScoreBundle) string {
	return fmt.Sprintf("scores: rel=%.2f pers=%.2f rec=%.2f pop=%.2f qual=%.2f combined=%.2f",
		b.Relevance, b.Personalization, b.Recency, b.Popularity, b.Quality, b.Combined)
}
