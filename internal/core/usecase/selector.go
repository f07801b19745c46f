package usecase

import (
	"regexp"
	"strings"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

// routeDecision is the strategy selector's output for one query.
type routeDecision struct {
	IsMealQuery           bool
	IsRecommendationQuery bool
	QueryType             domain.QueryType
}

// Detection is pattern matching against curated phrase lists, never a
// trained classifier, so routing stays deterministic and auditable.
var (
	mealPatterns = []string{
		"breakfast", "lunch", "dinner", "meal", "food", "reception",
		"coffee break", "snack", "refreshment", "banquet", "happy hour",
		"networking breakfast", "eat",
	}
	mealExclusions = []string{
		"restaurant", "off-site", "offsite", "outside the venue", "nearby",
	}
	recommendationPatterns = []string{
		"recommend", "suggest", "what should", "best sessions", "for me",
		"personalized", "my interests", "worth attending", "top picks",
	}
)

// queryTypePatterns is the ordered classification table; first match wins
// and the default is the general type.
var queryTypePatterns = []struct {
	re    *regexp.Regexp
	label domain.QueryType
}{
	{regexp.MustCompile(`(?i)\b(breakfast|lunch|dinner|meal|food|reception|banquet|coffee break|refreshment)s?\b`), domain.QueryTypeMeal},
	{regexp.MustCompile(`(?i)\b(today|tomorrow|tonight|this (morning|afternoon|evening)|right now|next hour|upcoming|at \d{1,2}(:\d{2})?\s?(am|pm)?)\b`), domain.QueryTypeTime},
	{regexp.MustCompile(`(?i)\b(recommend|suggest|what should|best session|for me|personalized|top picks?|worth attending)\b`), domain.QueryTypeRecommendation},
	{regexp.MustCompile(`(?i)\b(who is|speaker|presenter|keynote by|talks? by|presented by)\b`), domain.QueryTypeSpeaker},
	{regexp.MustCompile(`(?i)\b(track|category|stage)\b`), domain.QueryTypeTrack},
	{regexp.MustCompile(`(?i)\b(about|sessions? on|talks? on|covering|related to)\b`), domain.QueryTypeTopic},
}

// classifyQuery runs the selector's pattern tables over the query.
func classifyQuery(query string) routeDecision {
	lower := strings.ToLower(query)

	decision := routeDecision{QueryType: domain.QueryTypeGeneral}
	for _, entry := range queryTypePatterns {
		if entry.re.MatchString(query) {
			decision.QueryType = entry.label
			break
		}
	}

	decision.IsMealQuery = matchesAny(lower, mealPatterns) && !matchesAny(lower, mealExclusions)
	decision.IsRecommendationQuery = matchesAny(lower, recommendationPatterns)
	return decision
}

func matchesAny(lower string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// enhanceMealQuery widens a meal query for the dedicated meal namespace,
// which indexes catering-oriented text.
func enhanceMealQuery(query string) string {
	return "conference catering " + query
}
