package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

const (
	defaultDisplayLimit  = 10
	snippetLength        = 160
	sparseResultsCutoff  = 3
	lowSpotsWarnFraction = 0.1
)

// formatOptions controls rendering of the final response text.
type formatOptions struct {
	DisplayLimit int
	DebugScores  bool
}

// formatResponse renders the candidate list into the structured textual
// response for the detected query type. totalFound is the true result
// count before display truncation.
func formatResponse(sessions []domain.Session, query string, queryType domain.QueryType, totalFound int, now time.Time, opts formatOptions) string {
	limit := opts.DisplayLimit
	if limit <= 0 {
		limit = defaultDisplayLimit
	}
	display := sessions
	if len(display) > limit {
		display = display[:limit]
	}

	var b strings.Builder
	if totalFound == 0 {
		fmt.Fprintf(&b, "No sessions found for %q.\n", query)
		b.WriteString(alternateSearchSuggestions())
		return b.String()
	}

	fmt.Fprintf(&b, "Showing %d of %d results for %q\n\n", len(display), totalFound, query)

	groups := groupSessions(display, queryType, now)
	for _, group := range groups {
		if len(group.sessions) == 0 {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n", group.label)
		for _, s := range group.sessions {
			renderSession(&b, &s, now, opts.DebugScores)
		}
	}

	b.WriteString(footerFor(queryType))
	if totalFound < sparseResultsCutoff {
		b.WriteString(alternateSearchSuggestions())
	}
	return b.String()
}

type sessionGroup struct {
	label    string
	sessions []domain.Session
}

// groupSessions buckets the display list according to query type: meal
// buckets, temporal buckets, track buckets, or relevance tiers (default).
func groupSessions(sessions []domain.Session, queryType domain.QueryType, now time.Time) []sessionGroup {
	switch queryType {
	case domain.QueryTypeMeal:
		return groupByMealType(sessions)
	case domain.QueryTypeTime:
		return groupByTime(sessions, now)
	case domain.QueryTypeTrack:
		return groupByTrack(sessions)
	default:
		return groupByRelevance(sessions)
	}
}

var mealTypeOrder = []string{"Breakfast", "Lunch", "Dinner", "Reception", "Coffee Break", "Other"}

// mealTypeOf buckets a session by meal words in its title/description.
func mealTypeOf(s *domain.Session) string {
	text := strings.ToLower(s.Title + " " + s.Description)
	switch {
	case strings.Contains(text, "breakfast"):
		return "Breakfast"
	case strings.Contains(text, "lunch"):
		return "Lunch"
	case strings.Contains(text, "dinner") || strings.Contains(text, "banquet"):
		return "Dinner"
	case strings.Contains(text, "reception") || strings.Contains(text, "happy hour"):
		return "Reception"
	case strings.Contains(text, "coffee") || strings.Contains(text, "refreshment"):
		return "Coffee Break"
	default:
		return "Other"
	}
}

func groupByMealType(sessions []domain.Session) []sessionGroup {
	buckets := make(map[string][]domain.Session)
	for _, s := range sessions {
		key := mealTypeOf(&s)
		buckets[key] = append(buckets[key], s)
	}
	out := make([]sessionGroup, 0, len(mealTypeOrder))
	for _, label := range mealTypeOrder {
		out = append(out, sessionGroup{label: label, sessions: buckets[label]})
	}
	return out
}

var timeBucketOrder = []string{"Live Now", "Starting Soon", "Today", "Tomorrow", "This Week", "Later"}

func timeBucketOf(s *domain.Session, now time.Time) string {
	if s.StartTime == nil {
		return "Later"
	}
	status := domain.TemporalStatusOf(s.StartTime, s.EndTime, now)
	if status == domain.StatusCompleted {
		return "" // past sessions are excluded from time-based views
	}
	if status == domain.StatusLive {
		return "Live Now"
	}
	until := s.StartTime.Sub(now)
	switch {
	case until <= time.Hour:
		return "Starting Soon"
	case s.StartTime.YearDay() == now.YearDay() && s.StartTime.Year() == now.Year():
		return "Today"
	case s.StartTime.YearDay() == now.AddDate(0, 0, 1).YearDay() && s.StartTime.Year() == now.AddDate(0, 0, 1).Year():
		return "Tomorrow"
	case until <= 7*24*time.Hour:
		return "This Week"
	default:
		return "Later"
	}
}

func groupByTime(sessions []domain.Session, now time.Time) []sessionGroup {
	buckets := make(map[string][]domain.Session)
	for _, s := range sessions {
		key := timeBucketOf(&s, now)
		if key == "" {
			continue
		}
		buckets[key] = append(buckets[key], s)
	}
	out := make([]sessionGroup, 0, len(timeBucketOrder))
	for _, label := range timeBucketOrder {
		out = append(out, sessionGroup{label: label, sessions: buckets[label]})
	}
	return out
}

func groupByTrack(sessions []domain.Session) []sessionGroup {
	var order []string
	buckets := make(map[string][]domain.Session)
	for _, s := range sessions {
		track := s.Track
		if track == "" {
			track = "General"
		}
		if _, seen := buckets[track]; !seen {
			order = append(order, track)
		}
		buckets[track] = append(buckets[track], s)
	}
	out := make([]sessionGroup, 0, len(order))
	for _, track := range order {
		out = append(out, sessionGroup{label: track, sessions: buckets[track]})
	}
	return out
}

var relevanceTiers = []struct {
	threshold float64
	label     string
}{
	{0.8, "Highly Relevant"},
	{0.6, "Relevant"},
	{0.4, "Possibly Relevant"},
	{-1, "Other Matches"},
}

func groupByRelevance(sessions []domain.Session) []sessionGroup {
	buckets := make(map[string][]domain.Session)
	for _, s := range sessions {
		for _, tier := range relevanceTiers {
			if s.Scores.Combined >= tier.threshold {
				buckets[tier.label] = append(buckets[tier.label], s)
				break
			}
		}
	}
	out := make([]sessionGroup, 0, len(relevanceTiers))
	for _, tier := range relevanceTiers {
		out = append(out, sessionGroup{label: tier.label, sessions: buckets[tier.label]})
	}
	return out
}

// renderSession writes one candidate entry.
func renderSession(b *strings.Builder, s *domain.Session, now time.Time, debug bool) {
	fmt.Fprintf(b, "**[%s](/agenda/session/%s)**\n", s.Title, s.ID)

	if line := timeStatusLine(s, now); line != "" {
		fmt.Fprintf(b, "- %s\n", line)
	}
	if s.Location != "" {
		line := "Location: " + s.Location
		if s.Enrichment != nil && s.Enrichment.Location != nil && s.Enrichment.Location.WalkingTimeMinutes > 0 {
			line += fmt.Sprintf(" (~%d min walk)", s.Enrichment.Location.WalkingTimeMinutes)
		}
		fmt.Fprintf(b, "- %s\n", line)
	}
	if s.Track != "" || s.Level != "" {
		parts := make([]string, 0, 2)
		if s.Track != "" {
			parts = append(parts, s.Track)
		}
		if s.Level != "" {
			parts = append(parts, s.Level)
		}
		fmt.Fprintf(b, "- %s\n", strings.Join(parts, " · "))
	}
	if snippet := truncateSnippet(s.Description); snippet != "" {
		fmt.Fprintf(b, "- %s\n", snippet)
	}
	for _, reason := range s.Reasons {
		fmt.Fprintf(b, "- Why: %s\n", reason)
	}
	if warning := availabilityWarning(s); warning != "" {
		fmt.Fprintf(b, "- %s\n", warning)
	}
	if s.Enrichment != nil && s.Enrichment.Dietary != nil {
		if len(s.Enrichment.Dietary.Tags) > 0 {
			fmt.Fprintf(b, "- Dietary: %s\n", strings.Join(s.Enrichment.Dietary.Tags, ", "))
		} else if s.Enrichment.Dietary.Generic != "" {
			fmt.Fprintf(b, "- %s\n", s.Enrichment.Dietary.Generic)
		}
	}
	if debug {
		fmt.Fprintf(b, "- %s\n", debugScoreLine(s.Scores))
	}
	b.WriteString("\n")
}

func timeStatusLine(s *domain.Session, now time.Time) string {
	if s.StartTime == nil {
		return ""
	}
	line := s.StartTime.Format("Mon Jan 2, 3:04 PM")
	if s.EndTime != nil {
		line += " – " + s.EndTime.Format("3:04 PM")
	}
	if s.Enrichment != nil {
		switch s.Enrichment.TemporalStatus {
		case domain.StatusLive:
			line += " (LIVE NOW)"
		case domain.StatusCompleted:
			line += " (ended)"
		default:
			if s.Enrichment.TimeUntilStart != "" {
				line += " (" + s.Enrichment.TimeUntilStart + ")"
			}
		}
	}
	return line
}

func truncateSnippet(description string) string {
	description = strings.TrimSpace(description)
	if len(description) <= snippetLength {
		return description
	}
	cut := description[:snippetLength]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "…"
}

func availabilityWarning(s *domain.Session) string {
	if s.Enrichment == nil || s.Enrichment.Availability == nil {
		return ""
	}
	a := s.Enrichment.Availability
	switch {
	case a.SpotsRemaining == 0 && a.Waitlist:
		return "⚠ Session is full — waitlist available"
	case a.SpotsRemaining == 0:
		return "⚠ Session is full"
	case a.SpotsRemaining <= 5 || float64(a.SpotsRemaining) <= lowSpotsWarnFraction*float64(a.Capacity):
		return fmt.Sprintf("⚠ Only %d spots left", a.SpotsRemaining)
	default:
		return ""
	}
}

// footerFor appends the query-type-specific call to action.
func footerFor(queryType domain.QueryType) string {
	switch queryType {
	case domain.QueryTypeMeal:
		return "---\nMeals are included with your conference pass. Dietary accommodations can be requested at any catering station.\n"
	case domain.QueryTypeRecommendation:
		return "---\nWant a full personalized schedule? Ask me to build one from your interests and availability.\n"
	case domain.QueryTypeSpeaker:
		return "---\nAsk about any speaker by name for their bio and other sessions.\n"
	case domain.QueryTypeTime:
		return "---\nTimes shown in the venue's local timezone. Ask \"what's next\" anytime for live updates.\n"
	case domain.QueryTypeTrack:
		return "---\nAsk for any track by name to see its complete lineup.\n"
	default:
		return "---\nAsk me to narrow these down by day, track, or topic.\n"
	}
}

func alternateSearchSuggestions() string {
	return "\nNot finding what you need? Try:\n" +
		"- Searching by topic (e.g. \"claims automation\", \"embedded insurance\")\n" +
		"- Searching by speaker name\n" +
		"- Browsing a track (e.g. \"show me the Technology track\")\n"
}
