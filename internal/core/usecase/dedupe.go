package usecase

import (
	"sort"
	"strings"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

const (
	dedupeKeyLength        = 30
	trackRepeatPenalty     = 0.10
	speakerRepeatPenalty   = 0.15
	maxDiversityOccurrence = 9 // keeps the multiplier non-negative
)

// dedupeSessions collapses near-identical candidates by normalized title
// key, keeping the first occurrence in ranked order.
func dedupeSessions(sessions []domain.Session) []domain.Session {
	seen := make(map[string]struct{}, len(sessions))
	out := sessions[:0]
	for _, s := range sessions {
		key := normalizeTitleKey(s.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// normalizeTitleKey lower-cases the title, strips non-alphanumerics, and
// truncates to a fixed length.
func normalizeTitleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= dedupeKeyLength {
			break
		}
	}
	return b.String()
}

// boostDiversity down-weights candidates sharing a track or primary
// speaker with higher-ranked candidates. It is deliberately a single pass
// over running occurrence counts followed by one re-sort, not an
// iterative re-ranking; the known compatibility quirk is that penalties
// reflect the pre-sort order.
func boostDiversity(sessions []domain.Session) []domain.Session {
	trackSeen := make(map[string]int)
	speakerSeen := make(map[string]int)

	for i := range sessions {
		s := &sessions[i]
		if s.Track != "" {
			occurrence := trackSeen[s.Track]
			trackSeen[s.Track]++
			if occurrence > 0 {
				s.Scores.Combined *= 1 - trackRepeatPenalty*float64(min(occurrence, maxDiversityOccurrence))
			}
		}
		if speaker := s.PrimarySpeaker(); speaker != "" {
			occurrence := speakerSeen[speaker]
			speakerSeen[speaker]++
			if occurrence > 0 {
				penalty := 1 - speakerRepeatPenalty*float64(occurrence)
				if penalty < 0 {
					penalty = 0
				}
				s.Scores.Combined *= penalty
			}
		}
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Scores.Combined != sessions[j].Scores.Combined {
			return sessions[i].Scores.Combined > sessions[j].Scores.Combined
		}
		return sessions[i].ID < sessions[j].ID
	})
	return sessions
}
