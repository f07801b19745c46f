package domain

import "time"

// TemporalStatus describes where a session sits relative to now.
type TemporalStatus string

const (
	StatusUpcoming  TemporalStatus = "upcoming"
	StatusLive      TemporalStatus = "live"
	StatusCompleted TemporalStatus = "completed"
	StatusUnknown   TemporalStatus = "unknown"
)

// SpeakerDetail is the enriched speaker record, including derived
// expertise tags and a capped list of the speaker's other sessions.
type SpeakerDetail struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	Company       string   `json:"company,omitempty"`
	Bio           string   `json:"bio,omitempty"`
	Expertise     []string `json:"expertise,omitempty"`
	OtherSessions []string `json:"other_sessions,omitempty"`
}

// RelatedSession is a compact pointer to a similar session.
type RelatedSession struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Track string `json:"track,omitempty"`
}

// Availability is the capacity snapshot computed during enrichment.
type Availability struct {
	Registered     int  `json:"registered"`
	Capacity       int  `json:"capacity"`
	SpotsRemaining int  `json:"spots_remaining"`
	Waitlist       bool `json:"waitlist"`
}

// LocationDetail is the parsed and annotated location of a session.
type LocationDetail struct {
	Raw                string `json:"raw"`
	Building           string `json:"building,omitempty"`
	Floor              string `json:"floor,omitempty"`
	Room               string `json:"room,omitempty"`
	Directions         string `json:"directions,omitempty"`
	NearestRestroom    string `json:"nearest_restroom,omitempty"`
	NearestExit        string `json:"nearest_exit,omitempty"`
	WalkingTimeMinutes int    `json:"walking_time_minutes,omitempty"`
}

// DietaryInfo carries dietary tags scanned from the session text. Generic
// is set when the session looks meal-like but matched no specific tag.
type DietaryInfo struct {
	Tags    []string `json:"tags,omitempty"`
	Generic string   `json:"generic,omitempty"`
}

// Enrichment is the per-session bundle of best-effort auxiliary data.
// Every pointer field is independently optional: nil means the lookup was
// not requested or failed, never "computed as empty". TemporalStatus and
// TimeUntilStart are always computed.
type Enrichment struct {
	Speakers       []SpeakerDetail  `json:"speakers,omitempty"`
	Related        []RelatedSession `json:"related,omitempty"`
	Availability   *Availability    `json:"availability,omitempty"`
	Location       *LocationDetail  `json:"location,omitempty"`
	Dietary        *DietaryInfo     `json:"dietary,omitempty"`
	TemporalStatus TemporalStatus   `json:"temporal_status"`
	TimeUntilStart string           `json:"time_until_start,omitempty"`
}

// TemporalStatusOf classifies a session's time window against now,
// assuming a 60-minute duration when the end time is absent.
func TemporalStatusOf(start, end *time.Time, now time.Time) TemporalStatus {
	if start == nil {
		return StatusUnknown
	}
	effectiveEnd := start.Add(60 * time.Minute)
	if end != nil {
		effectiveEnd = *end
	}
	switch {
	case now.Before(*start):
		return StatusUpcoming
	case now.Before(effectiveEnd):
		return StatusLive
	default:
		return StatusCompleted
	}
}
