package domain

import "time"

// SpeakerRef links a session to a speaker. ID may be empty when the agenda
// source only carried a display name; enrichment resolves those by name.
type SpeakerRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Session is the unit flowing through the pipeline. It is created by a
// retrieval tier, gains scores and reasons in reranking, an enrichment
// bundle in the enrichment phase, and is read-only for the formatter.
// Sessions live for exactly one query and are never persisted back.
type Session struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Track       string       `json:"track,omitempty"`
	Location    string       `json:"location,omitempty"`
	Level       string       `json:"level,omitempty"`
	Format      string       `json:"format,omitempty"`
	StartTime   *time.Time   `json:"start_time,omitempty"`
	EndTime     *time.Time   `json:"end_time,omitempty"`
	Speakers    []SpeakerRef `json:"speakers,omitempty"`
	Tags        []string     `json:"tags,omitempty"`

	// Engagement signals read from the record store.
	RegistrationCount  int     `json:"registration_count,omitempty"`
	ExpectedAttendance int     `json:"expected_attendance,omitempty"`
	Rating             float64 `json:"rating,omitempty"`
	Capacity           int     `json:"capacity,omitempty"`
	Featured           bool    `json:"featured,omitempty"`
	Keynote            bool    `json:"keynote,omitempty"`
	HasSlides          bool    `json:"has_slides,omitempty"`
	HasRecording       bool    `json:"has_recording,omitempty"`

	// SimilarityScore is the raw score from whichever retrieval tier
	// produced this session; nil when the tier does not score (keyword).
	SimilarityScore *float64 `json:"similarity_score,omitempty"`

	Scores     ScoreBundle `json:"scores"`
	Reasons    []string    `json:"reasons,omitempty"`
	Enrichment *Enrichment `json:"enrichment,omitempty"`
}

// PrimarySpeaker returns the first listed speaker's display name, or "".
func (s *Session) PrimarySpeaker() string {
	if len(s.Speakers) == 0 {
		return ""
	}
	return s.Speakers[0].Name
}

// ScoreBundle holds the five component scores plus their weighted
// combination. Combined is always derived from the other five; nothing
// in the pipeline sets it directly.
type ScoreBundle struct {
	Relevance       float64 `json:"relevance"`
	Personalization float64 `json:"personalization"`
	Recency         float64 `json:"recency"`
	Popularity      float64 `json:"popularity"`
	Quality         float64 `json:"quality"`
	Combined        float64 `json:"combined"`
}

// Combine recomputes the combined score from the component scores using
// the fixed ranking weights.
func (b *ScoreBundle) Combine() {
	b.Combined = 0.40*b.Relevance +
		0.25*b.Personalization +
		0.20*b.Quality +
		0.10*b.Recency +
		0.05*b.Popularity
}
