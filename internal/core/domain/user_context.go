package domain

// UserContext is the optional personalization input supplied by the
// caller (sourced from the profile collaborator). The pipeline reads it
// and never mutates it.
type UserContext struct {
	UserID            string   `json:"user_id,omitempty"`
	Role              string   `json:"role,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	Interests         []string `json:"interests,omitempty"`
	PreferredTracks   []string `json:"preferred_tracks,omitempty"`
	PreferredTimes    []string `json:"preferred_times,omitempty"`
	ScheduledSessions []string `json:"scheduled_sessions,omitempty"`
	AttendedSessions  []string `json:"attended_sessions,omitempty"`
}

// IsScheduled reports whether the session id is already on the user's
// schedule.
func (u *UserContext) IsScheduled(sessionID string) bool {
	if u == nil {
		return false
	}
	for _, id := range u.ScheduledSessions {
		if id == sessionID {
			return true
		}
	}
	return false
}
