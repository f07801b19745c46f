// Package postgres is the keyword-searchable record store behind the
// retrieval fallback tiers and the enrichment lookups.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	track TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	level TEXT NOT NULL DEFAULT '',
	format TEXT NOT NULL DEFAULT '',
	start_time TIMESTAMPTZ,
	end_time TIMESTAMPTZ,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	expected_attendance INTEGER NOT NULL DEFAULT 0,
	rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacity INTEGER NOT NULL DEFAULT 0,
	featured BOOLEAN NOT NULL DEFAULT FALSE,
	keynote BOOLEAN NOT NULL DEFAULT FALSE,
	has_slides BOOLEAN NOT NULL DEFAULT FALSE,
	has_recording BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS speakers (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	company TEXT NOT NULL DEFAULT '',
	bio TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS session_speakers (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	speaker_id TEXT NOT NULL REFERENCES speakers(id) ON DELETE CASCADE,
	PRIMARY KEY (session_id, speaker_id)
);

CREATE TABLE IF NOT EXISTS registrations (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (session_id, user_id)
);

CREATE TABLE IF NOT EXISTS search_events (
	id TEXT PRIMARY KEY,
	query TEXT NOT NULL,
	user_id TEXT,
	method TEXT NOT NULL,
	query_type TEXT NOT NULL,
	total_found INTEGER NOT NULL,
	duration_ms BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_sessions_track ON sessions(track);
CREATE INDEX IF NOT EXISTS idx_sessions_start_time ON sessions(start_time);
CREATE INDEX IF NOT EXISTS idx_search_events_created_at ON search_events(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const sessionColumns = `
	s.id, s.title, s.description, s.track, s.location, s.level, s.format,
	s.start_time, s.end_time, s.tags, s.expected_attendance, s.rating,
	s.capacity, s.featured, s.keynote, s.has_slides, s.has_recording,
	COALESCE(reg.registration_count, 0)`

// registrationJoin feeds the popularity signal on every session read; the
// rerank tiers key off the live count, not a stored column.
const registrationJoin = `
LEFT JOIN (
	SELECT session_id, COUNT(*) AS registration_count
	FROM registrations
	GROUP BY session_id
) reg ON reg.session_id = s.id`

// SearchAllTerms returns sessions whose title or description contains
// every given term, case-insensitively.
func (r *SessionRepository) SearchAllTerms(ctx context.Context, terms []string) ([]domain.Session, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	var clauses []string
	var args []any
	for i, term := range terms {
		clauses = append(clauses, fmt.Sprintf("(s.title ILIKE $%d OR s.description ILIKE $%d)", i+1, i+1))
		args = append(args, "%"+term+"%")
	}

	query := `SELECT` + sessionColumns + `
FROM sessions s` + registrationJoin + `
WHERE ` + strings.Join(clauses, " AND ") + `
ORDER BY s.start_time NULLS LAST`

	return r.querySessions(ctx, query, args...)
}

// SearchAnyTerm returns sessions whose title contains any of the terms,
// or whose speaker names match namePattern when it is non-empty.
func (r *SessionRepository) SearchAnyTerm(ctx context.Context, terms []string, namePattern string) ([]domain.Session, error) {
	if len(terms) == 0 && namePattern == "" {
		return nil, nil
	}

	var clauses []string
	var args []any
	for _, term := range terms {
		args = append(args, "%"+term+"%")
		clauses = append(clauses, fmt.Sprintf("s.title ILIKE $%d", len(args)))
	}
	if namePattern != "" {
		args = append(args, "%"+namePattern+"%")
		clauses = append(clauses, fmt.Sprintf(`EXISTS (
	SELECT 1 FROM session_speakers ss
	JOIN speakers sp ON sp.id = ss.speaker_id
	WHERE ss.session_id = s.id AND sp.name ILIKE $%d
)`, len(args)))
	}

	query := `SELECT` + sessionColumns + `
FROM sessions s` + registrationJoin + `
WHERE ` + strings.Join(clauses, " OR ") + `
ORDER BY s.start_time NULLS LAST`

	return r.querySessions(ctx, query, args...)
}

// ListAll scans the full corpus; only the fuzzy fallback tier uses it.
func (r *SessionRepository) ListAll(ctx context.Context) ([]domain.Session, error) {
	query := `SELECT` + sessionColumns + `
FROM sessions s` + registrationJoin + `
ORDER BY s.start_time NULLS LAST`
	return r.querySessions(ctx, query)
}

func (r *SessionRepository) querySessions(ctx context.Context, query string, args ...any) ([]domain.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session
	var ids []any
	for rows.Next() {
		var s domain.Session
		var tagsRaw []byte
		var start, end sql.NullTime
		err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.Track, &s.Location, &s.Level, &s.Format,
			&start, &end, &tagsRaw, &s.ExpectedAttendance, &s.Rating,
			&s.Capacity, &s.Featured, &s.Keynote, &s.HasSlides, &s.HasRecording,
			&s.RegistrationCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if start.Valid {
			t := start.Time
			s.StartTime = &t
		}
		if end.Valid {
			t := end.Time
			s.EndTime = &t
		}
		if len(tagsRaw) > 0 {
			if err := json.Unmarshal(tagsRaw, &s.Tags); err != nil {
				return nil, fmt.Errorf("unmarshal tags: %w", err)
			}
		}
		sessions = append(sessions, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	if err := r.attachSpeakers(ctx, sessions, ids); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachSpeakers fills SpeakerRef lists for a page of sessions in one
// round trip.
func (r *SessionRepository) attachSpeakers(ctx context.Context, sessions []domain.Session, ids []any) error {
	if len(sessions) == 0 {
		return nil
	}

	placeholders := make([]string, len(ids))
	for i := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := `
SELECT ss.session_id, sp.id, sp.name
FROM session_speakers ss
JOIN speakers sp ON sp.id = ss.speaker_id
WHERE ss.session_id IN (` + strings.Join(placeholders, ",") + `)
ORDER BY sp.name`

	rows, err := r.db.QueryContext(ctx, query, ids...)
	if err != nil {
		return fmt.Errorf("query session speakers: %w", err)
	}
	defer rows.Close()

	bySession := make(map[string][]domain.SpeakerRef)
	for rows.Next() {
		var sessionID string
		var ref domain.SpeakerRef
		if err := rows.Scan(&sessionID, &ref.ID, &ref.Name); err != nil {
			return fmt.Errorf("scan session speaker: %w", err)
		}
		bySession[sessionID] = append(bySession[sessionID], ref)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate session speakers: %w", err)
	}

	for i := range sessions {
		sessions[i].Speakers = bySession[sessions[i].ID]
	}
	return nil
}

const speakerOtherSessionsLimit = 5

func (r *SessionRepository) SpeakersByIDs(ctx context.Context, ids []string) ([]domain.SpeakerDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `
SELECT id, name, title, company, bio
FROM speakers
WHERE id IN (` + strings.Join(placeholders, ",") + `)`

	return r.querySpeakers(ctx, query, args...)
}

func (r *SessionRepository) SpeakersByName(ctx context.Context, names []string) ([]domain.SpeakerDetail, error) {
	if len(names) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("LOWER(name) = LOWER($%d)", i+1)
		args[i] = name
	}
	query := `
SELECT id, name, title, company, bio
FROM speakers
WHERE ` + strings.Join(placeholders, " OR ")

	return r.querySpeakers(ctx, query, args...)
}

func (r *SessionRepository) querySpeakers(ctx context.Context, query string, args ...any) ([]domain.SpeakerDetail, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query speakers: %w", err)
	}
	defer rows.Close()

	var speakers []domain.SpeakerDetail
	for rows.Next() {
		var sp domain.SpeakerDetail
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Title, &sp.Company, &sp.Bio); err != nil {
			return nil, fmt.Errorf("scan speaker: %w", err)
		}
		speakers = append(speakers, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate speakers: %w", err)
	}

	for i := range speakers {
		titles, err := r.speakerSessionTitles(ctx, speakers[i].ID)
		if err != nil {
			return nil, err
		}
		speakers[i].OtherSessions = titles
	}
	return speakers, nil
}

func (r *SessionRepository) speakerSessionTitles(ctx context.Context, speakerID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT s.title
FROM session_speakers ss
JOIN sessions s ON s.id = ss.session_id
WHERE ss.speaker_id = $1
ORDER BY s.start_time NULLS LAST
LIMIT $2
`, speakerID, speakerOtherSessionsLimit)
	if err != nil {
		return nil, fmt.Errorf("query speaker sessions: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan speaker session: %w", err)
		}
		titles = append(titles, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate speaker sessions: %w", err)
	}
	return titles, nil
}

// RelatedByOverlap ranks other sessions by shared tags, breaking ties by
// same-track membership. It is the fallback when the vector index cannot
// serve related lookups.
func (r *SessionRepository) RelatedByOverlap(ctx context.Context, tags []string, track, excludeID string, limit int) ([]domain.RelatedSession, error) {
	if limit <= 0 {
		limit = 3
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("marshal tags: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT s.id, s.title, s.track
FROM sessions s
WHERE s.id <> $1
  AND (s.tags ?| (SELECT ARRAY(SELECT jsonb_array_elements_text($2::jsonb))) OR s.track = $3)
ORDER BY (
	SELECT COUNT(*)
	FROM jsonb_array_elements_text(s.tags) t
	WHERE t.value IN (SELECT jsonb_array_elements_text($2::jsonb))
) DESC, (s.track = $3) DESC, s.start_time NULLS LAST
LIMIT $4
`, excludeID, tagsJSON, track, limit)
	if err != nil {
		return nil, fmt.Errorf("query related sessions: %w", err)
	}
	defer rows.Close()

	var related []domain.RelatedSession
	for rows.Next() {
		var rel domain.RelatedSession
		if err := rows.Scan(&rel.ID, &rel.Title, &rel.Track); err != nil {
			return nil, fmt.Errorf("scan related session: %w", err)
		}
		related = append(related, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate related sessions: %w", err)
	}
	return related, nil
}

func (r *SessionRepository) RegistrationCount(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM registrations WHERE session_id = $1
`, sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count registrations: %w", err)
	}
	return count, nil
}

// RecordSearchEvent persists one consumed analytics event (worker side).
func (r *SessionRepository) RecordSearchEvent(ctx context.Context, event domain.SearchEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO search_events (id, query, user_id, method, query_type, total_found, duration_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
ON CONFLICT (id) DO NOTHING
`, event.ID, event.Query, nullString(event.UserID), string(event.Method), string(event.QueryType),
		event.TotalFound, event.DurationMS, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert search event: %w", err)
	}
	return nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
