// Package qdrant adapts a Qdrant HTTP collection to the VectorIndex
// port. One client serves one logical namespace; the service constructs
// separate clients for the general agenda and the meal collection.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adb1146/itc-conference-app-sub001/internal/core/domain"
	"github.com/adb1146/itc-conference-app-sub001/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client
	executor   *resilience.Executor
}

type Option func(*Client)

// WithExecutor wraps search calls in the shared resilience executor.
func WithExecutor(executor *resilience.Executor) Option {
	return func(c *Client) {
		c.executor = executor
	}
}

func New(baseURL, collection string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search queries the collection and maps payloads back into sessions
// with SimilarityScore populated.
func (c *Client) Search(ctx context.Context, queryVector []float32, limit int, filter domain.VectorFilter) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 10
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	var must, mustNot []map[string]any
	if filter.Track != "" {
		must = append(must, map[string]any{
			"key":   "track",
			"match": map[string]any{"value": filter.Track},
		})
	}
	if filter.ExcludeID != "" {
		mustNot = append(mustNot, map[string]any{
			"key":   "session_id",
			"match": map[string]any{"value": filter.ExcludeID},
		})
	}
	if len(must) > 0 || len(mustNot) > 0 {
		qf := map[string]any{}
		if len(must) > 0 {
			qf["must"] = must
		}
		if len(mustNot) > 0 {
			qf["must_not"] = mustNot
		}
		reqBody["filter"] = qf
	}

	var sessions []domain.Session
	call := func(callCtx context.Context) error {
		var err error
		sessions, err = c.search(callCtx, reqBody)
		return err
	}
	if c.executor != nil {
		if err := c.executor.Execute(ctx, "qdrant.search."+c.collection, call, classifyQdrantError); err != nil {
			return nil, err
		}
		return sessions, nil
	}
	if err := call(ctx); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) search(ctx context.Context, reqBody map[string]any) ([]domain.Session, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(domain.ErrBackendUnavailable, "qdrant search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, domain.WrapError(domain.ErrTemporary, "qdrant search", fmt.Errorf("status %s", resp.Status))
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("qdrant search status: %s", resp.Status)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	sessions := make([]domain.Session, 0, len(searchResp.Result))
	for _, hit := range searchResp.Result {
		session := sessionFromPayload(hit.Payload)
		if session.ID == "" {
			continue
		}
		score := hit.Score
		session.SimilarityScore = &score
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// sessionFromPayload rebuilds a session from the indexed payload.
func sessionFromPayload(payload map[string]any) domain.Session {
	s := domain.Session{
		ID:          payloadString(payload, "session_id"),
		Title:       payloadString(payload, "title"),
		Description: payloadString(payload, "description"),
		Track:       payloadString(payload, "track"),
		Location:    payloadString(payload, "location"),
		Level:       payloadString(payload, "level"),
		Format:      payloadString(payload, "format"),
		Tags:        payloadStrings(payload, "tags"),

		RegistrationCount:  payloadInt(payload, "registration_count"),
		ExpectedAttendance: payloadInt(payload, "expected_attendance"),
		Rating:             payloadFloat(payload, "rating"),
		Capacity:           payloadInt(payload, "capacity"),
		Featured:           payloadBool(payload, "featured"),
		Keynote:            payloadBool(payload, "keynote"),
		HasSlides:          payloadBool(payload, "has_slides"),
		HasRecording:       payloadBool(payload, "has_recording"),
	}
	if start, ok := payloadTime(payload, "start_time"); ok {
		s.StartTime = &start
	}
	if end, ok := payloadTime(payload, "end_time"); ok {
		s.EndTime = &end
	}
	for _, name := range payloadStrings(payload, "speaker_names") {
		s.Speakers = append(s.Speakers, domain.SpeakerRef{Name: name})
	}
	for _, id := range payloadStrings(payload, "speaker_ids") {
		for i := range s.Speakers {
			if s.Speakers[i].ID == "" {
				s.Speakers[i].ID = id
				break
			}
		}
	}
	return s
}

func payloadString(payload map[string]any, key string) string {
	v, _ := payload[key].(string)
	return v
}

func payloadStrings(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func payloadFloat(payload map[string]any, key string) float64 {
	v, _ := payload[key].(float64)
	return v
}

func payloadInt(payload map[string]any, key string) int {
	return int(payloadFloat(payload, key))
}

func payloadBool(payload map[string]any, key string) bool {
	v, _ := payload[key].(bool)
	return v
}

func payloadTime(payload map[string]any, key string) (time.Time, bool) {
	raw, ok := payload[key].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func classifyQdrantError(err error) (bool, bool) {
	if domain.IsKind(err, domain.ErrTemporary) || domain.IsKind(err, domain.ErrBackendUnavailable) {
		return true, true
	}
	return false, true
}
