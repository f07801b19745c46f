package domain

// SearchMethod records which retrieval tier produced the results (or was
// last attempted when every tier came back empty).
type SearchMethod string

const (
	MethodMealVector SearchMethod = "meal-vector"
	MethodVector     SearchMethod = "vector"
	MethodKeyword    SearchMethod = "keyword"
	MethodDatabase   SearchMethod = "database"
)

// QueryType labels the detected intent of a query; the formatter keys its
// grouping and footer on it.
type QueryType string

const (
	QueryTypeMeal           QueryType = "meal"
	QueryTypeTime           QueryType = "time"
	QueryTypeRecommendation QueryType = "recommendation"
	QueryTypeSpeaker        QueryType = "speaker"
	QueryTypeTrack          QueryType = "track"
	QueryTypeTopic          QueryType = "topic"
	QueryTypeGeneral        QueryType = "general"
)

// VectorFilter narrows a vector index query via payload metadata.
type VectorFilter struct {
	Track     string
	ExcludeID string
}

// SearchResult is the pipeline's single produced value.
type SearchResult struct {
	Sessions          []Session        `json:"sessions"`
	SearchMethod      SearchMethod     `json:"search_method"`
	QueryType         QueryType        `json:"query_type"`
	TotalFound        int              `json:"total_found"`
	FormattedResponse string           `json:"formatted_response,omitempty"`
	Timings           map[string]int64 `json:"timings_ms,omitempty"`
}

// SearchEvent is published after each query for offline analytics.
type SearchEvent struct {
	ID         string       `json:"id"`
	Query      string       `json:"query"`
	UserID     string       `json:"user_id,omitempty"`
	Method     SearchMethod `json:"method"`
	QueryType  QueryType    `json:"query_type"`
	TotalFound int          `json:"total_found"`
	DurationMS int64        `json:"duration_ms"`
}
