package models

// SearchResult is a single retrieval hit.
type SearchResult struct {
	Document *Document `json:"document"`
	// Score is the cosine similarity to the query; results are ordered
	// descending by score.
	Score float64 `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results []*SearchResult `json:"results"`
	Total   int             `json:"total"`
	Query   string          `json:"query"`
	// QueryTime is the server-side search duration in milliseconds.
	QueryTime int64 `json:"query_time_ms"`
}
