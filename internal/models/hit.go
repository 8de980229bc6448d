package models

import "fmt"

// Hit is a single nearest-neighbour result.
type Hit struct {
	ID      int               `json:"id"`
	Score   float64           `json:"score"`
	Text    string            `json:"text"`
	Payload map[string]string `json:"payload,omitempty"`
}

// QueryRequest is the body of a query request.
type QueryRequest struct {
	Query      string `json:"query"`
	Collection string `json:"collection,omitempty"`
}

// Validate returns an error if the query is empty.
func (q *QueryRequest) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	return nil
}

// LoadRequest is the body of a load request.
type LoadRequest struct {
	Path       string `json:"path"`
	Collection string `json:"collection,omitempty"`
}

// Validate returns an error if the path is empty.
func (l *LoadRequest) Validate() error {
	if l.Path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	return nil
}
