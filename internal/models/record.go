// Package models defines core data structures for chunk records, collections, and query hits.
package models

// ChunkRecord is one embedded chunk as uploaded to a collection.
// ID is the 0-based position of the chunk in split order.
type ChunkRecord struct {
	ID      int               `json:"id"`
	Vector  []float32         `json:"-"`
	Text    string            `json:"text"`
	Payload map[string]string `json:"payload,omitempty"`
}

// CollectionInfo describes a collection in the vector store.
type CollectionInfo struct {
	Name       string `json:"name"`
	Dimensions int    `json:"dimensions,omitempty"`
	Distance   string `json:"distance,omitempty"`
	Points     int64  `json:"points"`
}
