package entity

import "time"

// VectorRecord is a stored embedding with its content and string metadata.
type VectorRecord struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Vector    []float32         `json:"-"`
	CreatedAt time.Time         `json:"created_at"`
}

// VectorMatch is a search result; lower distance means closer.
type VectorMatch struct {
	VectorRecord
	Distance float64 `json:"distance"`
}
