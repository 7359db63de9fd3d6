package model

// ParentChunk is a coarse retrieval window over a document. It is stored as a
// vector-indexed node and never modified after ingestion.
type ParentChunk struct {
	ID        string    `json:"id"`
	Index     int       `json:"index"`
	Text      string    `json:"text"`
	Source    string    `json:"source"`
	Title     string    `json:"title,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// ChildChunk is a fine-grained window cut from exactly one ParentChunk.
// ID stays empty until the ingestor assigns a fresh identifier.
type ChildChunk struct {
	ID       string `json:"id,omitempty"`
	Index    int    `json:"index"`
	Text     string `json:"text"`
	ParentID string `json:"parent_id"`
	Source   string `json:"source"`
}
