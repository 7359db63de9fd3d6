package model

// UnknownType is substituted for entity types the LLM left out.
const UnknownType = "Unknown"

type GraphNode struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type GraphRelationship struct {
	Source GraphNode `json:"source"`
	Target GraphNode `json:"target"`
	Type   string    `json:"type"`
}

// GraphDocument is the deduplicated node and relationship set extracted from one document.
type GraphDocument struct {
	Source        string              `json:"source"`
	Nodes         []GraphNode         `json:"nodes"`
	Relationships []GraphRelationship `json:"relationships"`
}

// BatchFailure records an extraction batch that was skipped.
type BatchFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ExtractionResult carries the graph built from every batch that succeeded plus the
// batches that did not, so callers can tell degraded extraction from an empty document.
type ExtractionResult struct {
	Graph         GraphDocument  `json:"graph"`
	Batches       int            `json:"batches"`
	FailedBatches []BatchFailure `json:"failed_batches,omitempty"`
}

func (r ExtractionResult) Degraded() bool {
	return len(r.FailedBatches) > 0
}
