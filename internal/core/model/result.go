package model

// ProcessResult summarizes one ingestion job.
type ProcessResult struct {
	Filename                string         `json:"filename"`
	Title                   string         `json:"title,omitempty"`
	TotalParentChunks       int            `json:"total_parent_chunks"`
	TotalChildChunks        int            `json:"total_child_chunks"`
	TotalGraphNodes         int            `json:"total_graph_nodes"`
	TotalGraphRelationships int            `json:"total_graph_relationships"`
	FailedBatches           []BatchFailure `json:"failed_batches,omitempty"`
}
