package model

type Strategy string

const (
	StrategyVectorSearch Strategy = "vector_search"
	StrategyGraphQA      Strategy = "graph_qa"
	StrategyHybridSearch Strategy = "hybrid_search"
	// StrategyUndetermined marks a routing response that could not be used.
	StrategyUndetermined Strategy = "undetermined"
)

// ParseStrategy maps a router label to a known strategy. ok is false for anything else.
func ParseStrategy(s string) (Strategy, bool) {
	switch Strategy(s) {
	case StrategyVectorSearch, StrategyGraphQA, StrategyHybridSearch:
		return Strategy(s), true
	}
	return StrategyUndetermined, false
}

type RouteDecision struct {
	Strategy Strategy `json:"strategy"`
	Question string   `json:"question"`
	Reason   string   `json:"reason,omitempty"`
}

// SourceMetadata describes one retrieved parent chunk.
type SourceMetadata struct {
	ID     string  `json:"id"`
	Source string  `json:"source"`
	Title  string  `json:"title,omitempty"`
	Index  int     `json:"index"`
	Score  float64 `json:"score"`
}

type RetrievedChunk struct {
	Text     string         `json:"text"`
	Metadata SourceMetadata `json:"metadata"`
}

type Answer struct {
	Answer   string           `json:"answer"`
	Strategy Strategy         `json:"strategy"`
	Sources  []SourceMetadata `json:"sources"`
}
