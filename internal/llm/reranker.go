package llm

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/agenthands/docintel/internal/core/common"
)

var indexPattern = regexp.MustCompile(`\d+`)

// SimpleLLMReranker orders passages by asking the LLM for a relevance ranking.
type SimpleLLMReranker struct {
	LLM LLMClient
}

func NewSimpleLLMReranker(client LLMClient) *SimpleLLMReranker {
	return &SimpleLLMReranker{LLM: client}
}

// Rank returns a permutation of the indices of docs, most relevant first.
// On LLM failure the original order is kept.
func (r *SimpleLLMReranker) Rank(ctx context.Context, query string, docs []string) ([]int, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	if len(docs) == 1 {
		return []int{0}, nil
	}

	var docList strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&docList, "[%d] %s\n", i, common.Truncate(d, 200))
	}

	prompt := fmt.Sprintf(`You are a search relevance optimization system.
Query: %s

Documents:
%s
Rank the documents above based on their relevance to the query.
Output ONLY the indices of the documents in order of relevance, separated by commas.
Example: 0, 2, 1
Do not output any other text.`, query, docList.String())

	resp, err := r.LLM.Generate(ctx, prompt)
	if err != nil {
		log.Printf("Rerank failed, keeping retrieval order: %v", err)
		return identity(len(docs)), nil
	}

	return completeRanking(parseIndices(resp), len(docs)), nil
}

func parseIndices(s string) []int {
	matches := indexPattern.FindAllString(s, -1)
	var indices []int
	for _, m := range matches {
		if i, err := strconv.Atoi(m); err == nil {
			indices = append(indices, i)
		}
	}
	return indices
}

// completeRanking drops out-of-range and repeated indices, then appends
// whatever the model left out in its original order.
func completeRanking(ranked []int, n int) []int {
	seen := make([]bool, n)
	out := make([]int, 0, n)
	for _, i := range ranked {
		if i < 0 || i >= n || seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, i)
	}
	for i := 0; i < n; i++ {
		if !seen[i] {
			out = append(out, i)
		}
	}
	return out
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
