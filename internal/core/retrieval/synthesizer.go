package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/docintel/internal/llm"
)

// NotFoundAnswer is the exact reply required when the context lacks the answer.
const NotFoundAnswer = "The provided document does not contain information on this topic."

// DefaultSynthesisPrompt takes the context and then the question.
const DefaultSynthesisPrompt = `You are a specialized Q&A assistant for an insurance policy document.
Your knowledge is strictly limited to the information contained in the 'Context' provided below. You must not use any outside information.

Your task is to answer the user's 'Question' based ONLY on the 'Context'.

**Instructions:**
1. Read the 'Context' carefully.
2. Formulate a direct and concise answer to the 'Question' using only the facts and text from the 'Context'.
3. If the 'Context' contains the answer, provide it directly.
4. If the 'Context' does NOT contain the information needed to answer the 'Question', you must respond with the exact phrase: "` + NotFoundAnswer + `"
5. Do not, under any circumstances, say "I have no context" or "I cannot answer."

**Context:**
%s

**Question:**
%s

**Answer:**
`

type Synthesizer struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewSynthesizer(client llm.LLMClient, prompt string) *Synthesizer {
	if prompt == "" {
		prompt = DefaultSynthesisPrompt
	}
	return &Synthesizer{LLM: client, Prompt: prompt}
}

func (s *Synthesizer) Synthesize(ctx context.Context, question, contextText string) (string, error) {
	answer, err := s.LLM.Generate(ctx, fmt.Sprintf(s.Prompt, contextText, question))
	if err != nil {
		return "", fmt.Errorf("failed to synthesize answer: %w", err)
	}
	return strings.TrimSpace(answer), nil
}
