package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/agenthands/docintel/internal/core/common"
	"github.com/agenthands/docintel/internal/core/model"
	"github.com/agenthands/docintel/internal/llm"
)

const DefaultRouterPrompt = `You are an expert at routing a user's question to the appropriate retrieval strategy.
Your goal is to choose the best strategy to answer the user's question based on these strict definitions:

1. **vector_search**: Choose this for any question that asks for definitions, summaries, explanations, or general information about a topic.
   Examples:
   - "What is an Ayush Hospital?"
   - "Summarize the grace period."
   - "What are the exclusions under this policy?"

2. **graph_qa**: Choose this ONLY for questions that ask about the explicit relationships or connections between two or more specific entities.
   Examples:
   - "Who is the CEO of National Insurance?"
   - "What is the relationship between the Arogya Sanjeevani Policy and National Insurance?"

3. **hybrid_search**: Choose this for questions that mix both kinds, asking for general information together with the relationships between specific entities.

You must output a JSON object with the 'strategy' and 'question' keys, for example:
{"strategy": "vector_search", "question": "Summarize the grace period."}

Question: %s`

type routeResponse struct {
	Strategy string `json:"strategy"`
	Question string `json:"question"`
}

// Router classifies a question into a retrieval strategy.
type Router struct {
	LLM    llm.LLMClient
	Prompt string
}

func NewRouter(client llm.LLMClient, prompt string) *Router {
	if prompt == "" {
		prompt = DefaultRouterPrompt
	}
	return &Router{LLM: client, Prompt: prompt}
}

// Route never fails: any problem with the LLM call or its output yields the
// undetermined strategy with the reason recorded.
func (r *Router) Route(ctx context.Context, question string) model.RouteDecision {
	undetermined := func(reason string) model.RouteDecision {
		log.Printf("Routing undetermined for %q: %s", common.Truncate(question, 80), reason)
		return model.RouteDecision{Strategy: model.StrategyUndetermined, Question: question, Reason: reason}
	}

	resp, err := r.LLM.Generate(ctx, fmt.Sprintf(r.Prompt, question))
	if err != nil {
		return undetermined(fmt.Sprintf("router call failed: %v", err))
	}

	parsed, err := common.ParseJSON[routeResponse](resp)
	if err != nil {
		return undetermined(err.Error())
	}

	strategy, ok := model.ParseStrategy(strings.ToLower(strings.TrimSpace(parsed.Strategy)))
	if !ok || strategy == model.StrategyUndetermined {
		return undetermined(fmt.Sprintf("unknown strategy %q", parsed.Strategy))
	}

	routed := strings.TrimSpace(parsed.Question)
	if routed == "" {
		routed = question
	}
	log.Printf("Routing decision: %s", strategy)
	return model.RouteDecision{Strategy: strategy, Question: routed}
}
