package antfly

import "encoding/json"

// Hit is a single search result streamed by the "hit" event.
type Hit struct {
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Index  string         `json:"_index,omitempty"`
	Source map[string]any `json:"_source,omitempty"`
}

// HitsStart opens a block of hit events.
type HitsStart struct {
	Status int    `json:"status"`
	Total  int    `json:"total,omitempty"`
	Error  string `json:"error,omitempty"`
}

// HitsEnd closes a block of hit events.
type HitsEnd struct {
	Total int `json:"total,omitempty"`
}

// Classification describes how the answer agent routed and rewrote a query.
type Classification struct {
	RouteType     string   `json:"route_type"`
	Strategy      string   `json:"strategy,omitempty"`
	ImprovedQuery string   `json:"improved_query,omitempty"`
	SemanticQuery string   `json:"semantic_query,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	Reasoning     string   `json:"reasoning,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// Confidence carries the agent's self-assessment of an answer.
type Confidence struct {
	AnswerConfidence float64 `json:"answer_confidence"`
	ContextRelevance float64 `json:"context_relevance"`
}

// EvalScore is one evaluator's verdict.
type EvalScore struct {
	Score  float64 `json:"score"`
	Pass   bool    `json:"pass"`
	Reason string  `json:"reason,omitempty"`
}

// EvalSummary aggregates the evaluator verdicts for a request.
type EvalSummary struct {
	AverageScore float64 `json:"average_score"`
	Passed       int     `json:"passed"`
	Failed       int     `json:"failed"`
	Total        int     `json:"total"`
}

// EvalResult is streamed by the "eval" event when evaluation is requested.
type EvalResult struct {
	Scores     map[string]EvalScore `json:"scores,omitempty"`
	Summary    *EvalSummary         `json:"summary,omitempty"`
	DurationMs int64                `json:"duration_ms,omitempty"`
}

// ClarificationRequest is sent by the chat agent when it needs more input
// before it can search.
type ClarificationRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Reason   string   `json:"reason,omitempty"`
}

// Filter is a filter the chat agent applied to its search.
type Filter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// SearchExecuted reports a search the chat agent ran against a table.
type SearchExecuted struct {
	Query        string `json:"query"`
	Table        string `json:"table,omitempty"`
	ResultsCount int    `json:"results_count"`
}

// WebSearchExecuted reports a web search the chat agent ran.
type WebSearchExecuted struct {
	Query        string `json:"query"`
	ResultsCount int    `json:"results_count"`
}

// FetchExecuted reports a URL the chat agent fetched.
type FetchExecuted struct {
	URL        string `json:"url"`
	StatusCode int    `json:"status_code,omitempty"`
	Bytes      int    `json:"bytes,omitempty"`
}

// Done is the optional completion marker of the "done" event.
type Done struct {
	Complete bool `json:"complete"`
}

// QueryRequest is a retrieval query forwarded to the search layer.
type QueryRequest struct {
	Table          string          `json:"table,omitempty"`
	SemanticSearch string          `json:"semantic_search,omitempty"`
	FullTextSearch json.RawMessage `json:"full_text_search,omitempty"`
	Indexes        []string        `json:"indexes,omitempty"`
	Fields         []string        `json:"fields,omitempty"`
	Limit          int             `json:"limit,omitempty"`
}

// GeneratorConfig selects the model that writes answers.
type GeneratorConfig struct {
	Provider    string  `json:"provider"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature,omitempty"`
}

// EvalConfig requests inline evaluation of the answer.
type EvalConfig struct {
	Evaluators []string         `json:"evaluators"`
	Judge      *GeneratorConfig `json:"judge,omitempty"`
}

// AnswerAgentRequest is the body of POST /agents/answer.
type AnswerAgentRequest struct {
	Query         string           `json:"query"`
	Queries       []QueryRequest   `json:"queries,omitempty"`
	Generator     *GeneratorConfig `json:"generator,omitempty"`
	Eval          *EvalConfig      `json:"eval,omitempty"`
	WithStreaming bool             `json:"with_streaming"`
}

// AnswerAgentResult is the non-streaming response of the answer agent.
type AnswerAgentResult struct {
	Classification    *Classification `json:"classification_transformation,omitempty"`
	Reasoning         string          `json:"reasoning,omitempty"`
	Hits              []Hit           `json:"hits,omitempty"`
	Answer            string          `json:"answer"`
	Confidence        *Confidence     `json:"confidence,omitempty"`
	FollowUpQuestions []string        `json:"followup_questions,omitempty"`
	Eval              *EvalResult     `json:"eval_result,omitempty"`
}

// RAGRequest is the body of POST /tables/{table}/rag and POST /rag.
type RAGRequest struct {
	Queries       []QueryRequest   `json:"queries"`
	Generator     *GeneratorConfig `json:"generator,omitempty"`
	Prompt        string           `json:"prompt,omitempty"`
	WithStreaming bool             `json:"with_streaming"`
}

// RAGResult is the non-streaming response of a RAG request.
type RAGResult struct {
	Hits    []Hit  `json:"hits,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// ChatMessage is one turn of a chat agent conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatAgentRequest is the body of POST /agents/chat.
type ChatAgentRequest struct {
	Messages      []ChatMessage    `json:"messages"`
	Tables        []string         `json:"tables,omitempty"`
	Generator     *GeneratorConfig `json:"generator,omitempty"`
	EnableWeb     bool             `json:"enable_websearch,omitempty"`
	WithStreaming bool             `json:"with_streaming"`
}

// ChatAgentResult is the non-streaming response of the chat agent.
type ChatAgentResult struct {
	Messages              []ChatMessage         `json:"messages"`
	Answer                string                `json:"answer"`
	Hits                  []Hit                 `json:"hits,omitempty"`
	AppliedFilters        []Filter              `json:"applied_filters,omitempty"`
	ClarificationRequired *ClarificationRequest `json:"clarification_required,omitempty"`
	Confidence            *Confidence           `json:"confidence,omitempty"`
	FollowUpQuestions     []string              `json:"followup_questions,omitempty"`
}
