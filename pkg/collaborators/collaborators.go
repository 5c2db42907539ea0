// Package collaborators defines the interfaces the core treats as
// opaque external services (§6 "Collaborator interfaces consumed by the
// core") plus minimal local stub implementations suitable for tests and
// single-process deployments. Production deployments supply their own
// implementations (real LLM providers, vector retrieval, a repository
// fetch gateway) behind these same interfaces.
package collaborators

import "context"

// CompletionRequest/CompletionResult mirror the LLM collaborator's wire
// contract: "POST /complete {content, prompt_template, max_tokens,
// model} -> {summary, model_used, provider, token_count,
// processing_time_ms, fallback_used}". The core must tolerate
// fallback_used=true and treat the provider as opaque.
type CompletionRequest struct {
	Content        string
	PromptTemplate string
	MaxTokens      int
	Model          string
}

type CompletionResult struct {
	Summary           string
	ModelUsed         string
	Provider          string
	TokenCount        int
	ProcessingTimeMs  float64
	FallbackUsed      bool
}

// LanguageModel is the opaque completion collaborator.
type LanguageModel interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
}

// RetrievalQuery/RetrievalResult mirror the retrieval collaborator's
// contract: "retrieve(query, context_types[], strategy, max_results,
// filters) -> {chunks[], augmented_context, sources[], confidence}".
type RetrievalQuery struct {
	Query        string
	ContextTypes []string
	Strategy     string
	MaxResults   int
	Filters      map[string]any
}

type RetrievalResult struct {
	Chunks            []map[string]any
	AugmentedContext string
	Sources           []string
	Confidence        float64
}

// Retriever is the opaque retrieval-augmentation collaborator.
type Retriever interface {
	Retrieve(ctx context.Context, q RetrievalQuery) (RetrievalResult, error)
}

// RepositoryFile is one entry from a repository tree listing.
type RepositoryFile struct {
	Path  string
	IsDir bool
}

// RepositoryFetcher is the opaque repository collaborator: "GET
// /repo/tree?path,ref", "GET /repo/file?path".
type RepositoryFetcher interface {
	Tree(ctx context.Context, path, ref string) ([]RepositoryFile, error)
	File(ctx context.Context, path string) ([]byte, error)
}
