// Package enrichment asks the LLM for summaries, relevance tags and paper
// sections, retrying schema-invalid answers a bounded number of times.
package enrichment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/llm"
	"github.com/lueurxax/scholarfeed/internal/platform/observability"
	"github.com/lueurxax/scholarfeed/internal/platform/worker"
)

// articleAnswer is the JSON the model returns for a web article.
type articleAnswer struct {
	Summary          string `json:"summary"`
	NewTechnology    bool   `json:"is_new_technology"`
	NewProduct       bool   `json:"is_new_product"`
	NewAcademicPaper bool   `json:"is_new_academic_paper"`
	AIRelated        bool   `json:"is_ai_related"`
	SecurityRelated  bool   `json:"is_security_related"`
	ITRelated        bool   `json:"is_it_related"`
}

// paperAnswer is the JSON the model returns for an academic paper.
type paperAnswer struct {
	TranslatedAbstract string   `json:"translated_abstract"`
	Summary            string   `json:"summary"`
	Tasks              []string `json:"tasks"`
	Background         string   `json:"background"`
	Method             string   `json:"method"`
	Dataset            string   `json:"dataset"`
	Results            string   `json:"results"`
	Limitations        string   `json:"limitations"`
}

var (
	articleSchema = llm.MustSchemaFor[articleAnswer]()
	paperSchema   = llm.MustSchemaFor[paperAnswer]()
)

// ArticleResult is the enrichment of one web article.
type ArticleResult struct {
	Summary   string
	Relevance domain.Relevance
}

// PaperInput is what the model reads for a paper.
type PaperInput struct {
	Title    string
	Abstract string
	FullText string
}

// PaperResult is the enrichment of one paper.
type PaperResult struct {
	TranslatedAbstract string
	Summary            string
	Tasks              []string
	Background         string
	Method             string
	Dataset            string
	Results            string
	Limitations        string
	// Truncated reports whether FullText was cut to fit the token budget.
	Truncated bool
}

// Config tunes the enricher.
type Config struct {
	Model          string
	Temperature    float32
	MaxTokens      int
	MaxAttempts    int
	RetryDelay     time.Duration
	TargetLanguage string
}

type Enricher struct {
	client    llm.Client
	tokenizer llm.Tokenizer
	cfg       Config
	logger    *zerolog.Logger
}

func New(client llm.Client, tokenizer llm.Tokenizer, cfg Config, logger *zerolog.Logger) *Enricher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}

	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	l := logger.With().Str("component", "enrichment").Logger()

	return &Enricher{
		client:    client,
		tokenizer: tokenizer,
		cfg:       cfg,
		logger:    &l,
	}
}

// EnrichArticle summarizes and classifies an article in the source language.
// Failure wraps ErrEnrichmentFailed; callers decide on a fallback.
func (e *Enricher) EnrichArticle(ctx context.Context, title, text, lang string) (ArticleResult, error) {
	req := llm.StructuredRequest{
		System:      articleSystem(lang),
		User:        articleUser(title, text),
		SchemaName:  schemaArticle,
		Schema:      articleSchema,
		Temperature: e.cfg.Temperature,
		Model:       e.cfg.Model,
	}

	answer, err := complete[articleAnswer](ctx, e, kindArticle, title, req)
	if err != nil {
		return ArticleResult{}, err
	}

	return ArticleResult{
		Summary: answer.Summary,
		Relevance: domain.Relevance{
			NewTechnology:    answer.NewTechnology,
			NewProduct:       answer.NewProduct,
			NewAcademicPaper: answer.NewAcademicPaper,
			AIRelated:        answer.AIRelated,
			SecurityRelated:  answer.SecurityRelated,
			ITRelated:        answer.ITRelated,
		},
	}, nil
}

// EnrichPaper produces the structured reading of a paper in the target language.
// The full text is truncated first when it exceeds the token ceiling.
func (e *Enricher) EnrichPaper(ctx context.Context, in PaperInput) (PaperResult, error) {
	text, truncated := e.FitTokenBudget(in.FullText)
	in.FullText = text

	req := llm.StructuredRequest{
		System:      paperSystem(e.cfg.TargetLanguage),
		User:        paperUser(in),
		SchemaName:  schemaPaper,
		Schema:      paperSchema,
		Temperature: e.cfg.Temperature,
		Model:       e.cfg.Model,
	}

	answer, err := complete[paperAnswer](ctx, e, kindPaper, in.Title, req)
	if err != nil {
		return PaperResult{}, err
	}

	return PaperResult{
		TranslatedAbstract: answer.TranslatedAbstract,
		Summary:            answer.Summary,
		Tasks:              answer.Tasks,
		Background:         answer.Background,
		Method:             answer.Method,
		Dataset:            answer.Dataset,
		Results:            answer.Results,
		Limitations:        answer.Limitations,
		Truncated:          truncated,
	}, nil
}

// FitTokenBudget returns text unchanged when it fits MaxTokens, otherwise
// the first floor(0.95 * MaxTokens) tokens of it.
func (e *Enricher) FitTokenBudget(text string) (string, bool) {
	if e.tokenizer == nil || text == "" {
		return text, false
	}

	count := e.tokenizer.Count(text)
	if count <= e.cfg.MaxTokens {
		return text, false
	}

	limit := TruncationLimit(e.cfg.MaxTokens)

	e.logger.Warn().
		Int("tokens", count).
		Int("ceiling", e.cfg.MaxTokens).
		Int("truncated_to", limit).
		Msg("paper text exceeds token ceiling, truncating")

	observability.TokenTruncations.Inc()

	return e.tokenizer.Truncate(text, limit), true
}

// TruncationLimit is the token count text is cut to once it exceeds ceiling.
func TruncationLimit(ceiling int) int {
	return ceiling * truncationPercent / 100
}

// complete runs one structured request under the retry policy. Only schema
// mismatches are retried; transport errors surface at once.
func complete[T any](ctx context.Context, e *Enricher, kind, title string, req llm.StructuredRequest) (T, error) {
	policy := worker.FixedDelay(e.cfg.MaxAttempts, e.cfg.RetryDelay)
	policy.Retryable = func(err error) bool {
		return errors.Is(err, coreerrors.ErrSchemaMismatch)
	}
	policy.OnRetry = func(attempt int, err error) {
		observability.EnrichmentAttempts.WithLabelValues(kind, statusRetry).Inc()
		e.logger.Warn().
			Err(err).
			Str(logKeyTitle, title).
			Int(logKeyAttempt, attempt).
			Msg("schema-invalid LLM answer, retrying")
	}

	answer, err := worker.Retry(ctx, policy, func(ctx context.Context) (T, error) {
		content, err := e.client.CompleteJSON(ctx, req)
		if err != nil {
			return *new(T), err
		}

		return llm.Decode[T](content, req.Schema)
	})
	if err != nil {
		status := statusError
		if errors.Is(err, worker.ErrRetriesExhausted) {
			status = statusExhausted
		}

		observability.EnrichmentAttempts.WithLabelValues(kind, status).Inc()

		return answer, fmt.Errorf("%w: %s %q: %w", coreerrors.ErrEnrichmentFailed, kind, title, err)
	}

	observability.EnrichmentAttempts.WithLabelValues(kind, statusSuccess).Inc()

	return answer, nil
}
