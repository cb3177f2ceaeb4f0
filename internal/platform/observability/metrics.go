package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values for ArticleItems.
const (
	StageListed      = "listed"
	StageFresh       = "fresh"
	StageWithContent = "with_content"
	StageRelevant    = "relevant"
	StageSaved       = "saved"
	StageDuplicate   = "duplicate"
	StageDropped     = "dropped"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_runs_total",
		Help: "Article pipeline runs by outcome",
	}, []string{"status"})

	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scholarfeed_run_duration_seconds",
		Help:    "Duration of one article pipeline run",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	})

	SourceListings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_source_listings_total",
		Help: "Source listing attempts by source and outcome",
	}, []string{"source", "status"})

	ArticleItems = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_article_items_total",
		Help: "Article items reaching each pipeline stage",
	}, []string{"source", "stage"})

	DropsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_drops_total",
		Help: "Dropped article items by reason",
	}, []string{"reason"})

	PapersIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_papers_ingested_total",
		Help: "Paper ingestion requests by outcome",
	}, []string{"status"})

	EnrichmentAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_enrichment_attempts_total",
		Help: "LLM enrichment attempts by kind and outcome",
	}, []string{"kind", "status"})

	TokenTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholarfeed_token_truncations_total",
		Help: "Paper texts truncated to fit the LLM token ceiling",
	})

	LLMRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scholarfeed_llm_request_duration_seconds",
		Help:    "Duration of LLM requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"model"})

	LLMRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_llm_requests_total",
		Help: "LLM requests by model and status",
	}, []string{"model", "status"})

	LLMTokensPrompt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_llm_tokens_prompt_total",
		Help: "Prompt tokens consumed by model",
	}, []string{"model"})

	LLMTokensCompletion = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_llm_tokens_completion_total",
		Help: "Completion tokens consumed by model",
	}, []string{"model"})

	LLMCircuitBreakerOpens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scholarfeed_llm_circuit_breaker_opens_total",
		Help: "Times the LLM circuit breaker opened",
	})

	FetchRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_fetch_requests_total",
		Help: "Outbound HTTP fetches by host and status class",
	}, []string{"host", "status"})

	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scholarfeed_notifications_total",
		Help: "Saved-article notifications by outcome",
	}, []string{"status"})
)
