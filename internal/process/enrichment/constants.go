package enrichment

import "time"

const (
	// truncationPercent leaves headroom under the model ceiling for the prompt and the answer.
	truncationPercent = 95

	defaultMaxAttempts = 5
	defaultRetryDelay  = time.Second
	defaultMaxTokens   = 200000
	defaultLanguage    = "en"

	schemaArticle = "article_enrichment"
	schemaPaper   = "paper_enrichment"

	kindArticle = "article"
	kindPaper   = "paper"

	statusSuccess   = "success"
	statusRetry     = "retry"
	statusExhausted = "exhausted"
	statusError     = "error"

	logKeyTitle   = "title"
	logKeyAttempt = "attempt"
)
