package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN,required,notEmpty"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// LLMConfig holds chat-completion service settings.
type LLMConfig struct {
	APIKey           string        `env:"LLM_API_KEY"`
	BaseURL          string        `env:"LLM_BASE_URL"`
	Model            string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	MaxTokens        int           `env:"LLM_MAX_TOKENS" envDefault:"200000"`
	Temperature      float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	RequestsPerSec   float64       `env:"LLM_RPS" envDefault:"1"`
	MaxAttempts      int           `env:"LLM_MAX_ATTEMPTS" envDefault:"5"`
	RetryDelay       time.Duration `env:"LLM_RETRY_DELAY" envDefault:"1s"`
	RequestTimeout   time.Duration `env:"LLM_REQUEST_TIMEOUT" envDefault:"3m"`
	CircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
	TargetLanguage   string        `env:"LLM_TARGET_LANGUAGE" envDefault:"ja"`
}

// FetchConfig holds settings of the shared HTTP fetcher used by adapters and clients.
type FetchConfig struct {
	Timeout        time.Duration `env:"FETCH_TIMEOUT" envDefault:"60s"`
	RequestsPerSec float64       `env:"FETCH_RPS" envDefault:"4"`
	PerHostRPS     float64       `env:"FETCH_PER_HOST_RPS" envDefault:"1"`
	UserAgent      string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0 (compatible; scholarfeed/1.0)"`
	MaxBodyBytes   int64         `env:"FETCH_MAX_BODY_BYTES" envDefault:"20971520"`
}

// RunConfig holds batch scheduling settings.
type RunConfig struct {
	Timezone          string        `env:"RUN_TIMEZONE" envDefault:"UTC"`
	Interval          time.Duration `env:"RUN_INTERVAL" envDefault:"24h"`
	RunOnStart        bool          `env:"RUN_ON_START" envDefault:"true"`
	SourceConcurrency int           `env:"SOURCE_CONCURRENCY" envDefault:"1"`
}

// ScholarConfig holds bibliographic, arXiv and PDF extraction endpoints.
type ScholarConfig struct {
	SemanticScholarURL    string `env:"SEMANTIC_SCHOLAR_URL" envDefault:"https://api.semanticscholar.org/graph/v1"`
	SemanticScholarAPIKey string `env:"SEMANTIC_SCHOLAR_API_KEY"`
	ArxivAPIURL           string `env:"ARXIV_API_URL" envDefault:"https://export.arxiv.org/api/query"`
	ArxivMaxResults       int    `env:"ARXIV_MAX_RESULTS" envDefault:"5"`
	PDFExtractorURL       string `env:"PDF_EXTRACTOR_URL"`
}

// TelegramConfig holds optional notification settings. Empty token disables notifications.
type TelegramConfig struct {
	BotToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `env:"TELEGRAM_CHAT_ID"`
}
