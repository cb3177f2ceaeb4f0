// Package domain holds the canonical entities produced by the ingestion pipelines.
package domain

import "time"

// Workflow status names seeded by migrations.
const (
	StatusNew        = "new"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// RawItem is a lightweight listing entry emitted by a source adapter.
type RawItem struct {
	Title       string
	URL         string
	Description string
	PublishedAt time.Time
}

// WebSite is the owner of web articles. Name is the select-or-create key.
type WebSite struct {
	ID   int64
	Name string
	URL  string
}

// Relevance holds the six independent classification tags produced by enrichment.
type Relevance struct {
	NewTechnology    bool `json:"is_new_technology"`
	NewProduct       bool `json:"is_new_product"`
	NewAcademicPaper bool `json:"is_new_academic_paper"`
	AIRelated        bool `json:"is_ai_related"`
	SecurityRelated  bool `json:"is_security_related"`
	ITRelated        bool `json:"is_it_related"`
}

// Any reports whether at least one tag is set.
func (r Relevance) Any() bool {
	return r.NewTechnology || r.NewProduct || r.NewAcademicPaper ||
		r.AIRelated || r.SecurityRelated || r.ITRelated
}

// WebArticle is a stored news or blog article. URL is the natural dedup key.
type WebArticle struct {
	ID          int64
	SiteID      int64
	SiteName    string
	Title       string
	Description string
	URL         string
	RawText     string
	RawHTML     string
	PublishedAt time.Time
	Summary     string
	Relevance   Relevance
	Status      string
	CreatedAt   time.Time
}
