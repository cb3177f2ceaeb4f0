package pipeline

import "github.com/rs/zerolog"

// RunReport counts what happened to items during one run.
type RunReport struct {
	RunID         string
	Sources       int
	FailedSources int
	Listed        int
	Fresh         int
	WithContent   int
	Relevant      int
	Saved         int
	Duplicates    int
	Dropped       int
	// Skipped counts sources not visited because the run was cancelled.
	Skipped int
}

func (r *RunReport) add(o RunReport) {
	r.Sources += o.Sources
	r.FailedSources += o.FailedSources
	r.Listed += o.Listed
	r.Fresh += o.Fresh
	r.WithContent += o.WithContent
	r.Relevant += o.Relevant
	r.Saved += o.Saved
	r.Duplicates += o.Duplicates
	r.Dropped += o.Dropped
	r.Skipped += o.Skipped
}

// MarshalZerologObject lets the report be logged as one structured object.
func (r RunReport) MarshalZerologObject(e *zerolog.Event) {
	e.Str("run_id", r.RunID).
		Int("sources", r.Sources).
		Int("failed_sources", r.FailedSources).
		Int("listed", r.Listed).
		Int("fresh", r.Fresh).
		Int("with_content", r.WithContent).
		Int("relevant", r.Relevant).
		Int("saved", r.Saved).
		Int("duplicates", r.Duplicates).
		Int("dropped", r.Dropped).
		Int("skipped", r.Skipped)
}
