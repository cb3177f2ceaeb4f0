package domain

import "time"

// Author of a paper. ExternalID is the bibliographic-service id and the natural key.
type Author struct {
	ID         int64
	ExternalID string
	Name       string
	HIndex     int
}

// Journal is keyed by name.
type Journal struct {
	ID   int64
	Name string
}

// Task is a research topic label, keyed by name.
type Task struct {
	ID   int64
	Name string
}

// AcademicPaper is the root of a paper entity graph.
type AcademicPaper struct {
	ID                 int64
	SemanticScholarID  string
	ArxivID            string
	DOI                string
	JournalID          int64
	Journal            string
	Title              string
	Abstract           string
	TranslatedAbstract string
	FullText           string
	URL                string
	PublishedAt        time.Time

	CitationCount            int
	ReferenceCount           int
	InfluentialCitationCount int

	PrimaryCategory string
	Citation        string

	Summary     string
	Background  string
	Method      string
	Dataset     string
	Results     string
	Limitations string

	Authors   []Author
	Tasks     []Task
	Status    string
	CreatedAt time.Time
}

// PaperNote is a user annotation on a stored paper.
type PaperNote struct {
	ID       int64
	PaperID  int64
	Note     string
	NoteDate time.Time
}

// ExternalIDs are the identifiers a paper may carry from outside services.
type ExternalIDs struct {
	ArxivID           string
	SemanticScholarID string
	DOI               string
}

// Empty reports whether no identifier is known.
func (ids ExternalIDs) Empty() bool {
	return ids.ArxivID == "" && ids.SemanticScholarID == "" && ids.DOI == ""
}

// IDs returns the paper's external identifiers.
func (p AcademicPaper) IDs() ExternalIDs {
	return ExternalIDs{ArxivID: p.ArxivID, SemanticScholarID: p.SemanticScholarID, DOI: p.DOI}
}
