package papers

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/ports/mocks"
	"github.com/lueurxax/scholarfeed/internal/process/enrichment"
)

var errLinkFailed = errors.New("relation insert failed")

type stubResolver struct {
	paper domain.AcademicPaper
	err   error
}

func (s stubResolver) Resolve(context.Context, string) (domain.AcademicPaper, error) {
	return s.paper, s.err
}

type stubEnricher struct {
	result enrichment.PaperResult
	err    error
	calls  int
	last   enrichment.PaperInput
}

func (s *stubEnricher) EnrichPaper(_ context.Context, in enrichment.PaperInput) (enrichment.PaperResult, error) {
	s.calls++
	s.last = in

	return s.result, s.err
}

func draftPaper() domain.AcademicPaper {
	return domain.AcademicPaper{
		SemanticScholarID: "s2-1",
		ArxivID:           "1706.03762",
		DOI:               "10.5555/3295222",
		Journal:           "NeurIPS",
		Title:             "Attention Is All You Need",
		Abstract:          "The dominant sequence transduction models...",
		FullText:          "Intro.\n\nMethod.",
		PublishedAt:       time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC),
		Authors: []domain.Author{
			{ExternalID: "a1", Name: "Ashish Vaswani", HIndex: 30},
			{ExternalID: "a2", Name: "Noam Shazeer"},
			{ExternalID: "a1", Name: "Ashish Vaswani"},
			{Name: " "},
		},
	}
}

func analysis() enrichment.PaperResult {
	return enrichment.PaperResult{
		TranslatedAbstract: "翻訳された要約",
		Summary:            "Transformers replace recurrence with attention.",
		Tasks:              []string{"Machine Translation", "machine translation", " Parsing ", ""},
		Background:         "RNNs are slow.",
		Method:             "Self-attention.",
		Dataset:            "WMT14",
		Results:            "28.4 BLEU",
		Limitations:        "Quadratic cost.",
	}
}

func newService(resolver Resolver, enricher Enricher, store *mocks.Store) *Service {
	logger := zerolog.Nop()

	return NewService(resolver, enricher, store, &logger)
}

func TestIngest_StoresGraph(t *testing.T) {
	store := mocks.NewStore()
	enricher := &stubEnricher{result: analysis()}

	res, err := newService(stubResolver{paper: draftPaper()}, enricher, store).Ingest(context.Background(), "attention is all you need")
	require.NoError(t, err)

	assert.True(t, res.Created)
	assert.Empty(t, res.MatchKind)
	assert.Equal(t, "Intro.\n\nMethod.", enricher.last.FullText)

	p := res.Paper
	assert.NotZero(t, p.ID)
	assert.Equal(t, domain.StatusNew, p.Status)
	assert.Equal(t, "Transformers replace recurrence with attention.", p.Summary)
	assert.Equal(t, "翻訳された要約", p.TranslatedAbstract)
	assert.Equal(t, "Ashish Vaswani, Noam Shazeer (2017). Attention Is All You Need. NeurIPS. doi:10.5555/3295222", p.Citation)
	assert.NotZero(t, p.JournalID)

	require.Len(t, p.Authors, 2)
	assert.Equal(t, "Ashish Vaswani", p.Authors[0].Name)
	assert.Equal(t, 30, p.Authors[0].HIndex)

	require.Len(t, p.Tasks, 2)
	assert.Equal(t, "Machine Translation", p.Tasks[0].Name)
	assert.Equal(t, "Parsing", p.Tasks[1].Name)

	authors, journals, tasks, authorLinks, taskLinks := store.Counts()
	assert.Equal(t, []int{2, 1, 2, 2, 2}, []int{authors, journals, tasks, authorLinks, taskLinks})
}

func TestIngest_RelationFailureLeavesNothing(t *testing.T) {
	store := mocks.NewStore()
	store.LinkTaskFn = func(_, _ int64) error { return errLinkFailed }

	_, err := newService(stubResolver{paper: draftPaper()}, &stubEnricher{result: analysis()}, store).Ingest(context.Background(), "x")
	require.ErrorIs(t, err, errLinkFailed)

	assert.Empty(t, store.Papers())

	authors, journals, tasks, authorLinks, taskLinks := store.Counts()
	assert.Equal(t, []int{0, 0, 0, 0, 0}, []int{authors, journals, tasks, authorLinks, taskLinks})
}

func TestIngest_DuplicateByExternalID(t *testing.T) {
	store := mocks.NewStore()
	existing := store.AddPaper(domain.AcademicPaper{Title: "Old Title Of The Same Paper", ArxivID: "1706.03762"})
	enricher := &stubEnricher{result: analysis()}

	res, err := newService(stubResolver{paper: draftPaper()}, enricher, store).Ingest(context.Background(), "x")
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, "external_id", res.MatchKind)
	assert.Equal(t, existing.ID, res.Paper.ID)
	assert.Zero(t, enricher.calls)
	assert.Len(t, store.Papers(), 1)
}

func TestIngest_FuzzyTitleThreshold(t *testing.T) {
	tests := []struct {
		name        string
		storedTitle string
		wantCreated bool
	}{
		{name: "one edit is the same paper", storedTitle: "Attention Is All You Needs", wantCreated: false},
		{name: "two edits is a new paper", storedTitle: "Attention Is All You Neeeds", wantCreated: true},
		{name: "trailing ellipsis is the same paper", storedTitle: "Attention Is All You Need…", wantCreated: false},
		{name: "trailing accented letter is the same paper", storedTitle: "Attention Is All You Needé", wantCreated: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewStore()
			store.AddPaper(domain.AcademicPaper{Title: tt.storedTitle})

			draft := draftPaper()
			draft.ArxivID, draft.SemanticScholarID, draft.DOI = "", "", ""

			res, err := newService(stubResolver{paper: draft}, &stubEnricher{result: analysis()}, store).Ingest(context.Background(), "x")
			require.NoError(t, err)
			assert.Equal(t, tt.wantCreated, res.Created)
		})
	}
}

func TestIngest_ExactTitleFoundAmongManyContainingTitles(t *testing.T) {
	store := mocks.NewStore()
	for i := range 25 {
		store.AddPaper(domain.AcademicPaper{Title: fmt.Sprintf("Transformers for Domain Number %d", i)})
	}

	exact := store.AddPaper(domain.AcademicPaper{Title: "Transformers"})

	draft := draftPaper()
	draft.ArxivID, draft.SemanticScholarID, draft.DOI = "", "", ""
	draft.Title = "Transformers"

	enricher := &stubEnricher{result: analysis()}

	res, err := newService(stubResolver{paper: draft}, enricher, store).Ingest(context.Background(), "transformers")
	require.NoError(t, err)

	assert.False(t, res.Created)
	assert.Equal(t, "title", res.MatchKind)
	assert.Equal(t, exact.ID, res.Paper.ID)
	assert.Zero(t, enricher.calls)
	assert.Len(t, store.Papers(), 26)
}

func TestIngest_ResolveAndEnrichFailures(t *testing.T) {
	store := mocks.NewStore()

	_, err := newService(stubResolver{err: coreerrors.ErrNotFound}, &stubEnricher{}, store).Ingest(context.Background(), "x")
	assert.ErrorIs(t, err, coreerrors.ErrNotFound)

	enricher := &stubEnricher{err: coreerrors.ErrEnrichmentFailed}
	_, err = newService(stubResolver{paper: draftPaper()}, enricher, store).Ingest(context.Background(), "x")
	assert.ErrorIs(t, err, coreerrors.ErrEnrichmentFailed)
	assert.Empty(t, store.Papers())
}

func TestIngest_SharedEntitiesAreReused(t *testing.T) {
	store := mocks.NewStore()
	svc := newService(stubResolver{paper: draftPaper()}, &stubEnricher{result: analysis()}, store)

	_, err := svc.Ingest(context.Background(), "x")
	require.NoError(t, err)

	second := draftPaper()
	second.ArxivID, second.SemanticScholarID, second.DOI = "2001.00001", "s2-2", ""
	second.Title = "Scaling Laws for Neural Language Models"

	svc.resolver = stubResolver{paper: second}

	res, err := svc.Ingest(context.Background(), "x")
	require.NoError(t, err)
	require.True(t, res.Created)

	authors, journals, tasks, authorLinks, taskLinks := store.Counts()
	assert.Equal(t, []int{2, 1, 2, 4, 4}, []int{authors, journals, tasks, authorLinks, taskLinks})
}

func TestAddNote(t *testing.T) {
	store := mocks.NewStore()
	paper := store.AddPaper(domain.AcademicPaper{Title: "T"})
	svc := newService(stubResolver{}, &stubEnricher{}, store)
	svc.now = func() time.Time { return time.Date(2025, 10, 14, 18, 30, 0, 0, time.UTC) }

	note, err := svc.AddNote(context.Background(), paper.ID, "  read section 3 ", time.Time{})
	require.NoError(t, err)
	assert.NotZero(t, note.ID)
	assert.Equal(t, "read section 3", note.Note)
	assert.Equal(t, time.Date(2025, 10, 14, 0, 0, 0, 0, time.UTC), note.NoteDate)
	assert.Len(t, store.Notes(), 1)

	_, err = svc.AddNote(context.Background(), paper.ID+1000, "n", time.Time{})
	assert.ErrorIs(t, err, coreerrors.ErrNotFound)

	_, err = svc.AddNote(context.Background(), paper.ID, "  ", time.Time{})
	assert.ErrorIs(t, err, coreerrors.ErrInvalidInput)

	_, err = svc.AddNote(context.Background(), 0, "n", time.Time{})
	assert.ErrorIs(t, err, coreerrors.ErrInvalidID)
}
