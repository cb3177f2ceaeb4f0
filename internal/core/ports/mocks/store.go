package mocks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/lueurxax/scholarfeed/internal/core/domain"
	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
	"github.com/lueurxax/scholarfeed/internal/core/ports"
)

type relation struct {
	paperID int64
	otherID int64
}

// storeState is everything a transaction can change. Transactions work on a
// copy and swap it in on commit.
type storeState struct {
	nextID       int64
	sites        []domain.WebSite
	articles     []domain.WebArticle
	authors      []domain.Author
	journals     []domain.Journal
	tasks        []domain.Task
	papers       []domain.AcademicPaper
	authorLinks  []relation
	taskLinks    []relation
	notes        []domain.PaperNote
	statusByName map[string]int64
}

func (s *storeState) clone() *storeState {
	c := *s
	c.sites = slices.Clone(s.sites)
	c.articles = slices.Clone(s.articles)
	c.authors = slices.Clone(s.authors)
	c.journals = slices.Clone(s.journals)
	c.tasks = slices.Clone(s.tasks)
	c.papers = slices.Clone(s.papers)
	c.authorLinks = slices.Clone(s.authorLinks)
	c.taskLinks = slices.Clone(s.taskLinks)
	c.notes = slices.Clone(s.notes)

	return &c
}

func (s *storeState) id() int64 {
	s.nextID++

	return s.nextID
}

// Store is an in-memory implementation of the article and paper repositories.
type Store struct {
	mu    sync.Mutex
	state *storeState

	// SaveArticleFn overrides SaveArticle when set.
	SaveArticleFn func(ctx context.Context, site domain.WebSite, article *domain.WebArticle) (bool, error)

	// LinkTaskFn, when set, is consulted before every task link and may fail it.
	LinkTaskFn func(paperID, taskID int64) error

	// LinkAuthorFn, when set, is consulted before every author link and may fail it.
	LinkAuthorFn func(paperID, authorID int64) error
}

var (
	_ ports.ArticleRepository = (*Store)(nil)
	_ ports.PaperRepository   = (*Store)(nil)
)

// NewStore creates an empty store with the workflow statuses seeded.
func NewStore() *Store {
	return &Store{
		state: &storeState{
			statusByName: map[string]int64{
				domain.StatusNew:        1,
				domain.StatusTodo:       2,
				domain.StatusInProgress: 3,
				domain.StatusDone:       4,
			},
			nextID: 100,
		},
	}
}

// ArticleExistsByURL reports whether an article with url is stored.
func (s *Store) ArticleExistsByURL(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.state.articles {
		if a.URL == url {
			return true, nil
		}
	}

	return false, nil
}

// SaveArticle mirrors the select-or-create semantics of the storage layer.
func (s *Store) SaveArticle(ctx context.Context, site domain.WebSite, article *domain.WebArticle) (bool, error) {
	if s.SaveArticleFn != nil {
		return s.SaveArticleFn(ctx, site, article)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.state.articles {
		if a.URL == article.URL {
			*article = a

			return false, nil
		}
	}

	siteID := int64(0)

	for _, existing := range s.state.sites {
		if existing.Name == site.Name {
			siteID = existing.ID

			break
		}
	}

	if siteID == 0 {
		siteID = s.state.id()
		s.state.sites = append(s.state.sites, domain.WebSite{ID: siteID, Name: site.Name, URL: site.URL})
	}

	article.ID = s.state.id()
	article.SiteID = siteID
	article.SiteName = site.Name
	article.Status = domain.StatusTodo
	s.state.articles = append(s.state.articles, *article)

	return true, nil
}

// Articles returns a copy of the stored articles in insertion order.
func (s *Store) Articles() []domain.WebArticle {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.articles)
}

// Sites returns a copy of the stored sites.
func (s *Store) Sites() []domain.WebSite {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.sites)
}

// Papers returns a copy of the stored papers.
func (s *Store) Papers() []domain.AcademicPaper {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.papers)
}

// Counts reports the number of stored authors, journals, tasks and relation rows.
func (s *Store) Counts() (authors, journals, tasks, authorLinks, taskLinks int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.state.authors), len(s.state.journals), len(s.state.tasks),
		len(s.state.authorLinks), len(s.state.taskLinks)
}

// AddPaper stores a paper directly, bypassing the graph transaction.
func (s *Store) AddPaper(p domain.AcademicPaper) domain.AcademicPaper {
	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = s.state.id()
	s.state.papers = append(s.state.papers, p)

	return p
}

// FindPaperByExternalIDs matches any non-empty identifier.
func (s *Store) FindPaperByExternalIDs(_ context.Context, ids domain.ExternalIDs) (domain.AcademicPaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.papers {
		if (ids.ArxivID != "" && p.ArxivID == ids.ArxivID) ||
			(ids.SemanticScholarID != "" && p.SemanticScholarID == ids.SemanticScholarID) ||
			(ids.DOI != "" && strings.EqualFold(p.DOI, ids.DOI)) {
			return p, nil
		}
	}

	return domain.AcademicPaper{}, coreerrors.ErrNotFound
}

// FindPaperTitleCandidates mimics the two-way ILIKE containment query with
// its closeness ordering and row limit.
func (s *Store) FindPaperTitleCandidates(_ context.Context, title string) ([]domain.AcademicPaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(title))
	if needle == "" {
		return nil, nil
	}

	var out []domain.AcademicPaper

	for _, p := range s.state.papers {
		stored := strings.ToLower(p.Title)
		if strings.Contains(stored, needle) || strings.Contains(needle, stored) {
			out = append(out, p)
		}
	}

	slices.SortStableFunc(out, func(a, b domain.AcademicPaper) int {
		return titleRank(a.Title, needle) - titleRank(b.Title, needle)
	})

	if len(out) > ports.MaxTitleCandidates {
		out = out[:ports.MaxTitleCandidates]
	}

	return out, nil
}

// titleRank orders an exact title first, then by length difference.
func titleRank(stored, needle string) int {
	stored = strings.ToLower(stored)
	if stored == needle {
		return -1
	}

	diff := utf8.RuneCountInString(stored) - utf8.RuneCountInString(needle)
	if diff < 0 {
		diff = -diff
	}

	return diff
}

// RunPaperTx runs fn against a staged copy and publishes it only on success.
func (s *Store) RunPaperTx(ctx context.Context, fn func(w ports.PaperGraphWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &storeTx{store: s, state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}

	s.state = tx.state

	return nil
}

// GetPaper returns a stored paper with its relations.
func (s *Store) GetPaper(_ context.Context, id int64) (domain.AcademicPaper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.state.papers {
		if p.ID != id {
			continue
		}

		p.Authors = nil
		p.Tasks = nil

		for _, l := range s.state.authorLinks {
			if l.paperID == id {
				p.Authors = append(p.Authors, s.state.author(l.otherID))
			}
		}

		for _, l := range s.state.taskLinks {
			if l.paperID == id {
				p.Tasks = append(p.Tasks, s.state.task(l.otherID))
			}
		}

		return p, nil
	}

	return domain.AcademicPaper{}, fmt.Errorf("paper %d: %w", id, coreerrors.ErrNotFound)
}

// AddPaperNote stores a note for an existing paper.
func (s *Store) AddPaperNote(_ context.Context, note domain.PaperNote) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.ContainsFunc(s.state.papers, func(p domain.AcademicPaper) bool { return p.ID == note.PaperID }) {
		return 0, fmt.Errorf("paper %d: %w", note.PaperID, coreerrors.ErrNotFound)
	}

	note.ID = s.state.id()
	s.state.notes = append(s.state.notes, note)

	return note.ID, nil
}

// Notes returns a copy of the stored notes.
func (s *Store) Notes() []domain.PaperNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.state.notes)
}

func (s *storeState) author(id int64) domain.Author {
	for _, a := range s.authors {
		if a.ID == id {
			return a
		}
	}

	return domain.Author{}
}

func (s *storeState) task(id int64) domain.Task {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}

	return domain.Task{}
}

// storeTx writes into a staged state owned by one RunPaperTx call.
type storeTx struct {
	store *Store
	state *storeState
}

func (t *storeTx) ResolveAuthor(_ context.Context, author domain.Author) (int64, error) {
	for _, a := range t.state.authors {
		if author.ExternalID != "" && a.ExternalID == author.ExternalID {
			return a.ID, nil
		}

		if author.ExternalID == "" && a.ExternalID == "" && a.Name == author.Name {
			return a.ID, nil
		}
	}

	author.ID = t.state.id()
	t.state.authors = append(t.state.authors, author)

	return author.ID, nil
}

func (t *storeTx) ResolveJournal(_ context.Context, name string) (int64, error) {
	for _, j := range t.state.journals {
		if j.Name == name {
			return j.ID, nil
		}
	}

	id := t.state.id()
	t.state.journals = append(t.state.journals, domain.Journal{ID: id, Name: name})

	return id, nil
}

func (t *storeTx) ResolveTask(_ context.Context, name string) (int64, error) {
	for _, task := range t.state.tasks {
		if task.Name == name {
			return task.ID, nil
		}
	}

	id := t.state.id()
	t.state.tasks = append(t.state.tasks, domain.Task{ID: id, Name: name})

	return id, nil
}

func (t *storeTx) StatusID(_ context.Context, name string) (int64, error) {
	id, ok := t.state.statusByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", coreerrors.ErrStatusNotFound, name)
	}

	return id, nil
}

func (t *storeTx) InsertPaper(_ context.Context, paper *domain.AcademicPaper, statusID int64) (int64, error) {
	for name, id := range t.state.statusByName {
		if id == statusID {
			paper.Status = name
		}
	}

	paper.ID = t.state.id()

	stored := *paper
	stored.Authors = nil
	stored.Tasks = nil
	t.state.papers = append(t.state.papers, stored)

	return paper.ID, nil
}

func (t *storeTx) LinkAuthor(_ context.Context, paperID, authorID int64) error {
	if t.store.LinkAuthorFn != nil {
		if err := t.store.LinkAuthorFn(paperID, authorID); err != nil {
			return err
		}
	}

	link := relation{paperID: paperID, otherID: authorID}
	if !slices.Contains(t.state.authorLinks, link) {
		t.state.authorLinks = append(t.state.authorLinks, link)
	}

	return nil
}

func (t *storeTx) LinkTask(_ context.Context, paperID, taskID int64) error {
	if t.store.LinkTaskFn != nil {
		if err := t.store.LinkTaskFn(paperID, taskID); err != nil {
			return err
		}
	}

	link := relation{paperID: paperID, otherID: taskID}
	if !slices.Contains(t.state.taskLinks, link) {
		t.state.taskLinks = append(t.state.taskLinks, link)
	}

	return nil
}
