package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"lineage/internal/genealogy/display"
	"lineage/internal/genealogy/metrics"
	"lineage/internal/genealogy/navigator"
	"lineage/internal/genealogy/search"
	"lineage/internal/genealogy/store/navstate"
	"lineage/internal/genealogy/tree"
	"lineage/internal/platform/logger"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/sentinel"
	"lineage/pkg/requestcontext"
)

// suggestionCount bounds the "did you mean" list of an empty search.
const suggestionCount = 5

var tracer = otel.Tracer("lineage/genealogy/service")

type RecordFetcher interface {
	Fetch(ctx context.Context) ([]tree.Record, error)
}

type SessionStore interface {
	Save(ctx context.Context, sessionID string, state navigator.State) error
	Load(ctx context.Context, sessionID string) (navigator.State, bool, error)
	Delete(ctx context.Context, sessionID string) error
}

// Service owns the published family tree and the navigation sessions over it.
// The tree is immutable once published; Reload swaps in a new one atomically.
type Service struct {
	fetcher     RecordFetcher
	sessions    SessionStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	rootAnchor  string
	searchLimit int

	reloadMu sync.Mutex
	current  atomic.Pointer[snapshot]
}

type snapshot struct {
	tree     *tree.Tree
	search   *search.Engine
	loadedAt time.Time
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithRootAnchor sets the anchor id that records with parent id "0" point at.
func WithRootAnchor(id string) Option {
	return func(s *Service) {
		s.rootAnchor = id
	}
}

func WithSearchLimit(n int) Option {
	return func(s *Service) {
		s.searchLimit = n
	}
}

// New constructs a Service. No tree is published until Reload succeeds.
func New(fetcher RecordFetcher, sessions SessionStore, opts ...Option) *Service {
	s := &Service{
		fetcher:     fetcher,
		sessions:    sessions,
		rootAnchor:  tree.ReservedRootID,
		searchLimit: search.DefaultLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Discard()
	}
	return s
}

// Reload fetches the record source and publishes a freshly built tree. When
// fetching fails the previously published tree stays in place.
func (s *Service) Reload(ctx context.Context) (tree.Stats, error) {
	ctx, span := tracer.Start(ctx, "genealogy.reload")
	defer span.End()

	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	records, err := s.fetcher.Fetch(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch records")
		if s.metrics != nil {
			s.metrics.IncrementBuildFailure()
		}
		s.logger.ErrorContext(ctx, "failed to load record source",
			"error", err,
			"source", describe(s.fetcher),
			"keeping_previous", s.current.Load() != nil,
		)
		var coded *dErrors.Error
		if errors.As(err, &coded) {
			return tree.Stats{}, err
		}
		return tree.Stats{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "record source could not be loaded")
	}

	t := tree.Build(records, tree.WithRootAnchor(s.rootAnchor), tree.WithLogger(s.logger))
	s.current.Store(&snapshot{
		tree:     t,
		search:   search.New(t, search.WithLimit(s.searchLimit)),
		loadedAt: requestcontext.Now(ctx),
	})

	stats := t.Stats()
	span.SetAttributes(
		attribute.Int("lineage.records", stats.Records),
		attribute.Int("lineage.persons", stats.Persons),
	)
	if s.metrics != nil {
		s.metrics.ObserveBuild(stats.Persons, stats.UnresolvedParents, stats.Records, stats.Skipped)
	}

	rootName := ""
	if root := t.Root(); root != nil {
		rootName = root.Name()
	}
	s.logger.InfoContext(ctx, "family tree published",
		"records", stats.Records,
		"skipped", stats.Skipped,
		"persons", stats.Persons,
		"hint_matches", stats.HintMatches,
		"unresolved_parents", stats.UnresolvedParents,
		"root", rootName,
	)
	return stats, nil
}

// Tree returns the currently published tree.
func (s *Service) Tree() (*tree.Tree, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	return snap.tree, nil
}

func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	snap, err := s.populated()
	if err != nil {
		return nil, err
	}
	t := snap.tree
	return &Overview{
		Root:     display.CardFor(t, t.Root()),
		Persons:  t.Len(),
		Stats:    t.Stats(),
		LoadedAt: snap.loadedAt,
	}, nil
}

func (s *Service) Person(ctx context.Context, id string) (*PersonDetails, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	p, ok := snap.tree.Person(id)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	return &PersonDetails{
		Person:   display.CardFor(snap.tree, p),
		ParentID: p.ParentID(),
		Children: display.Cards(snap.tree, p.Children()),
	}, nil
}

// Search ranks persons by name and spouse name. An empty result carries fuzzy
// name suggestions instead.
func (s *Service) Search(ctx context.Context, query string) (*SearchResult, error) {
	_, span := tracer.Start(ctx, "genealogy.search", trace.WithAttributes(attribute.String("lineage.query", query)))
	defer span.End()

	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	matches := snap.search.Search(query)
	if s.metrics != nil {
		s.metrics.ObserveSearch(start)
	}

	result := &SearchResult{Query: query, Hits: make([]SearchHit, 0, len(matches))}
	for _, m := range matches {
		result.Hits = append(result.Hits, SearchHit{
			Person: display.CardFor(snap.tree, m.Person),
			Kind:   m.Kind,
			Spouse: m.Spouse,
		})
	}
	if len(result.Hits) == 0 {
		result.Suggestions = snap.search.Suggest(query, suggestionCount)
	}
	span.SetAttributes(attribute.Int("lineage.hits", len(result.Hits)))
	return result, nil
}

// CreateSession opens a navigation session focused on the root.
func (s *Service) CreateSession(ctx context.Context) (*SessionView, error) {
	snap, err := s.populated()
	if err != nil {
		return nil, err
	}
	sessionID := uuid.NewString()
	nav, err := navigator.New(snap.tree, navigator.WithStatePort(navstate.Bind(s.sessions, sessionID)))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open navigator")
	}
	view, _, err := nav.NavigateTo(ctx, nav.Root().ID())
	if err != nil {
		return nil, storeError(err, "failed to save navigation session")
	}
	s.logger.InfoContext(ctx, "navigation session created",
		"session_id", sessionID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return s.present(snap.tree, sessionID, view), nil
}

// View returns the session's current view, re-resolved against the published tree.
func (s *Service) View(ctx context.Context, sessionID string) (*SessionView, error) {
	snap, nav, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.present(snap.tree, sessionID, nav.View()), nil
}

// Navigate moves the session's focus to personID.
func (s *Service) Navigate(ctx context.Context, sessionID, personID string) (*SessionView, error) {
	ctx, span := tracer.Start(ctx, "genealogy.navigate", trace.WithAttributes(
		attribute.String("lineage.session_id", sessionID),
		attribute.String("lineage.person_id", personID),
	))
	defer span.End()

	snap, nav, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view, moved, err := nav.NavigateTo(ctx, personID)
	if !moved {
		s.countNavigation(metrics.NavigationUnknown)
		return nil, dErrors.New(dErrors.CodeNotFound, "person not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, storeError(err, "failed to save navigation session")
	}
	s.countNavigation(metrics.NavigationMoved)
	return s.present(snap.tree, sessionID, view), nil
}

// Restore refocuses the session from a root-first name path. Unresolvable
// paths land on the root. The resulting breadcrumb is saved.
func (s *Service) Restore(ctx context.Context, sessionID string, path []string) (*SessionView, error) {
	snap, nav, err := s.openSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	view := nav.Restore(navigator.State{Path: path})
	if err := s.sessions.Save(ctx, sessionID, navigator.State{Path: view.Breadcrumb}); err != nil {
		return nil, storeError(err, "failed to save navigation session")
	}
	s.countNavigation(metrics.NavigationRestored)
	return s.present(snap.tree, sessionID, view), nil
}

func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "navigation session not found")
		}
		return storeError(err, "failed to delete navigation session")
	}
	return nil
}

func (s *Service) openSession(ctx context.Context, sessionID string) (*snapshot, *navigator.Navigator, error) {
	if sessionID == "" {
		return nil, nil, dErrors.New(dErrors.CodeBadRequest, "session id is required")
	}
	snap, err := s.populated()
	if err != nil {
		return nil, nil, err
	}
	state, found, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, nil, storeError(err, "failed to load navigation session")
	}
	if !found {
		return nil, nil, dErrors.New(dErrors.CodeNotFound, "navigation session not found")
	}
	nav, err := navigator.New(snap.tree, navigator.WithStatePort(navstate.Bind(s.sessions, sessionID)))
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to open navigator")
	}
	nav.Restore(state)
	return snap, nav, nil
}

func (s *Service) present(t *tree.Tree, sessionID string, view navigator.View) *SessionView {
	return &SessionView{
		SessionID:  sessionID,
		Ancestors:  display.Cards(t, view.Ancestors),
		Focus:      display.CardFor(t, view.Focus),
		Children:   display.Cards(t, view.Children),
		Breadcrumb: view.Breadcrumb,
	}
}

func (s *Service) snapshot() (*snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "family tree not loaded")
	}
	return snap, nil
}

// populated is snapshot for operations that need a root.
func (s *Service) populated() (*snapshot, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if snap.tree.Empty() {
		return nil, dErrors.New(dErrors.CodeUnavailable, "family tree has no persons")
	}
	return snap, nil
}

func (s *Service) countNavigation(outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementNavigation(outcome)
	}
}

func storeError(err error, msg string) error {
	if errors.Is(err, sentinel.ErrUnavailable) {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, msg)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}

func describe(f RecordFetcher) string {
	if named, ok := f.(interface{ String() string }); ok {
		return named.String()
	}
	return "unknown"
}
