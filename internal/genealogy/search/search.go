// Package search answers name and spouse lookups over a finished tree.
//
// There is no index: every query scans the registry, which stays in the low
// thousands. Queries are pure functions of the tree and the query string.
package search

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"lineage/internal/genealogy/tree"
	pstrings "lineage/pkg/platform/strings"
)

const (
	// DefaultLimit caps the number of returned matches.
	DefaultLimit = 20
	// MinQueryLength is the shortest query that is scanned.
	MinQueryLength = 2
)

// MatchKind tells whether a person matched on its own name or a spouse's.
type MatchKind string

const (
	MatchName   MatchKind = "name"
	MatchSpouse MatchKind = "spouse"
)

// Match is one ranked search hit.
type Match struct {
	Person *tree.Person
	Kind   MatchKind
	// Spouse is the partner name that matched, for spouse matches.
	Spouse string
}

// Engine runs queries against one tree.
type Engine struct {
	tree  *tree.Tree
	limit int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLimit overrides DefaultLimit. Non-positive values are ignored.
func WithLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.limit = n
		}
	}
}

// New returns an Engine over t.
func New(t *tree.Tree, opts ...Option) *Engine {
	e := &Engine{tree: t, limit: DefaultLimit}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search returns at most the configured limit of matches for query, ranked
// name matches first, then prefix matches, then by case-insensitive name.
// Queries shorter than MinQueryLength, counted before trimming, or blank
// queries yield an empty, non-nil result.
func (e *Engine) Search(query string) []Match {
	q := pstrings.Fold(query)
	if pstrings.RuneLen(query) < MinQueryLength || q == "" {
		return []Match{}
	}

	var hits []ranked
	for _, p := range e.tree.Persons() {
		lname := strings.ToLower(p.Name())
		if strings.Contains(lname, q) {
			hits = append(hits, ranked{Match: Match{Person: p, Kind: MatchName}, lname: lname, prefix: strings.HasPrefix(lname, q)})
			continue
		}
		if spouse, ok := matchSpouse(p, q); ok {
			hits = append(hits, ranked{Match: Match{Person: p, Kind: MatchSpouse, Spouse: spouse}, lname: lname, prefix: strings.HasPrefix(lname, q)})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Kind != b.Kind {
			return a.Kind == MatchName
		}
		if a.prefix != b.prefix {
			return a.prefix
		}
		return a.lname < b.lname
	})

	if len(hits) > e.limit {
		hits = hits[:e.limit]
	}
	out := make([]Match, len(hits))
	for i, h := range hits {
		out[i] = h.Match
	}
	return out
}

// Suggest proposes up to n person names that fuzzily resemble query. It is
// meant for "did you mean" hints when Search finds nothing.
func (e *Engine) Suggest(query string, n int) []string {
	q := strings.TrimSpace(query)
	if pstrings.RuneLen(query) < MinQueryLength || q == "" || n <= 0 {
		return []string{}
	}
	persons := e.tree.Persons()
	names := make([]string, len(persons))
	for i, p := range persons {
		names[i] = p.Name()
	}

	ranks := fuzzy.RankFindNormalizedFold(q, names)
	sort.Stable(ranks)

	targets := make([]string, len(ranks))
	for i, r := range ranks {
		targets[i] = r.Target
	}
	out := pstrings.DedupeAndTrim(targets)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

type ranked struct {
	Match
	lname  string
	prefix bool
}

// matchSpouse reports the first marriage partner whose name contains q.
func matchSpouse(p *tree.Person, q string) (string, bool) {
	for _, ev := range p.EventsOf(tree.EventMarriage) {
		if ev.Partner != "" && strings.Contains(strings.ToLower(ev.Partner), q) {
			return ev.Partner, true
		}
	}
	return "", false
}
