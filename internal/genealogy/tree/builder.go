// Package tree turns flat, noisy life-event records into an immutable
// person/parent graph.
//
// Construction runs in two phases. Add registers identities and events for
// every record; Build then resolves parent links once all identities exist,
// sorts children and selects the root. A Builder is single-use and is not safe
// for concurrent use; the Tree it returns is read-only and safe to share.
package tree

import (
	"log/slog"
	"strings"

	"lineage/internal/platform/logger"
)

// ReservedRootID is the parent id that always denotes the root anchor person.
const ReservedRootID = "0"

// Builder accumulates records into a registry of persons.
type Builder struct {
	rootAnchor string
	logger     *slog.Logger

	persons map[string]*Person
	order   []*Person
	byName  map[string]*Person
	links   []pendingLink
	stats   Stats
	built   bool
}

// pendingLink is the parent information of one record, kept until phase two.
type pendingLink struct {
	person   *Person
	parentID string
	hint1    string
	hint2    string
}

// Option configures a Builder.
type Option func(*Builder)

// WithRootAnchor overrides the id of the root anchor person.
func WithRootAnchor(id string) Option {
	return func(b *Builder) {
		if id = strings.TrimSpace(id); id != "" {
			b.rootAnchor = id
		}
	}
}

// WithLogger sets the logger used to report resolution anomalies.
func WithLogger(l *slog.Logger) Option {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBuilder returns an empty Builder.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		rootAnchor: ReservedRootID,
		logger:     logger.Discard(),
		persons:    make(map[string]*Person),
		byName:     make(map[string]*Person),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build is a convenience wrapper that adds all records and builds the tree.
func Build(records []Record, opts ...Option) *Tree {
	b := NewBuilder(opts...)
	for _, rec := range records {
		b.Add(rec)
	}
	return b.Build()
}

// Add registers the record's person and appends its event. Records without a
// name are skipped and reported as false. Add panics after Build.
func (b *Builder) Add(rec Record) bool {
	if b.built {
		panic("tree: Add called after Build")
	}
	b.stats.Records++

	name := strings.TrimSpace(rec.Name)
	if name == "" {
		b.stats.Skipped++
		return false
	}

	p := b.identify(name, strings.TrimSpace(rec.AnchorID))
	ev := newEvent(rec)
	p.events = append(p.events, ev)

	b.links = append(b.links, pendingLink{
		person:   p,
		parentID: strings.TrimSpace(rec.ParentID),
		hint1:    ev.ParentHint1,
		hint2:    ev.ParentHint2,
	})
	return true
}

// identify resolves the record's identity: anchor id first, then an exact
// name match, otherwise a new person keyed by name.
func (b *Builder) identify(name, anchorID string) *Person {
	if anchorID != "" {
		if p, ok := b.persons[anchorID]; ok {
			return p
		}
		return b.register(anchorID, name)
	}
	if p, ok := b.byName[name]; ok {
		return p
	}
	if p, ok := b.persons[name]; ok {
		return p
	}
	return b.register(name, name)
}

func (b *Builder) register(id, name string) *Person {
	p := &Person{id: id, name: name}
	b.persons[id] = p
	b.order = append(b.order, p)
	if _, taken := b.byName[name]; !taken {
		b.byName[name] = p
	}
	return p
}

// Build resolves parent links, assembles children lists and selects the root.
// The Builder must not be used afterwards.
func (b *Builder) Build() *Tree {
	b.built = true

	b.resolveLinks()
	b.retryUnresolved()
	b.assembleChildren()
	root := b.selectRoot()

	b.stats.Persons = len(b.order)
	for _, p := range b.order {
		if _, ok := b.persons[p.parentID]; !ok && p.parentID != "" {
			b.stats.UnresolvedParents++
		}
	}

	t := &Tree{
		persons:    b.persons,
		order:      b.order,
		byName:     b.byName,
		root:       root,
		rootAnchor: b.rootAnchor,
		stats:      b.stats,
	}

	b.persons, b.order, b.byName, b.links = nil, nil, nil, nil
	return t
}

func newEvent(rec Record) Event {
	return Event{
		Type:         ParseEventType(rec.Type),
		Date:         normalizeDateField(rec.Date),
		Partner:      strings.TrimSpace(rec.Partner),
		PartnerDates: strings.TrimSpace(rec.PartnerDates),
		ParentHint1:  strings.TrimSpace(rec.ParentHint1),
		ParentHint2:  strings.TrimSpace(rec.ParentHint2),
	}
}
