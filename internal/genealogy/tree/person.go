package tree

import (
	"strings"

	"lineage/internal/genealogy/dates"
)

// EventType classifies a life event.
type EventType string

const (
	EventBirth    EventType = "birth"
	EventDeath    EventType = "death"
	EventMarriage EventType = "marriage"
	EventDivorce  EventType = "divorce"
	EventOther    EventType = "other"
)

// ParseEventType maps a source tag onto an EventType. Unknown tags are EventOther.
func ParseEventType(tag string) EventType {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "birth", "born", "geburt":
		return EventBirth
	case "death", "died", "tod":
		return EventDeath
	case "marriage", "married", "heirat", "ehe":
		return EventMarriage
	case "divorce", "divorced", "scheidung":
		return EventDivorce
	default:
		return EventOther
	}
}

// Event is one life event accumulated onto a Person.
type Event struct {
	Type         EventType `json:"type"`
	Date         string    `json:"date,omitempty"`
	Partner      string    `json:"partner,omitempty"`
	PartnerDates string    `json:"partner_dates,omitempty"`

	// Parent name hints only matter while links are resolved.
	ParentHint1 string `json:"-"`
	ParentHint2 string `json:"-"`
}

// Year returns the event's year if its date carries one.
func (e Event) Year() (int, bool) {
	return dates.Year(e.Date)
}

// Person is a node of the finished tree. Its fields are only written by the
// Builder; once a Tree is returned every Person is read-only.
type Person struct {
	id       string
	name     string
	events   []Event
	parentID string
	children []*Person
}

// ID is the anchor id, or the name when the source carried no anchor.
func (p *Person) ID() string { return p.id }

// Name is the display name.
func (p *Person) Name() string { return p.name }

// ParentID is the parent reference as recorded. It may point at nobody; use
// Tree.Parent to resolve it.
func (p *Person) ParentID() string { return p.parentID }

// Events returns a copy of the person's events in ingestion order.
func (p *Person) Events() []Event {
	return append([]Event(nil), p.events...)
}

// Children returns a copy of the children, sorted by birth year.
func (p *Person) Children() []*Person {
	return append([]*Person(nil), p.children...)
}

// EventsOf returns the events of the given type in ingestion order.
func (p *Person) EventsOf(t EventType) []Event {
	var out []Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// BirthYear is the year of the first birth event that carries one.
func (p *Person) BirthYear() (int, bool) {
	for _, e := range p.events {
		if e.Type != EventBirth {
			continue
		}
		if y, ok := e.Year(); ok {
			return y, true
		}
	}
	return 0, false
}

// DeathYear is the year of the first death event that carries one.
func (p *Person) DeathYear() (int, bool) {
	for _, e := range p.events {
		if e.Type != EventDeath {
			continue
		}
		if y, ok := e.Year(); ok {
			return y, true
		}
	}
	return 0, false
}
