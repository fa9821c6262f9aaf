package service

import (
	"time"

	"lineage/internal/genealogy/display"
	"lineage/internal/genealogy/search"
	"lineage/internal/genealogy/tree"
)

// Overview summarizes the published tree.
type Overview struct {
	Root     display.Card
	Persons  int
	Stats    tree.Stats
	LoadedAt time.Time
}

// PersonDetails is one person with its direct children, oldest first.
type PersonDetails struct {
	Person   display.Card
	ParentID string
	Children []display.Card
}

// SessionView is the navigator view of one session, formatted for clients.
type SessionView struct {
	SessionID  string
	Ancestors  []display.Card
	Focus      display.Card
	Children   []display.Card
	Breadcrumb []string
}

// SearchHit is one ranked search match.
type SearchHit struct {
	Person display.Card
	Kind   search.MatchKind
	Spouse string
}

// SearchResult carries ranked hits, and name suggestions when there are none.
type SearchResult struct {
	Query       string
	Hits        []SearchHit
	Suggestions []string
}
