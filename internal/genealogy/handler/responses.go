package handler

import (
	"time"

	"lineage/internal/genealogy/display"
	"lineage/internal/genealogy/service"
	"lineage/internal/genealogy/tree"
)

type TreeResponse struct {
	Root              display.Card `json:"root"`
	Persons           int          `json:"persons"`
	Records           int          `json:"records"`
	SkippedRecords    int          `json:"skipped_records"`
	UnresolvedParents int          `json:"unresolved_parents"`
	LoadedAt          time.Time    `json:"loaded_at"`
}

type PersonResponse struct {
	Person   display.Card   `json:"person"`
	ParentID string         `json:"parent_id,omitempty"`
	Children []display.Card `json:"children"`
}

type SessionResponse struct {
	SessionID  string         `json:"session_id"`
	Ancestors  []display.Card `json:"ancestors"`
	Focus      display.Card   `json:"focus"`
	Children   []display.Card `json:"children"`
	Breadcrumb []string       `json:"breadcrumb"`
}

type SearchHitResponse struct {
	Person display.Card `json:"person"`
	Match  string       `json:"match"`
	Spouse string       `json:"spouse,omitempty"`
}

type SearchResponse struct {
	Query       string              `json:"query"`
	Results     []SearchHitResponse `json:"results"`
	Suggestions []string            `json:"suggestions,omitempty"`
}

type ReloadResponse struct {
	Records           int `json:"records"`
	SkippedRecords    int `json:"skipped_records"`
	Persons           int `json:"persons"`
	HintMatches       int `json:"hint_matches"`
	UnresolvedParents int `json:"unresolved_parents"`
}

func toTreeResponse(o *service.Overview) TreeResponse {
	return TreeResponse{
		Root:              o.Root,
		Persons:           o.Persons,
		Records:           o.Stats.Records,
		SkippedRecords:    o.Stats.Skipped,
		UnresolvedParents: o.Stats.UnresolvedParents,
		LoadedAt:          o.LoadedAt,
	}
}

func toPersonResponse(d *service.PersonDetails) PersonResponse {
	return PersonResponse{
		Person:   d.Person,
		ParentID: d.ParentID,
		Children: d.Children,
	}
}

func toSessionResponse(v *service.SessionView) SessionResponse {
	return SessionResponse{
		SessionID:  v.SessionID,
		Ancestors:  v.Ancestors,
		Focus:      v.Focus,
		Children:   v.Children,
		Breadcrumb: v.Breadcrumb,
	}
}

func toSearchResponse(r *service.SearchResult) SearchResponse {
	results := make([]SearchHitResponse, 0, len(r.Hits))
	for _, hit := range r.Hits {
		results = append(results, SearchHitResponse{
			Person: hit.Person,
			Match:  string(hit.Kind),
			Spouse: hit.Spouse,
		})
	}
	return SearchResponse{
		Query:       r.Query,
		Results:     results,
		Suggestions: r.Suggestions,
	}
}

func toReloadResponse(s tree.Stats) ReloadResponse {
	return ReloadResponse{
		Records:           s.Records,
		SkippedRecords:    s.Skipped,
		Persons:           s.Persons,
		HintMatches:       s.HintMatches,
		UnresolvedParents: s.UnresolvedParents,
	}
}
