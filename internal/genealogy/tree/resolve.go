package tree

import (
	"strings"

	"lineage/internal/genealogy/dates"
)

// Stats summarizes one build.
type Stats struct {
	Records           int `json:"records"`
	Skipped           int `json:"skipped"`
	Persons           int `json:"persons"`
	HintMatches       int `json:"hint_matches"`
	UnresolvedParents int `json:"unresolved_parents"`
}

func normalizeDateField(raw any) string {
	return strings.TrimSpace(dates.NormalizeDate(raw))
}

// resolveLinks applies each record's parent information in record order. An
// explicit parent id wins over name hints; later records override earlier ones.
func (b *Builder) resolveLinks() {
	for _, l := range b.links {
		if l.parentID != "" {
			if l.parentID == ReservedRootID {
				l.person.parentID = b.rootAnchor
			} else {
				l.person.parentID = l.parentID
			}
			continue
		}
		if parent := b.matchHints(l.person, l.hint1, l.hint2); parent != nil {
			l.person.parentID = parent.id
			b.stats.HintMatches++
		}
	}
}

// retryUnresolved gives persons whose parent reference points at nobody a
// second chance through the name hints of their own events.
func (b *Builder) retryUnresolved() {
	for _, p := range b.order {
		if _, ok := b.persons[p.parentID]; ok {
			continue
		}
		for _, ev := range p.events {
			parent := b.matchHints(p, ev.ParentHint1, ev.ParentHint2)
			if parent == nil {
				continue
			}
			b.logger.Debug("parent resolved from name hint",
				"person_id", p.id,
				"unresolved_parent_id", p.parentID,
				"parent_id", parent.id,
			)
			p.parentID = parent.id
			b.stats.HintMatches++
			break
		}
		if _, ok := b.persons[p.parentID]; !ok && p.parentID != "" {
			b.logger.Debug("parent reference unresolved",
				"person_id", p.id,
				"parent_id", p.parentID,
			)
		}
	}
}

// matchHints tries hint1, then hint2.
func (b *Builder) matchHints(self *Person, hint1, hint2 string) *Person {
	if parent := b.matchName(self, hint1); parent != nil {
		return parent
	}
	return b.matchName(self, hint2)
}

// matchName returns the first person in registry order whose name equals,
// contains or is contained in hint. Matching is case-sensitive and ambiguous
// by nature; registry order is the tie-break. A person never matches itself.
func (b *Builder) matchName(self *Person, hint string) *Person {
	if hint == "" {
		return nil
	}
	for _, p := range b.order {
		if p == self {
			continue
		}
		if p.name == hint || strings.Contains(p.name, hint) || strings.Contains(hint, p.name) {
			return p
		}
	}
	return nil
}
