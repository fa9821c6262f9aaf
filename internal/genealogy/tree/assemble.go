package tree

import "sort"

// assembleChildren attaches every person to its resolved parent in registry
// order, then sorts each children list by birth year.
func (b *Builder) assembleChildren() {
	for _, p := range b.order {
		parent, ok := b.persons[p.parentID]
		if !ok {
			continue
		}
		if containsPerson(parent.children, p) {
			continue
		}
		parent.children = append(parent.children, p)
	}
	for _, p := range b.order {
		sortByBirth(p.children)
	}
}

// sortByBirth orders ascending by birth year; unknown years go last and keep
// their discovery order.
func sortByBirth(children []*Person) {
	sort.SliceStable(children, func(i, j int) bool {
		yi, iok := children[i].BirthYear()
		yj, jok := children[j].BirthYear()
		switch {
		case iok && jok:
			return yi < yj
		case iok:
			return true
		default:
			return false
		}
	})
}

// selectRoot prefers the root anchor, then the earliest-born parentless
// person, then the first person in registry order.
func (b *Builder) selectRoot() *Person {
	if len(b.order) == 0 {
		return nil
	}
	if anchor, ok := b.persons[b.rootAnchor]; ok && !b.hasResolvedParent(anchor) {
		return anchor
	}

	var (
		best      *Person
		bestYear  int
		bestKnown bool
	)
	for _, p := range b.order {
		if b.hasResolvedParent(p) {
			continue
		}
		y, known := p.BirthYear()
		switch {
		case best == nil:
			best, bestYear, bestKnown = p, y, known
		case known && (!bestKnown || y < bestYear):
			best, bestYear, bestKnown = p, y, known
		}
	}
	if best != nil {
		return best
	}
	return b.order[0]
}

func (b *Builder) hasResolvedParent(p *Person) bool {
	_, ok := b.persons[p.parentID]
	return ok
}

func containsPerson(list []*Person, p *Person) bool {
	for _, c := range list {
		if c == p {
			return true
		}
	}
	return false
}
