// Package display formats persons into the strings the renderer shows.
package display

import (
	"strconv"
	"strings"

	"lineage/internal/genealogy/dates"
	"lineage/internal/genealogy/tree"
)

const marriageMark = "⚭"

// Card is the formatted summary of one person.
type Card struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	LifeSpan    string   `json:"life_span,omitempty"`
	Marriages   []string `json:"marriages,omitempty"`
	Descendants int      `json:"descendants"`
	HasChildren bool     `json:"has_children"`
}

// CardFor formats p. The descendant count is computed against t.
func CardFor(t *tree.Tree, p *tree.Person) Card {
	return Card{
		ID:          p.ID(),
		Name:        p.Name(),
		LifeSpan:    LifeSpan(p),
		Marriages:   MarriageLines(p),
		Descendants: t.DescendantCount(p),
		HasChildren: len(p.Children()) > 0,
	}
}

// Cards formats every person in ps.
func Cards(t *tree.Tree, ps []*tree.Person) []Card {
	out := make([]Card, 0, len(ps))
	for _, p := range ps {
		out = append(out, CardFor(t, p))
	}
	return out
}

// LifeSpan renders "1850–1920", "*1850", "†1920" or "".
func LifeSpan(p *tree.Person) string {
	born, hasBirth := p.BirthYear()
	died, hasDeath := p.DeathYear()
	switch {
	case hasBirth && hasDeath:
		return strconv.Itoa(born) + "–" + strconv.Itoa(died)
	case hasBirth:
		return "*" + strconv.Itoa(born)
	case hasDeath:
		return "†" + strconv.Itoa(died)
	default:
		return ""
	}
}

// MarriageLines renders one line per marriage:
//
//	⚭ 1875 Maria Koch (*1854)
//	⚭ 1875–1890 Maria Koch (*1854)
//
// The year range appears when a divorce from the same partner is recorded. A
// divorce without a partner name applies to a sole marriage.
func MarriageLines(p *tree.Person) []string {
	marriages := p.EventsOf(tree.EventMarriage)
	if len(marriages) == 0 {
		return nil
	}
	divorces := p.EventsOf(tree.EventDivorce)

	lines := make([]string, 0, len(marriages))
	for _, m := range marriages {
		parts := []string{marriageMark}
		if years := marriageYears(m, divorces, len(marriages) == 1); years != "" {
			parts = append(parts, years)
		}
		if m.Partner != "" {
			parts = append(parts, m.Partner)
		}
		if m.PartnerDates != "" {
			parts = append(parts, "("+dates.FormatPartnerSpan(m.PartnerDates)+")")
		}
		lines = append(lines, strings.Join(parts, " "))
	}
	return lines
}

func marriageYears(m tree.Event, divorces []tree.Event, sole bool) string {
	married, ok := m.Year()
	if !ok {
		return ""
	}
	for _, d := range divorces {
		if d.Partner != m.Partner && !(sole && d.Partner == "") {
			continue
		}
		if divorced, ok := d.Year(); ok {
			return strconv.Itoa(married) + "–" + strconv.Itoa(divorced)
		}
	}
	return strconv.Itoa(married)
}
