package tree

// Tree is the finished, immutable person graph. All methods are safe for
// concurrent use.
type Tree struct {
	persons    map[string]*Person
	order      []*Person
	byName     map[string]*Person
	root       *Person
	rootAnchor string
	stats      Stats
}

// Empty reports whether no person was ingested. An empty tree has no root.
func (t *Tree) Empty() bool {
	return t == nil || len(t.order) == 0
}

// Len is the number of persons.
func (t *Tree) Len() int {
	if t == nil {
		return 0
	}
	return len(t.order)
}

// Root is the designated root, nil for an empty tree.
func (t *Tree) Root() *Person {
	if t == nil {
		return nil
	}
	return t.root
}

// RootAnchor is the id reserved for the root anchor person.
func (t *Tree) RootAnchor() string {
	return t.rootAnchor
}

// Stats reports what the build saw.
func (t *Tree) Stats() Stats {
	return t.stats
}

// Person looks up a person by id.
func (t *Tree) Person(id string) (*Person, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.persons[id]
	return p, ok
}

// FindByName returns the first person in registry order with exactly this name.
func (t *Tree) FindByName(name string) (*Person, bool) {
	if t == nil {
		return nil, false
	}
	p, ok := t.byName[name]
	return p, ok
}

// Persons returns every person in registry order.
func (t *Tree) Persons() []*Person {
	if t == nil {
		return nil
	}
	return append([]*Person(nil), t.order...)
}

// Parent resolves p's parent reference.
func (t *Tree) Parent(p *Person) (*Person, bool) {
	if t == nil || p == nil || p.parentID == "" {
		return nil, false
	}
	parent, ok := t.persons[p.parentID]
	return parent, ok
}

// DescendantCount counts the distinct persons below p. Each person is visited
// at most once, so parent cycles terminate.
func (t *Tree) DescendantCount(p *Person) int {
	if p == nil {
		return 0
	}
	visited := map[*Person]struct{}{p: {}}
	stack := append([]*Person(nil), p.children...)
	count := 0
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}
		count++
		stack = append(stack, n.children...)
	}
	return count
}
