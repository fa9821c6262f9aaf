// Package navigator tracks the focused person of a finished tree and computes
// the root-anchored ancestor path the renderer shows.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"lineage/internal/genealogy/tree"
)

// ErrEmptyTree is returned when a navigator is requested for a tree without persons.
var ErrEmptyTree = errors.New("navigator: tree has no persons")

// State is the persisted navigation state: person names from root to focus.
type State struct {
	Path []string `json:"path"`
}

// StatePort persists navigation state for one navigation session.
type StatePort interface {
	Save(ctx context.Context, state State) error
	Load(ctx context.Context) (State, bool, error)
}

// View is everything the renderer needs for one frame.
type View struct {
	Ancestors  []*tree.Person
	Focus      *tree.Person
	Children   []*tree.Person
	Breadcrumb []string
}

// Navigator holds the single focus cell over an immutable tree. Commands are
// serialized; any number of goroutines may read the tree meanwhile.
type Navigator struct {
	tree     *tree.Tree
	root     *tree.Person
	port     StatePort
	onRender func(View)

	mu    sync.Mutex
	focus *tree.Person
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithStatePort sets where breadcrumbs are saved after each navigation.
func WithStatePort(port StatePort) Option {
	return func(n *Navigator) {
		n.port = port
	}
}

// WithRenderer registers the callback invoked after every focus change.
func WithRenderer(fn func(View)) Option {
	return func(n *Navigator) {
		n.onRender = fn
	}
}

// New returns a navigator focused on the tree's root.
func New(t *tree.Tree, opts ...Option) (*Navigator, error) {
	if t.Empty() {
		return nil, ErrEmptyTree
	}
	n := &Navigator{tree: t, root: t.Root()}
	for _, opt := range opts {
		opt(n)
	}
	n.focus = n.root
	return n, nil
}

// Root is fixed for the navigator's lifetime.
func (n *Navigator) Root() *tree.Person {
	return n.root
}

// Focus is the currently centered person.
func (n *Navigator) Focus() *tree.Person {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.focus
}

// NavigateTo moves the focus to personID, saves the new breadcrumb and signals
// the renderer. An unknown id leaves the focus unchanged and reports false.
func (n *Navigator) NavigateTo(ctx context.Context, personID string) (View, bool, error) {
	p, ok := n.tree.Person(personID)
	if !ok {
		return n.View(), false, nil
	}
	view, err := n.setFocus(ctx, p)
	return view, true, err
}

// Restore rebuilds the focus from a persisted name path. Each name is looked up
// among the children of the person resolved before it, then in the whole tree;
// the focus falls back to root as soon as one name does not resolve. Restore
// does not save state.
func (n *Navigator) Restore(state State) View {
	focus := n.resolve(state.Path)

	n.mu.Lock()
	n.focus = focus
	n.mu.Unlock()

	view := n.View()
	n.render(view)
	return view
}

func (n *Navigator) resolve(path []string) *tree.Person {
	var prev *tree.Person
	for _, name := range path {
		candidates := []*tree.Person{n.root}
		if prev != nil {
			candidates = prev.Children()
		}
		p, ok := named(candidates, name)
		if !ok {
			p, ok = n.tree.FindByName(name)
		}
		if !ok {
			return n.root
		}
		prev = p
	}
	if prev == nil {
		return n.root
	}
	return prev
}

func named(ps []*tree.Person, name string) (*tree.Person, bool) {
	for _, p := range ps {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// Load restores the focus from the state port, if any state was saved.
func (n *Navigator) Load(ctx context.Context) (View, error) {
	if n.port == nil {
		return n.View(), nil
	}
	state, found, err := n.port.Load(ctx)
	if err != nil {
		return n.View(), fmt.Errorf("load navigation state: %w", err)
	}
	if !found {
		return n.View(), nil
	}
	return n.Restore(state), nil
}

// View assembles the render contract for the current focus: the ancestor path
// without the focus, the focus itself, and its direct children.
func (n *Navigator) View() View {
	focus := n.Focus()
	path := PathToRoot(n.tree, focus)
	return View{
		Ancestors:  path[:len(path)-1],
		Focus:      focus,
		Children:   focus.Children(),
		Breadcrumb: names(path),
	}
}

// Breadcrumb is the name path from root to focus.
func (n *Navigator) Breadcrumb() []string {
	return names(PathToRoot(n.tree, n.Focus()))
}

func (n *Navigator) setFocus(ctx context.Context, p *tree.Person) (View, error) {
	n.mu.Lock()
	n.focus = p
	n.mu.Unlock()

	view := n.View()
	var err error
	if n.port != nil {
		if saveErr := n.port.Save(ctx, State{Path: view.Breadcrumb}); saveErr != nil {
			err = fmt.Errorf("save navigation state: %w", saveErr)
		}
	}
	n.render(view)
	return view, err
}

func (n *Navigator) render(view View) {
	if n.onRender != nil {
		n.onRender(view)
	}
}

func names(path []*tree.Person) []string {
	out := make([]string, len(path))
	for i, p := range path {
		out[i] = p.Name()
	}
	return out
}
