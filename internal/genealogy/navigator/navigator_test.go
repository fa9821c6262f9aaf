package navigator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lineage/internal/genealogy/tree"
)

type memoryPort struct {
	state   State
	saved   bool
	saveErr error
}

func (m *memoryPort) Save(_ context.Context, state State) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.state, m.saved = state, true
	return nil
}

func (m *memoryPort) Load(context.Context) (State, bool, error) {
	return m.state, m.saved, nil
}

// family builds:
//
//	Urahn (0)
//	├── Johann (1)
//	│   └── Fritz (3)
//	│       └── Lina (4)
//	└── Maria (2)
func family(t *testing.T) *tree.Tree {
	t.Helper()
	return tree.Build([]tree.Record{
		{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
		{Name: "Johann", AnchorID: "1", Type: "birth", Date: 1780.0, ParentID: "0"},
		{Name: "Maria", AnchorID: "2", Type: "birth", Date: 1785.0, ParentID: "0"},
		{Name: "Fritz", AnchorID: "3", Type: "birth", Date: 1810.0, ParentID: "1"},
		{Name: "Lina", AnchorID: "4", Type: "birth", Date: 1840.0, ParentID: "3"},
	})
}

func personNames(ps []*tree.Person) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}

func TestNewRejectsEmptyTree(t *testing.T) {
	_, err := New(tree.Build(nil))
	assert.ErrorIs(t, err, ErrEmptyTree)
}

func TestPathToRoot(t *testing.T) {
	t.Run("orders root to person", func(t *testing.T) {
		ft := family(t)
		lina, _ := ft.Person("4")
		assert.Equal(t, []string{"Urahn", "Johann", "Fritz", "Lina"}, personNames(PathToRoot(ft, lina)))
	})

	t.Run("root alone", func(t *testing.T) {
		ft := family(t)
		assert.Equal(t, []string{"Urahn"}, personNames(PathToRoot(ft, ft.Root())))
	})

	t.Run("disconnected person is anchored at root", func(t *testing.T) {
		ft := tree.Build([]tree.Record{
			{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
			{Name: "Fremder", AnchorID: "9", Type: "birth", Date: 1800.0},
			{Name: "Kind", AnchorID: "10", Type: "birth", ParentID: "9"},
		})
		kind, _ := ft.Person("10")
		assert.Equal(t, []string{"Urahn", "Fremder", "Kind"}, personNames(PathToRoot(ft, kind)))
	})

	t.Run("parent cycle terminates and visits each person once", func(t *testing.T) {
		ft := tree.Build([]tree.Record{
			{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
			{Name: "A", AnchorID: "a", Type: "birth", ParentID: "c"},
			{Name: "B", AnchorID: "b", Type: "birth", ParentID: "a"},
			{Name: "C", AnchorID: "c", Type: "birth", ParentID: "b"},
		})
		a, _ := ft.Person("a")
		path := PathToRoot(ft, a)
		assert.Equal(t, []string{"Urahn", "B", "C", "A"}, personNames(path))

		seen := map[string]bool{}
		for _, p := range path {
			assert.False(t, seen[p.ID()], "visited %s twice", p.ID())
			seen[p.ID()] = true
		}
	})

	t.Run("self parent terminates", func(t *testing.T) {
		ft := tree.Build([]tree.Record{
			{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
			{Name: "Selbst", AnchorID: "s", Type: "birth", ParentID: "s"},
		})
		self, _ := ft.Person("s")
		assert.Equal(t, []string{"Urahn", "Selbst"}, personNames(PathToRoot(ft, self)))
	})
}

func TestNavigateTo(t *testing.T) {
	ctx := context.Background()

	t.Run("moves focus, saves breadcrumb and redraws", func(t *testing.T) {
		port := &memoryPort{}
		var rendered []View
		nav, err := New(family(t), WithStatePort(port), WithRenderer(func(v View) {
			rendered = append(rendered, v)
		}))
		require.NoError(t, err)
		assert.Equal(t, "Urahn", nav.Focus().Name())

		view, found, err := nav.NavigateTo(ctx, "3")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, "Fritz", view.Focus.Name())
		assert.Equal(t, []string{"Urahn", "Johann"}, personNames(view.Ancestors))
		assert.Equal(t, []string{"Lina"}, personNames(view.Children))
		assert.Equal(t, []string{"Urahn", "Johann", "Fritz"}, view.Breadcrumb)

		assert.Equal(t, State{Path: []string{"Urahn", "Johann", "Fritz"}}, port.state)
		require.Len(t, rendered, 1)
		assert.Equal(t, "Fritz", rendered[0].Focus.Name())
	})

	t.Run("unknown id keeps focus", func(t *testing.T) {
		port := &memoryPort{}
		nav, err := New(family(t), WithStatePort(port))
		require.NoError(t, err)
		_, _, err = nav.NavigateTo(ctx, "2")
		require.NoError(t, err)

		view, found, err := nav.NavigateTo(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, "Maria", view.Focus.Name())
		assert.Equal(t, []string{"Urahn", "Maria"}, port.state.Path)
	})

	t.Run("save failure still moves focus", func(t *testing.T) {
		port := &memoryPort{saveErr: errors.New("redis down")}
		nav, err := New(family(t), WithStatePort(port))
		require.NoError(t, err)

		view, found, err := nav.NavigateTo(ctx, "1")
		assert.True(t, found)
		assert.ErrorContains(t, err, "redis down")
		assert.Equal(t, "Johann", view.Focus.Name())
	})

	t.Run("root view has no ancestors", func(t *testing.T) {
		nav, err := New(family(t))
		require.NoError(t, err)
		view := nav.View()
		assert.Empty(t, view.Ancestors)
		assert.Equal(t, []string{"Johann", "Maria"}, personNames(view.Children))
		assert.Equal(t, []string{"Urahn"}, nav.Breadcrumb())
	})
}

func TestRestore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip reproduces focus", func(t *testing.T) {
		ft := family(t)
		port := &memoryPort{}
		first, err := New(ft, WithStatePort(port))
		require.NoError(t, err)
		_, _, err = first.NavigateTo(ctx, "4")
		require.NoError(t, err)

		second, err := New(ft, WithStatePort(port))
		require.NoError(t, err)
		view, err := second.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Lina", view.Focus.Name())
		assert.Equal(t, first.Breadcrumb(), second.Breadcrumb())
	})

	t.Run("unresolved name falls back to root", func(t *testing.T) {
		nav, err := New(family(t))
		require.NoError(t, err)
		view := nav.Restore(State{Path: []string{"Urahn", "Johann", "Gelöscht", "Lina"}})
		assert.Equal(t, "Urahn", view.Focus.Name())
	})

	t.Run("shared names follow the path", func(t *testing.T) {
		ft := tree.Build([]tree.Record{
			{Name: "Urahn", AnchorID: "0", Type: "birth", Date: 1750.0},
			{Name: "Johann Weber", AnchorID: "1", Type: "birth", Date: 1780.0, ParentID: "0"},
			{Name: "Johann Weber", AnchorID: "2", Type: "birth", Date: 1810.0, ParentID: "1"},
			{Name: "Johann Weber", AnchorID: "3", Type: "birth", Date: 1840.0, ParentID: "2"},
		})
		port := &memoryPort{}
		first, err := New(ft, WithStatePort(port))
		require.NoError(t, err)
		_, _, err = first.NavigateTo(ctx, "3")
		require.NoError(t, err)

		second, err := New(ft, WithStatePort(port))
		require.NoError(t, err)
		view, err := second.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "3", view.Focus.ID())
		assert.Equal(t, []string{"Urahn", "Johann Weber", "Johann Weber", "Johann Weber"}, view.Breadcrumb)

		view = second.Restore(State{Path: []string{"Urahn", "Johann Weber", "Johann Weber"}})
		assert.Equal(t, "2", view.Focus.ID())
	})

	t.Run("name off the path resolves anywhere in the tree", func(t *testing.T) {
		nav, err := New(family(t))
		require.NoError(t, err)
		view := nav.Restore(State{Path: []string{"Urahn", "Maria", "Lina"}})
		assert.Equal(t, "Lina", view.Focus.Name())
	})

	t.Run("empty path focuses root", func(t *testing.T) {
		nav, err := New(family(t))
		require.NoError(t, err)
		_, _, _ = nav.NavigateTo(ctx, "4")
		view := nav.Restore(State{})
		assert.Equal(t, "Urahn", view.Focus.Name())
	})

	t.Run("nothing saved keeps root", func(t *testing.T) {
		nav, err := New(family(t), WithStatePort(&memoryPort{}))
		require.NoError(t, err)
		view, err := nav.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Urahn", view.Focus.Name())
	})
}
