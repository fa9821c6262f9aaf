package navigator

import "lineage/internal/genealogy/tree"

// PathToRoot walks the parent chain upward from p and returns it ordered
// root first. The walk stops at the root, at a person without a resolved
// parent, or on revisiting a person. A chain whose top is not the root gets the
// root prepended, so every path is anchored at the root even for disconnected
// data. A nil p yields just the root.
func PathToRoot(t *tree.Tree, p *tree.Person) []*tree.Person {
	root := t.Root()
	if p == nil {
		if root == nil {
			return nil
		}
		return []*tree.Person{root}
	}

	chain := []*tree.Person{p}
	visited := map[string]struct{}{p.ID(): {}}
	for cur := p; cur != root; {
		parent, ok := t.Parent(cur)
		if !ok {
			break
		}
		if _, seen := visited[parent.ID()]; seen {
			break
		}
		visited[parent.ID()] = struct{}{}
		chain = append(chain, parent)
		cur = parent
	}

	if top := chain[len(chain)-1]; root != nil && top != root {
		chain = append(chain, root)
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}
