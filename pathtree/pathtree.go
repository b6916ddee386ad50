// Package pathtree maintains the directory-count tree derived from session
// working directories. The tree is rebuilt wholesale from a counts snapshot
// or patched with signed deltas; a delta that escapes the cached root's
// prefix rejects the whole patch and signals a rebuild.
package pathtree

import (
	"sort"
	"strings"
	"sync"
)

// Node is one directory in the tree. Count is inclusive: sessions in this
// directory plus everything below it.
type Node struct {
	ID       string  `json:"id"` // absolute path
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Children []*Node `json:"children,omitempty"`
}

// Aggregator owns the cached tree. All access is serialized; returned trees
// are deep copies the caller may hold freely.
type Aggregator struct {
	mu     sync.Mutex
	root   *Node
	prefix []string
}

// ApplySnapshot rebuilds the tree from a full cwd→count map and records the
// resulting root's path-component prefix. An empty map yields a nil tree.
func (a *Aggregator) ApplySnapshot(counts map[string]int) *Node {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.root, a.prefix = build(counts)
	return clone(a.root)
}

// ApplyDelta patches the cached tree with signed per-path deltas. ok is
// false (and the tree is left untouched) when there is no cached tree,
// when any delta path escapes the cached root's prefix, or when any delta
// path's node chain does not already exist: the caller must fall back to
// ApplySnapshot. Ancestor chains are never fabricated mid-patch.
func (a *Aggregator) ApplyDelta(delta map[string]int) (*Node, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.root == nil {
		return nil, false
	}

	// Validate every item before touching the tree so a rejected delta
	// never leaves a partial result behind.
	chains := make([][]*Node, 0, len(delta))
	values := make([]int, 0, len(delta))
	for path, n := range delta {
		comps, ok := under(splitPath(path), a.prefix)
		if !ok {
			return nil, false
		}
		chain, ok := descend(a.root, comps)
		if !ok {
			return nil, false
		}
		chains = append(chains, chain)
		values = append(values, n)
	}

	for i, chain := range chains {
		for _, node := range chain {
			node.Count += values[i]
		}
	}

	a.root = prune(a.root)
	if a.root == nil {
		a.prefix = nil
	}
	return clone(a.root), true
}

// Tree returns a copy of the current tree, or nil when none is cached.
func (a *Aggregator) Tree() *Node {
	a.mu.Lock()
	defer a.mu.Unlock()
	return clone(a.root)
}

// build constructs a fresh tree rooted at the longest common component
// prefix of all paths.
func build(counts map[string]int) (*Node, []string) {
	if len(counts) == 0 {
		return nil, nil
	}

	paths := make([][]string, 0, len(counts))
	keys := make([]string, 0, len(counts))
	for path := range counts {
		keys = append(keys, path)
		paths = append(paths, splitPath(path))
	}
	sort.Strings(keys)

	prefix := append([]string(nil), splitPath(keys[0])...)
	for _, comps := range paths {
		prefix = commonPrefix(prefix, comps)
	}

	root := &Node{ID: joinPath(prefix), Name: lastComponent(prefix)}
	for _, path := range keys {
		comps, _ := under(splitPath(path), prefix)
		insert(root, prefix, comps, counts[path])
	}
	return root, prefix
}

// insert adds n to every node along the component chain, creating nodes as
// needed. Children stay sorted by name.
func insert(root *Node, prefix, comps []string, n int) {
	node := root
	node.Count += n
	id := joinPath(prefix)

	for _, comp := range comps {
		id = childID(id, comp)
		child := findChild(node, comp)
		if child == nil {
			child = &Node{ID: id, Name: comp}
			node.Children = append(node.Children, child)
			sort.Slice(node.Children, func(i, j int) bool {
				return node.Children[i].Name < node.Children[j].Name
			})
		}
		child.Count += n
		node = child
	}
}

// descend returns the node chain (root inclusive) for the component path,
// or ok=false when any link is missing.
func descend(root *Node, comps []string) ([]*Node, bool) {
	chain := []*Node{root}
	node := root
	for _, comp := range comps {
		child := findChild(node, comp)
		if child == nil {
			return nil, false
		}
		chain = append(chain, child)
		node = child
	}
	return chain, true
}

// prune removes nodes whose count dropped to zero or below and which have no
// remaining children. Returns the (possibly nil) replacement node.
func prune(node *Node) *Node {
	if node == nil {
		return nil
	}
	kept := node.Children[:0]
	for _, child := range node.Children {
		if p := prune(child); p != nil {
			kept = append(kept, p)
		}
	}
	node.Children = kept
	if len(node.Children) == 0 {
		node.Children = nil
		if node.Count <= 0 {
			return nil
		}
	}
	return node
}

func findChild(node *Node, name string) *Node {
	for _, child := range node.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

func clone(node *Node) *Node {
	if node == nil {
		return nil
	}
	out := &Node{ID: node.ID, Name: node.Name, Count: node.Count}
	for _, child := range node.Children {
		out.Children = append(out.Children, clone(child))
	}
	return out
}

// splitPath breaks an absolute slash path into components.
func splitPath(path string) []string {
	var comps []string
	for _, c := range strings.Split(path, "/") {
		if c != "" {
			comps = append(comps, c)
		}
	}
	return comps
}

func joinPath(comps []string) string {
	if len(comps) == 0 {
		return "/"
	}
	return "/" + strings.Join(comps, "/")
}

func childID(parentID, comp string) string {
	if parentID == "/" {
		return "/" + comp
	}
	return parentID + "/" + comp
}

func lastComponent(comps []string) string {
	if len(comps) == 0 {
		return "/"
	}
	return comps[len(comps)-1]
}

func commonPrefix(a, b []string) []string {
	n := min(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return a[:i]
}

// under strips prefix from comps. ok is false when comps does not start
// with prefix.
func under(comps, prefix []string) ([]string, bool) {
	if len(comps) < len(prefix) {
		return nil, false
	}
	for i, p := range prefix {
		if comps[i] != p {
			return nil, false
		}
	}
	return comps[len(prefix):], true
}
