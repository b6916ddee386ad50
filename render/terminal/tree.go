package terminal

import (
	"fmt"
	"io"

	"github.com/ketaki/kosha/pathtree"
)

// RenderTree writes the working-directory tree with per-node session counts.
func (r *Renderer) RenderTree(w io.Writer, root *pathtree.Node) error {
	if root == nil {
		fmt.Fprintln(w, dim.Render("no sessions found"))
		return nil
	}
	writeNode(w, root, 0)
	return nil
}

func writeNode(w io.Writer, n *pathtree.Node, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	name := n.Name
	if name == "" {
		name = "/"
	}
	fmt.Fprintf(w, "%s%s %s\n",
		indent,
		heading.Render(name),
		dim.Render(fmt.Sprintf("(%d)", n.Count)))
	for _, child := range n.Children {
		writeNode(w, child, depth+1)
	}
}
