package output

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
)

var treeEnumeratorStyle = lipgloss.NewStyle().Foreground(ColorDimGray).PaddingRight(1)

// fileNode is one entry of a project file listing.
type fileNode struct {
	name     string
	desc     string
	dir      bool
	children map[string]*fileNode
}

func (n *fileNode) insert(parts []string, desc string) {
	child, ok := n.children[parts[0]]
	if !ok {
		child = &fileNode{name: parts[0], children: map[string]*fileNode{}}
		n.children[parts[0]] = child
	}
	if len(parts) == 1 {
		child.desc = desc
		return
	}
	child.dir = true
	child.insert(parts[1:], desc)
}

// sorted lists directories first, then files, each alphabetically.
func (n *fileNode) sorted() []*fileNode {
	out := make([]*fileNode, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].dir != out[j].dir {
			return out[i].dir
		}
		return out[i].name < out[j].name
	})
	return out
}

func (n *fileNode) label() string {
	name := n.name
	if n.dir {
		name += "/"
	}
	if n.desc != "" {
		name += "  " + StyleDim.Render(n.desc)
	}
	return name
}

func (n *fileNode) tree(label string) *tree.Tree {
	t := tree.Root(label).EnumeratorStyle(treeEnumeratorStyle)
	for _, c := range n.sorted() {
		if c.dir {
			t.Child(c.tree(c.label()))
		} else {
			t.Child(c.label())
		}
	}
	return t
}

// RenderFileTree renders relative file paths below rootName as a tree.
// files maps each path to an optional description shown next to it.
func RenderFileTree(rootName string, files map[string]string) string {
	if len(files) == 0 {
		return ""
	}
	root := &fileNode{name: rootName, dir: true, children: map[string]*fileNode{}}
	for path, desc := range files {
		path = strings.Trim(filepath.ToSlash(path), "/")
		if path == "" {
			continue
		}
		root.insert(strings.Split(path, "/"), desc)
	}
	return root.tree(StyleBold.Render(rootName+"/")).String() + "\n"
}
