package dirtree

import "github.com/AaRaBiNoZa/concurrent-directory-tree/synchro"

// node is a single directory. A parent exclusively owns its children;
// the tree exclusively owns the root. Reads of children require only a
// read permit on the node itself; mutation of children requires the
// node's write permit, per the synchronizer contract in package
// synchro.
type node struct {
	name     string
	sync     *synchro.Synchro
	children map[string]*node
}

func newNode(name string) *node {
	return &node{
		name:     name,
		sync:     synchro.New(),
		children: make(map[string]*node),
	}
}

// childNames returns a snapshot of the node's children keys. The caller
// must already hold at least a read permit on n.
func (n *node) childNames() []string {
	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	return names
}
