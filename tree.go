// Package dirtree implements an in-memory, thread-safe hierarchical
// directory tree. Concurrent callers may list a directory's children,
// create an empty directory, remove an empty directory, or move a
// directory (with its entire subtree) from one location to another.
// There is no persistence, no on-disk representation, and no network
// surface.
//
// Every node in the tree owns a synchro.Synchro permitting many
// concurrent readers or one writer. Traversal is hand-over-hand: a
// thread always holds at least one node's read permit while it looks
// up the next child, then moves the permit down, releasing the
// ancestor only once the child's permit is held. This keeps operations
// on disjoint subtrees fully parallel while still allowing remove and
// move to acquire coordinated write access to several nodes safely.
package dirtree

import (
	"strings"

	"github.com/pkg/errors"
)

// Tree is a hierarchical directory tree rooted at "/".
type Tree struct {
	root *node
}

// New returns a tree containing just the root directory, "/".
func New() *Tree {
	return &Tree{root: newNode("")}
}

// descendRead performs hand-over-hand traversal from the root down to
// the node named by components, returning it held under a read permit.
// On failure it releases every permit it acquired before returning.
func (t *Tree) descendRead(components []string) (*node, error) {
	cur := t.root
	cur.sync.AcquireRead()
	for _, name := range components {
		next, ok := cur.children[name]
		if !ok {
			cur.sync.ReleaseRead()
			return nil, errors.Wrapf(ErrNotFound, "no such directory %q", name)
		}
		next.sync.AcquireRead()
		cur.sync.ReleaseRead()
		cur = next
	}
	return cur, nil
}

// descendFromHeld continues a hand-over-hand descent starting at a node
// the caller already holds (under read or write), walking components
// strictly below it. It never releases start itself — that remains the
// caller's responsibility — but releases every intermediate read permit
// it acquires along the way except the final one, which it returns
// held. If components is empty it returns start unchanged.
func descendFromHeld(start *node, components []string) (*node, error) {
	if len(components) == 0 {
		return start, nil
	}
	cur := start
	var heldRead *node
	for _, name := range components {
		next, ok := cur.children[name]
		if !ok {
			if heldRead != nil {
				heldRead.sync.ReleaseRead()
			}
			return nil, errors.Wrapf(ErrNotFound, "no such directory %q", name)
		}
		next.sync.AcquireRead()
		if heldRead != nil {
			heldRead.sync.ReleaseRead()
		}
		heldRead = next
		cur = next
	}
	return cur, nil
}

// List returns the comma-separated names of path's children, in
// unspecified order, or an error if path is malformed or does not
// exist.
func (t *Tree) List(path string) (string, error) {
	if !isValidPath(path) {
		return "", ErrInvalidArgument
	}
	target, err := t.descendRead(splitPath(path))
	if err != nil {
		return "", err
	}
	defer target.sync.ReleaseRead()
	return strings.Join(target.childNames(), ","), nil
}

// Create makes a new, empty directory at path. path's parent must
// already exist and must not already have a child with path's final
// name.
func (t *Tree) Create(path string) error {
	if !isValidPath(path) {
		return ErrInvalidArgument
	}
	parentPath, name, ok := splitParent(path)
	if !ok {
		return errors.Wrap(ErrAlreadyExists, "root always exists")
	}

	parent, err := t.descendRead(splitPath(parentPath))
	if err != nil {
		return err
	}
	parent.sync.UpgradeReadToWrite()
	defer parent.sync.ReleaseWrite()

	if _, exists := parent.children[name]; exists {
		return errors.Wrapf(ErrAlreadyExists, "directory %q", path)
	}
	parent.children[name] = newNode(name)
	return nil
}

// Remove deletes the empty directory at path. Removing "/" fails with
// ErrBusy; removing a non-empty directory fails with ErrNotEmpty.
func (t *Tree) Remove(path string) error {
	if !isValidPath(path) {
		return ErrInvalidArgument
	}
	parentPath, name, ok := splitParent(path)
	if !ok {
		return errors.Wrap(ErrBusy, "cannot remove root")
	}

	parent, err := t.descendRead(splitPath(parentPath))
	if err != nil {
		return err
	}
	parent.sync.UpgradeReadToWrite()
	defer parent.sync.ReleaseWrite()

	victim, exists := parent.children[name]
	if !exists {
		return errors.Wrapf(ErrNotFound, "directory %q", path)
	}

	victim.sync.QuiesceForRemoval()
	if len(victim.children) != 0 {
		victim.sync.CancelRemoval()
		return errors.Wrapf(ErrNotEmpty, "directory %q", path)
	}
	delete(parent.children, name)
	return nil
}

// Move relocates the directory at source, with its entire subtree, to
// target, renaming it along the way. It fails with ErrIllegalMove if
// target is source itself or lies inside source's subtree.
func (t *Tree) Move(source, target string) error {
	if !isValidPath(source) || !isValidPath(target) {
		return ErrInvalidArgument
	}
	if source == "/" {
		return errors.Wrap(ErrBusy, "cannot move root")
	}
	if target == "/" {
		return errors.Wrap(ErrAlreadyExists, "root always exists")
	}

	sourceComponents := splitPath(source)
	targetComponents := splitPath(target)
	if isSelfOrDescendantPath(sourceComponents, targetComponents) {
		return errors.Wrapf(ErrIllegalMove, "%q into %q", source, target)
	}

	parentSourcePath, sourceName, _ := splitParent(source)
	parentTargetPath, targetName, _ := splitParent(target)
	parentSourceComponents := splitPath(parentSourcePath)
	parentTargetComponents := splitPath(parentTargetPath)

	lcaLen := commonPrefixLen(parentSourceComponents, parentTargetComponents)

	lca, err := t.descendRead(parentSourceComponents[:lcaLen])
	if err != nil {
		return err
	}
	lca.sync.UpgradeReadToWrite()

	parentTarget, err := descendFromHeld(lca, parentTargetComponents[lcaLen:])
	if err != nil {
		lca.sync.ReleaseWrite()
		return err
	}
	if parentTarget != lca {
		parentTarget.sync.UpgradeReadToWrite()
	}

	parentSource, err := descendFromHeld(lca, parentSourceComponents[lcaLen:])
	if err != nil {
		releaseIfDistinct(parentTarget, lca)
		lca.sync.ReleaseWrite()
		return err
	}
	if parentSource != lca {
		parentSource.sync.UpgradeReadToWrite()
	}

	if _, exists := parentTarget.children[targetName]; exists {
		releaseIfDistinct(parentSource, lca)
		releaseIfDistinct(parentTarget, lca)
		lca.sync.ReleaseWrite()
		return errors.Wrapf(ErrAlreadyExists, "directory %q", target)
	}
	child, exists := parentSource.children[sourceName]
	if !exists {
		releaseIfDistinct(parentSource, lca)
		releaseIfDistinct(parentTarget, lca)
		lca.sync.ReleaseWrite()
		return errors.Wrapf(ErrNotFound, "directory %q", source)
	}

	delete(parentSource.children, sourceName)
	// Brief write-acquire on the moved subtree root, serializing the
	// rename with any concurrent QuiesceForRemoval on it. Both parents
	// are already pinned under write, so no reader can reach child
	// through the tree at this point; this is a conservative hedge, not
	// a correctness requirement (spec §9 Open Questions).
	child.sync.AcquireWrite()
	child.name = targetName
	child.sync.ReleaseWrite()
	parentTarget.children[targetName] = child

	releaseIfDistinct(parentSource, lca)
	releaseIfDistinct(parentTarget, lca)
	lca.sync.ReleaseWrite()
	return nil
}

func releaseIfDistinct(n, lca *node) {
	if n != lca {
		n.sync.ReleaseWrite()
	}
}

// Size returns the number of live directories in the tree, including
// the root. Like List it descends hand-over-hand, acquiring a child's
// read permit before releasing its parent's; each node's read permit is
// held until its whole subtree has been counted. It may be called
// concurrently with every other operation: a directory moved or removed
// meanwhile is neither counted twice nor counted after its removal.
func (t *Tree) Size() int {
	return sizeUnder(t.root)
}

func sizeUnder(n *node) int {
	n.sync.AcquireRead()
	defer n.sync.ReleaseRead()
	total := 1
	for _, c := range n.children {
		total += sizeUnder(c)
	}
	return total
}
