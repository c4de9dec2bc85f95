// Package directory provides an ordered key/value map backed by a
// red-black tree.
//
// Lookups return a *Handle, a stable reference to the entry's node. A
// handle can be passed to Delete to remove the entry without searching for
// it again. Deletion relinks nodes rather than copying payloads between
// them, so deleting one entry never invalidates the handles of the others.
//
// A Tree is not safe for concurrent use.
package directory

import (
	"errors"
	"fmt"

	"golang.org/x/exp/constraints"
)

type color uint8

const (
	red color = iota
	black
)

// Handle references one entry of a Tree. It stays valid until that entry
// is deleted or the tree is cleared.
type Handle[K constraints.Ordered, V any] struct {
	key    K
	value  V
	color  color
	left   *Handle[K, V]
	right  *Handle[K, V]
	parent *Handle[K, V]
	owner  *Handle[K, V] // sentinel of the tree the entry belongs to
}

// Key returns the entry's key.
func (h *Handle[K, V]) Key() K { return h.key }

// Value returns the entry's value.
func (h *Handle[K, V]) Value() V { return h.value }

// Entry is a key/value pair produced by traversals.
type Entry[K constraints.Ordered, V any] struct {
	Key   K
	Value V
}

// Tree is an ordered map from K to V.
type Tree[K constraints.Ordered, V any] struct {
	root     *Handle[K, V]
	sentinel *Handle[K, V] // black, shared by all leaves
	size     int
}

// New returns an empty tree.
func New[K constraints.Ordered, V any]() *Tree[K, V] {
	t := &Tree[K, V]{}
	t.sentinel = &Handle[K, V]{color: black}
	t.root = t.sentinel
	return t
}

// Len returns the number of entries.
func (t *Tree[K, V]) Len() int { return t.size }

// Clear removes every entry. Outstanding handles become invalid.
func (t *Tree[K, V]) Clear() {
	t.sentinel = &Handle[K, V]{color: black}
	t.root = t.sentinel
	t.size = 0
}

// Find returns the handle for key, or nil if key is absent.
func (t *Tree[K, V]) Find(key K) *Handle[K, V] {
	n := t.root
	for n != t.sentinel {
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			return n
		}
	}
	return nil
}

// Insert stores value under key and returns the entry's handle. Keys are
// unique: inserting an existing key replaces its value in place and
// returns the existing handle.
func (t *Tree[K, V]) Insert(key K, value V) *Handle[K, V] {
	parent := t.sentinel
	n := t.root
	for n != t.sentinel {
		parent = n
		switch {
		case key < n.key:
			n = n.left
		case key > n.key:
			n = n.right
		default:
			n.value = value
			return n
		}
	}

	z := &Handle[K, V]{
		key:    key,
		value:  value,
		color:  red,
		left:   t.sentinel,
		right:  t.sentinel,
		parent: parent,
		owner:  t.sentinel,
	}
	switch {
	case parent == t.sentinel:
		t.root = z
	case key < parent.key:
		parent.left = z
	default:
		parent.right = z
	}
	t.insertFixup(z)
	t.size++
	return z
}

// Delete removes the entry referenced by h. A nil handle, or one that does
// not belong to t (already deleted, or from another tree), is ignored.
func (t *Tree[K, V]) Delete(h *Handle[K, V]) {
	if h == nil || h.owner != t.sentinel {
		return
	}
	t.deleteNode(h)
	h.owner = nil
	h.left, h.right, h.parent = nil, nil, nil
	t.size--
}

// Min returns the handle with the smallest key, or nil if t is empty.
func (t *Tree[K, V]) Min() *Handle[K, V] {
	if t.root == t.sentinel {
		return nil
	}
	return t.minNode(t.root)
}

// Ascend calls fn for every entry in ascending key order until fn returns
// false. fn must not modify the tree.
func (t *Tree[K, V]) Ascend(fn func(key K, value V) bool) {
	for n := t.Min(); n != nil && n != t.sentinel; n = t.next(n) {
		if !fn(n.key, n.value) {
			return
		}
	}
}

// AscendRange calls fn, in ascending order, for every entry whose key lies
// in the closed interval [lo, hi], until fn returns false. fn must not
// modify the tree.
func (t *Tree[K, V]) AscendRange(lo, hi K, fn func(key K, value V) bool) {
	if hi < lo {
		return
	}
	// Lowest node with key >= lo.
	start := t.sentinel
	for n := t.root; n != t.sentinel; {
		if n.key >= lo {
			start = n
			n = n.left
		} else {
			n = n.right
		}
	}
	for n := start; n != t.sentinel && n.key <= hi; n = t.next(n) {
		if !fn(n.key, n.value) {
			return
		}
	}
}

// Entries returns every entry in ascending key order. The slice is a
// snapshot: later changes to the tree do not affect it.
func (t *Tree[K, V]) Entries() []Entry[K, V] {
	out := make([]Entry[K, V], 0, t.size)
	t.Ascend(func(k K, v V) bool {
		out = append(out, Entry[K, V]{Key: k, Value: v})
		return true
	})
	return out
}

func (t *Tree[K, V]) minNode(n *Handle[K, V]) *Handle[K, V] {
	for n.left != t.sentinel {
		n = n.left
	}
	return n
}

// next returns the in-order successor of n, or the sentinel.
func (t *Tree[K, V]) next(n *Handle[K, V]) *Handle[K, V] {
	if n.right != t.sentinel {
		return t.minNode(n.right)
	}
	p := n.parent
	for p != t.sentinel && n == p.right {
		n = p
		p = p.parent
	}
	return p
}

func (t *Tree[K, V]) rotateLeft(x *Handle[K, V]) {
	y := x.right
	x.right = y.left
	if y.left != t.sentinel {
		y.left.parent = x
	}
	y.parent = x.parent
	switch {
	case x.parent == t.sentinel:
		t.root = y
	case x == x.parent.left:
		x.parent.left = y
	default:
		x.parent.right = y
	}
	y.left = x
	x.parent = y
}

func (t *Tree[K, V]) rotateRight(y *Handle[K, V]) {
	x := y.left
	y.left = x.right
	if x.right != t.sentinel {
		x.right.parent = y
	}
	x.parent = y.parent
	switch {
	case y.parent == t.sentinel:
		t.root = x
	case y == y.parent.right:
		y.parent.right = x
	default:
		y.parent.left = x
	}
	x.right = y
	y.parent = x
}

func (t *Tree[K, V]) insertFixup(z *Handle[K, V]) {
	for z.parent.color == red {
		grand := z.parent.parent
		if z.parent == grand.left {
			uncle := grand.right
			if uncle.color == red {
				z.parent.color = black
				uncle.color = black
				grand.color = red
				z = grand
				continue
			}
			if z == z.parent.right {
				z = z.parent
				t.rotateLeft(z)
			}
			z.parent.color = black
			z.parent.parent.color = red
			t.rotateRight(z.parent.parent)
		} else {
			uncle := grand.left
			if uncle.color == red {
				z.parent.color = black
				uncle.color = black
				grand.color = red
				z = grand
				continue
			}
			if z == z.parent.left {
				z = z.parent
				t.rotateRight(z)
			}
			z.parent.color = black
			z.parent.parent.color = red
			t.rotateLeft(z.parent.parent)
		}
	}
	t.root.color = black
}

// transplant replaces the subtree rooted at u with the one rooted at v.
func (t *Tree[K, V]) transplant(u, v *Handle[K, V]) {
	switch {
	case u.parent == t.sentinel:
		t.root = v
	case u == u.parent.left:
		u.parent.left = v
	default:
		u.parent.right = v
	}
	v.parent = u.parent
}

func (t *Tree[K, V]) deleteNode(z *Handle[K, V]) {
	y := z
	removedColor := y.color
	var x *Handle[K, V]

	switch {
	case z.left == t.sentinel:
		x = z.right
		t.transplant(z, z.right)
	case z.right == t.sentinel:
		x = z.left
		t.transplant(z, z.left)
	default:
		// The successor node itself moves into z's place.
		y = t.minNode(z.right)
		removedColor = y.color
		x = y.right
		if y.parent == z {
			x.parent = y
		} else {
			t.transplant(y, y.right)
			y.right = z.right
			y.right.parent = y
		}
		t.transplant(z, y)
		y.left = z.left
		y.left.parent = y
		y.color = z.color
	}

	if removedColor == black {
		t.deleteFixup(x)
	}
	// The sentinel's parent pointer is scratch space during fixup.
	t.sentinel.parent = nil
}

func (t *Tree[K, V]) deleteFixup(x *Handle[K, V]) {
	for x != t.root && x.color == black {
		if x == x.parent.left {
			w := x.parent.right
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateLeft(x.parent)
				w = x.parent.right
			}
			if w.left.color == black && w.right.color == black {
				w.color = red
				x = x.parent
				continue
			}
			if w.right.color == black {
				w.left.color = black
				w.color = red
				t.rotateRight(w)
				w = x.parent.right
			}
			w.color = x.parent.color
			x.parent.color = black
			w.right.color = black
			t.rotateLeft(x.parent)
			x = t.root
		} else {
			w := x.parent.left
			if w.color == red {
				w.color = black
				x.parent.color = red
				t.rotateRight(x.parent)
				w = x.parent.left
			}
			if w.right.color == black && w.left.color == black {
				w.color = red
				x = x.parent
				continue
			}
			if w.left.color == black {
				w.right.color = black
				w.color = red
				t.rotateLeft(w)
				w = x.parent.left
			}
			w.color = x.parent.color
			x.parent.color = black
			w.left.color = black
			t.rotateRight(x.parent)
			x = t.root
		}
	}
	x.color = black
}

// Verify checks the red-black properties, key ordering and the cached
// size. It runs in O(n) and is meant for tests and debug tooling.
func (t *Tree[K, V]) Verify() error {
	if t.root.color != black {
		return errors.New("directory: root is red")
	}
	if t.sentinel.color != black {
		return errors.New("directory: sentinel is red")
	}
	count := 0
	if _, err := t.verify(t.root, nil, nil, &count); err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("directory: size %d but %d reachable entries", t.size, count)
	}
	return nil
}

// verify returns the black height of the subtree rooted at n.
func (t *Tree[K, V]) verify(n *Handle[K, V], lo, hi *K, count *int) (int, error) {
	if n == t.sentinel {
		return 1, nil
	}
	*count++
	if lo != nil && !(*lo < n.key) || hi != nil && !(n.key < *hi) {
		return 0, fmt.Errorf("directory: key %v out of order", n.key)
	}
	if n.owner != t.sentinel {
		return 0, fmt.Errorf("directory: key %v has wrong owner", n.key)
	}
	if n.color == red && (n.left.color == red || n.right.color == red) {
		return 0, fmt.Errorf("directory: red node %v has a red child", n.key)
	}
	if n.left != t.sentinel && n.left.parent != n || n.right != t.sentinel && n.right.parent != n {
		return 0, fmt.Errorf("directory: broken parent link under %v", n.key)
	}
	lh, err := t.verify(n.left, lo, &n.key, count)
	if err != nil {
		return 0, err
	}
	rh, err := t.verify(n.right, &n.key, hi, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, fmt.Errorf("directory: black height mismatch at %v", n.key)
	}
	if n.color == black {
		lh++
	}
	return lh, nil
}
