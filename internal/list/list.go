// Package list implements an intrusive doubly-linked list: the link
// fields live inside the caller's struct (embedded as a Node), so
// insertion and removal never allocate. This is the structure timer
// wheel buckets use, per the no-allocation-on-the-hot-path requirement.
package list

// Node is embedded in any struct that needs to live on a List. A Node is
// valid either detached (next == prev == nil) or attached to exactly one
// List.
type Node struct {
	next, prev *Node
	list       *List
	value      any
}

// Value returns the payload associated with this node's list membership.
func (n *Node) Value() any { return n.value }

// Linked reports whether n is currently attached to a list.
func (n *Node) Linked() bool { return n.list != nil }

// List is a circular intrusive doubly-linked list with a sentinel root
// node, following the same technique as container/list but without
// boxing each element in a *list.Element — callers embed Node directly
// in their own struct and get it back via Value/container-of.
type List struct {
	root Node
	size int
}

// Init (re)initializes the list to empty. The zero value of List is not
// ready to use; call Init first, or use New.
func (l *List) Init() *List {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.root.list = l
	l.size = 0
	return l
}

// New returns an initialized empty List.
func New() *List {
	return new(List).Init()
}

// Len returns the number of nodes currently attached.
func (l *List) Len() int { return l.size }

// Front returns the first node, or nil if the list is empty.
func (l *List) Front() *Node {
	if l.size == 0 {
		return nil
	}
	return l.root.next
}

// PushBack appends a node carrying value to the back of the list and
// returns it. The caller keeps ownership of the memory the Node lives in
// (normally embedded in a larger struct); no allocation happens here
// beyond boxing value into the any field.
func (l *List) PushBack(n *Node, value any) *Node {
	if l.root.list == nil {
		l.Init()
	}
	n.value = value
	n.list = l
	last := l.root.prev
	n.prev = last
	n.next = &l.root
	last.next = n
	l.root.prev = n
	l.size++
	return n
}

// Remove detaches n from whatever list it belongs to. It is a no-op if n
// is already detached.
func Remove(n *Node) {
	if n.list == nil {
		return
	}
	n.prev.next = n.next
	n.next.prev = n.prev
	n.list.size--
	n.next = nil
	n.prev = nil
	n.list = nil
	n.value = nil
}

// Splice detaches every node currently in src and appends them, in
// order, to dst, leaving src empty. This is the operation tick
// processing and cascade use to atomically lift a bucket's contents out
// for dispatch or re-insertion without disturbing concurrent pushes to
// the (now distinct, freshly emptied) src list.
func Splice(dst, src *List) {
	if src.size == 0 {
		return
	}
	if dst.root.list == nil {
		dst.Init()
	}
	first := src.root.next
	last := src.root.prev

	dstLast := dst.root.prev
	dstLast.next = first
	first.prev = dstLast
	last.next = &dst.root
	dst.root.prev = last

	for n := first; n != &dst.root; n = n.next {
		n.list = dst
	}

	dst.size += src.size
	src.root.next = &src.root
	src.root.prev = &src.root
	src.size = 0
}

// Each calls fn for every node currently in the list, in order. fn must
// not mutate the list being iterated; callers that need to drain-and-
// dispatch should Splice into a scratch list first.
func (l *List) Each(fn func(n *Node)) {
	for n := l.root.next; n != &l.root; n = n.next {
		fn(n)
	}
}
