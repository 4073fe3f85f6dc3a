package list

import "testing"

func TestPushBackAndOrder(t *testing.T) {
	l := New()
	var a, b, c Node
	l.PushBack(&a, "a")
	l.PushBack(&b, "b")
	l.PushBack(&c, "c")

	if l.Len() != 3 {
		t.Fatalf("expected len 3, got %d", l.Len())
	}

	var got []any
	l.Each(func(n *Node) { got = append(got, n.Value()) })

	want := []any{"a", "b", "c"}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: got %v, want %v", i, got[i], v)
		}
	}
}

func TestRemove(t *testing.T) {
	l := New()
	var a, b, c Node
	l.PushBack(&a, "a")
	l.PushBack(&b, "b")
	l.PushBack(&c, "c")

	Remove(&b)
	if l.Len() != 2 {
		t.Fatalf("expected len 2 after remove, got %d", l.Len())
	}
	if b.Linked() {
		t.Error("expected b to be detached")
	}

	var got []any
	l.Each(func(n *Node) { got = append(got, n.Value()) })
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Errorf("unexpected order after remove: %v", got)
	}

	// Removing an already-detached node is a no-op.
	Remove(&b)
	if l.Len() != 2 {
		t.Errorf("double-remove changed length to %d", l.Len())
	}
}

func TestSplice(t *testing.T) {
	src := New()
	dst := New()
	var a, b Node
	src.PushBack(&a, "a")
	src.PushBack(&b, "b")

	var x Node
	dst.PushBack(&x, "x")

	Splice(dst, src)

	if src.Len() != 0 {
		t.Errorf("expected src emptied, len=%d", src.Len())
	}
	if dst.Len() != 3 {
		t.Fatalf("expected dst len 3, got %d", dst.Len())
	}

	var got []any
	dst.Each(func(n *Node) { got = append(got, n.Value()) })
	want := []any{"x", "a", "b"}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("index %d: got %v, want %v", i, got[i], v)
		}
	}

	// src must remain usable after being emptied by Splice.
	var c Node
	src.PushBack(&c, "c")
	if src.Len() != 1 {
		t.Errorf("expected src reusable after splice, len=%d", src.Len())
	}
}

func TestSpliceEmptySource(t *testing.T) {
	src := New()
	dst := New()
	var x Node
	dst.PushBack(&x, "x")

	Splice(dst, src)
	if dst.Len() != 1 {
		t.Errorf("splicing empty source should not change dst, len=%d", dst.Len())
	}
}
