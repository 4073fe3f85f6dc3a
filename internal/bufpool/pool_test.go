package bufpool

import "testing"

func TestGetEventBufSizing(t *testing.T) {
	buf := GetEventBuf(8)
	if len(buf) != 8*eventSize {
		t.Fatalf("expected len %d, got %d", 8*eventSize, len(buf))
	}
	PutEventBuf(buf)
}

func TestGetEventBufLargeBucket(t *testing.T) {
	buf := GetEventBuf(large)
	if len(buf) != large*eventSize {
		t.Fatalf("expected len %d, got %d", large*eventSize, len(buf))
	}
	PutEventBuf(buf)
}

func TestGetEventBufOverflow(t *testing.T) {
	buf := GetEventBuf(large + 1)
	if len(buf) != (large+1)*eventSize {
		t.Fatalf("unexpected overflow buffer size: %d", len(buf))
	}
	// Overflow buffers are simply dropped, not pooled; PutEventBuf must
	// still be safe to call.
	PutEventBuf(buf)
}

func TestPoolReuse(t *testing.T) {
	buf := GetEventBuf(4)
	PutEventBuf(buf)
	buf2 := GetEventBuf(4)
	if len(buf2) != 4*eventSize {
		t.Fatalf("expected reused buffer of len %d, got %d", 4*eventSize, len(buf2))
	}
}
