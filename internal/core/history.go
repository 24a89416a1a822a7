package core

// historyRing is a bounded, append-only message buffer. Once full, the
// oldest entry is evicted on each append. Memory bound over completeness
// is the intended tradeoff.
type historyRing struct {
	buf   []Message
	start int
	size  int
}

func newHistoryRing(capacity int) *historyRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &historyRing{buf: make([]Message, capacity)}
}

func (h *historyRing) Append(m Message) {
	if h.size < len(h.buf) {
		h.buf[(h.start+h.size)%len(h.buf)] = m
		h.size++
		return
	}
	h.buf[h.start] = m
	h.start = (h.start + 1) % len(h.buf)
}

// Snapshot returns retained messages oldest first.
func (h *historyRing) Snapshot() []Message {
	out := make([]Message, 0, h.size)
	for i := 0; i < h.size; i++ {
		out = append(out, h.buf[(h.start+i)%len(h.buf)])
	}
	return out
}

func (h *historyRing) Len() int {
	return h.size
}
