// Tidewatch - Maritime Vessel Tracking and Alert Correlation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tidewatch

package tracking

// history is a fixed-capacity ring of samples. Pushing into a full ring
// overwrites the oldest sample.
type history struct {
	buf   []Sample
	start int
	n     int
}

func newHistory(capacity int) *history {
	return &history{buf: make([]Sample, capacity)}
}

func (h *history) push(s Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

func (h *history) len() int { return h.n }

// slice returns the samples oldest-first in a new slice.
func (h *history) slice() []Sample {
	out := make([]Sample, h.n)
	for i := 0; i < h.n; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}
