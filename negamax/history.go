package negamax

import (
	"sync/atomic"

	"github.com/ledezmar/quatro/board"
)

// searchOrder is the static center-out column preference.
var searchOrder = [board.Columns]int{3, 2, 4, 1, 5, 0, 6}

// defaultHistory seeds the counters with the same center bias, so move
// ordering is sensible before any cutoffs have been observed.
var defaultHistory = [board.Columns]int32{0, 10, 20, 30, 20, 10, 0}

// History holds per-side, per-column cutoff counters for move ordering.
// Book workers share one instance; increments use atomics so concurrent
// bumps stay race-clean, though ordering quality, not correctness,
// is all that rides on them.
type History struct {
	counters [2][board.Columns]atomic.Int32
}

// NewHistory returns a history table seeded with the center-out bias.
func NewHistory() *History {
	h := &History{}
	h.Reset()
	return h
}

// Reset restores the seed values.
func (h *History) Reset() {
	for side := 0; side < 2; side++ {
		for col := 0; col < board.Columns; col++ {
			h.counters[side][col].Store(defaultHistory[col])
		}
	}
}

// Bump credits col for causing a beta cutoff for side at the given
// remaining depth. Deeper cutoffs reflect more robust move quality, so
// the credit grows quadratically with depth.
func (h *History) Bump(side, col, depth int) {
	h.counters[side][col].Add(int32(depth * depth))
}

// Score returns the current counter for side and col.
func (h *History) Score(side, col int) int32 {
	return h.counters[side][col].Load()
}

// order fills dst with the legal moves for p: the TT move first if legal,
// then the static center-out order stably sorted by descending history
// score for the side to move. Returns the number of moves written.
func (h *History) order(p *board.Position, ttMove int, dst *[board.Columns]int) int {
	n := 0
	if ttMove != NoMove && p.Legal(ttMove) {
		dst[n] = ttMove
		n++
	}
	side := p.SideToMove()
	rest := n
	for _, col := range searchOrder {
		if col == ttMove || !p.Legal(col) {
			continue
		}
		// Insertion sort keeps the static order stable among equal
		// history scores; seven elements at most.
		score := h.Score(side, col)
		j := n
		for j > rest && h.Score(side, dst[j-1]) < score {
			dst[j] = dst[j-1]
			j--
		}
		dst[j] = col
		n++
	}
	return n
}
