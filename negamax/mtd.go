package negamax

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ledezmar/quatro/board"
	"github.com/ledezmar/quatro/eval"
)

// MTD runs memory-enhanced test driver refinement at a fixed depth: a
// sequence of zero-window searches that walks the bounds in on the true
// value, converging fast when guess is close. The transposition table
// carries the work between probes.
func (s *Solver) MTD(p board.Position, guess, depth int) (int, int) {
	upper := eval.ScoreBound
	lower := -eval.ScoreBound
	g := guess
	best := NoMove
	for lower < upper {
		beta := g
		if beta < lower+1 {
			beta = lower + 1
		}
		score, move := s.Search(p, depth, beta-1, beta)
		g = score
		if move != NoMove {
			best = move
		}
		if g < beta {
			upper = g
		} else {
			lower = g
		}
	}
	return g, best
}

// IterativeMTD deepens from depth 1 to maxDepth, feeding each depth's
// score to the next as the MTD guess, and returns the final score and
// best move. Per-depth telemetry goes to the log.
func (s *Solver) IterativeMTD(p board.Position, maxDepth int) (int, int) {
	guess := 0
	best := NoMove
	start := time.Now()
	for depth := 1; depth <= maxDepth; depth++ {
		score, move := s.MTD(p, guess, depth)
		guess = score
		if move != NoMove {
			best = move
		}
		log.Debug().
			Int("depth", depth).
			Int("score", score).
			Int("best-move", best).
			Uint64("nodes", s.Nodes()).
			Uint64("tt-size", s.ttable.Size()).
			Uint64("tt-collisions", s.ttable.Collisions()).
			Dur("elapsed", time.Since(start)).
			Msg("deepening-iteratively")
	}
	return guess, best
}
