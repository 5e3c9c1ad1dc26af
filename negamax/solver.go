// Package negamax implements the game-tree search: negamax with
// alpha-beta pruning, principal-variation search, late-move reductions,
// a packed shared transposition table with mirror-symmetry folding, a
// history heuristic for move ordering, and an MTD(f) iterative-deepening
// driver on top.
package negamax

import (
	"sync/atomic"

	"github.com/ledezmar/quatro/board"
	"github.com/ledezmar/quatro/eval"
)

// Solver runs searches against a shared transposition table and history
// table. A single game uses one solver on one goroutine; the book
// builder creates one solver per worker, all sharing the same tables.
type Solver struct {
	ttable  *TranspositionTable
	history *History

	useOldEval   bool
	strongSolver bool

	nodes atomic.Uint64
}

// NewSolver wires a solver to its shared tables.
func NewSolver(tt *TranspositionTable, h *History) *Solver {
	return &Solver{ttable: tt, history: h}
}

// SetUseOldEval switches leaf evaluation to the legacy evaluator. Only
// A/B comparison runs turn this on.
func (s *Solver) SetUseOldEval(old bool) {
	s.useOldEval = old
}

// SetStrongSolver toggles strong-solver leaf policy: non-terminal leaves
// score as draws and only forced wins and losses propagate.
func (s *Solver) SetStrongSolver(strong bool) {
	s.strongSolver = strong
}

// StrongSolver reports whether strong-solver mode is on.
func (s *Solver) StrongSolver() bool {
	return s.strongSolver
}

// Nodes returns the number of nodes visited since the last reset.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// ResetNodes zeroes the node counter.
func (s *Solver) ResetNodes() {
	s.nodes.Store(0)
}

// Search runs negamax to the given remaining depth inside the (alpha,
// beta) window and returns the score from the side to move's viewpoint
// together with the best column, NoMove at terminal and leaf nodes.
func (s *Solver) Search(p board.Position, depth, alpha, beta int) (int, int) {
	s.nodes.Add(1)
	originalAlpha := alpha

	hash, mirrored := p.CanonicalHash()
	ttMove := NoMove
	if entry, ok := s.ttable.Probe(hash); ok {
		m := entry.Move
		if m != NoMove && mirrored {
			m = board.Columns - 1 - m
		}
		ttMove = m
		if entry.Depth >= depth {
			score := int(entry.Score)
			switch entry.Flag {
			case TTExact:
				return score, m
			case TTLower:
				if score > alpha {
					alpha = score
				}
			case TTUpper:
				if score < beta {
					beta = score
				}
			}
			if alpha >= beta {
				return score, m
			}
		}
	}

	// The last mover won. The depth bias makes the search prefer the
	// quickest win and the slowest loss.
	if p.HasWin() {
		return -eval.WinScore - depth, NoMove
	}

	if p.NumMoves() == board.MaxMoves || depth == 0 {
		if s.strongSolver {
			// Undecided leaves are draws; only exact wins and losses
			// propagate from terminal checks above.
			return 0, NoMove
		}
		if s.useOldEval {
			return eval.OldScore(p), NoMove
		}
		return eval.Score(p), NoMove
	}

	side := p.SideToMove()
	var order [board.Columns]int
	n := s.history.order(&p, ttMove, &order)

	bestScore := -eval.ScoreBound
	bestMove := NoMove
	for i := 0; i < n; i++ {
		col := order[i]
		child := p
		child.Apply(col)

		var score int
		if i == 0 {
			// Principal variation: full window.
			sc, _ := s.Search(child, depth-1, -beta, -alpha)
			score = -sc
		} else {
			// Zero-window probe, reduced for late moves at real depth.
			childDepth := depth - 1
			if i >= 3 && depth >= 4 {
				childDepth--
			}
			sc, _ := s.Search(child, childDepth, -alpha-1, -alpha)
			score = -sc
			if childDepth < depth-1 && score > alpha {
				// The reduction misjudged a tactical move; re-probe at
				// full depth before widening the window.
				sc, _ = s.Search(child, depth-1, -alpha-1, -alpha)
				score = -sc
			}
			if score > alpha && score < beta {
				sc, _ = s.Search(child, depth-1, -beta, -score)
				score = -sc
			}
		}

		if score > bestScore {
			bestScore = score
			bestMove = col
		}
		if bestScore > alpha {
			alpha = bestScore
		}
		if alpha >= beta {
			s.history.Bump(side, col, depth)
			break
		}
	}

	flag := TTExact
	if bestScore <= originalAlpha {
		flag = TTUpper
	} else if bestScore >= beta {
		flag = TTLower
	}
	storeMove := bestMove
	if storeMove != NoMove && mirrored {
		storeMove = board.Columns - 1 - storeMove
	}
	s.ttable.Store(hash, int16(bestScore), depth, storeMove, flag)

	return bestScore, bestMove
}
