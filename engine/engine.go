// Package engine ties the search core together behind the interface the
// outer layers consume: make moves on a position, ask for the best move
// under a depth bound, and build or persist the opening book.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ledezmar/quatro/board"
	"github.com/ledezmar/quatro/book"
	"github.com/ledezmar/quatro/eval"
	"github.com/ledezmar/quatro/negamax"
)

// StrongSolverMoves is the move count from which the driver switches to
// strong-solver leaf evaluation: the remaining tree is shallow enough to
// chase exact results instead of heuristic ones.
const StrongSolverMoves = 12

// Engine owns the shared search state for one game or one book build.
// There is no process-wide state; tests instantiate a fresh engine per
// scenario for determinism.
type Engine struct {
	ttable  *negamax.TranspositionTable
	history *negamax.History
	book    *book.Book
	solver  *negamax.Solver

	// strong-solver mode is sticky for the rest of the game once the
	// move count crosses the threshold.
	strongSolver      bool
	strongSolverMoves int
}

// New creates an engine with a default-sized transposition table.
func New() *Engine {
	return NewWithTableBits(0)
}

// NewWithTableBits creates an engine whose table has 2^bits slots.
// Non-positive bits selects the default size.
func NewWithTableBits(bits int) *Engine {
	tt := negamax.NewTranspositionTable(bits)
	h := negamax.NewHistory()
	return &Engine{
		ttable:            tt,
		history:           h,
		book:              book.New(),
		solver:            negamax.NewSolver(tt, h),
		strongSolverMoves: StrongSolverMoves,
	}
}

// SetStrongSolverMoves overrides the move count at which the driver
// switches to strong-solver leaf evaluation.
func (e *Engine) SetStrongSolverMoves(n int) {
	e.strongSolverMoves = n
}

// LoadBook reads the opening book at path into memory. A missing file
// is expected and leaves the book empty.
func (e *Engine) LoadBook(path string) error {
	return e.book.Load(path)
}

// SaveBook writes the opening book to path.
func (e *Engine) SaveBook(path string) error {
	return e.book.Save(path)
}

// BuildBook expands the opening tree to maxMoves plies, solving each
// position to searchDepth, checkpointing to path as it goes.
func (e *Engine) BuildBook(ctx context.Context, path string, maxMoves, searchDepth int, useOldEval bool) error {
	bu := book.NewBuilder(e.book, e.ttable, e.history, path)
	bu.SetUseOldEval(useOldEval)
	return bu.Build(ctx, maxMoves, searchDepth)
}

// Book exposes the opening book, mainly for instrumentation.
func (e *Engine) Book() *book.Book {
	return e.book
}

// Nodes returns the node count of the game solver.
func (e *Engine) Nodes() uint64 {
	return e.solver.Nodes()
}

// TTStats returns occupied slots and collision count of the shared
// transposition table.
func (e *Engine) TTStats() (size, collisions uint64) {
	return e.ttable.Size(), e.ttable.Collisions()
}

// BestMove picks a column for the side to move in p, searching no deeper
// than maxDepth plies. It returns board.NoColumn when the position is
// already won or full; callers check terminal state first. The context
// is consulted between iterative-deepening iterations only, so a
// cancelled search still returns the best move of the last completed
// depth.
func (e *Engine) BestMove(ctx context.Context, p board.Position, maxDepth int, useOldEval bool) int {
	if p.HasWin() || p.NumMoves() == board.MaxMoves {
		return board.NoColumn
	}

	if col, ok := e.book.Lookup(p); ok {
		log.Info().Int("move", col).Int("num-moves", p.NumMoves()).Msg("book-move")
		return col
	}

	if p.NumMoves() >= e.strongSolverMoves {
		e.strongSolver = true
	}
	e.solver.SetStrongSolver(e.strongSolver)
	e.solver.SetUseOldEval(useOldEval)
	e.solver.ResetNodes()

	target := maxDepth
	if e.strongSolver {
		// Chase exact results to the depth bound, but never past the
		// end of the game.
		target = maxDepth - p.NumMoves()
		if remaining := board.MaxMoves - p.NumMoves(); target > remaining {
			target = remaining
		}
		if target < 1 {
			target = 1
		}
	}

	start := time.Now()
	best := board.NoColumn
	guess := 0
	for depth := 1; depth <= target; depth++ {
		if ctx.Err() != nil {
			break
		}
		score, move := e.solver.MTD(p, guess, depth)
		guess = score
		if move != negamax.NoMove {
			best = move
		}
		log.Debug().
			Int("depth", depth).
			Int("score", score).
			Int("best-move", best).
			Uint64("nodes", e.solver.Nodes()).
			Float64("tt-fill", e.ttable.Fill()).
			Uint64("tt-collisions", e.ttable.Collisions()).
			Dur("elapsed", time.Since(start)).
			Msg("search-depth-complete")
		if score >= eval.WinScore {
			// A forced win was found; deeper iterations cannot improve
			// on the move, only confirm it.
			break
		}
	}

	if best == board.NoColumn {
		// Degenerate bounds still deserve a legal answer.
		for _, col := range []int{3, 2, 4, 1, 5, 0, 6} {
			if p.Legal(col) {
				return col
			}
		}
	}
	log.Info().Int("move", best).
		Bool("strong-solver", e.strongSolver).
		Uint64("nodes", e.solver.Nodes()).
		Msg("best-move")
	return best
}
