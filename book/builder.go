package book

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"github.com/ledezmar/quatro/board"
	"github.com/ledezmar/quatro/negamax"
)

// DefaultSnapshotEvery is how many fresh entries trigger a checkpoint
// write during a build.
const DefaultSnapshotEvery = 1000

// Builder expands the opening tree and solves each new position. One
// worker per starting column; workers share the book map (mutexed), the
// transposition table and the history table (both lock-free), but each
// searches only positions local to its own recursion.
type Builder struct {
	book    *Book
	ttable  *negamax.TranspositionTable
	history *negamax.History

	path          string
	snapshotEvery int
	useOldEval    bool

	inserted atomic.Uint64
}

// NewBuilder prepares a build that checkpoints to path.
func NewBuilder(b *Book, tt *negamax.TranspositionTable, h *negamax.History, path string) *Builder {
	return &Builder{
		book:          b,
		ttable:        tt,
		history:       h,
		path:          path,
		snapshotEvery: DefaultSnapshotEvery,
	}
}

// SetSnapshotEvery overrides the checkpoint interval. Zero disables
// intermediate snapshots.
func (bu *Builder) SetSnapshotEvery(n int) {
	bu.snapshotEvery = n
}

// SetUseOldEval makes the build solve with the legacy evaluator.
func (bu *Builder) SetUseOldEval(old bool) {
	bu.useOldEval = old
}

// Inserted returns how many fresh entries this build added.
func (bu *Builder) Inserted() uint64 {
	return bu.inserted.Load()
}

// Build expands every line up to maxMoves plies, solving each unsolved
// position with iterative deepening to searchDepth, then writes the
// final book. The empty position is seeded with the known best first
// move before the workers start.
func (bu *Builder) Build(ctx context.Context, maxMoves, searchDepth int) error {
	start := time.Now()
	rootHash, _ := board.Position{}.CanonicalHash()
	bu.book.Insert(rootHash, 3)

	log.Info().Int("max-moves", maxMoves).
		Int("search-depth", searchDepth).
		Int("existing-entries", bu.book.Len()).
		Msg("book-build-starting")

	g, ctx := errgroup.WithContext(ctx)
	for col := 0; col < board.Columns; col++ {
		col := col
		g.Go(func() error {
			solver := negamax.NewSolver(bu.ttable, bu.history)
			solver.SetUseOldEval(bu.useOldEval)
			var p board.Position
			p.Apply(col)
			return bu.expand(ctx, solver, p, 1, maxMoves, searchDepth)
		})
	}
	err := g.Wait()
	if err != nil {
		return err
	}

	log.Info().Uint64("new-entries", bu.inserted.Load()).
		Int("total-entries", bu.book.Len()).
		Interface("move-distribution", bu.book.MoveDistribution()).
		Dur("elapsed", time.Since(start)).
		Msg("book-build-complete")
	return bu.book.Save(bu.path)
}

func (bu *Builder) expand(ctx context.Context, solver *negamax.Solver, p board.Position, ply, maxMoves, searchDepth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ply >= maxMoves || p.HasWin() {
		return nil
	}

	hash, mirrored := p.CanonicalHash()
	if !bu.book.Contains(hash) {
		best := 3
		guess := 0
		for d := 1; d <= searchDepth; d++ {
			score, move := solver.MTD(p, guess, d)
			guess = score
			if move != negamax.NoMove {
				best = move
			}
		}
		if mirrored {
			best = board.Columns - 1 - best
		}
		if bu.book.Insert(hash, uint8(best)) {
			if n := bu.inserted.Add(1); bu.snapshotEvery > 0 && n%uint64(bu.snapshotEvery) == 0 {
				if err := bu.book.Save(bu.path); err != nil {
					// The snapshot is advisory; the build carries on
					// with the in-memory book.
					log.Warn().Err(err).Msg("book-snapshot-skipped")
				}
				log.Info().Uint64("new-entries", n).
					Int("total-entries", bu.book.Len()).
					Msg("book-build-progress")
			}
		}
	}

	// Expansion order is irrelevant to the result set; shuffling it per
	// node spreads the workers over different subtrees and cuts lock
	// contention on freshly shared prefixes.
	cols := [board.Columns]int{0, 1, 2, 3, 4, 5, 6}
	frand.Shuffle(board.Columns, func(i, j int) {
		cols[i], cols[j] = cols[j], cols[i]
	})
	for _, col := range cols {
		child := p
		if !child.Apply(col) {
			continue
		}
		if err := bu.expand(ctx, solver, child, ply+1, maxMoves, searchDepth); err != nil {
			return err
		}
	}
	return nil
}
