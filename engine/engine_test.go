package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledezmar/quatro/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

const testTableBits = 16

func mustPos(t *testing.T, seq string) board.Position {
	t.Helper()
	p, err := board.FromMoves(seq)
	require.NoError(t, err)
	return p
}

func TestBestMoveOpensInCenter(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	move := e.BestMove(context.Background(), board.Position{}, 6, false)
	assert.Equal(t, 3, move)
}

func TestBestMoveTakesImmediateWin(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	p := mustPos(t, "343434")
	move := e.BestMove(context.Background(), p, 4, false)
	assert.Equal(t, 3, move)
}

func TestBestMoveBlocksThreat(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	p := mustPos(t, "03030")
	move := e.BestMove(context.Background(), p, 5, false)
	assert.Equal(t, 0, move)
}

func TestBestMoveSentinelOnTerminal(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	p := mustPos(t, "3434343") // A already won
	assert.Equal(t, board.NoColumn, e.BestMove(context.Background(), p, 5, false))
}

func TestBookMoveWinsOverSearch(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	p := mustPos(t, "0")
	hash, mirrored := p.CanonicalHash()
	stored := 5
	if mirrored {
		stored = board.Columns - 1 - stored
	}
	require.True(t, e.Book().Insert(hash, uint8(stored)))

	// Column 5 is nobody's search answer here; seeing it proves the
	// book was consulted, with the orientation handled.
	assert.Equal(t, 5, e.BestMove(context.Background(), p, 4, false))
	assert.Equal(t, 1, e.BestMove(context.Background(), p.Mirrored(), 4, false))
}

func TestStrongSolverIsSticky(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	p := mustPos(t, "010101232323") // 12 moves, four separate stacks
	require.Equal(t, 12, p.NumMoves())
	require.False(t, p.HasWin())
	e.BestMove(context.Background(), p, 16, false)
	assert.True(t, e.strongSolver)

	// Even asked about an early position afterwards, the engine stays in
	// strong-solver mode for the rest of the game.
	e.BestMove(context.Background(), mustPos(t, "3"), 4, false)
	assert.True(t, e.strongSolver)
}

func TestBookRoundTripThroughEngine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opening_book.bin")
	e := NewWithTableBits(testTableBits)
	require.NoError(t, e.BuildBook(context.Background(), path, 2, 3, false))

	fresh := NewWithTableBits(testTableBits)
	require.NoError(t, fresh.LoadBook(path))
	assert.Equal(t, e.Book().Len(), fresh.Book().Len())

	// The loaded book answers the empty board instantly with center.
	assert.Equal(t, 3, fresh.BestMove(context.Background(), board.Position{}, 1, false))
}

func TestCancelledContextStillAnswers(t *testing.T) {
	e := NewWithTableBits(testTableBits)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	move := e.BestMove(ctx, board.Position{}, 8, false)
	assert.True(t, board.Position{}.Legal(move))
}
