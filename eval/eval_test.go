package eval

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/ledezmar/quatro/board"
)

func mustPos(t *testing.T, seq string) board.Position {
	t.Helper()
	p, err := board.FromMoves(seq)
	if err != nil {
		t.Fatalf("bad move string %q: %v", seq, err)
	}
	return p
}

func TestEmptyBoardIsBalanced(t *testing.T) {
	is := is.New(t)
	var p board.Position
	is.Equal(Score(p), 0)
	is.Equal(OldScore(p), 0)
}

func TestTerminalPositionScoresLoss(t *testing.T) {
	is := is.New(t)
	p := mustPos(t, "3434343") // vertical win for A
	is.Equal(Score(p), -WinScore)
	is.Equal(OldScore(p), -WinScore)
}

func TestCenterStoneOutscoresEdgeStone(t *testing.T) {
	is := is.New(t)
	center := mustPos(t, "3")
	edge := mustPos(t, "0")
	// Both scores are from B's viewpoint; A's center drop should hurt B
	// more than an edge drop.
	is.True(Score(center) < Score(edge))
}

func TestOpenThreeDominates(t *testing.T) {
	is := is.New(t)
	// A holds _XXX_ on the bottom row (columns 2..4 with 1 and 5 empty)
	// while B has stacked on top of A's stones. B to move.
	p := mustPos(t, "22334")
	is.True(Score(p) < 0)
}

func TestOldScoreCenterDrop(t *testing.T) {
	is := is.New(t)
	// After A's single center drop, B to move: no pairs anywhere, A gets
	// the center bonus of 3.
	is.Equal(OldScore(mustPos(t, "3")), -3)
}

func TestScoreStaysInBounds(t *testing.T) {
	is := is.New(t)
	for game := 0; game < 300; game++ {
		var p board.Position
		for p.NumMoves() < board.MaxMoves && !p.HasWin() {
			p.Apply(frand.Intn(board.Columns))
		}
		s := Score(p)
		is.True(s > -ScoreBound && s < ScoreBound)
	}
}

func TestSignFlipsWithSideToMove(t *testing.T) {
	is := is.New(t)
	// "33" is balanced with A to move; after A's third center stone the
	// score, now from B's seat, must drop.
	p := mustPos(t, "33")
	q := p
	q.Apply(3)
	is.True(Score(q) < Score(p))
}
