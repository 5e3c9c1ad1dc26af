package board

import (
	"math/bits"
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"
)

func TestEmptyPosition(t *testing.T) {
	is := is.New(t)
	var p Position
	is.Equal(p.NumMoves(), 0)
	is.Equal(p.SideToMove(), 0)
	is.True(p.check())
	for col := 0; col < Columns; col++ {
		is.True(p.Legal(col))
	}
}

func TestApplyIllegal(t *testing.T) {
	is := is.New(t)
	var p Position
	is.True(!p.Apply(-1))
	is.True(!p.Apply(7))

	// Fill column 2 and make sure the seventh drop fails cleanly.
	for i := 0; i < Rows; i++ {
		is.True(p.Apply(2))
	}
	before := p
	is.True(!p.Legal(2))
	is.True(!p.Apply(2))
	is.Equal(p, before)
	is.True(p.check())
}

func TestInvariantsOverRandomGames(t *testing.T) {
	is := is.New(t)
	for game := 0; game < 200; game++ {
		var p Position
		for p.NumMoves() < MaxMoves && !p.HasWin() {
			col := frand.Intn(Columns)
			moves := p.NumMoves()
			if p.Apply(col) {
				is.Equal(p.NumMoves(), moves+1)
			} else {
				is.Equal(p.NumMoves(), moves)
			}
			is.True(p.check())
			is.Equal(bits.OnesCount64(p.Mask()), p.NumMoves())
		}
	}
}

func TestHorizontalWinOnlyAfterFourth(t *testing.T) {
	is := is.New(t)
	// A fills the bottom row in columns 0..3 while B stacks in column 6.
	p, err := FromMoves("06162")
	is.NoErr(err)
	is.True(!p.HasWin()) // three in a row is not a win
	is.True(p.Apply(6))
	is.True(!p.HasWin())
	is.True(p.Apply(3)) // A's fourth
	is.True(p.HasWin())
}

func TestVerticalWin(t *testing.T) {
	is := is.New(t)
	p, err := FromMoves("3434343")
	is.NoErr(err)
	is.True(p.HasWin())
	is.Equal(p.NumMoves(), 7)
}

func TestDiagonalWins(t *testing.T) {
	is := is.New(t)
	// Rising diagonal for A: (0,0) (1,1) (2,2) (3,3).
	p, err := FromMoves("01122323433")
	is.NoErr(err)
	is.True(p.HasWin())

	// Mirror of the same game must win too.
	m, err := FromMoves("65544343233")
	is.NoErr(err)
	is.True(m.HasWin())
}

func TestNoWrapAcrossColumns(t *testing.T) {
	is := is.New(t)
	// A ends up on column 0 rows 3..5 plus (1,0). Without the ghost bit
	// those cells occupy four consecutive bit indices, which a 6-bit
	// column stride would misread as a vertical win.
	p, err := FromMoves("10205004040")
	is.NoErr(err)
	is.True(!p.HasWin())
}

func TestMirrorKeyInvolution(t *testing.T) {
	is := is.New(t)
	for i := 0; i < 1000; i++ {
		// Constrain random bits to the 7x7 column layout.
		key := frand.Uint64n(1 << 49)
		is.Equal(MirrorKey(MirrorKey(key)), key)
	}
}

func TestCanonicalHashFoldsMirrors(t *testing.T) {
	is := is.New(t)
	for game := 0; game < 100; game++ {
		var p Position
		for i := 0; i < 10; i++ {
			p.Apply(frand.Intn(Columns))
		}
		m := p.Mirrored()
		is.True(m.check())
		ph, pm := p.CanonicalHash()
		mh, mm := m.CanonicalHash()
		is.Equal(ph, mh)
		if p.Key() != m.Key() {
			// Asymmetric positions: exactly one of the two is mirrored.
			is.True(pm != mm)
		}
	}
}

func TestFromMovesRejectsBadInput(t *testing.T) {
	is := is.New(t)
	_, err := FromMoves("337")
	is.Equal(err, ErrBadMoveString)
	_, err = FromMoves("3x")
	is.Equal(err, ErrBadMoveString)
	// Column 0 overfilled.
	_, err = FromMoves("0000000")
	is.Equal(err, ErrBadMoveString)
}

func TestString(t *testing.T) {
	is := is.New(t)
	p, err := FromMoves("334")
	is.NoErr(err)
	s := p.String()
	is.Equal(s, "0 1 2 3 4 5 6\n"+
		". . . . . . .\n"+
		". . . . . . .\n"+
		". . . . . . .\n"+
		". . . . . . .\n"+
		". . . O . . .\n"+
		". . . X X . .\n")
}
