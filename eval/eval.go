// Package eval scores Connect Four positions by counting threat patterns
// bit-parallel. All pattern matching works on shifted copies of a side's
// stone mask and the empty-cell mask, one accumulator per weight class,
// so each class costs a single popcount.
package eval

import (
	"math/bits"

	"github.com/ledezmar/quatro/board"
)

const (
	// WinScore is the magnitude reported for a position already won by
	// the last mover. The search adds a depth bias on top of it.
	WinScore = 1000
	// ScoreBound bounds every score the search works with; it fits a
	// packed signed 16-bit transposition-table field with room to spare.
	ScoreBound = 9999
)

// Stride per direction in the 7-bits-per-column layout.
const (
	vert = 1
	horz = 7
	diag = 8 // (/) up-right
	anti = 6 // (\) up-left
)

// Positional masks. Column c occupies bits c*7..c*7+5.
const (
	centerMask      = 0x3F << 21                             // column 3
	innerMiddleMask = 0x3F<<14 | 0x3F<<28                    // columns 2 and 4
	sweetSpotMask   = 0x7<<14 | 0x7<<21 | 0x7<<28            // cols 2..4, rows 0..2
	colEven         = uint64(0x15)                           // rows 0, 2, 4 of one column
	colOdd          = uint64(0x2A)                           // rows 1, 3, 5 of one column
	row024          = colEven | colEven<<7 | colEven<<14 | colEven<<21 | colEven<<28 | colEven<<35 | colEven<<42
	row135          = colOdd | colOdd<<7 | colOdd<<14 | colOdd<<21 | colOdd<<28 | colOdd<<35 | colOdd<<42
)

// countPatterns scores one side's stones. pos holds that side's stones,
// mask all filled cells.
func countPatterns(pos, mask uint64) int {
	empty := ^mask

	// One accumulator per weight class.
	var w50, w10, w7, w5, w3, w2 uint64

	// Horizontal.
	p1, p2, p3 := pos>>horz, pos>>(2*horz), pos>>(3*horz)
	e1, e2, e3 := empty>>horz, empty>>(2*horz), empty>>(3*horz)

	w50 |= empty & p1 & p2 & p3 & (empty >> (4 * horz)) // _XXX_

	w10 |= pos & e1 & p2 & p3 // X_XX
	w10 |= pos & p1 & e2 & p3 // XX_X

	w7 |= pos & p1 & p2 & e3   // XXX_
	w7 |= empty & p1 & p2 & p3 // _XXX

	w3 |= pos & p1 & e2 & e3   // XX__
	w3 |= empty & e1 & p2 & p3 // __XX
	w3 |= pos & e1 & e2 & p3   // X__X
	w3 |= empty & p1 & p2 & e3 // _XX_
	w3 |= pos & e1 & p2 & e3   // X_X_
	w3 |= empty & p1 & e2 & p3 // _X_X

	w2 |= pos & p1 & e2   // XX_
	w2 |= empty & p1 & p2 // _XX
	w2 |= pos & e1 & p2   // X_X

	// Vertical. Only upward-open shapes exist: the open end is always
	// the top of the column.
	w5 |= pos & (pos >> vert) & (pos >> (2 * vert)) & (empty >> (3 * vert)) // XXX_
	w2 |= pos & (pos >> vert) & (empty >> (2 * vert))                       // XX_

	// Diagonal (/).
	p1, p2, p3 = pos>>diag, pos>>(2*diag), pos>>(3*diag)
	e1, e2, e3 = empty>>diag, empty>>(2*diag), empty>>(3*diag)

	w10 |= pos & e1 & p2 & p3
	w10 |= pos & p1 & e2 & p3

	w7 |= pos & p1 & p2 & e3
	w7 |= empty & p1 & p2 & p3

	w3 |= pos & p1 & e2 & e3
	w3 |= empty & e1 & p2 & p3
	w3 |= pos & e1 & e2 & p3
	w3 |= empty & p1 & p2 & e3
	w3 |= pos & e1 & p2 & e3
	w3 |= empty & p1 & e2 & p3

	w2 |= pos & p1 & e2
	w2 |= empty & p1 & p2
	w2 |= pos & e1 & p2

	// Anti-diagonal (\).
	p1, p2, p3 = pos>>anti, pos>>(2*anti), pos>>(3*anti)
	e1, e2, e3 = empty>>anti, empty>>(2*anti), empty>>(3*anti)

	w10 |= pos & e1 & p2 & p3
	w10 |= pos & p1 & e2 & p3

	w7 |= pos & p1 & p2 & e3
	w7 |= empty & p1 & p2 & p3

	w3 |= pos & p1 & e2 & e3
	w3 |= empty & e1 & p2 & p3
	w3 |= pos & e1 & e2 & p3
	w3 |= empty & p1 & p2 & e3
	w3 |= pos & e1 & p2 & e3
	w3 |= empty & p1 & e2 & p3

	w2 |= pos & p1 & e2
	w2 |= empty & p1 & p2
	w2 |= pos & e1 & p2

	return bits.OnesCount64(w50)*50 +
		bits.OnesCount64(w10)*10 +
		bits.OnesCount64(w7)*7 +
		bits.OnesCount64(w5)*5 +
		bits.OnesCount64(w3)*3 +
		bits.OnesCount64(w2)*2
}

// Score evaluates p from the side to move's viewpoint: positive means the
// side to move stands better. The search handles terminal nodes before
// evaluating; if called on a won position anyway, Score reports -WinScore.
func Score(p board.Position) int {
	if p.HasWin() {
		return -WinScore
	}

	mask := p.Mask()
	cur := p.Current()
	opp := cur ^ mask

	curScore := countPatterns(cur, mask)
	oppScore := countPatterns(opp, mask)

	curScore += bits.OnesCount64(cur&centerMask) * 3
	oppScore += bits.OnesCount64(opp&centerMask) * 3
	curScore += bits.OnesCount64(cur & innerMiddleMask)
	oppScore += bits.OnesCount64(opp & innerMiddleMask)

	curScore += bits.OnesCount64(cur&sweetSpotMask) * 4
	oppScore += bits.OnesCount64(opp&sweetSpotMask) * 4

	// Zugzwang parity: with correct play the first player wants odd-row
	// threats (rows 0, 2, 4 from the bottom) and the second player even
	// ones. Each side is paid for stones on the rows it controls.
	curParity, oppParity := uint64(row024), uint64(row135)
	if p.SideToMove() != 0 {
		curParity, oppParity = oppParity, curParity
	}
	curScore += bits.OnesCount64(cur&curParity) * 2
	oppScore += bits.OnesCount64(opp&oppParity) * 2

	return curScore - oppScore
}

// OldScore is the previous evaluator, kept for A/B comparison runs. It
// counts bare pairs plus a center bias and knows nothing about live
// threats.
func OldScore(p board.Position) int {
	if p.HasWin() {
		return -WinScore
	}

	mask := p.Mask()
	cur := p.Current()
	opp := cur ^ mask

	curScore := bits.OnesCount64(cur&(cur>>horz))*2 +
		bits.OnesCount64(cur&(cur>>vert))*2 +
		bits.OnesCount64(cur&centerMask)*3
	oppScore := bits.OnesCount64(opp&(opp>>horz))*2 +
		bits.OnesCount64(opp&(opp>>vert))*2 +
		bits.OnesCount64(opp&centerMask)*3

	return curScore - oppScore
}
