package negamax

import (
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// TT bound flags.
const (
	TTExact uint8 = 0
	TTLower uint8 = 1
	TTUpper uint8 = 2
)

// NoMove marks the absence of a best move in a table entry or a search
// result.
const NoMove = -1

// noMoveField is the packed representation of NoMove (the move field is
// three bits wide; 0..6 are columns).
const noMoveField = 7

// DefaultSizeBits gives 2^26 single-word slots, 512 MiB.
const DefaultSizeBits = 26

const entrySize = 8

// Entry packing, low to high:
//
//	bit 0      valid (distinguishes a stored zero from an empty slot)
//	bits 5..6  bound flag
//	bits 7..9  best column, 7 = none
//	bits 10..15 remaining depth
//	bits 16..31 signed score
//	bits 32..63 upper half of the canonical hash
//
// One slot is one aligned 64-bit word, so concurrent book workers can
// share the table with plain atomic loads and stores: a torn write is
// impossible and a lost one only costs cache efficiency.
const (
	flagShift  = 5
	moveShift  = 7
	depthShift = 10
	scoreShift = 16
	sigShift   = 32

	flagMask  = 0x3
	moveMask  = 0x7
	depthMask = 0x3F
)

// TTEntry is an unpacked transposition-table record.
type TTEntry struct {
	Score int16
	Depth int
	Move  int // canonical column, NoMove if none
	Flag  uint8
}

func pack(hash uint64, score int16, depth, move int, flag uint8) uint64 {
	m := uint64(noMoveField)
	if move != NoMove {
		m = uint64(move)
	}
	return hash&0xFFFFFFFF00000000 |
		uint64(uint16(score))<<scoreShift |
		uint64(depth&depthMask)<<depthShift |
		m<<moveShift |
		uint64(flag&flagMask)<<flagShift |
		1
}

func unpack(w uint64) TTEntry {
	move := int(w >> moveShift & moveMask)
	if move == noMoveField {
		move = NoMove
	}
	return TTEntry{
		Score: int16(w >> scoreShift),
		Depth: int(w >> depthShift & depthMask),
		Move:  move,
		Flag:  uint8(w >> flagShift & flagMask),
	}
}

func entryDepth(w uint64) int {
	return int(w >> depthShift & depthMask)
}

// TranspositionTable is a fixed-size cache of packed search results
// indexed by the low bits of the canonical position hash. Entries are
// advisory: the signature in the upper 32 bits guards against index
// collisions, and anything the table forgets is simply recomputed.
type TranspositionTable struct {
	table    []uint64
	sizeMask uint64
	sizeBits int

	size       atomic.Uint64 // occupied slots
	collisions atomic.Uint64 // stores displacing a different signature
}

// NewTranspositionTable allocates a table with 2^sizeBits slots.
// Non-positive sizeBits selects the default; the default is stepped down
// if it would claim more than half of system memory.
func NewTranspositionTable(sizeBits int) *TranspositionTable {
	if sizeBits <= 0 {
		sizeBits = DefaultSizeBits
		totalMem := memory.TotalMemory()
		for sizeBits > 20 && uint64(entrySize)<<sizeBits > totalMem/2 {
			sizeBits--
		}
		if sizeBits != DefaultSizeBits {
			log.Warn().Int("size-bits", sizeBits).
				Uint64("total-system-memory-bytes", totalMem).
				Msg("transposition-table-clamped")
		}
	}
	t := &TranspositionTable{
		table:    make([]uint64, 1<<sizeBits),
		sizeMask: 1<<sizeBits - 1,
		sizeBits: sizeBits,
	}
	log.Info().Int("size-bits", sizeBits).
		Int("estimated-total-memory-bytes", entrySize<<sizeBits).
		Msg("transposition-table-size")
	return t
}

// Probe returns the entry stored under hash, if the slot holds one whose
// signature matches.
func (t *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	w := atomic.LoadUint64(&t.table[hash&t.sizeMask])
	if w&1 == 0 || uint32(w>>sigShift) != uint32(hash>>sigShift) {
		return TTEntry{}, false
	}
	return unpack(w), true
}

// Store writes a result for hash. The slot is replaced only when it is
// empty or the new remaining depth is at least the stored one, so deep
// results survive shallow revisits. move must already be in canonical
// orientation.
func (t *TranspositionTable) Store(hash uint64, score int16, depth, move int, flag uint8) {
	idx := hash & t.sizeMask
	old := atomic.LoadUint64(&t.table[idx])
	if old&1 != 0 && depth < entryDepth(old) {
		return
	}
	if old&1 == 0 {
		t.size.Add(1)
	} else if uint32(old>>sigShift) != uint32(hash>>sigShift) {
		t.collisions.Add(1)
	}
	atomic.StoreUint64(&t.table[idx], pack(hash, score, depth, move, flag))
}

// Reset clears every slot and the counters.
func (t *TranspositionTable) Reset() {
	clear(t.table)
	t.size.Store(0)
	t.collisions.Store(0)
}

// Size returns the number of occupied slots.
func (t *TranspositionTable) Size() uint64 {
	return t.size.Load()
}

// Collisions returns how many stores displaced an entry with a different
// signature.
func (t *TranspositionTable) Collisions() uint64 {
	return t.collisions.Load()
}

// Capacity returns the number of slots.
func (t *TranspositionTable) Capacity() int {
	return len(t.table)
}

// Fill returns the fraction of occupied slots.
func (t *TranspositionTable) Fill() float64 {
	return float64(t.size.Load()) / float64(len(t.table))
}
