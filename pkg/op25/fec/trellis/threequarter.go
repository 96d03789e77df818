package trellis

import "sort"

const (
	threeQuarterStates = 8

	// A path survives while its metric is within this distance of the best.
	pruneDistance = 3
	// Live paths carried from one symbol to the next.  Ties beyond this are
	// settled in state order.
	maxPaths = threeQuarterStates

	perfectMatch = 4
)

// Rate 3/4 encoder: constellation point for (previous tribit, input tribit).
// Each state only reaches the eight points of a single parity.
var threeQuarterEncoder = [threeQuarterStates][threeQuarterStates]uint8{
	{0, 8, 4, 12, 2, 10, 6, 14},
	{4, 12, 2, 10, 6, 14, 0, 8},
	{1, 9, 5, 13, 3, 11, 7, 15},
	{5, 13, 3, 11, 7, 15, 1, 9},
	{3, 11, 7, 15, 1, 9, 5, 13},
	{7, 15, 1, 9, 5, 13, 3, 11},
	{2, 10, 6, 14, 0, 8, 4, 12},
	{6, 14, 0, 8, 4, 12, 2, 10},
}

var (
	threeQuarterSymbol [threeQuarterStates][threeQuarterStates]uint8
	// threeQuarterInput[state][symbol] is the input tribit that produces the
	// received symbol from state, or -1 when the state cannot emit it.
	threeQuarterInput [threeQuarterStates][16]int8
)

func initThreeQuarterRate() {
	for s := 0; s < threeQuarterStates; s++ {
		for sym := range threeQuarterInput[s] {
			threeQuarterInput[s][sym] = -1
		}
		for in := 0; in < threeQuarterStates; in++ {
			sym := pointToSymbol[threeQuarterEncoder[s][in]]
			threeQuarterSymbol[s][in] = sym
			threeQuarterInput[s][sym] = int8(in)
		}
	}
}

// EncodeThreeQuarterRate trellis codes 144 data bits into a 196 bit block in
// coded (not yet interleaved) symbol order.
func EncodeThreeQuarterRate(data []byte) []byte {
	out := make([]byte, BlockBits)
	var state uint8
	for k := 0; k < BlockSymbols; k++ {
		var in uint8
		if k < BlockSymbols-1 {
			in = (data[3*k]&1)<<2 | (data[3*k+1]&1)<<1 | data[3*k+2]&1
		}
		putSymbol(out, k, threeQuarterSymbol[state][in])
		state = in
	}
	return out
}

// Node is one step of a trellis path.
type Node struct {
	Index  int
	State  uint8
	Symbol uint8
	Metric uint8

	parent int32
}

// Path is a chain of nodes kept in the decoder's arena.  Paths share their
// prefixes, so branching never copies node history.
type Path struct {
	tail   int32
	length int
	metric int
}

func (p Path) Len() int {
	return p.length
}

func (p Path) Metric() int {
	return p.metric
}

// BitErrors estimates the number of bit errors along the path.
func (p Path) BitErrors() int {
	return perfectMatch*(p.length-1) - p.metric
}

// ThreeQuarterRateDecoder is a bounded width Viterbi search over the eight
// state rate 3/4 trellis.  A decoder is reused between blocks and is not safe
// for concurrent use.
type ThreeQuarterRateDecoder struct {
	nodes  []Node
	paths  []Path
	next   []Path
	last   Path
	widest int
}

func NewThreeQuarterRateDecoder() *ThreeQuarterRateDecoder {
	return &ThreeQuarterRateDecoder{
		nodes: make([]Node, 0, 512),
		paths: make([]Path, 0, threeQuarterStates*threeQuarterStates),
		next:  make([]Path, 0, threeQuarterStates*threeQuarterStates),
	}
}

// Reset discards all paths from a previous decode.
func (d *ThreeQuarterRateDecoder) Reset() {
	d.nodes = d.nodes[:0]
	d.paths = d.paths[:0]
	d.next = d.next[:0]
	d.last = Path{}
	d.widest = 0
}

// Widest is the largest number of live paths seen during the last decode.
func (d *ThreeQuarterRateDecoder) Widest() int {
	return d.widest
}

// Survivor returns the nodes of the path chosen by the last successful
// decode, starting with the initial state.
func (d *ThreeQuarterRateDecoder) Survivor() []Node {
	if d.last.length == 0 {
		return nil
	}
	out := make([]Node, d.last.length)
	for i, n := d.last.length-1, d.last.tail; i >= 0; i-- {
		out[i] = d.nodes[n]
		n = d.nodes[n].parent
	}
	return out
}

func (d *ThreeQuarterRateDecoder) addNode(parent int32, index int, state, symbol, metric uint8) int32 {
	d.nodes = append(d.nodes, Node{
		Index:  index,
		State:  state,
		Symbol: symbol,
		Metric: metric,
		parent: parent,
	})
	return int32(len(d.nodes) - 1)
}

func (d *ThreeQuarterRateDecoder) extend(p Path, index int, state, symbol, metric uint8) Path {
	return Path{
		tail:   d.addNode(p.tail, index, state, symbol, metric),
		length: p.length + 1,
		metric: p.metric + int(metric),
	}
}

func (d *ThreeQuarterRateDecoder) stateOf(p Path) uint8 {
	return d.nodes[p.tail].State
}

// bestInNext is the best metric among next-generation paths ending in state.
func (d *ThreeQuarterRateDecoder) bestInNext(state uint8) (int, bool) {
	best, found := 0, false
	for _, p := range d.next {
		if d.stateOf(p) == state && (!found || p.metric > best) {
			best, found = p.metric, true
		}
	}
	return best, found
}

// collapse keeps the best paths per terminal state, ties included, and drops
// every path trailing the global best by more than pruneDistance.  At most
// maxPaths survive, best metric first.
func (d *ThreeQuarterRateDecoder) collapse() {
	var best [threeQuarterStates]int
	var seen [threeQuarterStates]bool
	for _, p := range d.next {
		s := d.stateOf(p)
		if !seen[s] || p.metric > best[s] {
			best[s], seen[s] = p.metric, true
		}
	}

	global := 0
	for s := 0; s < threeQuarterStates; s++ {
		if seen[s] && best[s] > global {
			global = best[s]
		}
	}

	d.paths = d.paths[:0]
	for s := uint8(0); s < threeQuarterStates; s++ {
		for _, p := range d.next {
			if d.stateOf(p) == s && p.metric == best[s] && p.metric >= global-pruneDistance {
				d.paths = append(d.paths, p)
			}
		}
	}
	if len(d.paths) > maxPaths {
		sort.SliceStable(d.paths, func(i, j int) bool {
			return d.paths[i].metric > d.paths[j].metric
		})
		d.paths = d.paths[:maxPaths]
		sort.SliceStable(d.paths, func(i, j int) bool {
			return d.stateOf(d.paths[i]) < d.stateOf(d.paths[j])
		})
	}
	if len(d.paths) > d.widest {
		d.widest = len(d.paths)
	}
	d.next = d.next[:0]
}

// Decode corrects a deinterleaved 196 bit block in place.  On success
// bits[:144] hold the decoded tribits, the remaining 52 bits are cleared and
// the estimated number of corrected bits is returned.  On failure bits is left
// untouched.
func (d *ThreeQuarterRateDecoder) Decode(bits []byte) (int, error) {
	if err := checkBlock(bits); err != nil {
		return 0, err
	}
	d.Reset()

	root := d.addNode(-1, 0, 0, 0, perfectMatch)
	d.paths = append(d.paths, Path{tail: root, length: 1})

	for k := 0; k < BlockSymbols; k++ {
		received := symbolAt(bits, k)

		for _, p := range d.paths {
			state := d.stateOf(p)
			if in := threeQuarterInput[state][received]; in >= 0 {
				d.next = append(d.next, d.extend(p, k+1, uint8(in), received, perfectMatch))
				continue
			}

			// The symbol is not reachable from this state: try every
			// continuation and keep those that can still compete.
			for in := uint8(0); in < threeQuarterStates; in++ {
				sym := threeQuarterSymbol[state][in]
				metric := branchMetric[received][sym]
				if best, ok := d.bestInNext(in); ok && p.metric+int(metric) < best {
					continue
				}
				d.next = append(d.next, d.extend(p, k+1, in, sym, metric))
			}
		}

		d.collapse()
		if len(d.paths) == 0 {
			return 0, ErrUncorrectable
		}
	}

	var winner Path
	found := false
	for _, p := range d.paths {
		if d.stateOf(p) == 0 && p.length == BlockSymbols+1 && (!found || p.metric > winner.metric) {
			winner, found = p, true
		}
	}
	if !found {
		return 0, ErrUncorrectable
	}
	d.last = winner

	survivor := d.Survivor()
	for i := 1; i < BlockSymbols; i++ {
		tribit := survivor[i].State
		bits[3*(i-1)] = (tribit >> 2) & 1
		bits[3*(i-1)+1] = (tribit >> 1) & 1
		bits[3*(i-1)+2] = tribit & 1
	}
	for i := ThreeQuarterRateBits; i < BlockBits; i++ {
		bits[i] = 0
	}
	return winner.BitErrors(), nil
}

// DecodeThreeQuarterRate decodes a block with a throwaway decoder.
func DecodeThreeQuarterRate(bits []byte) (int, error) {
	return NewThreeQuarterRateDecoder().Decode(bits)
}
