// Package segment implements the minimum-cost segmentation decoder: given
// an automaton built from a vocab.TokenSet and a byte buffer, it computes
// the minimum-cost tokenization via a one-pass dynamic program and
// back-traces to collect token and adjacent-pair statistics.
package segment

import (
	"fmt"
	"math"

	"github.com/vocabtrain/vocabtrain/internal/automaton"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
)

// Sentinel is the back-pointer value stored in DP[0]. The back-trace stops
// at position 0 and never follows it, so its coinciding with the literal id
// of byte 0x13 is harmless. The pair-count tail bucket for the last token
// uses token id 0, not Sentinel.
const Sentinel = 0x13

// TokenStats holds per-pass statistics: how often each token was emitted,
// how often each adjacent token pair occurred, the total segmentation cost,
// and the number of bytes scanned. PairCount is a dense N*N table, where N
// is the vocabulary size the stats were collected under.
type TokenStats struct {
	N            int
	TokenCount   []uint64
	PairCount    []uint64
	Cost         uint64
	ScannedBytes uint64
}

// NewTokenStats allocates a zeroed TokenStats sized for a vocabulary of n
// tokens.
func NewTokenStats(n int) *TokenStats {
	return &TokenStats{
		N:          n,
		TokenCount: make([]uint64, n),
		PairCount:  make([]uint64, n*n),
	}
}

// Add sums other into s element-wise. TokenStats addition is associative
// and commutative, so callers may fold partial stats from chunks processed
// in any order. Both operands must share the same N.
func (s *TokenStats) Add(other *TokenStats) error {
	if s.N != other.N {
		return fmt.Errorf("segment: cannot add TokenStats of different sizes (%d vs %d)", s.N, other.N)
	}
	for i, v := range other.TokenCount {
		s.TokenCount[i] += v
	}
	for i, v := range other.PairCount {
		s.PairCount[i] += v
	}
	s.Cost += other.Cost
	s.ScannedBytes += other.ScannedBytes
	return nil
}

// BytesPerToken reports ScannedBytes / Cost. Cost is the total segmentation
// cost (the sum of Token.Cost over the emitted tokens, so a literal counts
// 3 or 8), not the number of emitted tokens. It guards against division by
// zero for an empty corpus.
func (s *TokenStats) BytesPerToken() (float64, bool) {
	if s.Cost == 0 {
		return 0, false
	}
	return float64(s.ScannedBytes) / float64(s.Cost), true
}

// Segmenter decodes byte buffers into minimum-cost tokenizations under a
// fixed TokenSet snapshot. Build one per worker so automaton construction
// is amortized across many Segment calls.
type Segmenter struct {
	Tokens *vocab.TokenSet
	Auto   *automaton.Automaton
}

// New builds a Segmenter from ts. It calls ts.GenerateSuffixes() so the
// suffix chains the decoder walks are current.
func New(ts *vocab.TokenSet) *Segmenter {
	ts.GenerateSuffixes()
	return &Segmenter{
		Tokens: ts,
		Auto:   automaton.Build(ts),
	}
}

type dpCell struct {
	cost  uint64
	token int
}

// Segment computes the minimum-cost tokenization of data and returns both
// the token-id sequence (in left-to-right order) and the statistics
// collected during back-trace.
func (s *Segmenter) Segment(data []byte) ([]int, *TokenStats) {
	l := len(data)
	dp := make([]dpCell, l+1)
	dp[0] = dpCell{cost: 0, token: Sentinel}

	var state int32
	for i := 1; i <= l; i++ {
		state = s.Auto.Walk(state, data[i-1])
		best := dpCell{cost: math.MaxUint64, token: -1}

		for tid := s.Auto.States[state].TokenID; tid != automaton.NoToken; tid = s.Tokens.Tokens[tid].Suffix {
			tok := &s.Tokens.Tokens[tid]
			length := len(tok.Text)
			if length > i {
				continue
			}
			candidate := dp[i-length].cost + uint64(tok.Cost)
			if candidate < best.cost {
				best = dpCell{cost: candidate, token: tid}
			}
		}
		dp[i] = best
	}

	tokens := backtrace(s.Tokens, dp)
	stats := s.collectStats(tokens, dp[l].cost, uint64(l))
	return tokens, stats
}

func backtrace(ts *vocab.TokenSet, dp []dpCell) []int {
	i := len(dp) - 1
	rev := make([]int, 0, i)
	for i > 0 {
		tid := dp[i].token
		rev = append(rev, tid)
		i -= len(ts.Tokens[tid].Text)
	}
	tokens := make([]int, len(rev))
	for k, tid := range rev {
		tokens[len(rev)-1-k] = tid
	}
	return tokens
}

func (s *Segmenter) collectStats(tokens []int, cost uint64, scannedBytes uint64) *TokenStats {
	n := s.Tokens.NTokens()
	stats := NewTokenStats(n)
	stats.Cost = cost
	stats.ScannedBytes = scannedBytes

	for k, tid := range tokens {
		stats.TokenCount[tid]++
		next := 0
		if k+1 < len(tokens) {
			next = tokens[k+1]
		}
		stats.PairCount[tid*n+next]++
	}
	return stats
}
