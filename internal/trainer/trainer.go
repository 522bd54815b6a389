// Package trainer implements the vocabulary-learning loop: each epoch adds
// the most-beneficial new token (best literal vs. best adjacent pair) and,
// once the vocabulary is at its budget, attempts to remove a low-utility
// token whose absence still strictly improves total cost without being
// immediately undone by the next add decision.
package trainer

import (
	"fmt"
	"sort"

	"github.com/vocabtrain/vocabtrain/internal/scan"
	"github.com/vocabtrain/vocabtrain/internal/segment"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
)

// Config holds scanning knobs for the training passes a Trainer runs.
type Config struct {
	Workers   int
	ChunkSize int
}

// Option configures a Trainer's scanning behavior.
type Option func(*Config)

// WithWorkers sets the parallel scanner's worker count (0 = runtime.NumCPU()).
func WithWorkers(n int) Option {
	return func(c *Config) { c.Workers = n }
}

// WithChunkSize sets the scanner's chunk size in bytes (0 = scan.DefaultChunkSize).
func WithChunkSize(n int) Option {
	return func(c *Config) { c.ChunkSize = n }
}

// EpochObserver is invoked after each add, after each rejected removal
// candidate, and on the accepted removal or termination of an epoch, with
// the epoch number, a vocabulary size, the total cost, and a short note
// describing what happened.
// It exists purely for progress reporting. A nil observer is always valid.
type EpochObserver func(epoch int, nTokens int, cost uint64, note string)

// Trainer runs the add/remove epoch loop against a corpus file.
type Trainer struct {
	Tokens       *vocab.TokenSet
	CorpusPath   string
	TargetTokens int
	Observer     EpochObserver
	Progress     scan.ProgressFunc

	cfg Config
}

// New creates a Trainer targeting TargetTokens optional tokens (beyond the
// 256 literals and the preset's mandatory tokens) on the corpus at
// corpusPath, starting from ts.
func New(ts *vocab.TokenSet, corpusPath string, targetTokens int, opts ...Option) *Trainer {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Trainer{
		Tokens:       ts,
		CorpusPath:   corpusPath,
		TargetTokens: targetTokens,
		cfg:          cfg,
	}
}

func (t *Trainer) scanStats(ts *vocab.TokenSet) (*segment.TokenStats, error) {
	return scan.Scan(ts, t.CorpusPath, t.cfg.Workers, t.cfg.ChunkSize, t.Progress)
}

func (t *Trainer) report(epoch int, ts *vocab.TokenSet, stats *segment.TokenStats, note string) {
	if t.Observer != nil {
		t.Observer(epoch, ts.NTokens(), stats.Cost, note)
	}
}

// Run executes the training loop until the removal search fails to find an
// acceptable candidate, returning the final TokenSet and the TokenStats it
// was measured under. The returned set never exceeds vocab.NumLiterals +
// the mandatory-token count + TargetTokens, though it may transiently reach
// one token over that budget during a single epoch's removal attempt.
func (t *Trainer) Run() (*vocab.TokenSet, *segment.TokenStats, error) {
	cur := t.Tokens
	stats, err := t.scanStats(cur)
	if err != nil {
		return nil, nil, err
	}

	// The budget only constrains optional tokens the trainer itself adds;
	// the literal block and the preset's mandatory framing tokens are a
	// fixed floor outside that count.
	budget := vocab.NumLiterals + mandatoryCount(cur) + t.TargetTokens
	epoch := 0
	for {
		epoch++
		add := decideAdd(cur, stats)

		candidate := cur.Clone()
		candidate.AddToken(add)

		if candidate.NTokens() <= budget {
			cur = candidate
			stats, err = t.scanStats(cur)
			if err != nil {
				return nil, nil, err
			}
			t.report(epoch, cur, stats, fmt.Sprintf("added %q", add))
			continue
		}

		preAddCost := stats.Cost
		preAddStats := stats

		enlargedStats, err := t.scanStats(candidate)
		if err != nil {
			return nil, nil, err
		}

		accepted := false
		for _, candStr := range removalOrder(candidate, enlargedStats) {
			trial := candidate.Clone()
			if rmErr := trial.RemoveToken(candStr); rmErr != nil {
				continue
			}
			trialStats, scanErr := t.scanStats(trial)
			if scanErr != nil {
				return nil, nil, scanErr
			}

			nextAdd := decideAdd(trial, trialStats)
			if trialStats.Cost < preAddCost && nextAdd != candStr {
				cur = trial
				stats = trialStats
				t.report(epoch, cur, stats, fmt.Sprintf("removed %q", candStr))
				accepted = true
				break
			}
			t.report(epoch, candidate, trialStats, fmt.Sprintf("rejected removal of %q (would not improve or would oscillate)", candStr))
		}

		if !accepted {
			t.report(epoch, cur, preAddStats, "removal search exhausted; terminating")
			return cur, preAddStats, nil
		}
	}
}

// decideAdd picks the next token to add: the most frequent literal vs. the
// most frequent adjacent token pair, by emitted count. A tie favors the
// pair; only a strictly higher literal count wins.
func decideAdd(ts *vocab.TokenSet, stats *segment.TokenStats) string {
	topLiteral := 0
	var topLiteralCount uint64
	for b := 0; b < vocab.NumLiterals; b++ {
		if stats.TokenCount[b] > topLiteralCount {
			topLiteralCount = stats.TokenCount[b]
			topLiteral = b
		}
	}

	n := stats.N
	var topA, topB int
	var topPairCount uint64
	for a := 0; a < n; a++ {
		base := a * n
		for b := 0; b < n; b++ {
			if c := stats.PairCount[base+b]; c > topPairCount {
				topPairCount = c
				topA, topB = a, b
			}
		}
	}

	if topLiteralCount > topPairCount {
		return string([]byte{byte(topLiteral)})
	}
	return ts.Tokens[topA].Text + ts.Tokens[topB].Text
}

func mandatoryCount(ts *vocab.TokenSet) int {
	n := 0
	for _, tok := range ts.Tokens {
		if tok.IsMandatory {
			n++
		}
	}
	return n
}

// removalOrder lists non-literal, non-mandatory token strings in ascending
// emitted-count order. Candidates are captured by string, not index, since
// indices shift as tokens are removed.
func removalOrder(ts *vocab.TokenSet, stats *segment.TokenStats) []string {
	type candidate struct {
		str   string
		count uint64
	}
	candidates := make([]candidate, 0, len(ts.Tokens)-vocab.NumLiterals)
	for i, tok := range ts.Tokens {
		if tok.IsLiteral || tok.IsMandatory {
			continue
		}
		candidates = append(candidates, candidate{tok.Text, stats.TokenCount[i]})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].count < candidates[j].count
	})

	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.str
	}
	return out
}
