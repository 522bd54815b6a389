// Package vocab implements the token vocabulary model: an ordered catalog
// of byte-string tokens together with a reverse string->index map, literal
// and mandatory flags, per-token cost, and longest-proper-suffix links.
package vocab

import (
	"fmt"
	"sort"

	"github.com/vocabtrain/vocabtrain/internal/errs"
)

// NumLiterals is the number of single-byte literal tokens (0-255), always
// occupying indices [0, NumLiterals) in byte-value order.
const NumLiterals = 256

// NoSuffix marks a token with no proper suffix in the current set.
const NoSuffix = -1

// Preset selects the literal cost and mandatory framing tokens a TokenSet
// is built with.
type Preset uint8

const (
	// PresetHex is the hex-fallback preset: literal cost 3, mandatory
	// tokens for byte 0x10 and ASCII '0'-'9','a'-'f'.
	PresetHex Preset = iota
	// PresetBin is the bin-fallback preset: literal cost 8, mandatory
	// tokens for bytes 0x11 and 0x12.
	PresetBin
)

const (
	hexLiteralCost = 3
	binLiteralCost = 8
)

// Token is a contiguous non-empty byte string plus its metadata. Text holds
// arbitrary bytes (not necessarily valid UTF-8); Go strings are fine
// containers for that.
type Token struct {
	Text        string
	IsLiteral   bool
	IsMandatory bool
	Cost        int
	Suffix      int // index of the longest other token that is a proper suffix, or NoSuffix
}

// TokenSet is an ordered catalog of tokens with an exact reverse map.
//
// Invariants: the first NumLiterals tokens are exactly the single-byte
// literals in byte-value order (index == byte value); non-literal strings
// are unique, but a non-literal may share its string with a literal, in
// which case ByString points at the non-literal; Suffix pointers are valid only immediately after
// GenerateSuffixes and must be treated as stale after any mutation.
type TokenSet struct {
	Tokens   []Token
	ByString map[string]int
	Preset   Preset
}

// New builds a TokenSet for the given preset: 256 literals followed by the
// preset's mandatory framing tokens.
func New(preset Preset) *TokenSet {
	ts := &TokenSet{
		Tokens:   make([]Token, 0, NumLiterals+16),
		ByString: make(map[string]int, NumLiterals+16),
		Preset:   preset,
	}

	literalCost := hexLiteralCost
	if preset == PresetBin {
		literalCost = binLiteralCost
	}
	for b := 0; b < NumLiterals; b++ {
		ts.addLiteral(byte(b), literalCost)
	}

	switch preset {
	case PresetHex:
		_ = ts.AddMandatory(string([]byte{0x10}))
		for c := byte('0'); c <= '9'; c++ {
			_ = ts.AddMandatory(string([]byte{c}))
		}
		for c := byte('a'); c <= 'f'; c++ {
			_ = ts.AddMandatory(string([]byte{c}))
		}
	case PresetBin:
		_ = ts.AddMandatory(string([]byte{0x11}))
		_ = ts.AddMandatory(string([]byte{0x12}))
	}

	return ts
}

func (ts *TokenSet) addLiteral(b byte, cost int) {
	s := string([]byte{b})
	idx := len(ts.Tokens)
	ts.Tokens = append(ts.Tokens, Token{
		Text:      s,
		IsLiteral: true,
		Cost:      cost,
		Suffix:    NoSuffix,
	})
	ts.ByString[s] = idx
}

// NTokens returns the total number of tokens, literals included.
func (ts *TokenSet) NTokens() int {
	return len(ts.Tokens)
}

// addNonLiteral implements the shared AddMandatory/AddToken semantics:
// appending a new entry (possibly shadowing a literal) or no-op'ing on an
// existing non-literal.
func (ts *TokenSet) addNonLiteral(s string, mandatory bool) (int, error) {
	if existing, ok := ts.ByString[s]; ok {
		tok := ts.Tokens[existing]
		if !tok.IsLiteral {
			if mandatory {
				return -1, fmt.Errorf("%w: %q", errs.ErrDuplicateNonLiteral, s)
			}
			return existing, nil
		}
		// existing is a literal; fall through and append a shadowing
		// non-literal entry.
	}

	idx := len(ts.Tokens)
	ts.Tokens = append(ts.Tokens, Token{
		Text:        s,
		IsMandatory: mandatory,
		Cost:        1,
		Suffix:      NoSuffix,
	})
	ts.ByString[s] = idx
	return idx, nil
}

// AddMandatory appends a non-literal mandatory token. It fails with
// errs.ErrDuplicateNonLiteral if s already exists as a non-literal token.
func (ts *TokenSet) AddMandatory(s string) error {
	_, err := ts.addNonLiteral(s, true)
	return err
}

// AddToken appends a non-literal optional token. If s is already present
// as a literal, a new non-literal entry is appended anyway (the reverse map
// then points at the non-literal). If s is already non-literal or
// mandatory, this is a no-op.
func (ts *TokenSet) AddToken(s string) {
	_, _ = ts.addNonLiteral(s, false)
}

// RemoveToken removes the non-literal, non-mandatory token with string s.
// It fails with errs.ErrUnremovable if the token is literal or mandatory,
// errs.ErrNotFound if absent. The reverse map is rebuilt afterward because
// indices shift.
func (ts *TokenSet) RemoveToken(s string) error {
	idx, ok := ts.ByString[s]
	if !ok {
		return fmt.Errorf("%w: %q", errs.ErrNotFound, s)
	}
	tok := ts.Tokens[idx]
	if tok.IsLiteral || tok.IsMandatory {
		return fmt.Errorf("%w: %q", errs.ErrUnremovable, s)
	}

	ts.Tokens = append(ts.Tokens[:idx], ts.Tokens[idx+1:]...)
	ts.rebuildReverseMap()
	return nil
}

func (ts *TokenSet) rebuildReverseMap() {
	ts.ByString = make(map[string]int, len(ts.Tokens))
	for i, tok := range ts.Tokens {
		ts.ByString[tok.Text] = i
	}
}

// GenerateSuffixes recomputes, for every non-literal token, the index of
// the longest other token whose string is a proper suffix of it. Must be
// called after any mutation before the suffix chains are walked during
// segmentation (segment.New does this); automaton.Build does not read them.
func (ts *TokenSet) GenerateSuffixes() {
	for i := NumLiterals; i < len(ts.Tokens); i++ {
		tok := &ts.Tokens[i]
		tok.Suffix = NoSuffix
		for start := 1; start < len(tok.Text); start++ {
			if idx, ok := ts.ByString[tok.Text[start:]]; ok {
				tok.Suffix = idx
				break
			}
		}
	}
}

// Clone performs a deep copy so a worker can hold its own TokenSet,
// independent of and safe to read concurrently with the trainer's copy.
func (ts *TokenSet) Clone() *TokenSet {
	out := &TokenSet{
		Tokens:   make([]Token, len(ts.Tokens)),
		ByString: make(map[string]int, len(ts.ByString)),
		Preset:   ts.Preset,
	}
	copy(out.Tokens, ts.Tokens)
	for k, v := range ts.ByString {
		out.ByString[k] = v
	}
	return out
}

// NonLiteralStrings returns the strings of every non-literal token (both
// mandatory and optional), in ascending lexicographic order. Serialization
// relies on this fixed ordering to produce a stable document.
func (ts *TokenSet) NonLiteralStrings() []string {
	out := make([]string, 0, len(ts.Tokens)-NumLiterals)
	for _, tok := range ts.Tokens {
		if !tok.IsLiteral {
			out = append(out, tok.Text)
		}
	}
	sort.Strings(out)
	return out
}

// LiteralCost returns the fixed per-set literal cost (3 for PresetHex, 8
// for PresetBin).
func (ts *TokenSet) LiteralCost() int {
	if len(ts.Tokens) == 0 {
		return 0
	}
	return ts.Tokens[0].Cost
}
