// Package automaton builds a deterministic, byte-indexed state machine from
// a vocab.TokenSet: each state corresponds to the longest string that is
// both a suffix of the input read so far and a prefix of some token in the
// set, with a dense 256-entry successor table and a pointer to the longest
// token ending at that state.
package automaton

import "github.com/vocabtrain/vocabtrain/internal/vocab"

// NoToken marks a state with no token ending there. In a TokenSet built
// from a preset this never actually occurs (the root state aside), since
// every state's string has a single-byte literal suffix.
const NoToken = -1

// State is a recognized prefix string, a dense 256-wide successor table,
// and the longest token whose string ends exactly at this state.
type State struct {
	Str     string
	TokenID int
	Next    [256]int32
}

// Automaton is the full state table. State 0 is the empty prefix.
type Automaton struct {
	States []State
}

// Build constructs the automaton from ts. ts.GenerateSuffixes need not have
// been called first: construction here only needs the reverse string map,
// not the Token.Suffix links (those are walked later, during segmentation).
//
// Construction proceeds in two phases:
//
//	Phase A enumerates a state for every prefix of every token.
//	Phase B fills each state's 256-wide transition table.
func Build(ts *vocab.TokenSet) *Automaton {
	stateIndex := map[string]int32{"": 0}
	states := []State{{Str: "", TokenID: longestTokenSuffix(ts, "")}}

	for _, tok := range ts.Tokens {
		s := tok.Text
		for end := 1; end <= len(s); end++ {
			prefix := s[:end]
			if _, ok := stateIndex[prefix]; ok {
				continue
			}
			stateIndex[prefix] = int32(len(states))
			states = append(states, State{
				Str:     prefix,
				TokenID: longestTokenSuffix(ts, prefix),
			})
		}
	}

	for i := range states {
		sigma := states[i].Str
		for b := 0; b < 256; b++ {
			candidate := sigma + string([]byte{byte(b)})
			states[i].Next[b] = longestMatchingState(stateIndex, candidate)
		}
	}

	return &Automaton{States: states}
}

// longestTokenSuffix finds the longest token in ts whose string is a suffix
// of p, scanning suffixes of p from longest to shortest.
func longestTokenSuffix(ts *vocab.TokenSet, p string) int {
	for start := 0; start < len(p); start++ {
		if idx, ok := ts.ByString[p[start:]]; ok {
			return idx
		}
	}
	return NoToken
}

// longestMatchingState finds the state whose string is the longest suffix
// of candidate that is itself a registered state (i.e. a prefix of some
// token), iterating start positions from 0 upward. The empty string is
// always a state, so this always terminates with a valid match.
func longestMatchingState(stateIndex map[string]int32, candidate string) int32 {
	for start := 0; start < len(candidate); start++ {
		if idx, ok := stateIndex[candidate[start:]]; ok {
			return idx
		}
	}
	return stateIndex[""]
}

// NumStates returns the number of states in the automaton.
func (a *Automaton) NumStates() int {
	return len(a.States)
}

// Walk returns the successor state after reading byte b from state s.
func (a *Automaton) Walk(s int32, b byte) int32 {
	return a.States[s].Next[b]
}
