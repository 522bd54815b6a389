// Package vocabio loads and saves the boundary document: the narrow JSON
// contract through which a TokenSet and its training statistics cross in
// and out of the trainer. Argument parsing, JSON shape, and the on-disk
// document format are external-collaborator concerns; the trainer itself
// never touches them directly.
package vocabio

import (
	"encoding/json"
	"fmt"
	"os"
	"unicode/utf8"

	"github.com/vocabtrain/vocabtrain/internal/errs"
	"github.com/vocabtrain/vocabtrain/internal/segment"
	"github.com/vocabtrain/vocabtrain/internal/vocab"
)

// tokenEntry marshals as a UTF-8 string when its bytes are valid UTF-8, and
// as an array of byte values (0-255) otherwise.
type tokenEntry string

func (t tokenEntry) MarshalJSON() ([]byte, error) {
	if utf8.ValidString(string(t)) {
		return json.Marshal(string(t))
	}
	vals := make([]int, len(t))
	for i := 0; i < len(t); i++ {
		vals[i] = int(t[i])
	}
	return json.Marshal(vals)
}

func (t *tokenEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = tokenEntry(s)
		return nil
	}

	var vals []int
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("%w: token entry must be a string or an array of byte values", errs.ErrSerialization)
	}
	buf := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return fmt.Errorf("%w: byte value %d out of range", errs.ErrSerialization, v)
		}
		buf[i] = byte(v)
	}
	*t = tokenEntry(buf)
	return nil
}

type config struct {
	Fallback16 bool `json:"fallback16"`
}

type stats struct {
	NTokens       int      `json:"ntokens"`
	ScannedBytes  uint64   `json:"scanned_bytes"`
	TotalTokens   uint64   `json:"total_tokens"`
	BytesPerToken *float64 `json:"bytes_per_token"`
}

type document struct {
	Tokens []tokenEntry `json:"tokens"`
	Config config       `json:"config"`
	Stats  *stats       `json:"stats,omitempty"`
}

// Load reads the boundary document at path and reconstructs a TokenSet.
// The preset is chosen from config.fallback16, then every token entry is
// fed to AddToken in document order.
func Load(path string) (*vocab.TokenSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrCorruptInput, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}

	preset := vocab.PresetBin
	if doc.Config.Fallback16 {
		preset = vocab.PresetHex
	}
	ts := vocab.New(preset)
	for _, entry := range doc.Tokens {
		ts.AddToken(string(entry))
	}
	return ts, nil
}

// Marshal renders ts (and, if st is non-nil, a summary of st) as the
// boundary document. Mandatory tokens are emitted alongside optional ones;
// both appear together in the single lexicographic tokens list.
func Marshal(ts *vocab.TokenSet, st *segment.TokenStats) ([]byte, error) {
	strs := ts.NonLiteralStrings()
	doc := document{
		Tokens: make([]tokenEntry, len(strs)),
		Config: config{Fallback16: ts.Preset == vocab.PresetHex},
	}
	for i, s := range strs {
		doc.Tokens[i] = tokenEntry(s)
	}

	if st != nil {
		var bytesPerToken *float64
		if bpt, ok := st.BytesPerToken(); ok {
			bytesPerToken = &bpt
		}
		doc.Stats = &stats{
			NTokens:       ts.NTokens() - vocab.NumLiterals,
			ScannedBytes:  st.ScannedBytes,
			TotalTokens:   st.Cost,
			BytesPerToken: bytesPerToken,
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrSerialization, err)
	}
	return data, nil
}

// Save writes the boundary document for ts and st to path.
func Save(path string, ts *vocab.TokenSet, st *segment.TokenStats) error {
	data, err := Marshal(ts, st)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrCorruptInput, err)
	}
	return nil
}
