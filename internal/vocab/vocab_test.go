package vocab

import (
	"errors"
	"testing"

	"github.com/go-test/deep"

	"github.com/vocabtrain/vocabtrain/internal/errs"
)

func TestNewPresetHex(t *testing.T) {
	ts := New(PresetHex)

	// 256 literals + {0x10} + '0'-'9' + 'a'-'f' = 256 + 1 + 10 + 6
	want := NumLiterals + 1 + 10 + 6
	if got := ts.NTokens(); got != want {
		t.Fatalf("NTokens() = %d, want %d", got, want)
	}
	if ts.LiteralCost() != hexLiteralCost {
		t.Errorf("LiteralCost() = %d, want %d", ts.LiteralCost(), hexLiteralCost)
	}
	for _, mandatory := range []string{string([]byte{0x10}), "0", "9", "a", "f"} {
		idx, ok := ts.ByString[mandatory]
		if !ok {
			t.Errorf("mandatory token %q missing", mandatory)
			continue
		}
		if !ts.Tokens[idx].IsMandatory {
			t.Errorf("token %q not marked mandatory", mandatory)
		}
	}
}

func TestNewPresetBin(t *testing.T) {
	ts := New(PresetBin)

	want := NumLiterals + 2
	if got := ts.NTokens(); got != want {
		t.Fatalf("NTokens() = %d, want %d", got, want)
	}
	if ts.LiteralCost() != binLiteralCost {
		t.Errorf("LiteralCost() = %d, want %d", ts.LiteralCost(), binLiteralCost)
	}
	for _, mandatory := range []string{string([]byte{0x11}), string([]byte{0x12})} {
		idx, ok := ts.ByString[mandatory]
		if !ok || !ts.Tokens[idx].IsMandatory {
			t.Errorf("mandatory token %q missing or unmarked", mandatory)
		}
	}
}

func TestAddTokenShadowsLiteral(t *testing.T) {
	ts := New(PresetBin)
	before := ts.NTokens()

	ts.AddToken("a") // already a literal
	if ts.NTokens() != before+1 {
		t.Fatalf("NTokens() = %d, want %d", ts.NTokens(), before+1)
	}
	idx := ts.ByString["a"]
	if ts.Tokens[idx].IsLiteral {
		t.Errorf("reverse map for %q still points at the literal entry", "a")
	}
}

func TestAddTokenNoOpOnExistingNonLiteral(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("ab")
	before := ts.NTokens()

	ts.AddToken("ab")
	if ts.NTokens() != before {
		t.Fatalf("NTokens() = %d, want %d (no-op expected)", ts.NTokens(), before)
	}
}

func TestAddMandatoryDuplicateFails(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("xy")

	if err := ts.AddMandatory("xy"); !errors.Is(err, errs.ErrDuplicateNonLiteral) {
		t.Fatalf("AddMandatory() error = %v, want %v", err, errs.ErrDuplicateNonLiteral)
	}
}

func TestRemoveTokenUnremovable(t *testing.T) {
	ts := New(PresetBin)

	if err := ts.RemoveToken("a"); !errors.Is(err, errs.ErrUnremovable) {
		t.Errorf("removing a literal: error = %v, want %v", err, errs.ErrUnremovable)
	}
	if err := ts.RemoveToken(string([]byte{0x11})); !errors.Is(err, errs.ErrUnremovable) {
		t.Errorf("removing a mandatory token: error = %v, want %v", err, errs.ErrUnremovable)
	}
}

func TestRemoveTokenNotFound(t *testing.T) {
	ts := New(PresetBin)
	if err := ts.RemoveToken("nope"); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("error = %v, want %v", err, errs.ErrNotFound)
	}
}

func TestRemoveTokenRebuildsIndices(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("aa")
	ts.AddToken("bb")
	ts.AddToken("cc")

	if err := ts.RemoveToken("bb"); err != nil {
		t.Fatalf("RemoveToken() error = %v", err)
	}
	for _, s := range []string{"aa", "cc"} {
		idx, ok := ts.ByString[s]
		if !ok {
			t.Fatalf("%q missing from reverse map after removal", s)
		}
		if ts.Tokens[idx].Text != s {
			t.Errorf("reverse map for %q points at index %d holding %q", s, idx, ts.Tokens[idx].Text)
		}
	}
	if _, ok := ts.ByString["bb"]; ok {
		t.Errorf("removed token %q still present in reverse map", "bb")
	}
}

// TestGenerateSuffixes exercises the suffix-chain construction over
// literals plus {"foo", "oof", "of"}.
func TestGenerateSuffixes(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("foo")
	ts.AddToken("oof")
	ts.AddToken("of")
	ts.GenerateSuffixes()

	oof := ts.Tokens[ts.ByString["oof"]]
	if oof.Suffix == NoSuffix || ts.Tokens[oof.Suffix].Text != "of" {
		t.Errorf("suffix of %q = %v, want %q", "oof", oof.Suffix, "of")
	}

	of := ts.Tokens[ts.ByString["of"]]
	if of.Suffix == NoSuffix || ts.Tokens[of.Suffix].Text != "f" {
		t.Errorf("suffix of %q = %v, want %q", "of", of.Suffix, "f")
	}

	foo := ts.Tokens[ts.ByString["foo"]]
	if foo.Suffix == NoSuffix || ts.Tokens[foo.Suffix].Text != "o" {
		t.Errorf("suffix of %q = %v, want %q", "foo", foo.Suffix, "o")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("ab")

	clone := ts.Clone()
	if diff := deep.Equal(ts.Tokens, clone.Tokens); diff != nil {
		t.Errorf("clone diverges before mutation: %v", diff)
	}

	clone.AddToken("cd")
	if ts.NTokens() == clone.NTokens() {
		t.Fatalf("mutating the clone affected the original: both report %d tokens", ts.NTokens())
	}
	if _, ok := ts.ByString["cd"]; ok {
		t.Errorf("mutating the clone leaked into the original's reverse map")
	}
}

func TestNonLiteralStringsOrder(t *testing.T) {
	ts := New(PresetBin)
	ts.AddToken("zz")
	ts.AddToken("aa")

	strs := ts.NonLiteralStrings()
	for i := 1; i < len(strs); i++ {
		if strs[i-1] > strs[i] {
			t.Fatalf("NonLiteralStrings() not sorted: %q before %q", strs[i-1], strs[i])
		}
	}
}
