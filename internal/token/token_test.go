package token_test

import (
	"testing"

	"github.com/hallpass/hallpass/internal/token"
)

func TestGenerate_RawIs64HexChars(t *testing.T) {
	raw, _, err := token.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 64 {
		t.Errorf("raw token length = %d, want 64", len(raw))
	}
	for _, r := range raw {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Errorf("raw token contains non-hex rune %q", r)
		}
	}
}

func TestGenerate_HashMatchesRaw(t *testing.T) {
	raw, hash, err := token.Generate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.Hash(raw) != hash {
		t.Errorf("Hash(raw) = %q, want %q", token.Hash(raw), hash)
	}
}

func TestGenerate_SuccessiveCallsDiffer(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		raw, _, err := token.Generate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if seen[raw] {
			t.Fatalf("duplicate token generated: %s", raw)
		}
		seen[raw] = true
	}
}
