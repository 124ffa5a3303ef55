package util

import (
	"bytes"
	"testing"
)

func TestHashString(t *testing.T) {
	if HashString("table:key", 0) != HashString("table:key", 0) {
		t.Errorf("HashString should be deterministic")
	}
	if HashString("table:key", 0) == HashString("table:key", 1) {
		t.Errorf("HashString should depend on the seed")
	}
	if HashString("a", 0) == HashString("b", 0) {
		t.Errorf("Expected different hashes for different inputs")
	}
}

func TestStripe(t *testing.T) {
	for _, s := range []string{"", "a", "score:u1", "a very long key with spaces"} {
		stripe := Stripe(s, 16)
		if stripe < 0 || stripe >= 16 {
			t.Errorf("Stripe(%q) = %d, out of range", s, stripe)
		}
		if stripe != Stripe(s, 16) {
			t.Errorf("Stripe(%q) is not stable", s)
		}
	}
}

func TestPrefixUpperBound(t *testing.T) {
	tests := []struct {
		prefix []byte
		want   []byte
	}{
		{[]byte("t1:"), []byte("t1;")},
		{[]byte("a"), []byte("b")},
		{[]byte{'a', 0xff}, []byte("b")},
		{[]byte{0xff, 0xff}, nil},
		{[]byte{}, nil},
	}

	for _, tt := range tests {
		got := PrefixUpperBound(tt.prefix)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("PrefixUpperBound(%q) = %q, want %q", tt.prefix, got, tt.want)
		}
	}
}
