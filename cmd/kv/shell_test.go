package kv

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"hget users alice", []string{"hget", "users", "alice"}},
		{"  hget   users\talice  ", []string{"hget", "users", "alice"}},
		{`hset users alice "hello world"`, []string{"hset", "users", "alice", "hello world"}},
		{`hset t k 'it"s'`, []string{"hset", "t", "k", `it"s`}},
		{`hset t k a\ b`, []string{"hset", "t", "k", "a b"}},
		{`hset t k ""`, []string{"hset", "t", "k", ""}},
		{"", nil},
	}

	for _, tt := range tests {
		got, err := splitArgs(tt.input)
		if err != nil {
			t.Errorf("%q: unexpected error: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%q: expected %q, got %q", tt.input, tt.want, got)
		}
	}

	for _, bad := range []string{`hset "open`, `hset 'open`, `trailing\`} {
		if _, err := splitArgs(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}

func TestShellLocalCommands(t *testing.T) {
	var buf bytes.Buffer
	sh := &shell{out: &buf, format: outputText}

	if sh.exec("help") {
		t.Errorf("help must not stop the shell")
	}
	if !strings.Contains(buf.String(), "hgetall <table>") {
		t.Errorf("Expected help text, got %q", buf.String())
	}

	sh.exec("output json")
	if sh.format != outputJSON {
		t.Errorf("Expected output format json, got %s", sh.format)
	}

	buf.Reset()
	sh.exec("frobnicate x")
	if !strings.Contains(buf.String(), "unknown message type") {
		t.Errorf("Expected an error for an unknown command, got %q", buf.String())
	}

	if !sh.exec("exit") || !sh.exec("quit") {
		t.Errorf("exit and quit must stop the shell")
	}
}
