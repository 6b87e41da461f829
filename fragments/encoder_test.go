package fragments_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/danderson/multiqr/fragments"
	"github.com/google/go-cmp/cmp"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   []string
	}{
		{"", 5, []string{""}},
		{"abc", 5, []string{"abc"}},
		{"abcde", 5, []string{"abcde"}},
		{"abcdef", 5, []string{"abcde", "f"}},
		{"abcdef", 1, []string{"a", "b", "c", "d", "e", "f"}},
		{"abcdef", 3, []string{"abc", "def"}},
		{
			"012345678901234567890123456789012345678",
			13,
			[]string{"0123456789012", "3456789012345", "6789012345678"},
		},
	}

	for _, tc := range tests {
		got, err := fragments.Split(tc.in, tc.maxLen)
		if err != nil {
			t.Errorf("Split(%q, %d) got err: %v", tc.in, tc.maxLen, err)
			continue
		}
		if diff := cmp.Diff(got, tc.want); diff != "" {
			t.Errorf("Split(%q, %d) diff (-got+want):\n%s", tc.in, tc.maxLen, diff)
		}
	}
}

func TestSplitInvalid(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := fragments.Split("abc", n); !errors.Is(err, fragments.ErrInvalidLength) {
			t.Errorf("Split(_, %d) got err %v, want ErrInvalidLength", n, err)
		}
	}

	big := strings.Repeat("x", fragments.MaxTotal+1)
	if _, err := fragments.Split(big, 1); !errors.Is(err, fragments.ErrInvalidLength) {
		t.Errorf("Split into %d chunks got err %v, want ErrInvalidLength", len(big), err)
	}
	if got, err := fragments.Split(big, 2); err != nil || len(got) != fragments.MaxTotal/2+1 {
		t.Errorf("Split(_, 2) = %d chunks, %v, want %d chunks", len(got), err, fragments.MaxTotal/2+1)
	}
}

func TestSplitProperties(t *testing.T) {
	payload := strings.Repeat("0123456789abcdef", 17) + "xyz"
	for maxLen := 1; maxLen <= len(payload)+1; maxLen++ {
		chunks, err := fragments.Split(payload, maxLen)
		if err != nil {
			t.Fatalf("Split(_, %d) got err: %v", maxLen, err)
		}
		if got := strings.Join(chunks, ""); got != payload {
			t.Fatalf("Split(_, %d) chunks do not rejoin to the input", maxLen)
		}
		for i, c := range chunks[:len(chunks)-1] {
			if len(c) != maxLen {
				t.Fatalf("Split(_, %d) chunk %d has length %d", maxLen, i, len(c))
			}
		}
		if last := chunks[len(chunks)-1]; len(last) == 0 || len(last) > maxLen {
			t.Fatalf("Split(_, %d) last chunk has length %d", maxLen, len(last))
		}
	}
}

func TestNextOutgoing(t *testing.T) {
	var b fragments.Buffer
	if _, ok := b.NextOutgoing(); ok {
		t.Fatal("NextOutgoing() on unloaded Buffer returned a chunk")
	}

	if err := b.Load("012345678901234567890123456789012345678", 13); err != nil {
		t.Fatal(err)
	}
	want := []fragments.Outgoing{
		{"0123456789012", 1, 3},
		{"3456789012345", 2, 3},
		{"6789012345678", 3, 3},
		{"0123456789012", 1, 3},
		{"3456789012345", 2, 3},
	}
	var got []fragments.Outgoing
	for range want {
		o, ok := b.NextOutgoing()
		if !ok {
			t.Fatal("NextOutgoing() returned false on loaded Buffer")
		}
		got = append(got, o)
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("NextOutgoing() sequence diff (-got+want):\n%s", diff)
	}
}

func TestNextOutgoingSingle(t *testing.T) {
	var b fragments.Buffer
	if err := b.Load("short", 100); err != nil {
		t.Fatal(err)
	}
	for range 3 {
		o, ok := b.NextOutgoing()
		if !ok || o.Chunk != "short" || o.IsMultiPart() {
			t.Fatalf("NextOutgoing() = %+v, %v, want single part \"short\"", o, ok)
		}
	}
}

func TestLoadInvalid(t *testing.T) {
	var b fragments.Buffer
	if err := b.Load("abc", 0); !errors.Is(err, fragments.ErrInvalidLength) {
		t.Fatalf("Load(_, 0) got err %v, want ErrInvalidLength", err)
	}
	if b.IsLoaded() {
		t.Fatal("IsLoaded() = true after failed Load")
	}
}
