package fragments_test

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/danderson/multiqr/fragments"
	"github.com/google/go-cmp/cmp"
)

type mustBuffer struct {
	t *testing.T
	*fragments.Buffer
}

func (b *mustBuffer) MustReceive(payload string, index, total int) {
	b.t.Helper()
	f := fragments.Fragment{Payload: payload, Index: index, Total: total}
	if err := b.Receive(f); err != nil {
		b.t.Fatalf("Receive(%v) got err: %v", f, err)
	}
	if testing.Verbose() {
		b.t.Logf("Receive(%v) ok, %d/%d", f, b.Received(), b.Total())
	}
}

func (b *mustBuffer) MustFail(payload string, index, total int, want error) {
	b.t.Helper()
	f := fragments.Fragment{Payload: payload, Index: index, Total: total}
	err := b.Receive(f)
	if !errors.Is(err, want) {
		b.t.Fatalf("Receive(%v) got err %v, want %v", f, err, want)
	}
	if testing.Verbose() {
		b.t.Logf("Receive(%v) = %v", f, err)
	}
}

func (b *mustBuffer) MustAssemble(want string) {
	b.t.Helper()
	if !b.IsComplete() {
		b.t.Fatalf("IsComplete() = false, missing %v", b.Missing())
	}
	got, err := b.Assembled()
	if err != nil {
		b.t.Fatalf("Assembled() got err: %v", err)
	}
	if got != want {
		b.t.Fatalf("Assembled() = %q, want %q", got, want)
	}
}

func TestNewFragment(t *testing.T) {
	tests := []struct {
		index, total int
		wantErr      bool
	}{
		{1, 2, false},
		{2, 2, false},
		{7, 9, false},
		{0, 3, true},
		{4, 3, true},
		{-1, 3, true},
		{1, 1, true},
		{1, 0, true},
		{1, fragments.MaxTotal, false},
		{1, fragments.MaxTotal + 1, true},
		{1, 1e14, true},
	}

	for _, tc := range tests {
		_, err := fragments.NewFragment("x", tc.index, tc.total)
		if gotErr := err != nil; gotErr != tc.wantErr {
			t.Errorf("NewFragment(%d, %d) got err %v, want err=%v", tc.index, tc.total, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, fragments.ErrIndex) {
			t.Errorf("NewFragment(%d, %d) got err %v, want ErrIndex", tc.index, tc.total, err)
		}
	}
}

func TestBufferInOrder(t *testing.T) {
	b := mustBuffer{t, &fragments.Buffer{}}
	b.MustReceive("a", 1, 3)
	b.MustReceive("b", 2, 3)
	if b.IsComplete() {
		t.Fatal("IsComplete() = true with 2 of 3 fragments")
	}
	if _, err := b.Assembled(); !errors.Is(err, fragments.ErrIncomplete) {
		t.Fatalf("Assembled() got err %v, want ErrIncomplete", err)
	}
	if diff := cmp.Diff(b.Missing(), []int{3}); diff != "" {
		t.Fatalf("Missing() diff (-got+want):\n%s", diff)
	}
	b.MustReceive("c", 3, 3)
	b.MustAssemble("abc")
}

func TestBufferRejects(t *testing.T) {
	b := mustBuffer{t, &fragments.Buffer{}}

	// Nothing is sized by a rejected first fragment.
	b.MustFail("a", 0, 3, fragments.ErrIndex)
	b.MustFail("a", 4, 3, fragments.ErrIndex)
	b.MustFail("a", 1, 1, fragments.ErrIndex)
	b.MustFail("a", 1, 1e14, fragments.ErrIndex)
	if got := b.Total(); got != 0 {
		t.Fatalf("Total() = %d after rejected fragments, want 0", got)
	}

	b.MustReceive("a", 1, 3)
	b.MustFail("b", 2, 4, fragments.ErrTotalMismatch)
	b.MustFail("z", 1, 3, fragments.ErrConsistency)
	b.MustReceive("a", 1, 3) // identical retransmission
	if got := b.Received(); got != 1 {
		t.Fatalf("Received() = %d, want 1", got)
	}

	b.MustReceive("b", 2, 3)
	b.MustReceive("c", 3, 3)
	b.MustAssemble("abc")

	// Complete transfers still refuse conflicting data.
	b.MustFail("x", 3, 3, fragments.ErrConsistency)
	b.MustAssemble("abc")
}

func TestBufferAnyPermutation(t *testing.T) {
	const payload = "The quick brown fox jumps over the lazy dog, twice over."
	rng := rand.New(rand.NewPCG(1, 2))

	for maxLen := 1; maxLen < len(payload); maxLen += 3 {
		chunks, err := fragments.Split(payload, maxLen)
		if err != nil {
			t.Fatal(err)
		}
		if len(chunks) < 2 {
			continue
		}
		for range 5 {
			b := mustBuffer{t, &fragments.Buffer{}}
			for _, i := range rng.Perm(len(chunks)) {
				b.MustReceive(chunks[i], i+1, len(chunks))
			}
			b.MustAssemble(payload)
		}
	}
}

func TestBufferEmptyAssemble(t *testing.T) {
	var b fragments.Buffer
	if b.IsComplete() {
		t.Fatal("zero Buffer IsComplete() = true")
	}
	if _, err := b.Assembled(); !errors.Is(err, fragments.ErrIncomplete) {
		t.Fatalf("Assembled() got err %v, want ErrIncomplete", err)
	}
	if got := b.Missing(); len(got) != 0 {
		t.Fatalf("Missing() = %v on unsized Buffer, want none", got)
	}
}
