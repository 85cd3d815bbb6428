package sha256

import "testing"

func TestHashKnownVector(t *testing.T) {
	t.Parallel()

	h := New()
	got := h.Hash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("Hash(abc) = %q, want %q", got, want)
	}
}

func TestCandidateIDStable(t *testing.T) {
	t.Parallel()

	h := New()
	url := "https://example.com/article?id=1"
	first := h.CandidateID(url)
	second := h.CandidateID(url)
	if first != second {
		t.Fatalf("CandidateID not stable: %q vs %q", first, second)
	}
	if len(first) != idLen {
		t.Fatalf("CandidateID length = %d, want %d", len(first), idLen)
	}
}

func TestCandidateIDDistinguishesURLs(t *testing.T) {
	t.Parallel()

	h := New()
	if h.CandidateID("https://example.com/a") == h.CandidateID("https://example.com/b") {
		t.Fatal("expected distinct IDs for distinct URLs")
	}
}
