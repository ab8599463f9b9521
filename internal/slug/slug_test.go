package slug

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type memoryIndex struct {
	taken map[string]bool
	err   error
}

func (m *memoryIndex) SlugExists(_ context.Context, slug string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.taken[slug], nil
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"Hello, World!", "hello-world"},
		{"  Leading and Trailing  ", "leading-and-trailing"},
		{"Crème Brûlée à Paris", "creme-brulee-a-paris"},
		{"UPPER lower 123", "upper-lower-123"},
		{"multiple---separators___here", "multiple-separators-here"},
		{"!!!", "post"},
		{"", "post"},
	}

	for _, tc := range cases {
		if got := Normalize(tc.title); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.title, got, tc.want)
		}
	}
}

func TestNormalizeBoundsLength(t *testing.T) {
	long := ""
	for i := 0; i < 30; i++ {
		long += "lengthy"
	}
	got := Normalize(long)
	if len(got) > 80 {
		t.Fatalf("expected slug capped at 80 bytes, got %d", len(got))
	}
	if got[len(got)-1] == '-' {
		t.Fatal("expected no trailing hyphen after truncation")
	}
}

func TestGenerateUsesBaseWhenFree(t *testing.T) {
	gen := NewGenerator(&memoryIndex{taken: map[string]bool{}})

	got, err := gen.Generate(context.Background(), "Hello, World!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello-world" {
		t.Fatalf("expected hello-world, got %q", got)
	}
}

func TestGenerateAppendsCounterOnCollision(t *testing.T) {
	index := &memoryIndex{taken: map[string]bool{
		"my-post":   true,
		"my-post-2": true,
	}}
	gen := NewGenerator(index)

	got, err := gen.Generate(context.Background(), "My Post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "my-post-3" {
		t.Fatalf("expected my-post-3, got %q", got)
	}
}

func TestGenerateExhaustsBudget(t *testing.T) {
	taken := map[string]bool{"busy": true}
	for i := 2; i <= 25; i++ {
		taken[fmt.Sprintf("busy-%d", i)] = true
	}
	gen := NewGenerator(&memoryIndex{taken: taken})

	_, err := gen.Generate(context.Background(), "Busy")
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestGeneratePropagatesIndexError(t *testing.T) {
	probeErr := errors.New("store unavailable")
	gen := NewGenerator(&memoryIndex{err: probeErr})

	_, err := gen.Generate(context.Background(), "Anything")
	if !errors.Is(err, probeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestNextAfterSkipsLostCandidate(t *testing.T) {
	index := &memoryIndex{taken: map[string]bool{"my-post": true}}
	gen := NewGenerator(index)

	// A concurrent writer claimed my-post between probe and insert.
	got, err := gen.NextAfter(context.Background(), "My Post", "my-post")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "my-post-2" {
		t.Fatalf("expected my-post-2, got %q", got)
	}

	index.taken["my-post-2"] = true
	got, err = gen.NextAfter(context.Background(), "My Post", "my-post-2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "my-post-3" {
		t.Fatalf("expected my-post-3, got %q", got)
	}
}
