package rdf

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{nil, ""},
		{fmt.Errorf("store: %w", ErrConfiguration), ErrCodeConfiguration},
		{&ConstructError{Construct: "@list"}, ErrCodeUnsupportedConstruct},
		{fmt.Errorf("loader: %w", ErrDocumentFetch), ErrCodeDocumentFetch},
		{fmt.Errorf("query: %w", ErrMalformedCriteria), ErrCodeMalformedCriteria},
		{fmt.Errorf("op: %w", context.Canceled), ErrCodeContextCanceled},
		{context.DeadlineExceeded, ErrCodeContextCanceled},
		{errors.New("boom"), ErrCodeInternal},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestConstructErrorExcerpt(t *testing.T) {
	err := &ConstructError{
		Construct: "@list",
		Fragment:  map[string]any{"@list": []any{map[string]any{"@value": "a"}}},
	}
	if !errors.Is(err, ErrUnsupportedConstruct) {
		t.Fatal("expected ConstructError to wrap ErrUnsupportedConstruct")
	}
	msg := err.Error()
	if !strings.Contains(msg, "@list") || !strings.Contains(msg, `"@value":"a"`) {
		t.Fatalf("unexpected message: %s", msg)
	}

	long := &ConstructError{Construct: "@list", Fragment: strings.Repeat("x", 500)}
	if !strings.HasSuffix(long.Error(), "...") {
		t.Fatalf("expected truncated excerpt: %s", long.Error())
	}

	var ce *ConstructError
	if !errors.As(fmt.Errorf("insert: %w", err), &ce) || ce.Construct != "@list" {
		t.Fatal("expected errors.As to find ConstructError")
	}
}
