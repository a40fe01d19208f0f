package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "record not found")
		if !HasCode(err, CodeNotFound) {
			t.Fatalf("expected CodeNotFound to match")
		}
		if HasCode(err, CodeInternal) {
			t.Fatalf("did not expect CodeInternal to match")
		}
	})

	t.Run("wrapped code", func(t *testing.T) {
		inner := New(CodeNotFound, "record not found")
		outer := Wrap(inner, CodeInternal, "lookup failed")
		if !HasCode(outer, CodeInternal) {
			t.Fatalf("expected outer code to match")
		}
		if !HasCode(outer, CodeNotFound) {
			t.Fatalf("expected inner code to match through the chain")
		}
	})

	t.Run("fmt wrapped", func(t *testing.T) {
		err := fmt.Errorf("query: %w", New(CodeInvariantViolation, "self approval"))
		if !HasCode(err, CodeInvariantViolation) {
			t.Fatalf("expected code to match through fmt.Errorf wrapping")
		}
	})

	t.Run("plain error", func(t *testing.T) {
		if HasCode(errors.New("boom"), CodeInternal) {
			t.Fatalf("plain errors carry no code")
		}
	})
}

func TestWrapNil(t *testing.T) {
	if err := Wrap(nil, CodeInternal, "ignored"); err != nil {
		t.Fatalf("wrapping nil should yield nil, got %v", err)
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(New(CodeValidation, "bad")); got != CodeValidation {
		t.Fatalf("expected CodeValidation, got %s", got)
	}
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Fatalf("uncoded errors default to CodeInternal, got %s", got)
	}
}
