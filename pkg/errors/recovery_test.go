package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TreeInduction")
		panic("split on empty node")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "TreeInduction" {
		t.Errorf("Operation = %q, want %q", panicErr.Operation, "TreeInduction")
	}
	if panicErr.PanicValue != "split on empty node" {
		t.Errorf("PanicValue = %v, want %q", panicErr.PanicValue, "split on empty node")
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	wantMsg := "panic in TreeInduction: split on empty node"
	if panicErr.Error() != wantMsg {
		t.Errorf("Error() = %q, want %q", panicErr.Error(), wantMsg)
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TreeInduction")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := fmt.Errorf("bootstrap draw failed")

	testFunc := func() (err error) {
		defer Recover(&err, "EnsembleFit")
		err = originalErr
		panic("worker died")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "panic in EnsembleFit") {
		t.Errorf("Error message should contain panic info: %s", msg)
	}
	if !errors.Is(err, originalErr) {
		t.Errorf("Recovered error should wrap the original error: %v", err)
	}
}

func TestRecover_PanicValueTypes(t *testing.T) {
	tests := []struct {
		name  string
		value interface{}
	}{
		{"String", "string panic"},
		{"Error", fmt.Errorf("error panic")},
		{"Int", 42},
		{"Struct", struct{ Msg string }{"typed panic"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFunc := func() (err error) {
				defer Recover(&err, "TypedPanic")
				panic(tt.value)
			}

			err := testFunc()
			if err == nil {
				t.Fatal("Expected error from recovered panic, got nil")
			}
			var panicErr *PanicError
			if !errors.As(err, &panicErr) {
				t.Fatalf("Expected PanicError, got %T", err)
			}
			if fmt.Sprintf("%v", panicErr.PanicValue) != fmt.Sprintf("%v", tt.value) {
				t.Errorf("PanicValue = %v, want %v", panicErr.PanicValue, tt.value)
			}
		})
	}
}

func TestSafeExecute_WithPanic(t *testing.T) {
	err := SafeExecute("VoteTally", func() error {
		panic("tally out of range")
	})

	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}
	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "VoteTally" {
		t.Errorf("Operation = %q, want %q", panicErr.Operation, "VoteTally")
	}
}

func TestSafeExecute_WithError(t *testing.T) {
	wantErr := fmt.Errorf("plain failure")
	err := SafeExecute("VoteTally", func() error {
		return wantErr
	})
	if err != wantErr {
		t.Errorf("SafeExecute() error = %v, want %v", err, wantErr)
	}
}

func TestSafeExecute_Success(t *testing.T) {
	if err := SafeExecute("VoteTally", func() error { return nil }); err != nil {
		t.Errorf("SafeExecute() error = %v, want nil", err)
	}
}

func TestPanicError_String(t *testing.T) {
	panicErr := NewPanicError("StringTest", "detail")
	s := panicErr.String()
	if !strings.Contains(s, "panic in StringTest: detail") {
		t.Errorf("String() missing header: %s", s)
	}
	if !strings.Contains(s, "Stack trace:") {
		t.Errorf("String() missing stack trace section: %s", s)
	}
}
