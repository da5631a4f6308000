package bloomindex

import "testing"

func TestNewRejectsSizeNotMultipleOf64(t *testing.T) {
	if _, err := New(100, 4); err != ErrInvalidSize {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
}

func TestNewAcceptsMultipleOf64(t *testing.T) {
	idx, err := New(1024, 4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if idx.Cap() != 1024 {
		t.Errorf("cap = %d, want 1024", idx.Cap())
	}
}

func TestAddAndTest(t *testing.T) {
	idx, err := New(1024, 4)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	idx.Add([]byte("present"))
	if !idx.Test([]byte("present")) {
		t.Errorf("expected present to test positive")
	}
}

func TestNewWithEstimatesNeverFails(t *testing.T) {
	idx := NewWithEstimates(1000, 0.01)
	idx.Add([]byte("k"))
	if !idx.Test([]byte("k")) {
		t.Errorf("expected k to test positive")
	}
}
