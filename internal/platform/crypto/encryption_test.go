package crypto

import (
	"bytes"
	"testing"
)

func TestSealOpenRoundTripBoundToKey(t *testing.T) {
	svc, err := New("0123456789abcdef0123456789abcdef")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !svc.Configured() {
		t.Fatal("expected configured service")
	}

	plain := []byte("%PDF-1.4 payslip")
	sealed, err := svc.Seal("payroll/r1.pdf", plain)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed bytes should not contain plaintext")
	}

	opened, err := svc.Open("payroll/r1.pdf", sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("unexpected plaintext %q", opened)
	}

	if _, err := svc.Open("payroll/r2.pdf", sealed); err == nil {
		t.Fatal("expected open under a different object key to fail")
	}
}

func TestUnconfiguredPassesThrough(t *testing.T) {
	svc, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sealed, err := svc.Seal("k", []byte("data"))
	if err != nil || string(sealed) != "data" {
		t.Fatalf("expected passthrough, got %q %v", sealed, err)
	}
}

func TestNewRejectsShortKey(t *testing.T) {
	if _, err := New("short"); err == nil {
		t.Fatal("expected error for short key")
	}
}
