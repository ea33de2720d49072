package httpapi

import (
	"testing"
	"time"
)

func TestSetMaxBodyBytes_DefaultWhenNonPositive(t *testing.T) {
	SetMaxBodyBytes(-1)
	if maxBodyBytes != 1<<20 {
		t.Fatalf("expected default 1MiB, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(1234)
	if maxBodyBytes != 1234 {
		t.Fatalf("expected 1234, got %d", maxBodyBytes)
	}
	SetMaxBodyBytes(0)
}

func TestSetRunTimeout_NormalizesNegativeToZero(t *testing.T) {
	SetRunTimeout(-5 * time.Second)
	if runTimeout != 0 {
		t.Fatalf("expected 0, got %s", runTimeout)
	}
	SetRunTimeout(3 * time.Second)
	if runTimeout != 3*time.Second {
		t.Fatalf("expected 3s, got %s", runTimeout)
	}
	SetRunTimeout(0)
}
