package fsutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestExpandHome(t *testing.T) {
	// Set a deterministic HOME for the duration of this test so we never skip.
	origHome, hadHome := os.LookupEnv("HOME")
	origUserProfile, hadUserProfile := os.LookupEnv("USERPROFILE")
	t.Cleanup(func() {
		if hadHome {
			_ = os.Setenv("HOME", origHome)
		} else {
			_ = os.Unsetenv("HOME")
		}
		if hadUserProfile {
			_ = os.Setenv("USERPROFILE", origUserProfile)
		} else {
			_ = os.Unsetenv("USERPROFILE")
		}
	})

	home := t.TempDir()
	// Configure both env vars for cross-platform behavior of os.UserHomeDir.
	_ = os.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		_ = os.Setenv("USERPROFILE", home)
	}
	// raw path unaffected
	if got, err := ExpandHome("/tmp"); err != nil || got != "/tmp" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// empty path
	if got, err := ExpandHome(""); err != nil || got != "" {
		t.Fatalf("got %q err=%v", got, err)
	}
	// ~ expansion
	p, err := ExpandHome("~")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if p != home {
		t.Fatalf("expected %q, got %q", home, p)
	}
	// ~/subdir
	sub := "test-sub"
	exp, err := ExpandHome("~/" + sub)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if runtime.GOOS == "windows" {
		if filepath.Base(exp) != sub {
			t.Fatalf("unexpected expanded path: %q", exp)
		}
	} else {
		expected := filepath.Join(home, sub)
		if exp != expected {
			t.Fatalf("expected %q, got %q", expected, exp)
		}
	}
}

func TestDirSize(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, n := range map[string]int{"a.bin": 10, "sub/b.bin": 5, "notes.txt": 100} {
		if err := os.WriteFile(filepath.Join(root, name), make([]byte, n), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	total, files, err := DirSize(root, func(name string) bool { return filepath.Ext(name) == ".bin" })
	if err != nil {
		t.Fatalf("dir size: %v", err)
	}
	if total != 15 || files != 2 {
		t.Fatalf("got %d bytes in %d files, want 15 in 2", total, files)
	}
	all, _, err := DirSize(root, nil)
	if err != nil || all != 115 {
		t.Fatalf("got %d, %v; want 115", all, err)
	}
	if _, _, err := DirSize(filepath.Join(root, "missing"), nil); err == nil {
		t.Fatalf("expected error for missing root")
	}
}
