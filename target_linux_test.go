//go:build linux

package blkcopy

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

func TestOpenTargetRejectsRegularFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	if err := os.WriteFile(path, make([]byte, 1<<20), 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := OpenTarget(path)
	if err == nil {
		t.Fatal("expected error for regular file")
	}
	if !IsCode(err, ErrCodeInvalidTarget) {
		t.Errorf("err = %v, want invalid-target", err)
	}
	if !IsErrno(err, syscall.EINVAL) {
		t.Errorf("err = %v, want EINVAL", err)
	}
}

func TestOpenTargetMissingPath(t *testing.T) {
	_, err := OpenTarget(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if !IsErrno(err, syscall.ENOENT) {
		t.Errorf("err = %v, want ENOENT", err)
	}
}

func TestOpenTargetBlockDevice(t *testing.T) {
	// Needs a real block device and root; loop0 is the usual candidate.
	const dev = "/dev/loop0"
	if _, err := os.Stat(dev); err != nil {
		t.Skipf("no %s available", dev)
	}

	target, err := OpenTarget(dev)
	if err != nil {
		t.Skipf("cannot open %s: %v", dev, err)
	}
	defer target.Close()

	if target.Path() != dev {
		t.Errorf("Path() = %q, want %q", target.Path(), dev)
	}
	if target.Size() < 0 {
		t.Errorf("Size() = %d, want >= 0", target.Size())
	}
	if target.Fd() == 0 {
		t.Error("Fd() should be a real descriptor")
	}

	// Close must be idempotent.
	if err := target.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := target.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
