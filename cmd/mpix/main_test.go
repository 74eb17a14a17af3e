package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var binaryPath string

func TestMain(m *testing.M) {
	tmp, err := os.MkdirTemp("", "mpix-test-bin-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "mpix")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	if err := cmd.Run(); err != nil {
		binaryPath = ""
	}
	os.Exit(m.Run())
}

func skipIfNoBinary(t *testing.T) {
	t.Helper()
	if binaryPath == "" {
		t.Skip("mpix binary not built; skipping")
	}
}

func writeRawRGB(t *testing.T, dir string, w, h int) string {
	t.Helper()
	buf := make([]byte, w*h*3)
	for i := range buf {
		buf[i] = byte(i % 251)
	}
	path := filepath.Join(dir, "input.rgb")
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadResizeConvertWritePipeline(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := writeRawRGB(t, dir, 8, 8)
	out := filepath.Join(dir, "out.raw")

	cmd := exec.Command(binaryPath,
		"read", in, "8x8", "rgb3", "!",
		"resize", "4", "4", "!",
		"convert", "grey", "!",
		"write", out,
	)
	if outBytes, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("mpix failed: %v\n%s", err, outBytes)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 4*4 {
		t.Fatalf("expected %d bytes, got %d", 4*4, len(data))
	}
}

func TestUnknownOpFails(t *testing.T) {
	skipIfNoBinary(t)
	dir := t.TempDir()
	in := writeRawRGB(t, dir, 4, 4)
	out := filepath.Join(dir, "out.raw")

	cmd := exec.Command(binaryPath, "read", in, "4x4", "rgb3", "!", "frobnicate", "!", "write", out)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected failure for an unrecognised op")
	}
}
