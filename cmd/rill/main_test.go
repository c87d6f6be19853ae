package main

import (
	"bytes"
	"os"
	"testing"
)

func TestRunBuiltinExecDispatchesEcho(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	origStdout := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = origStdout }()

	code := runBuiltinExec([]string{"echo", "hi", "there"})
	w.Close()

	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	var buf bytes.Buffer
	buf.ReadFrom(r)
	if got := buf.String(); got != "hi there\n" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestRunBuiltinExecMissingNameErrors(t *testing.T) {
	if code := runBuiltinExec(nil); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}
