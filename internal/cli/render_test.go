// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"
	"testing"
)

// captureStdout runs fn and returns everything it printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()
	w.Close()

	buf := make([]byte, 64*1024)
	n, _ := r.Read(buf)
	return string(buf[:n])
}

func TestStreamPrinterGrowth(t *testing.T) {
	var p StreamPrinter
	out := captureStdout(t, func() {
		p.Print("Hel")
		p.Print("Hello")
		p.Print("Hello, world")
	})
	if out != "Hello, world" {
		t.Errorf("output = %q, want %q", out, "Hello, world")
	}
	if p.Printed() != "Hello, world" {
		t.Errorf("Printed() = %q", p.Printed())
	}
}

func TestStreamPrinterRepeat(t *testing.T) {
	var p StreamPrinter
	out := captureStdout(t, func() {
		p.Print("same")
		p.Print("same")
	})
	if out != "same" {
		t.Errorf("output = %q, want %q", out, "same")
	}
}

func TestStreamPrinterRewrite(t *testing.T) {
	// A thinking block closing rewrites the visible text entirely.
	var p StreamPrinter
	out := captureStdout(t, func() {
		p.Print("<think>working")
		p.Print("The answer")
	})
	if out != "<think>working\nThe answer" {
		t.Errorf("output = %q", out)
	}
}

func TestStreamPrinterReset(t *testing.T) {
	var p StreamPrinter
	out := captureStdout(t, func() {
		p.Print("first")
		p.Reset()
		p.Print("second")
	})
	if out != "firstsecond" {
		t.Errorf("output = %q", out)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{4683087332, "4.4 GB"},
	}
	for _, tt := range tests {
		if got := formatSize(tt.bytes); got != tt.want {
			t.Errorf("formatSize(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}
