package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/result"
)

func TestParseImmediate(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"0x20", 0x20, true},
		{"0XCB", 0xCB, true},
		{"20h", 0x20, true},
		{"0FFh", 0xFF, true},
		{"$c3", 0xC3, true},
		{"32", 32, true},
		{" 7 ", 7, true},
		{"0x0100", 0x100, true},
		{"", 0, false},
		{"0x", 0, false},
		{"h", 0, false},
		{"zz", 0, false},
		{"0x10000", 0, false},
	}
	for _, tt := range tests {
		got, err := parseImmediate(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseImmediate(%q) err = %v, want ok=%v", tt.in, err, tt.ok)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseImmediate(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}

	if _, err := parseByte("0x100"); err == nil {
		t.Error("parseByte accepted 0x100")
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCyclesCommand(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"cycles", "0x00"}, "NOP: 1"},
		{[]string{"cycles", "20h"}, "JR NZ, e: 2"},
		{[]string{"cycles", "--taken", "0x20"}, "JR NZ, e: 3"},
		{[]string{"cycles", "$CD", "--taken"}, "CALL nn: 6"},
		{[]string{"cycles", "--ext", "0x46"}, "BIT 0, (HL): 4"},
		{[]string{"cycles", "--ext", "0x40"}, "BIT 0, B: 2"},
	}
	for _, tt := range tests {
		out, err := run(t, tt.args...)
		if err != nil {
			t.Errorf("%v: %v", tt.args, err)
			continue
		}
		if strings.TrimSpace(out) != tt.want {
			t.Errorf("%v: got %q, want %q", tt.args, out, tt.want)
		}
	}

	if _, err := run(t, "cycles", "0xD3"); err == nil {
		t.Error("cycles on an invalid opcode succeeded")
	}
	if _, err := run(t, "cycles", "nope"); err == nil {
		t.Error("cycles with a bad byte succeeded")
	}
}

func TestDumpCommand(t *testing.T) {
	out, err := run(t, "dump", "0x76")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "HALT\n") || !strings.Contains(out, "inst.Entry") {
		t.Errorf("unexpected dump:\n%s", out)
	}
}

func TestGenerateAndVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if _, err := run(t, "generate", "--format", "json", "-o", path); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "verify", path)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.HasPrefix(out, "OK ") {
		t.Errorf("verify output %q", out)
	}

	s, err := result.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Primary[0x76].Cycles = 4
	if err := result.SaveFile(path, s); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "verify", path)
	if err == nil {
		t.Error("verify accepted a modified snapshot")
	}
	if !strings.Contains(out, "primary 0x76") {
		t.Errorf("verify did not report the changed entry:\n%s", out)
	}
}

func TestGenerateFormats(t *testing.T) {
	out, err := run(t, "generate", "--package", "gbtab")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "package gbtab") {
		t.Error("generated Go source has wrong package")
	}

	out, err = run(t, "generate", "-f", "listing")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "JR NZ, e") {
		t.Error("listing missing JR NZ, e")
	}

	if _, err := run(t, "generate", "-f", "yaml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestGenerateToFile(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []string{"go", "listing", "json"} {
		path := filepath.Join(dir, "tables."+format)
		out, err := run(t, "generate", "-f", format, "-o", path)
		if err != nil {
			t.Fatalf("%s: %v", format, err)
		}
		if out != "" {
			t.Errorf("%s: wrote to stdout as well:\n%s", format, out)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if len(data) == 0 {
			t.Errorf("%s: empty output file", format)
		}
	}

	if _, err := result.LoadFile(filepath.Join(dir, "tables.json")); err != nil {
		t.Errorf("json output does not load: %v", err)
	}

	missing := filepath.Join(dir, "no-such-dir", "tables.go")
	for _, format := range []string{"go", "json"} {
		if _, err := run(t, "generate", "-f", format, "-o", missing); err == nil {
			t.Errorf("%s: writing into a missing directory succeeded", format)
		}
	}
}

func TestBucketsCommand(t *testing.T) {
	out, err := run(t, "buckets")
	if err != nil {
		t.Fatal(err)
	}
	if n := strings.Count(out, "["); n != 3 {
		t.Errorf("got %d sections, want 3", n)
	}
	if len(cycles.Default().Buckets(cycles.Base)) == 0 {
		t.Error("no base buckets")
	}
}

func TestDisasmCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "boot.bin")
	code := []byte{0x31, 0xFE, 0xFF, 0xAF, 0x21, 0xFF, 0x9F, 0x32, 0xCB, 0x7C, 0x20, 0xFB}
	if err := os.WriteFile(path, code, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "disasm", "--origin", "0x100", path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"0100  31 FE FF", "LD SP, 0FFFEh", "0108  CB 7C", "BIT 7, H", "JR NZ, -05h", "2/3", "-> 0107h"} {
		if !strings.Contains(out, want) {
			t.Errorf("disasm output missing %q:\n%s", want, out)
		}
	}

	// A truncated tail is reported, not fatal.
	if err := os.WriteFile(path, []byte{0x00, 0x3E}, 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = run(t, "disasm", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "0000  00") {
		t.Errorf("disasm output %q", out)
	}
}
