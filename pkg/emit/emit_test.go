package emit

import (
	"bytes"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/inst"
)

func TestGoSourceParses(t *testing.T) {
	var buf bytes.Buffer
	if err := GoSource(&buf, Config{Package: "optable"}); err != nil {
		t.Fatal(err)
	}
	src := buf.String()

	f, err := parser.ParseFile(token.NewFileSet(), "optable.go", src, parser.ParseComments)
	if err != nil {
		t.Fatalf("generated source does not parse: %v", err)
	}
	if f.Name.Name != "optable" {
		t.Errorf("package = %s, want optable", f.Name.Name)
	}

	if !strings.HasPrefix(src, "// Code generated by sm83tab generate. DO NOT EDIT.") {
		t.Errorf("missing generated header:\n%s", src[:80])
	}
	for _, want := range []string{
		"var Primary = [256]inst.Descriptor{",
		"var Extended = [256]inst.Descriptor{",
		"func Cycles(op inst.Op) uint8 {",
		"func CyclesJmp(op inst.Op, taken bool) uint8 {",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("generated source missing %q", want)
		}
	}

	primary, extended, ok := strings.Cut(src, "var Extended")
	if !ok {
		t.Fatal("no Extended table")
	}
	tests := []struct {
		section string
		literal string
		comment string
	}{
		{primary, "0x00: {Op: inst.NOP},", "// NOP"},
		{primary, "0x20: {Op: inst.JP_REL_COND, Mode: inst.CondOperand, Cond: inst.NZ, Imm: inst.Imm8},", "// JR NZ, e"},
		{primary, "0x06: {Op: inst.LD8_IMM, Mode: inst.RegOperands, Dest: inst.R8(inst.B), Imm: inst.Imm8},", "// LD B, n"},
		{primary, "0xD8: {Op: inst.RET_COND, Mode: inst.CondOperand, Cond: inst.CY},", "// RET C"},
		{primary, "0xFF: {Op: inst.RST, Mode: inst.TargetOperand, Target: 0x38},", "// RST 38h"},
		{primary, "0x2A: {Op: inst.LD8_IND, Mode: inst.RegOperands, Dest: inst.R8(inst.A), Ptr: inst.PtrHLI},", "// LD A, (HL+)"},
		{extended, "0x46: {Op: inst.BIT_IND, Ptr: inst.PtrHL, Bit: 0, HasBit: true},", "// BIT 0, (HL)"},
		{extended, "0x00: {Op: inst.RLC, Mode: inst.RegOperands, Src: inst.R8(inst.B)},", "// RLC B"},
	}
	for _, tt := range tests {
		line := lineContaining(tt.section, tt.literal)
		if line == "" {
			t.Errorf("generated source missing %q", tt.literal)
			continue
		}
		if !strings.HasSuffix(line, tt.comment) {
			t.Errorf("line %q: want comment %q", line, tt.comment)
		}
	}
}

func lineContaining(src, s string) string {
	for _, line := range strings.Split(src, "\n") {
		if strings.Contains(line, s) {
			return line
		}
	}
	return ""
}

func TestGoSourceDeterministic(t *testing.T) {
	var a, b bytes.Buffer
	if err := GoSource(&a, Config{}); err != nil {
		t.Fatal(err)
	}
	if err := GoSource(&b, Config{}); err != nil {
		t.Fatal(err)
	}
	if a.String() != b.String() {
		t.Error("two generations differ")
	}
}

// TestDispatchFallthrough checks that the generated dispatch functions never
// hand back a zero cost for an op they do not know.
func TestDispatchFallthrough(t *testing.T) {
	var buf bytes.Buffer
	if err := GoSource(&buf, Config{}); err != nil {
		t.Fatal(err)
	}
	f, err := parser.ParseFile(token.NewFileSet(), "optable.go", buf.Bytes(), 0)
	if err != nil {
		t.Fatal(err)
	}

	isPanic := func(s ast.Stmt) bool {
		es, ok := s.(*ast.ExprStmt)
		if !ok {
			return false
		}
		call, ok := es.X.(*ast.CallExpr)
		if !ok {
			return false
		}
		id, ok := call.Fun.(*ast.Ident)
		return ok && id.Name == "panic"
	}

	panics := map[string]int{}
	for _, decl := range f.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || (fn.Name.Name != "Cycles" && fn.Name.Name != "CyclesJmp") {
			continue
		}
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			switch n := n.(type) {
			case *ast.ReturnStmt:
				if lit, ok := n.Results[0].(*ast.BasicLit); ok && lit.Value == "0" {
					t.Errorf("%s returns 0", fn.Name.Name)
				}
			case *ast.BlockStmt:
				if len(n.List) > 0 && isPanic(n.List[len(n.List)-1]) {
					panics[fn.Name.Name]++
				}
			}
			return true
		})
	}
	// CyclesJmp has one fallthrough per branch outcome.
	if panics["Cycles"] != 1 || panics["CyclesJmp"] != 2 {
		t.Errorf("unknown-op panics = %v, want Cycles:1 CyclesJmp:2", panics)
	}
}

func TestGoSourceLogsBuckets(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	if err := GoSource(&bytes.Buffer{}, Config{Logger: logger}); err != nil {
		t.Fatal(err)
	}
	tab := cycles.Default()
	want := len(mergeBuckets(tab.Buckets(cycles.Base), tab.Buckets(cycles.NotTaken))) +
		len(tab.Buckets(cycles.Taken)) + len(tab.Buckets(cycles.NotTaken))
	buckets := 0
	for _, e := range hook.AllEntries() {
		if e.Message == "bucket" {
			buckets++
		}
	}
	if buckets != want {
		t.Errorf("logged %d buckets, want %d", buckets, want)
	}
}

func TestMergeBuckets(t *testing.T) {
	sig := func(op inst.Op) []cycles.Signature { return []cycles.Signature{{Op: op}} }
	a := []cycles.Bucket{{Cycles: 1, Signatures: sig(inst.NOP)}, {Cycles: 3, Signatures: sig(inst.LD16_IMM)}}
	b := []cycles.Bucket{{Cycles: 2, Signatures: sig(inst.JP_REL_COND)}, {Cycles: 3, Signatures: sig(inst.JP_COND)}}

	got := mergeBuckets(a, b)
	if len(got) != 3 {
		t.Fatalf("got %d buckets, want 3", len(got))
	}
	for i, c := range []uint8{1, 2, 3} {
		if got[i].Cycles != c {
			t.Errorf("bucket %d cost %d, want %d", i, got[i].Cycles, c)
		}
	}
	if s := got[2].Signatures; len(s) != 2 || s[0].Op != inst.LD16_IMM || s[1].Op != inst.JP_COND {
		t.Errorf("merged bucket = %v", s)
	}
}

func TestListing(t *testing.T) {
	var buf bytes.Buffer
	if err := Listing(&buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+512 {
		t.Fatalf("got %d lines, want 513", len(lines))
	}
	checks := map[int][]string{
		1:              {"0x00", "NOP", "None", "1"},
		1 + 0x20:       {"0x20", "JR NZ, e", "JP_REL_COND", "IMM8", "2/3"},
		1 + 0xCB:       {"0xCB", "PREFIX CB", "-"},
		1 + 0xD3:       {"0xD3", "???", "INVALID"},
		1 + 256:        {"CB 0x00", "RLC B", "2"},
		1 + 256 + 0x46: {"CB 0x46", "BIT 0, (HL)", "BIT_IND", "4"},
	}
	for i, parts := range checks {
		for _, p := range parts {
			if !strings.Contains(lines[i], p) {
				t.Errorf("line %d %q missing %q", i, lines[i], p)
			}
		}
	}
}

func TestBuckets(t *testing.T) {
	var buf bytes.Buffer
	if err := Buckets(&buf, cycles.Default()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[base]", "[taken]", "[not-taken]", "NOP", "JP_REL_COND*", "CALL_COND*"} {
		if !strings.Contains(out, want) {
			t.Errorf("bucket output missing %q", want)
		}
	}
}
