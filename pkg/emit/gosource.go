// Package emit renders the opcode tables and cycle buckets as Go source or as
// a plain-text listing.
package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/inst"
)

const instImport = "github.com/oisee/sm83-optable/pkg/inst"

// Config controls Go source generation.
type Config struct {
	Package   string             // package clause of the generated file
	Generator string             // named in the "Code generated" header
	Logger    logrus.FieldLogger // nil discards
	Table     *cycles.Table      // nil uses cycles.Default()
}

func (cfg Config) withDefaults() Config {
	if cfg.Package == "" {
		cfg.Package = "optable"
	}
	if cfg.Generator == "" {
		cfg.Generator = "sm83tab generate"
	}
	if cfg.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	if cfg.Table == nil {
		cfg.Table = cycles.Default()
	}
	return cfg
}

type generator struct {
	buf bytes.Buffer
	log logrus.FieldLogger
}

func (g *generator) printf(format string, args ...any) {
	fmt.Fprintf(&g.buf, format, args...)
	g.buf.WriteByte('\n')
}

// GoSource writes a gofmt'ed Go file declaring Primary and Extended descriptor
// arrays and the Cycles / CyclesJmp dispatch functions.
func GoSource(w io.Writer, cfg Config) error {
	cfg = cfg.withDefaults()
	g := &generator{log: cfg.Logger}

	g.printf("// Code generated by %s. DO NOT EDIT.", cfg.Generator)
	g.printf("")
	g.printf("package %s", cfg.Package)
	g.printf("")
	g.printf("import %q", instImport)
	g.printf("")

	g.table("Primary", "primary opcode", inst.PrimaryTable())
	g.table("Extended", "CB-prefixed opcode", inst.ExtendedTable())
	g.cycles(cfg.Table)
	g.cyclesJmp(cfg.Table)

	src, err := format.Source(g.buf.Bytes())
	if err != nil {
		return fmt.Errorf("gofmt generated source: %w", err)
	}
	g.log.WithField("bytes", len(src)).Debug("generated Go source")
	_, err = w.Write(src)
	return err
}

func (g *generator) table(name, what string, tab [256]inst.Entry) {
	g.printf("// %s maps each %s byte to its descriptor.", name, what)
	g.printf("var %s = [256]inst.Descriptor{", name)
	for _, e := range tab {
		g.printf("0x%02X: %s, // %s", e.Code, literal(e.Desc), e.Desc)
	}
	g.printf("}")
	g.printf("")
}

// cycles emits one case per cost: non-branch buckets merged with the
// not-taken branch buckets, by ascending cost.
func (g *generator) cycles(t *cycles.Table) {
	merged := mergeBuckets(t.Buckets(cycles.Base), t.Buckets(cycles.NotTaken))

	g.printf("// Cycles returns the cost of op in machine cycles; for control transfers,")
	g.printf("// the cost when the branch is not taken. It panics on an op without a cost.")
	g.printf("func Cycles(op inst.Op) uint8 {")
	g.switchBuckets(merged, "base")
	g.unknownOp()
	g.printf("}")
	g.printf("")
}

func (g *generator) cyclesJmp(t *cycles.Table) {
	g.printf("// CyclesJmp returns the cost of control transfer op given the branch outcome.")
	g.printf("// It panics on an op that never transfers control.")
	g.printf("func CyclesJmp(op inst.Op, taken bool) uint8 {")
	g.printf("if taken {")
	g.switchBuckets(t.Buckets(cycles.Taken), cycles.Taken.String())
	g.unknownOp()
	g.printf("}")
	g.switchBuckets(t.Buckets(cycles.NotTaken), cycles.NotTaken.String())
	g.unknownOp()
	g.printf("}")
}

// unknownOp ends a dispatch function; only an op without a cost reaches it.
func (g *generator) unknownOp() {
	g.printf("panic(\"unknown op \" + op.String())")
}

func (g *generator) switchBuckets(buckets []cycles.Bucket, kind string) {
	if len(buckets) == 0 {
		return
	}
	g.printf("switch op {")
	for _, b := range buckets {
		names := make([]string, len(b.Signatures))
		for i, s := range b.Signatures {
			names[i] = "inst." + s.Op.String()
		}
		g.log.WithFields(logrus.Fields{
			"kind":   kind,
			"cycles": b.Cycles,
			"ops":    len(names),
		}).Debug("bucket")
		g.printf("case %s:", strings.Join(names, ", "))
		g.printf("return %d", b.Cycles)
	}
	g.printf("}")
}

// mergeBuckets combines bucket lists by cost, keeping ascending order and the
// order of signatures within each input.
func mergeBuckets(a, b []cycles.Bucket) []cycles.Bucket {
	var out []cycles.Bucket
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || i < len(a) && a[i].Cycles < b[j].Cycles:
			out = append(out, a[i])
			i++
		case i == len(a) || b[j].Cycles < a[i].Cycles:
			out = append(out, b[j])
			j++
		default:
			sigs := append(append([]cycles.Signature{}, a[i].Signatures...), b[j].Signatures...)
			out = append(out, cycles.Bucket{Cycles: a[i].Cycles, Signatures: sigs})
			i++
			j++
		}
	}
	return out
}

// literal renders d as a composite literal, omitting zero fields.
func literal(d inst.Descriptor) string {
	fields := []string{"Op: inst." + d.Op.String()}
	if d.Mode != inst.NoOperands {
		fields = append(fields, "Mode: inst."+d.Mode.String())
	}
	if !d.Dest.IsZero() {
		fields = append(fields, "Dest: "+regLiteral(d.Dest))
	}
	if !d.Src.IsZero() {
		fields = append(fields, "Src: "+regLiteral(d.Src))
	}
	if d.Ptr != inst.PtrNone {
		fields = append(fields, "Ptr: inst."+ptrNames[d.Ptr])
	}
	if d.Mode == inst.CondOperand {
		fields = append(fields, "Cond: inst."+condNames[d.Cond])
	}
	if d.Target != 0 {
		fields = append(fields, fmt.Sprintf("Target: 0x%02X", d.Target))
	}
	if d.HasBit {
		fields = append(fields, fmt.Sprintf("Bit: %d, HasBit: true", d.Bit))
	}
	if d.Imm != inst.ImmNone {
		fields = append(fields, "Imm: inst."+immNames[d.Imm])
	}
	return "{" + strings.Join(fields, ", ") + "}"
}

func regLiteral(r inst.Reg) string {
	if r8, ok := r.Reg8(); ok {
		return "inst.R8(inst." + r8.String() + ")"
	}
	r16, _ := r.Reg16()
	return "inst.R16(inst." + r16.String() + ")"
}

// Identifier names of the inst constants whose String forms are assembly text.
var (
	ptrNames = map[inst.Ptr]string{
		inst.PtrBC:      "PtrBC",
		inst.PtrDE:      "PtrDE",
		inst.PtrHL:      "PtrHL",
		inst.PtrHLI:     "PtrHLI",
		inst.PtrHLD:     "PtrHLD",
		inst.PtrImm16:   "PtrImm16",
		inst.PtrHighC:   "PtrHighC",
		inst.PtrHighImm: "PtrHighImm",
	}
	condNames = map[inst.Cond]string{inst.NZ: "NZ", inst.Z: "Z", inst.NC: "NC", inst.CY: "CY"}
	immNames  = map[inst.Immediate]string{inst.Imm8: "Imm8", inst.Imm16: "Imm16"}
)
