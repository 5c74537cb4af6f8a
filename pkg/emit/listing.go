package emit

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/inst"
)

// Listing writes both tables as aligned text, one opcode per line:
//
//	0x20  JR NZ, e    IMM8   2/3
//
// Extended opcodes are prefixed "CB ".
func Listing(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tINSTRUCTION\tOP\tIMM\tCYCLES")
	for _, e := range inst.Entries() {
		code := fmt.Sprintf("0x%02X", e.Code)
		if e.Extended {
			code = "CB " + code
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", code, e.Desc, e.Desc.Op, e.Desc.Imm, costText(e.Cost))
	}
	return tw.Flush()
}

// Buckets writes the three dispatch structures of t, one bucket per line.
func Buckets(w io.Writer, t *cycles.Table) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	for _, k := range []cycles.Kind{cycles.Base, cycles.Taken, cycles.NotTaken} {
		fmt.Fprintf(tw, "[%s]\n", k)
		for _, b := range t.Buckets(k) {
			fmt.Fprintf(tw, "%d\t", b.Cycles)
			for i, s := range b.Signatures {
				if i > 0 {
					fmt.Fprint(tw, " ")
				}
				fmt.Fprint(tw, s.Op)
				if s.HasOperands {
					fmt.Fprint(tw, "*")
				}
			}
			fmt.Fprintln(tw)
		}
	}
	return tw.Flush()
}

func costText(c inst.Cost) string {
	switch {
	case c.Base == 0:
		return "-"
	case c.Branch():
		return fmt.Sprintf("%d/%d", c.Base, c.Taken)
	}
	return fmt.Sprintf("%d", c.Base)
}
