package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/oisee/sm83-optable/pkg/cycles"
	"github.com/oisee/sm83-optable/pkg/disasm"
	"github.com/oisee/sm83-optable/pkg/emit"
	"github.com/oisee/sm83-optable/pkg/inst"
	"github.com/oisee/sm83-optable/pkg/result"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// generateConfig holds the generate command's flags.
type generateConfig struct {
	Output  string
	Package string
	Format  string
}

func newRootCmd() *cobra.Command {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	var verbose bool

	rootCmd := &cobra.Command{
		Use:          "sm83tab",
		Short:        "SM83 opcode classification and cycle tables",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				log.SetLevel(logrus.DebugLevel)
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	// generate command
	var gen generateConfig

	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the opcode tables as Go source, a text listing or a JSON snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.WithFields(logrus.Fields{"format": gen.Format, "output": gen.Output}).Debug("generating")
			var write func(io.Writer) error
			switch gen.Format {
			case "go":
				write = func(w io.Writer) error {
					return emit.GoSource(w, emit.Config{Package: gen.Package, Logger: log})
				}
			case "listing":
				write = emit.Listing
			case "json":
				snap := result.Take(cycles.Default())
				if gen.Output != "" {
					if err := result.SaveFile(gen.Output, snap); err != nil {
						return err
					}
					log.Infof("Written to %s", gen.Output)
					return nil
				}
				write = func(w io.Writer) error { return result.WriteJSON(w, snap) }
			default:
				return fmt.Errorf("unknown format: %s", gen.Format)
			}
			if gen.Output == "" {
				return write(cmd.OutOrStdout())
			}
			if err := writeFile(gen.Output, write); err != nil {
				return err
			}
			log.Infof("Written to %s", gen.Output)
			return nil
		},
	}
	genCmd.Flags().StringVarP(&gen.Output, "output", "o", "", "Output file path (default stdout)")
	genCmd.Flags().StringVar(&gen.Package, "package", "optable", "Package name of generated Go source")
	genCmd.Flags().StringVarP(&gen.Format, "format", "f", "go", "Output format (go, listing, json)")

	// dump command
	var ext bool

	dumpCmd := &cobra.Command{
		Use:   "dump <byte>",
		Short: "Dump the descriptor and cost of one opcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookup(args[0], ext)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", e.Desc)
			spew.Fdump(cmd.OutOrStdout(), e)
			return nil
		},
	}
	dumpCmd.Flags().BoolVar(&ext, "ext", false, "Look up the CB-prefixed table")

	// cycles command
	var taken bool

	cyclesCmd := &cobra.Command{
		Use:   "cycles <byte>",
		Short: "Look up the cycle cost of one opcode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := lookup(args[0], ext)
			if err != nil {
				return err
			}
			var n uint8
			if e.Desc.Op.Branch() != inst.NoBranch {
				n, err = cycles.CyclesJmp(e.Desc, taken)
			} else {
				n, err = cycles.Cycles(e.Desc)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", e.Desc, n)
			return nil
		},
	}
	cyclesCmd.Flags().BoolVar(&ext, "ext", false, "Look up the CB-prefixed table")
	cyclesCmd.Flags().BoolVar(&taken, "taken", false, "Cost when the branch is taken")

	// buckets command
	bucketsCmd := &cobra.Command{
		Use:   "buckets",
		Short: "Print the base, taken and not-taken cycle buckets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return emit.Buckets(cmd.OutOrStdout(), cycles.Default())
		},
	}

	// verify command
	verifyCmd := &cobra.Command{
		Use:   "verify <snapshot.json>",
		Short: "Rebuild the tables and compare them with a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stored, err := result.LoadFile(args[0])
			if err != nil {
				return err
			}
			current := result.Take(cycles.Default())
			log.WithFields(logrus.Fields{
				"stored":  stored.Digest(),
				"current": current.Digest(),
			}).Debug("digests")

			diff := result.Diff(stored, current)
			if len(diff) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "OK %s\n", current.Digest())
				return nil
			}
			for _, line := range diff {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", line)
			}
			return fmt.Errorf("snapshot differs in %d places", len(diff))
		},
	}

	// disasm command
	origin := addrValue(0)

	disasmCmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a binary file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			log.WithFields(logrus.Fields{"file": args[0], "bytes": len(code), "origin": origin.String()}).Debug("decoding")
			seq, err := disasm.Decode(code, uint16(origin))
			printListing(cmd.OutOrStdout(), seq)
			if errors.Is(err, disasm.ErrTruncated) {
				log.Warn(err)
				return nil
			}
			return err
		},
	}
	disasmCmd.Flags().Var(&origin, "origin", "Load address of the first byte")

	rootCmd.AddCommand(genCmd, dumpCmd, cyclesCmd, bucketsCmd, verifyCmd, disasmCmd)
	return rootCmd
}

// writeFile creates path and fills it with write. A failed close is reported
// since it can lose buffered output.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// lookup resolves a byte argument in the primary or extended table.
func lookup(arg string, ext bool) (inst.Entry, error) {
	code, err := parseByte(arg)
	if err != nil {
		return inst.Entry{}, fmt.Errorf("failed to parse: %w", err)
	}
	if ext {
		return inst.Extended(code), nil
	}
	return inst.Primary(code), nil
}

func printListing(w io.Writer, seq []disasm.Instruction) {
	for _, in := range seq {
		raw := make([]string, len(in.Raw))
		for i, b := range in.Raw {
			raw[i] = fmt.Sprintf("%02X", b)
		}
		cost := "-"
		if c := in.Entry.Cost; c.Branch() {
			cost = fmt.Sprintf("%d/%d", c.Base, c.Taken)
		} else if c.Base != 0 {
			cost = fmt.Sprintf("%d", c.Base)
		}
		line := fmt.Sprintf("%04X  %-9s %-20s %s", in.Addr, strings.Join(raw, " "), in, cost)
		if target, ok := in.Target(); ok {
			line += fmt.Sprintf("  ; -> %04Xh", target)
		}
		fmt.Fprintln(w, line)
	}
}
