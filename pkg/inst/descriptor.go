package inst

import (
	"errors"
	"fmt"
	"strings"
)

// Descriptor is the normalized decoding of one opcode byte.
// It is a comparable value: two classifications of the same byte are ==.
type Descriptor struct {
	Op     Op
	Mode   Mode
	Dest   Reg
	Src    Reg
	Ptr    Ptr   // memory operand of indirect forms, PtrNone otherwise
	Cond   Cond  // valid when Mode == CondOperand
	Target uint8 // RST vector, valid when Mode == TargetOperand
	Bit    uint8 // bit index 0-7, valid when HasBit
	HasBit bool
	Imm    Immediate
}

// Cost is the timing of a descriptor in machine cycles. Taken is zero for
// instructions that never transfer control.
type Cost struct {
	Base  uint8
	Taken uint8
}

// Branch reports whether the cost has a taken variant.
func (c Cost) Branch() bool { return c.Taken != 0 }

// Entry pairs a descriptor with the cost attached by its classification rule.
type Entry struct {
	Code     uint8
	Extended bool
	Desc     Descriptor
	Cost     Cost
}

// HasOperands reports whether the descriptor carries any operand field.
// The memory pointer alone does not count: it is implied by the Op.
func (d Descriptor) HasOperands() bool {
	return d.Mode != NoOperands || d.HasBit
}

var (
	ErrModeMismatch  = errors.New("operand fields disagree with mode")
	ErrWidthMismatch = errors.New("dest and src widths differ")
	ErrImmediate     = errors.New("immediate kind disagrees with op")
	ErrBadOp         = errors.New("op out of range")
)

// Validate checks that the operand fields agree with the Op and Mode.
func (d Descriptor) Validate() error {
	if d.Op >= OpCount {
		return fmt.Errorf("%w: %d", ErrBadOp, d.Op)
	}
	if d.Imm != d.Op.Immediate() {
		return fmt.Errorf("%s: %w (%s, want %s)", d.Op, ErrImmediate, d.Imm, d.Op.Immediate())
	}
	regs := !d.Dest.IsZero() || !d.Src.IsZero()
	switch d.Mode {
	case NoOperands:
		if regs || d.Target != 0 || d.Cond != 0 {
			return fmt.Errorf("%s: %w", d.Op, ErrModeMismatch)
		}
	case RegOperands:
		if !regs || d.Target != 0 || d.Cond != 0 {
			return fmt.Errorf("%s: %w", d.Op, ErrModeMismatch)
		}
		if !d.Dest.IsZero() && !d.Src.IsZero() && d.Dest.Width != d.Src.Width {
			return fmt.Errorf("%s: %w", d.Op, ErrWidthMismatch)
		}
	case CondOperand:
		if regs || d.Target != 0 || d.Cond > CY {
			return fmt.Errorf("%s: %w", d.Op, ErrModeMismatch)
		}
	case TargetOperand:
		if regs || d.Cond != 0 || d.Op != RST {
			return fmt.Errorf("%s: %w", d.Op, ErrModeMismatch)
		}
	default:
		return fmt.Errorf("%s: %w", d.Op, ErrModeMismatch)
	}
	if d.HasBit && (!d.Op.Extended() || d.Bit > 7) {
		return fmt.Errorf("%s: %w: bit %d", d.Op, ErrModeMismatch, d.Bit)
	}
	return nil
}

// String renders the descriptor as assembly with "n"/"nn"/"e" placeholders for
// immediates, e.g. "LD B, n", "JR NZ, e", "BIT 7, (HL)".
func (d Descriptor) String() string {
	var args []string
	if d.HasBit {
		args = append(args, string('0'+rune(d.Bit)))
	}

	switch d.Op {
	case INVALID, PREFIX_CB:
		return d.Op.Mnemonic()
	case LD16_LEA:
		return "LD HL, SP+e"
	case ADD8_SP_IMM:
		return "ADD SP, e"
	case LD16_SP:
		return "LD SP, HL"
	case ST16_SP:
		return "LD (nn), SP"
	case ST8_IND_IMM:
		return "LD (HL), n"
	case JP_IND:
		return "JP HL"
	case RST:
		return fmt.Sprintf("RST %02Xh", d.Target)
	}

	dest, src := d.Dest.String(), d.Src.String()
	ptrDone := false // memory operand already placed as dest or src
	switch d.Op {
	case LD8_IND, LD8_IND_IMM16, IN8_REG, IN8_IMM:
		if dest == "" {
			dest = "A"
		}
		src, ptrDone = d.ptr(), true
	case ST8_IND, ST8_IND_IMM16, OUT8_REG, OUT8_IMM:
		if src == "" {
			src = "A"
		}
		dest, ptrDone = d.ptr(), true
	case ADD8_REG, ADD8_IND, ADD8_IMM, ADC8_REG, ADC8_IND, ADC8_IMM, SBC8_REG, SBC8_IND, SBC8_IMM:
		dest = "A"
	case ADD16_REG:
		dest = "HL"
	}

	if dest != "" {
		args = append(args, dest)
	}
	if src != "" {
		args = append(args, src)
	}
	if d.Mode == CondOperand {
		args = append(args, d.Cond.String())
	}
	if !ptrDone {
		if d.Ptr != PtrNone && d.Mode == NoOperands {
			args = append(args, d.Ptr.String())
		}
		switch d.Op.Immediate() {
		case Imm8:
			if d.Op.Branch() != NoBranch {
				args = append(args, "e")
			} else {
				args = append(args, "n")
			}
		case Imm16:
			args = append(args, "nn")
		}
	}

	if len(args) == 0 {
		return d.Op.Mnemonic()
	}
	return d.Op.Mnemonic() + " " + strings.Join(args, ", ")
}

func (d Descriptor) ptr() string {
	switch d.Ptr {
	case PtrImm16:
		return "(nn)"
	case PtrHighImm:
		return "(n)"
	}
	return d.Ptr.String()
}
