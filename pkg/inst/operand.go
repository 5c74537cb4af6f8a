package inst

import "fmt"

// Width tags a register operand with the namespace it belongs to.
type Width uint8

const (
	W8  Width = 8
	W16 Width = 16
)

// Reg8 names an 8-bit register.
type Reg8 uint8

const (
	A Reg8 = iota
	F
	B
	C
	D
	E
	H
	L
)

var reg8Names = [...]string{"A", "F", "B", "C", "D", "E", "H", "L"}

func (r Reg8) String() string {
	if int(r) < len(reg8Names) {
		return reg8Names[r]
	}
	return fmt.Sprintf("Reg8(%d)", uint8(r))
}

// Reg16 names a 16-bit register or register pair.
type Reg16 uint8

const (
	AF Reg16 = iota
	BC
	DE
	HL
	SP
)

var reg16Names = [...]string{"AF", "BC", "DE", "HL", "SP"}

func (r Reg16) String() string {
	if int(r) < len(reg16Names) {
		return reg16Names[r]
	}
	return fmt.Sprintf("Reg16(%d)", uint8(r))
}

// Reg is a register operand: an identifier plus the width of its namespace.
// The zero value means "no register".
type Reg struct {
	Width Width
	ID    uint8
}

// NoReg is the absent register operand.
var NoReg = Reg{}

// R8 returns the operand for an 8-bit register.
func R8(r Reg8) Reg { return Reg{Width: W8, ID: uint8(r)} }

// R16 returns the operand for a 16-bit register.
func R16(r Reg16) Reg { return Reg{Width: W16, ID: uint8(r)} }

// IsZero reports whether the operand is absent.
func (r Reg) IsZero() bool { return r.Width == 0 }

// Reg8 returns the 8-bit register; ok is false for other widths.
func (r Reg) Reg8() (Reg8, bool) { return Reg8(r.ID), r.Width == W8 }

// Reg16 returns the 16-bit register; ok is false for other widths.
func (r Reg) Reg16() (Reg16, bool) { return Reg16(r.ID), r.Width == W16 }

func (r Reg) String() string {
	switch r.Width {
	case W8:
		return Reg8(r.ID).String()
	case W16:
		return Reg16(r.ID).String()
	}
	return ""
}

// Cond is the flag condition of a conditional control transfer.
type Cond uint8

const (
	NZ Cond = iota
	Z
	NC
	CY // carry set; named CY to keep C free for the register
)

var condNames = [...]string{"NZ", "Z", "NC", "C"}

func (c Cond) String() string {
	if int(c) < len(condNames) {
		return condNames[c]
	}
	return fmt.Sprintf("Cond(%d)", uint8(c))
}

// Ptr is the address source of an indirect memory operand. It is kept apart from
// the dest/src registers so a descriptor never mixes register widths.
type Ptr uint8

const (
	PtrNone  Ptr = iota
	PtrBC        // (BC)
	PtrDE        // (DE)
	PtrHL        // (HL)
	PtrHLI       // (HL+), post-increment
	PtrHLD       // (HL-), post-decrement
	PtrImm16     // (nn)
	PtrHighC     // (0xFF00+C)
	PtrHighImm   // (0xFF00+n)
)

var ptrNames = [...]string{"", "(BC)", "(DE)", "(HL)", "(HL+)", "(HL-)", "(nn)", "(C)", "(n)"}

func (p Ptr) String() string {
	if int(p) < len(ptrNames) {
		return ptrNames[p]
	}
	return fmt.Sprintf("Ptr(%d)", uint8(p))
}

// Mode is the operand shape of a descriptor.
type Mode uint8

const (
	NoOperands    Mode = iota
	RegOperands        // Dest and/or Src set
	CondOperand        // Cond set
	TargetOperand      // Target set (RST only)
)

func (m Mode) String() string {
	switch m {
	case NoOperands:
		return "NoOperands"
	case RegOperands:
		return "RegOperands"
	case CondOperand:
		return "CondOperand"
	case TargetOperand:
		return "TargetOperand"
	}
	return fmt.Sprintf("Mode(%d)", uint8(m))
}

// regCycle is the 8-wide operand order used by every 3-bit register field.
// Index 6 is the (HL) indirect slot; it has no register of its own.
var regCycle = [8]Reg8{B, C, D, E, H, L, 0, A}

const slotHL = 6

// slot decodes a 3-bit register field. ind is true for the (HL) slot.
func slot(field uint8) (r Reg8, ind bool) {
	field &= 7
	return regCycle[field], field == slotHL
}
