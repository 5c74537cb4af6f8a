package inst

import "fmt"

// rule classifies every opcode byte with code&mask == value. Rules are tried in
// order and the first match wins, so narrow carve-outs (HALT inside the move
// block) come before the block they are cut from.
type rule struct {
	mask, value uint8
	build       func(code uint8) (Descriptor, Cost)
}

func (r rule) match(code uint8) bool { return code&r.mask == r.value }

// Field decoders. The SM83 encoding is octal-structured: bits 0-2 select the
// source register, bits 3-5 the destination / condition / ALU op, bits 4-5 a
// register pair.
func field3(code uint8) uint8 { return (code >> 3) & 7 }
func pairOf(code uint8) uint8 { return (code >> 4) & 3 }
func condOf(code uint8) Cond { return Cond((code >> 3) & 3) }

var (
	pairs     = [4]Reg16{BC, DE, HL, SP}
	stackRegs = [4]Reg16{BC, DE, HL, AF}
	pairPtrs  = [4]Ptr{PtrBC, PtrDE, PtrHLI, PtrHLD}
	accOps    = [8]Op{RLCA, RRCA, RLA, RRA, DAA, CPL, SCF, CCF}
	aluOps    = [8][3]Op{
		{ADD8_REG, ADD8_IND, ADD8_IMM},
		{ADC8_REG, ADC8_IND, ADC8_IMM},
		{SUB8_REG, SUB8_IND, SUB8_IMM},
		{SBC8_REG, SBC8_IND, SBC8_IMM},
		{AND8_REG, AND8_IND, AND8_IMM},
		{XOR8_REG, XOR8_IND, XOR8_IMM},
		{OR8_REG, OR8_IND, OR8_IMM},
		{CP8_REG, CP8_IND, CP8_IMM},
	}
)

const (
	aluReg = iota
	aluInd
	aluImm
)

func desc(op Op) Descriptor {
	return Descriptor{Op: op, Imm: op.Immediate()}
}

func regDesc(op Op, dest, src Reg) Descriptor {
	d := desc(op)
	d.Mode = RegOperands
	d.Dest, d.Src = dest, src
	return d
}

func indDesc(op Op, p Ptr) Descriptor {
	d := desc(op)
	d.Ptr = p
	return d
}

func condDesc(op Op, c Cond) Descriptor {
	d := desc(op)
	d.Mode = CondOperand
	d.Cond = c
	return d
}

func base(n uint8) Cost { return Cost{Base: n} }
func branch(n, taken uint8) Cost { return Cost{Base: n, Taken: taken} }

// fixed builds a rule for an operand-less instruction.
func fixed(op Op, c Cost) func(uint8) (Descriptor, Cost) {
	return func(uint8) (Descriptor, Cost) { return desc(op), c }
}

// fixedInd builds a rule for an operand-less indirect instruction.
func fixedInd(op Op, p Ptr, c Cost) func(uint8) (Descriptor, Cost) {
	return func(uint8) (Descriptor, Cost) { return indDesc(op, p), c }
}

// conditional builds a rule whose condition comes from bits 3-4.
func conditional(op Op, c Cost) func(uint8) (Descriptor, Cost) {
	return func(code uint8) (Descriptor, Cost) { return condDesc(op, condOf(code)), c }
}

var primaryRules = []rule{
	// Control and miscellaneous, low nibble 0 / 8
	{0xFF, 0x00, fixed(NOP, base(1))},
	{0xFF, 0x10, fixed(STOP, base(1))},
	{0xFF, 0x08, fixed(ST16_SP, base(5))},
	{0xFF, 0x18, fixed(JP_REL, branch(3, 3))},
	{0xE7, 0x20, conditional(JP_REL_COND, branch(2, 3))},

	// 16-bit pair column ops
	{0xCF, 0x01, func(code uint8) (Descriptor, Cost) {
		return regDesc(LD16_IMM, R16(pairs[pairOf(code)]), NoReg), base(3)
	}},
	{0xCF, 0x03, func(code uint8) (Descriptor, Cost) {
		return regDesc(INC16_REG, NoReg, R16(pairs[pairOf(code)])), base(2)
	}},
	{0xCF, 0x09, func(code uint8) (Descriptor, Cost) {
		return regDesc(ADD16_REG, NoReg, R16(pairs[pairOf(code)])), base(2)
	}},
	{0xCF, 0x0B, func(code uint8) (Descriptor, Cost) {
		return regDesc(DEC16_REG, NoReg, R16(pairs[pairOf(code)])), base(2)
	}},

	// A <-> (BC), (DE), (HL+), (HL-)
	{0xCF, 0x02, func(code uint8) (Descriptor, Cost) {
		d := regDesc(ST8_IND, NoReg, R8(A))
		d.Ptr = pairPtrs[pairOf(code)]
		return d, base(2)
	}},
	{0xCF, 0x0A, func(code uint8) (Descriptor, Cost) {
		d := regDesc(LD8_IND, R8(A), NoReg)
		d.Ptr = pairPtrs[pairOf(code)]
		return d, base(2)
	}},

	// Per-register INC / DEC / LD r,n, low nibble 4-6 and C-E
	{0xC7, 0x04, func(code uint8) (Descriptor, Cost) {
		r, ind := slot(field3(code))
		if ind {
			return indDesc(INC8_IND, PtrHL), base(1)
		}
		return regDesc(INC8_REG, NoReg, R8(r)), base(1)
	}},
	{0xC7, 0x05, func(code uint8) (Descriptor, Cost) {
		r, ind := slot(field3(code))
		if ind {
			return indDesc(DEC8_IND, PtrHL), base(3)
		}
		return regDesc(DEC8_REG, NoReg, R8(r)), base(1)
	}},
	{0xC7, 0x06, func(code uint8) (Descriptor, Cost) {
		r, ind := slot(field3(code))
		if ind {
			return indDesc(ST8_IND_IMM, PtrHL), base(3)
		}
		return regDesc(LD8_IMM, R8(r), NoReg), base(2)
	}},

	// Accumulator rotates and flag ops, low nibble 7 / F
	{0xC7, 0x07, func(code uint8) (Descriptor, Cost) {
		return desc(accOps[field3(code)]), base(1)
	}},

	// (HL) -> (HL) would be a self-move; the encoding is HALT instead
	{0xFF, 0x76, fixed(HALT, base(1))},

	// 8-bit register moves, 0x40-0x7F
	{0xC0, 0x40, func(code uint8) (Descriptor, Cost) {
		dst, dstInd := slot(field3(code))
		src, srcInd := slot(code)
		switch {
		case srcInd:
			d := regDesc(LD8_IND, R8(dst), NoReg)
			d.Ptr = PtrHL
			return d, base(2)
		case dstInd:
			d := regDesc(ST8_IND, NoReg, R8(src))
			d.Ptr = PtrHL
			return d, base(2)
		}
		return regDesc(LD8_RR, R8(dst), R8(src)), base(1)
	}},

	// 8-bit ALU on A, 0x80-0xBF
	{0xC0, 0x80, func(code uint8) (Descriptor, Cost) {
		ops := aluOps[field3(code)]
		r, ind := slot(code)
		if ind {
			return indDesc(ops[aluInd], PtrHL), base(2)
		}
		return regDesc(ops[aluReg], NoReg, R8(r)), base(1)
	}},

	// Returns, jumps and calls, 0xC0-0xFF
	{0xE7, 0xC0, conditional(RET_COND, branch(2, 5))},
	{0xE7, 0xC2, conditional(JP_COND, branch(3, 4))},
	{0xE7, 0xC4, conditional(CALL_COND, branch(3, 6))},
	{0xFF, 0xC3, fixed(JP, branch(4, 4))},
	{0xFF, 0xCD, fixed(CALL, branch(6, 6))},
	{0xFF, 0xC9, fixed(RET, branch(4, 4))},
	{0xFF, 0xD9, fixed(RETI, branch(4, 4))},
	{0xFF, 0xE9, fixed(JP_IND, branch(1, 1))},

	// Stack
	{0xCF, 0xC1, func(code uint8) (Descriptor, Cost) {
		return regDesc(POP16, R16(stackRegs[pairOf(code)]), NoReg), base(2)
	}},
	{0xCF, 0xC5, func(code uint8) (Descriptor, Cost) {
		return regDesc(PUSH16, NoReg, R16(stackRegs[pairOf(code)])), base(4)
	}},

	// ALU A, n
	{0xC7, 0xC6, func(code uint8) (Descriptor, Cost) {
		return desc(aluOps[field3(code)][aluImm]), base(2)
	}},

	// RST 00h..38h: 16*(hi-0xC), +8 in the high half of the low nibble
	{0xC7, 0xC7, func(code uint8) (Descriptor, Cost) {
		d := desc(RST)
		d.Mode = TargetOperand
		d.Target = code & 0x38
		return d, base(4)
	}},

	// High-page I/O and absolute loads
	{0xFF, 0xE0, fixedInd(OUT8_IMM, PtrHighImm, base(3))},
	{0xFF, 0xF0, fixedInd(IN8_IMM, PtrHighImm, base(3))},
	{0xFF, 0xE2, fixedInd(OUT8_REG, PtrHighC, base(2))},
	{0xFF, 0xF2, fixedInd(IN8_REG, PtrHighC, base(2))},
	{0xFF, 0xEA, func(uint8) (Descriptor, Cost) {
		d := regDesc(ST8_IND_IMM16, NoReg, R8(A))
		d.Ptr = PtrImm16
		return d, base(4)
	}},
	{0xFF, 0xFA, func(uint8) (Descriptor, Cost) {
		d := regDesc(LD8_IND_IMM16, R8(A), NoReg)
		d.Ptr = PtrImm16
		return d, base(4)
	}},

	// Stack pointer arithmetic
	{0xFF, 0xE8, fixed(ADD8_SP_IMM, base(4))},
	{0xFF, 0xF8, fixed(LD16_LEA, base(3))},
	{0xFF, 0xF9, fixed(LD16_SP, base(2))},

	// Interrupt control
	{0xFF, 0xF3, fixed(DI, base(1))},
	{0xFF, 0xFB, fixed(EI, base(1))},

	// Extended opcode space; the cost belongs to the second byte
	{0xFF, 0xCB, fixed(PREFIX_CB, Cost{})},
}

var (
	shiftOps = [8][2]Op{
		{RLC, RLC_IND}, {RRC, RRC_IND}, {RL, RL_IND}, {RR, RR_IND},
		{SLA, SLA_IND}, {SRA, SRA_IND}, {SWAP, SWAP_IND}, {SRL, SRL_IND},
	}
	bitOps = [4][2]Op{
		{}, // 0x00-0x3F, see shiftOps
		{BIT, BIT_IND},
		{RES, RES_IND},
		{SET, SET_IND},
	}
)

// ClassifyPrimary maps a primary opcode byte to its descriptor and cost.
// Unencoded bytes give INVALID with zero cost.
func ClassifyPrimary(code uint8) (Descriptor, Cost) {
	for _, r := range primaryRules {
		if r.match(code) {
			return r.build(code)
		}
	}
	return desc(INVALID), Cost{}
}

// ClassifyExtended maps a byte following the CB prefix to its descriptor and
// cost. Every byte is encoded.
func ClassifyExtended(code uint8) (Descriptor, Cost) {
	r, ind := slot(code)

	var pair [2]Op
	group := code >> 6
	if group == 0 {
		pair = shiftOps[field3(code)]
	} else {
		pair = bitOps[group]
	}

	var d Descriptor
	c := base(2)
	if ind {
		d = indDesc(pair[1], PtrHL)
		c = base(4)
	} else {
		d = regDesc(pair[0], NoReg, R8(r))
	}
	if group != 0 {
		d.Bit = field3(code)
		d.HasBit = true
	}
	return d, c
}

var (
	primary  [256]Entry
	extended [256]Entry
)

// Primary returns the entry for a primary opcode byte.
func Primary(code uint8) Entry { return primary[code] }

// Extended returns the entry for a byte following the CB prefix.
func Extended(code uint8) Entry { return extended[code] }

// PrimaryTable returns a copy of the full primary table.
func PrimaryTable() [256]Entry { return primary }

// ExtendedTable returns a copy of the full extended table.
func ExtendedTable() [256]Entry { return extended }

// Entries returns both tables in discovery order: primary 0x00-0xFF, then
// extended 0x00-0xFF.
func Entries() []Entry {
	all := make([]Entry, 0, 512)
	all = append(all, primary[:]...)
	return append(all, extended[:]...)
}

// checkRules reports rules that never win a byte, i.e. are fully shadowed by
// earlier rules in the list.
func checkRules(rules []rule) error {
	wins := make([]int, len(rules))
	for code := 0; code < 256; code++ {
		for i, r := range rules {
			if r.match(uint8(code)) {
				wins[i]++
				break
			}
		}
	}
	for i, n := range wins {
		if n == 0 {
			return fmt.Errorf("rule %d (mask 0x%02X value 0x%02X) is shadowed", i, rules[i].mask, rules[i].value)
		}
	}
	return nil
}

func init() {
	if err := checkRules(primaryRules); err != nil {
		panic(err)
	}
	for code := 0; code < 256; code++ {
		d, c := ClassifyPrimary(uint8(code))
		if err := d.Validate(); err != nil {
			panic(fmt.Sprintf("primary 0x%02X: %v", code, err))
		}
		primary[code] = Entry{Code: uint8(code), Desc: d, Cost: c}

		d, c = ClassifyExtended(uint8(code))
		if err := d.Validate(); err != nil {
			panic(fmt.Sprintf("extended 0x%02X: %v", code, err))
		}
		extended[code] = Entry{Code: uint8(code), Extended: true, Desc: d, Cost: c}
	}
}
