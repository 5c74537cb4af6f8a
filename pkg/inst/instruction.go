package inst

// Op identifies the operation kind of an SM83 instruction (not the raw byte encoding).
// Several opcode bytes share one Op and differ only in their operands, e.g. the 49
// register-to-register loads are all LD8_RR.
type Op uint8

// Immediate describes the literal bytes that follow an opcode.
type Immediate uint8

const (
	ImmNone Immediate = iota
	Imm8
	Imm16
)

// Bytes returns the number of immediate bytes following the opcode.
func (imm Immediate) Bytes() int {
	switch imm {
	case Imm8:
		return 1
	case Imm16:
		return 2
	}
	return 0
}

func (imm Immediate) String() string {
	switch imm {
	case Imm8:
		return "IMM8"
	case Imm16:
		return "IMM16"
	}
	return "None"
}

// Branch classifies the control-transfer behaviour of an Op.
type Branch uint8

const (
	NoBranch Branch = iota
	Conditional
	Unconditional
)

// Op constants, grouped the way the encoding space is laid out.
//
//	Primary table: control, loads/stores, 8/16-bit ALU, rotates, jumps/calls/returns
//	Extended table (CB prefix): rotates/shifts, BIT/RES/SET, each with an (HL) form
const (
	INVALID Op = iota // unencoded byte, no cost
	PREFIX_CB         // 0xCB, re-dispatches into the extended table

	NOP
	STOP
	HALT
	DI
	EI

	// Loads
	LD8_IMM       // r = n
	LD8_RR        // r = r'
	LD8_IND       // r = (ptr)
	LD8_IND_IMM16 // A = (nn)
	LD16_IMM      // rr = nn
	LD16_SP       // SP = HL
	LD16_LEA      // HL = SP + e

	// Stores
	ST8_IND       // (ptr) = r
	ST8_IND_IMM   // (HL) = n
	ST8_IND_IMM16 // (nn) = A
	ST16_SP       // (nn) = SP

	PUSH16
	POP16

	// High-page I/O
	IN8_REG  // A = (0xFF00 + C)
	IN8_IMM  // A = (0xFF00 + n)
	OUT8_REG // (0xFF00 + C) = A
	OUT8_IMM // (0xFF00 + n) = A

	// 8-bit ALU
	ADD8_REG
	ADD8_IND
	ADD8_IMM
	ADC8_REG
	ADC8_IND
	ADC8_IMM
	SUB8_REG
	SUB8_IND
	SUB8_IMM
	SBC8_REG
	SBC8_IND
	SBC8_IMM
	AND8_REG
	AND8_IND
	AND8_IMM
	XOR8_REG
	XOR8_IND
	XOR8_IMM
	OR8_REG
	OR8_IND
	OR8_IMM
	CP8_REG
	CP8_IND
	CP8_IMM

	ADD8_SP_IMM // SP += e
	ADD16_REG   // HL += rr

	INC8_REG
	INC8_IND
	INC16_REG
	DEC8_REG
	DEC8_IND
	DEC16_REG

	// Accumulator rotates and flag ops
	RLCA
	RRCA
	RLA
	RRA
	DAA
	CPL
	SCF
	CCF

	// Control transfer
	JP
	JP_COND
	JP_IND
	JP_REL
	JP_REL_COND
	CALL
	CALL_COND
	RET
	RET_COND
	RETI
	RST

	// === Extended (CB prefix) ===
	RLC
	RLC_IND
	RRC
	RRC_IND
	RL
	RL_IND
	RR
	RR_IND
	SLA
	SLA_IND
	SRA
	SRA_IND
	SWAP
	SWAP_IND
	SRL
	SRL_IND
	BIT
	BIT_IND
	RES
	RES_IND
	SET
	SET_IND

	OpCount // sentinel
)

// opInfo holds the static metadata of an Op.
type opInfo struct {
	name     string    // constant name, used by the emitter
	mnemonic string    // assembler mnemonic
	imm      Immediate // trailing immediate bytes
	branch   Branch
	ext      bool // lives in the extended table
}

var ops = [OpCount]opInfo{
	INVALID:   {"INVALID", "???", ImmNone, NoBranch, false},
	PREFIX_CB: {"PREFIX_CB", "PREFIX CB", ImmNone, NoBranch, false},

	NOP:  {"NOP", "NOP", ImmNone, NoBranch, false},
	STOP: {"STOP", "STOP", ImmNone, NoBranch, false},
	HALT: {"HALT", "HALT", ImmNone, NoBranch, false},
	DI:   {"DI", "DI", ImmNone, NoBranch, false},
	EI:   {"EI", "EI", ImmNone, NoBranch, false},

	LD8_IMM:       {"LD8_IMM", "LD", Imm8, NoBranch, false},
	LD8_RR:        {"LD8_RR", "LD", ImmNone, NoBranch, false},
	LD8_IND:       {"LD8_IND", "LD", ImmNone, NoBranch, false},
	LD8_IND_IMM16: {"LD8_IND_IMM16", "LD", Imm16, NoBranch, false},
	LD16_IMM:      {"LD16_IMM", "LD", Imm16, NoBranch, false},
	LD16_SP:       {"LD16_SP", "LD", ImmNone, NoBranch, false},
	LD16_LEA:      {"LD16_LEA", "LD", Imm8, NoBranch, false},

	ST8_IND:       {"ST8_IND", "LD", ImmNone, NoBranch, false},
	ST8_IND_IMM:   {"ST8_IND_IMM", "LD", Imm8, NoBranch, false},
	ST8_IND_IMM16: {"ST8_IND_IMM16", "LD", Imm16, NoBranch, false},
	ST16_SP:       {"ST16_SP", "LD", Imm16, NoBranch, false},

	PUSH16: {"PUSH16", "PUSH", ImmNone, NoBranch, false},
	POP16:  {"POP16", "POP", ImmNone, NoBranch, false},

	IN8_REG:  {"IN8_REG", "LDH", ImmNone, NoBranch, false},
	IN8_IMM:  {"IN8_IMM", "LDH", Imm8, NoBranch, false},
	OUT8_REG: {"OUT8_REG", "LDH", ImmNone, NoBranch, false},
	OUT8_IMM: {"OUT8_IMM", "LDH", Imm8, NoBranch, false},

	ADD8_REG: {"ADD8_REG", "ADD", ImmNone, NoBranch, false},
	ADD8_IND: {"ADD8_IND", "ADD", ImmNone, NoBranch, false},
	ADD8_IMM: {"ADD8_IMM", "ADD", Imm8, NoBranch, false},
	ADC8_REG: {"ADC8_REG", "ADC", ImmNone, NoBranch, false},
	ADC8_IND: {"ADC8_IND", "ADC", ImmNone, NoBranch, false},
	ADC8_IMM: {"ADC8_IMM", "ADC", Imm8, NoBranch, false},
	SUB8_REG: {"SUB8_REG", "SUB", ImmNone, NoBranch, false},
	SUB8_IND: {"SUB8_IND", "SUB", ImmNone, NoBranch, false},
	SUB8_IMM: {"SUB8_IMM", "SUB", Imm8, NoBranch, false},
	SBC8_REG: {"SBC8_REG", "SBC", ImmNone, NoBranch, false},
	SBC8_IND: {"SBC8_IND", "SBC", ImmNone, NoBranch, false},
	SBC8_IMM: {"SBC8_IMM", "SBC", Imm8, NoBranch, false},
	AND8_REG: {"AND8_REG", "AND", ImmNone, NoBranch, false},
	AND8_IND: {"AND8_IND", "AND", ImmNone, NoBranch, false},
	AND8_IMM: {"AND8_IMM", "AND", Imm8, NoBranch, false},
	XOR8_REG: {"XOR8_REG", "XOR", ImmNone, NoBranch, false},
	XOR8_IND: {"XOR8_IND", "XOR", ImmNone, NoBranch, false},
	XOR8_IMM: {"XOR8_IMM", "XOR", Imm8, NoBranch, false},
	OR8_REG:  {"OR8_REG", "OR", ImmNone, NoBranch, false},
	OR8_IND:  {"OR8_IND", "OR", ImmNone, NoBranch, false},
	OR8_IMM:  {"OR8_IMM", "OR", Imm8, NoBranch, false},
	CP8_REG:  {"CP8_REG", "CP", ImmNone, NoBranch, false},
	CP8_IND:  {"CP8_IND", "CP", ImmNone, NoBranch, false},
	CP8_IMM:  {"CP8_IMM", "CP", Imm8, NoBranch, false},

	ADD8_SP_IMM: {"ADD8_SP_IMM", "ADD", Imm8, NoBranch, false},
	ADD16_REG:   {"ADD16_REG", "ADD", ImmNone, NoBranch, false},

	INC8_REG:  {"INC8_REG", "INC", ImmNone, NoBranch, false},
	INC8_IND:  {"INC8_IND", "INC", ImmNone, NoBranch, false},
	INC16_REG: {"INC16_REG", "INC", ImmNone, NoBranch, false},
	DEC8_REG:  {"DEC8_REG", "DEC", ImmNone, NoBranch, false},
	DEC8_IND:  {"DEC8_IND", "DEC", ImmNone, NoBranch, false},
	DEC16_REG: {"DEC16_REG", "DEC", ImmNone, NoBranch, false},

	RLCA: {"RLCA", "RLCA", ImmNone, NoBranch, false},
	RRCA: {"RRCA", "RRCA", ImmNone, NoBranch, false},
	RLA:  {"RLA", "RLA", ImmNone, NoBranch, false},
	RRA:  {"RRA", "RRA", ImmNone, NoBranch, false},
	DAA:  {"DAA", "DAA", ImmNone, NoBranch, false},
	CPL:  {"CPL", "CPL", ImmNone, NoBranch, false},
	SCF:  {"SCF", "SCF", ImmNone, NoBranch, false},
	CCF:  {"CCF", "CCF", ImmNone, NoBranch, false},

	JP:          {"JP", "JP", Imm16, Unconditional, false},
	JP_COND:     {"JP_COND", "JP", Imm16, Conditional, false},
	JP_IND:      {"JP_IND", "JP", ImmNone, Unconditional, false},
	JP_REL:      {"JP_REL", "JR", Imm8, Unconditional, false},
	JP_REL_COND: {"JP_REL_COND", "JR", Imm8, Conditional, false},
	CALL:        {"CALL", "CALL", Imm16, Unconditional, false},
	CALL_COND:   {"CALL_COND", "CALL", Imm16, Conditional, false},
	RET:         {"RET", "RET", ImmNone, Unconditional, false},
	RET_COND:    {"RET_COND", "RET", ImmNone, Conditional, false},
	RETI:        {"RETI", "RETI", ImmNone, Unconditional, false},
	RST:         {"RST", "RST", ImmNone, NoBranch, false},

	RLC:      {"RLC", "RLC", ImmNone, NoBranch, true},
	RLC_IND:  {"RLC_IND", "RLC", ImmNone, NoBranch, true},
	RRC:      {"RRC", "RRC", ImmNone, NoBranch, true},
	RRC_IND:  {"RRC_IND", "RRC", ImmNone, NoBranch, true},
	RL:       {"RL", "RL", ImmNone, NoBranch, true},
	RL_IND:   {"RL_IND", "RL", ImmNone, NoBranch, true},
	RR:       {"RR", "RR", ImmNone, NoBranch, true},
	RR_IND:   {"RR_IND", "RR", ImmNone, NoBranch, true},
	SLA:      {"SLA", "SLA", ImmNone, NoBranch, true},
	SLA_IND:  {"SLA_IND", "SLA", ImmNone, NoBranch, true},
	SRA:      {"SRA", "SRA", ImmNone, NoBranch, true},
	SRA_IND:  {"SRA_IND", "SRA", ImmNone, NoBranch, true},
	SWAP:     {"SWAP", "SWAP", ImmNone, NoBranch, true},
	SWAP_IND: {"SWAP_IND", "SWAP", ImmNone, NoBranch, true},
	SRL:      {"SRL", "SRL", ImmNone, NoBranch, true},
	SRL_IND:  {"SRL_IND", "SRL", ImmNone, NoBranch, true},
	BIT:      {"BIT", "BIT", ImmNone, NoBranch, true},
	BIT_IND:  {"BIT_IND", "BIT", ImmNone, NoBranch, true},
	RES:      {"RES", "RES", ImmNone, NoBranch, true},
	RES_IND:  {"RES_IND", "RES", ImmNone, NoBranch, true},
	SET:      {"SET", "SET", ImmNone, NoBranch, true},
	SET_IND:  {"SET_IND", "SET", ImmNone, NoBranch, true},
}

// String returns the Op's constant name, e.g. "JP_REL_COND".
func (op Op) String() string {
	if op >= OpCount {
		return "Op(?)"
	}
	return ops[op].name
}

// Mnemonic returns the assembler mnemonic, e.g. "JR".
func (op Op) Mnemonic() string {
	if op >= OpCount {
		return "???"
	}
	return ops[op].mnemonic
}

// Immediate returns the immediate kind consumed by op. It is a function of the
// Op alone: every encoding of an Op reads the same number of trailing bytes.
func (op Op) Immediate() Immediate {
	if op >= OpCount {
		return ImmNone
	}
	return ops[op].imm
}

// Branch returns whether op transfers control, and if so whether conditionally.
func (op Op) Branch() Branch {
	if op >= OpCount {
		return NoBranch
	}
	return ops[op].branch
}

// Extended returns true for operations encoded behind the CB prefix.
func (op Op) Extended() bool {
	return op < OpCount && ops[op].ext
}

// AllOps returns all Op values in declaration order (for enumeration).
func AllOps() []Op {
	all := make([]Op, 0, OpCount)
	for op := Op(0); op < OpCount; op++ {
		all = append(all, op)
	}
	return all
}
