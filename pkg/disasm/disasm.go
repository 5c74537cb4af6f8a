// Package disasm decodes SM83 byte streams using the classifier tables.
package disasm

import (
	"errors"
	"fmt"

	"github.com/oisee/sm83-optable/pkg/inst"
)

// ErrTruncated is returned when the stream ends inside an instruction.
var ErrTruncated = errors.New("truncated instruction")

// Instruction is one decoded instruction.
type Instruction struct {
	Addr  uint16
	Raw   []byte // opcode, CB prefix included, and immediate bytes
	Entry inst.Entry
	Imm   uint16 // little-endian immediate, valid when Entry.Desc.Imm != ImmNone
}

// Len returns the encoded size in bytes.
func (in Instruction) Len() int { return len(in.Raw) }

// Offset returns the immediate as a signed 8-bit displacement.
func (in Instruction) Offset() int8 { return int8(uint8(in.Imm)) }

// Target returns the destination of a relative jump: the address after the
// instruction plus the displacement. ok is false for other instructions.
func (in Instruction) Target() (addr uint16, ok bool) {
	switch in.Entry.Desc.Op {
	case inst.JP_REL, inst.JP_REL_COND:
		return in.Addr + uint16(in.Len()) + uint16(int16(in.Offset())), true
	}
	return 0, false
}

// Decode walks code from origin, classifying each opcode and reading its
// immediate. Unencoded bytes decode as one-byte INVALID instructions. If the
// stream ends inside an instruction, the instructions decoded so far are
// returned with an error wrapping ErrTruncated.
func Decode(code []byte, origin uint16) ([]Instruction, error) {
	var out []Instruction
	for pc := 0; pc < len(code); {
		addr := origin + uint16(pc)
		e := inst.Primary(code[pc])
		size := 1
		if e.Desc.Op == inst.PREFIX_CB {
			if pc+1 >= len(code) {
				return out, fmt.Errorf("%04Xh: CB prefix: %w", addr, ErrTruncated)
			}
			e = inst.Extended(code[pc+1])
			size = 2
		}

		n := e.Desc.Imm.Bytes()
		if pc+size+n > len(code) {
			return out, fmt.Errorf("%04Xh: %s needs %d immediate bytes: %w", addr, e.Desc, n, ErrTruncated)
		}
		var imm uint16
		switch n {
		case 1:
			imm = uint16(code[pc+size])
		case 2:
			imm = uint16(code[pc+size]) | uint16(code[pc+size+1])<<8
		}

		size += n
		out = append(out, Instruction{
			Addr:  addr,
			Raw:   code[pc : pc+size : pc+size],
			Entry: e,
			Imm:   imm,
		})
		pc += size
	}
	return out, nil
}

// String returns assembly text with the immediate filled in, e.g.
// "LD A, (0FF44h)" or "JR NZ, -03h". Relative offsets are signed.
func (in Instruction) String() string {
	tmpl := in.Entry.Desc.String()
	buf := make([]byte, 0, len(tmpl)+6)
	for i := 0; i < len(tmpl); i++ {
		switch {
		case tmpl[i] == 'n' && i+1 < len(tmpl) && tmpl[i+1] == 'n':
			buf = appendHex16(buf, in.Imm)
			i++
		case tmpl[i] == 'n':
			buf = appendHex8(buf, uint8(in.Imm))
		case tmpl[i] == 'e':
			off := in.Offset()
			switch {
			case off < 0:
				if n := len(buf); n > 0 && buf[n-1] == '+' {
					buf = buf[:n-1]
				}
				buf = append(buf, '-')
				buf = appendHex8(buf, uint8(-int16(off)))
			default:
				buf = appendHex8(buf, uint8(off))
			}
		default:
			buf = append(buf, tmpl[i])
		}
	}
	return string(buf)
}

func appendHex8(buf []byte, v uint8) []byte {
	const hex = "0123456789ABCDEF"
	if v >= 0xA0 {
		buf = append(buf, '0')
	}
	buf = append(buf, hex[v>>4], hex[v&0x0F], 'h')
	return buf
}

func appendHex16(buf []byte, v uint16) []byte {
	const hex = "0123456789ABCDEF"
	if v>>12 >= 0xA {
		buf = append(buf, '0')
	}
	buf = append(buf, hex[v>>12], hex[(v>>8)&0x0F], hex[(v>>4)&0x0F], hex[v&0x0F], 'h')
	return buf
}
