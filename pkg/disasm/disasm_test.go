package disasm

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"
)

func TestDecodeSingle(t *testing.T) {
	tests := []struct {
		code []byte
		want string
	}{
		{[]byte{0x00}, "NOP"},
		{[]byte{0x3E, 0x42}, "LD A, 42h"},
		{[]byte{0x3E, 0xFF}, "LD A, 0FFh"},
		{[]byte{0x21, 0x34, 0x12}, "LD HL, 1234h"},
		{[]byte{0xFA, 0x44, 0xFF}, "LD A, (0FF44h)"},
		{[]byte{0xEA, 0x00, 0xC0}, "LD (0C000h), A"},
		{[]byte{0xE0, 0x44}, "LDH (44h), A"},
		{[]byte{0xF2}, "LDH A, (C)"},
		{[]byte{0xE2}, "LDH (C), A"},
		{[]byte{0x08, 0x10, 0xD0}, "LD (0D010h), SP"},
		{[]byte{0x36, 0x07}, "LD (HL), 07h"},
		{[]byte{0x20, 0xFD}, "JR NZ, -03h"},
		{[]byte{0x18, 0x05}, "JR 05h"},
		{[]byte{0xF8, 0xFE}, "LD HL, SP-02h"},
		{[]byte{0xF8, 0x02}, "LD HL, SP+02h"},
		{[]byte{0xE8, 0x80}, "ADD SP, -80h"},
		{[]byte{0xC6, 0x01}, "ADD A, 01h"},
		{[]byte{0xFE, 0x90}, "CP 90h"},
		{[]byte{0xCD, 0x00, 0x40}, "CALL 4000h"},
		{[]byte{0xC3, 0x00, 0xA0}, "JP 0A000h"},
		{[]byte{0xDA, 0x50, 0x01}, "JP C, 0150h"},
		{[]byte{0xCB, 0x7C}, "BIT 7, H"},
		{[]byte{0xCB, 0x36}, "SWAP (HL)"},
		{[]byte{0xD3}, "???"},
		{[]byte{0xFF}, "RST 38h"},
		{[]byte{0x10}, "STOP"},
	}
	for _, tt := range tests {
		got, err := Decode(tt.code, 0)
		if err != nil {
			t.Errorf("% X: %v", tt.code, err)
			continue
		}
		if len(got) != 1 {
			t.Errorf("% X: decoded %d instructions, want 1:\n%s", tt.code, len(got), spew.Sdump(got))
			continue
		}
		if s := got[0].String(); s != tt.want {
			t.Errorf("% X: got %q, want %q", tt.code, s, tt.want)
		}
		if got[0].Len() != len(tt.code) {
			t.Errorf("% X: Len() = %d, want %d", tt.code, got[0].Len(), len(tt.code))
		}
	}
}

func TestDecodeStream(t *testing.T) {
	// Start of the DMG boot ROM: clear VRAM from 9FFFh down to 8000h.
	code := []byte{
		0x31, 0xFE, 0xFF, // LD SP, 0FFFEh
		0xAF,             // XOR A
		0x21, 0xFF, 0x9F, // LD HL, 9FFFh
		0x32,       // LD (HL-), A
		0xCB, 0x7C, // BIT 7, H
		0x20, 0xFB, // JR NZ, -05h
	}
	want := []struct {
		addr uint16
		text string
	}{
		{0, "LD SP, 0FFFEh"},
		{3, "XOR A"},
		{4, "LD HL, 9FFFh"},
		{7, "LD (HL-), A"},
		{8, "BIT 7, H"},
		{10, "JR NZ, -05h"},
	}
	got, err := Decode(code, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d instructions, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Addr != w.addr || got[i].String() != w.text {
			t.Errorf("[%d] %04Xh %q, want %04Xh %q", i, got[i].Addr, got[i].String(), w.addr, w.text)
		}
	}
	if target, ok := got[5].Target(); !ok || target != 7 {
		t.Errorf("JR target = %04Xh, %v; want 0007h", target, ok)
	}
	if _, ok := got[0].Target(); ok {
		t.Error("LD SP has a relative target")
	}
	if !got[4].Entry.Extended {
		t.Error("BIT 7, H not decoded from the extended table")
	}
}

func TestDecodeOrigin(t *testing.T) {
	got, err := Decode([]byte{0x00, 0x18, 0x80}, 0x0100)
	if err != nil {
		t.Fatal(err)
	}
	if got[1].Addr != 0x0101 {
		t.Errorf("addr = %04Xh, want 0101h", got[1].Addr)
	}
	if target, _ := got[1].Target(); target != 0x0103-0x80 {
		t.Errorf("target = %04Xh, want %04Xh", target, 0x0103-0x80)
	}
}

func TestDecodeTruncated(t *testing.T) {
	tests := []struct {
		code []byte
		n    int
	}{
		{[]byte{0x3E}, 0},
		{[]byte{0x00, 0xCB}, 1},
		{[]byte{0x00, 0xC3, 0x00}, 1},
	}
	for _, tt := range tests {
		got, err := Decode(tt.code, 0)
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("% X: err = %v, want ErrTruncated", tt.code, err)
		}
		if len(got) != tt.n {
			t.Errorf("% X: decoded %d before truncation, want %d", tt.code, len(got), tt.n)
		}
	}
}
