package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

// parseImmediate parses a number written as 0x20, 20h, $20 or decimal.
func parseImmediate(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty")
	}

	var digits string
	base := 10
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		digits, base = s[2:], 16
	case strings.HasPrefix(s, "$"):
		digits, base = s[1:], 16
	case strings.HasSuffix(strings.ToUpper(s), "H"):
		digits, base = s[:len(s)-1], 16
	default:
		digits = s
	}
	if digits == "" {
		return 0, fmt.Errorf("no digits in %q", s)
	}
	v, err := strconv.ParseUint(digits, base, 16)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", s, err)
	}
	return int(v), nil
}

// parseByte parses an opcode byte argument.
func parseByte(s string) (uint8, error) {
	v, err := parseImmediate(s)
	if err != nil {
		return 0, err
	}
	if v > 0xFF {
		return 0, fmt.Errorf("%q is out of byte range", s)
	}
	return uint8(v), nil
}

// addrValue is a pflag.Value for 16-bit addresses in any parseImmediate form.
type addrValue uint16

var _ pflag.Value = (*addrValue)(nil)

func (a *addrValue) String() string { return fmt.Sprintf("0x%04X", uint16(*a)) }
func (a *addrValue) Type() string   { return "addr" }

func (a *addrValue) Set(s string) error {
	v, err := parseImmediate(s)
	if err != nil {
		return err
	}
	*a = addrValue(v)
	return nil
}
