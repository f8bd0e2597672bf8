package tgspec

import (
	"fmt"
	"net"
)

// MAC is a MAC-48 address that serializes as text.
type MAC struct {
	net.HardwareAddr
}

// ParseMAC parses a MAC-48 address.
func ParseMAC(s string) (m MAC, e error) {
	e = m.UnmarshalText([]byte(s))
	return
}

func mustParseMAC(s string) MAC {
	m, e := ParseMAC(s)
	if e != nil {
		panic(e)
	}
	return m
}

// IsZero returns true if the address is unset.
func (m MAC) IsZero() bool {
	return len(m.HardwareAddr) == 0
}

// IsUnicast determines whether the address is a non-zero unicast address.
func (m MAC) IsUnicast() bool {
	a := m.HardwareAddr
	return len(a) == 6 && a[0]&0x01 == 0 && (a[0]|a[1]|a[2]|a[3]|a[4]|a[5]) != 0
}

// MarshalText implements encoding.TextMarshaler.
func (m MAC) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MAC) UnmarshalText(text []byte) error {
	a, e := net.ParseMAC(string(text))
	if e != nil {
		return e
	}
	if len(a) != 6 {
		return fmt.Errorf("%s is not MAC-48", text)
	}
	m.HardwareAddr = a
	return nil
}
