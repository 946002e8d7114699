package vexfat

import (
	"encoding/hex"
	"testing"
	"unicode/utf16"
)

func TestUpcaseTable(t *testing.T) {
	want := "ffff6100" +
		"4100420043004400450046004700480049004a004b004c004d00" +
		"4e004f0050005100520053005400550056005700580059005a00" +
		"ffff85ff"
	if got := hex.EncodeToString(UpcaseTable); got != want {
		t.Errorf("UpcaseTable = %v, want %v", got, want)
	}
	if len(UpcaseTable) != 60 {
		t.Errorf("len(UpcaseTable) = %v, want 60", len(UpcaseTable))
	}
	if UpcaseTableChecksum != 0x4E394AE1 {
		t.Errorf("UpcaseTableChecksum = %#08x, want %#08x", UpcaseTableChecksum, 0x4E394AE1)
	}
}

func TestUpcase(t *testing.T) {
	tests := []struct {
		name string
		c    uint16
		want uint16
	}{
		{name: "lower case letter", c: 'q', want: 'Q'},
		{name: "first lower case letter", c: 'a', want: 'A'},
		{name: "last lower case letter", c: 'z', want: 'Z'},
		{name: "upper case letter", c: 'Q', want: 'Q'},
		{name: "digit", c: '7', want: '7'},
		{name: "before the letters", c: '`', want: '`'},
		{name: "after the letters", c: '{', want: '{'},
		{name: "non ASCII stays", c: 0x00E4, want: 0x00E4},
		{name: "last code unit", c: 0xFFFF, want: 0xFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Upcase(tt.c); got != tt.want {
				t.Errorf("Upcase(%#04x) = %#04x, want %#04x", tt.c, got, tt.want)
			}
		})
	}
}

func TestTableChecksum(t *testing.T) {
	tests := []struct {
		name  string
		table []byte
		want  uint32
	}{
		{name: "empty", table: nil, want: 0},
		{name: "single byte", table: []byte{0x41}, want: 0x41},
		{name: "rotates right before adding", table: []byte{0x01, 0x00}, want: 0x80000000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TableChecksum(tt.table); got != tt.want {
				t.Errorf("TableChecksum() = %#08x, want %#08x", got, tt.want)
			}
		})
	}
}

func TestNameHash(t *testing.T) {
	tests := []struct {
		name string
		file string
		want uint16
	}{
		{name: "single letter", file: "A", want: 0x8020},
		{name: "mixed case", file: "README.md", want: 0xCBE8},
		{name: "hash ignores the case", file: "readme.md", want: 0xCBE8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NameHash(utf16.Encode([]rune(tt.file))); got != tt.want {
				t.Errorf("NameHash(%q) = %#04x, want %#04x", tt.file, got, tt.want)
			}
		})
	}
}
