package models

import "strings"

// Signal is a named bit field declared inside a message.
type Signal struct {
	Name      string `yaml:"name" json:"name"`
	StartBit  int    `yaml:"start_bit" json:"start_bit"`
	Size      int    `yaml:"size" json:"size"`
	Unit      string `yaml:"unit,omitempty" json:"unit,omitempty"`
	Comment   string `yaml:"comment,omitempty" json:"comment,omitempty"`
	BigEndian bool   `yaml:"big_endian,omitempty" json:"big_endian,omitempty"`
}

// MessageDecl is a message declared in a symbol database.
type MessageDecl struct {
	Address     uint32   `yaml:"address" json:"address"`
	Name        string   `yaml:"name" json:"name"`
	Size        int      `yaml:"size" json:"size"`
	Transmitter string   `yaml:"transmitter,omitempty" json:"transmitter,omitempty"`
	Comment     string   `yaml:"comment,omitempty" json:"comment,omitempty"`
	Signals     []Signal `yaml:"signals,omitempty" json:"signals,omitempty"`
}

// HasSignalContaining reports whether any signal name contains text,
// ignoring case. text must already be lower case.
func (m *MessageDecl) HasSignalContaining(lowerText string) bool {
	if m == nil {
		return false
	}
	for _, sig := range m.Signals {
		if strings.Contains(strings.ToLower(sig.Name), lowerText) {
			return true
		}
	}
	return false
}
