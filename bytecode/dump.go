package bytecode

import (
	"fmt"

	"github.com/chazu/chips/vm"
	"github.com/fxamacker/cbor/v2"
)

// Dump is a self-describing view of a stream for tools that do not link
// the catalog.
type Dump struct {
	Version uint16     `cbor:"version"`
	Debug   bool       `cbor:"debug"`
	Heap    string     `cbor:"heap"`
	Code    []DumpInst `cbor:"code"`
}

// DumpInst is one instruction of a Dump.
type DumpInst struct {
	PC       int           `cbor:"pc"`
	Mnemonic string        `cbor:"op"`
	Selector []byte        `cbor:"sel"`
	Class    string        `cbor:"class,omitempty"`
	Args     []DumpOperand `cbor:"args,omitempty"`
	File     string        `cbor:"file,omitempty"`
	Line     int           `cbor:"line,omitempty"`
}

// DumpOperand is one operand rendered as text.
type DumpOperand struct {
	Kind string `cbor:"kind"`
	Type string `cbor:"type,omitempty"`
	Text string `cbor:"text"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// NewDump builds the dump view of s.
func NewDump(s *Stream) *Dump {
	d := &Dump{Version: s.Version, Debug: s.Debug(), Code: make([]DumpInst, len(s.Code))}
	if s.Heap != nil {
		d.Heap = string(s.Heap.Bytes())
	}
	for pc, in := range s.Code {
		di := DumpInst{
			PC:       pc,
			Mnemonic: in.Op.Name,
			Selector: in.Op.Bytes(),
			Class:    in.Op.Class.String(),
			File:     in.Loc.File,
			Line:     in.Loc.Line,
		}
		for _, a := range in.Args {
			do := DumpOperand{Text: a.String()}
			switch a.Kind {
			case vm.OperandConst:
				do.Kind, do.Type = "const", vm.TypeName(a.Value)
			case vm.OperandVar:
				do.Kind, do.Type = "var", a.Var.Space.String()
			case vm.OperandLabel:
				do.Kind = "label"
			}
			di.Args = append(di.Args, do)
		}
		d.Code[pc] = di
	}
	return d
}

// MarshalDump serializes a Dump to canonical CBOR.
func MarshalDump(d *Dump) ([]byte, error) {
	return cborEncMode.Marshal(d)
}

// UnmarshalDump deserializes a Dump from CBOR bytes.
func UnmarshalDump(data []byte) (*Dump, error) {
	var d Dump
	if err := cbor.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal dump: %w", err)
	}
	return &d, nil
}
