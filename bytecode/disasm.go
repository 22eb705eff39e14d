package bytecode

import (
	"fmt"
	"strings"

	"github.com/chazu/chips/vm"
)

// DisassembleInstruction renders one instruction as "0007  mnemonic args".
func DisassembleInstruction(pc int, in vm.Instruction) string {
	line := fmt.Sprintf("%04d  %s", pc, in)
	if !in.Loc.IsZero() {
		line += "  ; " + in.Loc.String()
	}
	return line
}

// DisassembleCode renders every instruction on its own line.
func DisassembleCode(code []vm.Instruction) string {
	var sb strings.Builder
	for pc, in := range code {
		if pc > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(DisassembleInstruction(pc, in))
	}
	return sb.String()
}

// Disassemble decodes a stream and renders it.
func Disassemble(data []byte, cat *vm.Catalog) (string, error) {
	s, err := Load(data, cat)
	if err != nil {
		return "", err
	}
	return DisassembleCode(s.Code), nil
}
