package bytecode

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/chazu/chips/vm"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("chips.bytecode")

// Magic opens every stream.
var Magic = [4]byte{'C', 'H', 'P', 'S'}

// Version is the stream format written by Encode.
const Version uint16 = 1

// Stream flags.
const (
	FlagDebug uint16 = 1 << iota // per-instruction file and line
)

// Stream is a decoded or to-be-encoded program.
type Stream struct {
	Version uint16
	Flags   uint16
	Heap    *StringHeap
	Code    []vm.Instruction
}

// Debug reports whether the stream carries source locations.
func (s *Stream) Debug() bool { return s.Flags&FlagDebug != 0 }

// Program returns the stream's code as a runnable program.
func (s *Stream) Program(name string) *vm.Program {
	return &vm.Program{Name: name, Code: s.Code}
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Encode serializes code. With debug set every instruction also records
// its source location.
func Encode(code []vm.Instruction, debug bool) ([]byte, error) {
	heap := NewStringHeap()
	body := NewEncoder(heap)
	body.WriteVarint(uint64(len(code)))
	for i, in := range code {
		if err := encodeInstruction(body, in, debug); err != nil {
			return nil, &InstructionError{Index: i, Err: err}
		}
	}

	var flags uint16
	if debug {
		flags |= FlagDebug
	}
	out := make([]byte, 0, 8+heap.Len()+body.Len()+binary.MaxVarintLen64)
	out = append(out, Magic[:]...)
	out = binary.LittleEndian.AppendUint16(out, Version)
	out = binary.LittleEndian.AppendUint16(out, flags)
	out = binary.AppendUvarint(out, uint64(heap.Len()))
	out = append(out, heap.Bytes()...)
	out = append(out, body.Bytes()...)
	log.Debugf("encoded %d instructions, heap %d bytes, total %d bytes", len(code), heap.Len(), len(out))
	return out, nil
}

func encodeInstruction(e *Encoder, in vm.Instruction, debug bool) error {
	op := in.Op
	if op == nil || op.IsFamily() {
		return fmt.Errorf("unresolved opcode")
	}
	e.buf = append(e.buf, op.Bytes()...)
	if op.NoBody {
		if len(in.Args) != 0 {
			return fmt.Errorf("%s takes no operands, got %d", op.Name, len(in.Args))
		}
	} else {
		if !op.Accepts(len(in.Args)) {
			return fmt.Errorf("%s cannot take %d operands", op.Name, len(in.Args))
		}
		e.WriteVarint(uint64(len(in.Args)))
		for j, a := range in.Args {
			if err := e.WriteOperand(a); err != nil {
				return fmt.Errorf("operand %d: %w", j, err)
			}
		}
	}
	if debug {
		e.WriteString(in.Loc.File)
		e.WriteVarint(uint64(in.Loc.Line))
	}
	return nil
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load decodes a stream, resolving opcodes against cat.
func Load(data []byte, cat *vm.Catalog) (*Stream, error) {
	if len(data) < 8 || !bytes.Equal(data[:4], Magic[:]) {
		return nil, ErrBadMagic
	}
	s := &Stream{
		Version: binary.LittleEndian.Uint16(data[4:6]),
		Flags:   binary.LittleEndian.Uint16(data[6:8]),
	}
	if s.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, s.Version)
	}

	hd := NewDecoder(data[8:], nil)
	heapLen, err := hd.readCount()
	if err != nil {
		return nil, fmt.Errorf("heap length: %w", err)
	}
	heapBytes, err := hd.next(heapLen)
	if err != nil {
		return nil, fmt.Errorf("heap: %w", err)
	}
	s.Heap = heapFromBytes(heapBytes)

	d := NewDecoder(data[8+hd.Position():], s.Heap)
	n, err := d.readCount()
	if err != nil {
		return nil, fmt.Errorf("instruction count: %w", err)
	}
	s.Code = make([]vm.Instruction, 0, min(n, len(data)))
	for i := 0; i < n; i++ {
		in, err := decodeInstruction(d, cat, s.Debug())
		if err != nil {
			return nil, &InstructionError{Index: i, Err: err}
		}
		s.Code = append(s.Code, in)
	}
	if d.HasMore() {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorrupt, len(data)-8-hd.Position()-d.Position())
	}
	log.Debugf("loaded %d instructions", len(s.Code))
	return s, nil
}

func decodeInstruction(d *Decoder, cat *vm.Catalog, debug bool) (vm.Instruction, error) {
	op, err := cat.Root().Resolve(d.ReadByte)
	if err != nil {
		return vm.Instruction{}, err
	}
	in := vm.Instruction{Op: op}
	if !op.NoBody {
		count, err := d.readCount()
		if err != nil {
			return in, err
		}
		if !op.Accepts(count) {
			return in, fmt.Errorf("%w: %s cannot take %d operands", ErrCorrupt, op.Name, count)
		}
		// Every operand starts with a tag byte.
		if rest := d.Remaining(); count > rest {
			return in, fmt.Errorf("%w: %d operands in %d bytes", ErrTruncated, count, rest)
		}
		in.Args = make([]vm.Operand, count)
		for j := range in.Args {
			if in.Args[j], err = d.ReadOperand(); err != nil {
				return in, fmt.Errorf("operand %d: %w", j, err)
			}
		}
	}
	if debug {
		file, err := d.ReadString()
		if err != nil {
			return in, err
		}
		line, err := d.readCount()
		if err != nil {
			return in, err
		}
		in.Loc = vm.Location{File: file, Line: line}
	}
	return in, nil
}
