package bytecode

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"

	"github.com/chazu/chips/vm"
	"github.com/chazu/chips/vm/numeric"
	"github.com/x448/float16"
)

// Tag is the first byte of every encoded operand. Numeric constants use
// their numeric.Kind as the tag.
type Tag byte

const (
	TagString   Tag = 0x11
	TagChar     Tag = 0x12
	TagBool     Tag = 0x13
	TagIndexer  Tag = 0x14
	TagDuration Tag = 0x15
	TagDate     Tag = 0x16
	TagRange    Tag = 0x17
	TagPattern  Tag = 0x18

	TagVariable Tag = 0x20
	TagLabel    Tag = 0x21
)

// ---------------------------------------------------------------------------
// Encoder
// ---------------------------------------------------------------------------

// Encoder appends wire primitives to a buffer, interning strings in heap.
type Encoder struct {
	buf  []byte
	heap *StringHeap
}

func NewEncoder(heap *StringHeap) *Encoder {
	return &Encoder{heap: heap}
}

// Bytes returns the encoded bytes.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) WriteByte(b byte) error {
	e.buf = append(e.buf, b)
	return nil
}

// WriteVarint appends an unsigned LEB128 integer.
func (e *Encoder) WriteVarint(n uint64) {
	e.buf = binary.AppendUvarint(e.buf, n)
}

func (e *Encoder) writeUint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }
func (e *Encoder) writeUint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }
func (e *Encoder) writeUint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

// WriteString appends a heap reference for s.
func (e *Encoder) WriteString(s string) {
	ref := e.heap.GetOrAdd(s)
	e.WriteVarint(uint64(ref.Offset))
	e.WriteVarint(uint64(ref.Length))
}

// WriteVariableAccess appends the access word for a variable: the index
// shifted left two bits with the address space in the low bits.
func (e *Encoder) WriteVariableAccess(space vm.Space, index int) {
	e.WriteVarint(uint64(index)<<2 | uint64(space&3))
}

// WriteConstant appends a tag byte and the payload for v.
func (e *Encoder) WriteConstant(v vm.Value) error {
	switch x := v.(type) {
	case numeric.Value:
		return e.writeNumber(x)
	case string:
		e.WriteByte(byte(TagString))
		e.WriteString(x)
	case vm.Char:
		e.WriteByte(byte(TagChar))
		e.writeUint32(uint32(x))
	case bool:
		e.WriteByte(byte(TagBool))
		if x {
			e.WriteByte(1)
		} else {
			e.WriteByte(0)
		}
	case vm.Indexer:
		e.WriteByte(byte(TagIndexer))
		e.writeUint64(uint64(x.Index))
		if x.FromEnd {
			e.WriteByte(1)
		} else {
			e.WriteByte(0)
		}
	case time.Duration:
		e.WriteByte(byte(TagDuration))
		e.writeUint64(uint64(x))
	case time.Time:
		e.WriteByte(byte(TagDate))
		e.writeUint64(uint64(x.Unix()))
		e.writeUint32(uint32(x.Nanosecond()))
	case vm.Range:
		e.WriteByte(byte(TagRange))
		e.writeUint64(uint64(x.Start))
		e.writeUint64(uint64(x.End))
		e.writeUint64(uint64(x.Step))
	case *regexp.Regexp:
		e.WriteByte(byte(TagPattern))
		e.WriteString(x.String())
	default:
		return &UnencodableError{Type: vm.TypeName(v)}
	}
	return nil
}

func (e *Encoder) writeNumber(n numeric.Value) error {
	k := n.Kind()
	if !k.Valid() {
		return &UnencodableError{Type: "invalid number"}
	}
	e.WriteByte(byte(k))
	switch k {
	case numeric.SByte, numeric.Byte:
		e.WriteByte(byte(rawInteger(n)))
	case numeric.Short, numeric.UShort:
		e.writeUint16(uint16(rawInteger(n)))
	case numeric.Int, numeric.UInt:
		e.writeUint32(uint32(rawInteger(n)))
	case numeric.Long, numeric.NInt, numeric.ULong, numeric.NUInt:
		e.writeUint64(rawInteger(n))
	case numeric.BigInt:
		b := twosComplement(n.Big())
		e.WriteVarint(uint64(len(b)))
		e.buf = append(e.buf, b...)
	case numeric.Half:
		e.writeUint16(n.Half().Bits())
	case numeric.Float:
		e.writeUint32(math.Float32bits(float32(n.Float64())))
	case numeric.Double:
		e.writeUint64(math.Float64bits(n.Float64()))
	case numeric.Decimal:
		lo, mid, hi, flags, err := n.DecimalBits()
		if err != nil {
			return err
		}
		e.writeUint32(lo)
		e.writeUint32(mid)
		e.writeUint32(hi)
		e.writeUint32(flags)
	case numeric.Complex:
		c := n.Complex128()
		e.writeUint64(math.Float64bits(real(c)))
		e.writeUint64(math.Float64bits(imag(c)))
	}
	return nil
}

// rawInteger returns the two's-complement bit pattern of a fixed-width
// integer.
func rawInteger(n numeric.Value) uint64 {
	if n.Kind().IsSigned() {
		return uint64(n.Int64())
	}
	return n.Uint64()
}

// twosComplement renders b as a big-endian two's-complement byte string
// with at least one byte.
func twosComplement(b *big.Int) []byte {
	if b.Sign() >= 0 {
		out := b.Bytes()
		if len(out) == 0 || out[0]&0x80 != 0 {
			out = append([]byte{0}, out...)
		}
		return out
	}
	n := (b.BitLen() + 8) / 8
	mod := new(big.Int).Lsh(big.NewInt(1), uint(n*8))
	out := mod.Add(mod, b).Bytes()
	for len(out) < n {
		out = append([]byte{0xFF}, out...)
	}
	return out
}

func fromTwosComplement(b []byte) *big.Int {
	v := new(big.Int).SetBytes(b)
	if len(b) > 0 && b[0]&0x80 != 0 {
		v.Sub(v, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return v
}

// WriteOperand appends a resolved operand.
func (e *Encoder) WriteOperand(op vm.Operand) error {
	switch op.Kind {
	case vm.OperandConst:
		return e.WriteConstant(op.Value)
	case vm.OperandVar:
		e.WriteByte(byte(TagVariable))
		e.WriteVariableAccess(op.Var.Space, op.Var.Index)
	case vm.OperandLabel:
		e.WriteByte(byte(TagLabel))
		e.WriteVarint(uint64(op.Label))
	default:
		return fmt.Errorf("operand kind %d", op.Kind)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Decoder
// ---------------------------------------------------------------------------

// Decoder reads wire primitives from a buffer.
type Decoder struct {
	data []byte
	pos  int
	heap *StringHeap
}

func NewDecoder(data []byte, heap *StringHeap) *Decoder {
	return &Decoder{data: data, heap: heap}
}

// Position returns the read offset.
func (d *Decoder) Position() int { return d.pos }

// HasMore reports whether unread bytes remain.
func (d *Decoder) HasMore() bool { return d.pos < len(d.data) }

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.pos }

func (d *Decoder) ReadByte() (byte, error) {
	if d.pos >= len(d.data) {
		return 0, ErrTruncated
	}
	b := d.data[d.pos]
	d.pos++
	return b, nil
}

func (d *Decoder) next(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.data) {
		return nil, ErrTruncated
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadVarint reads an unsigned LEB128 integer.
func (d *Decoder) ReadVarint() (uint64, error) {
	v, n := binary.Uvarint(d.data[d.pos:])
	switch {
	case n == 0:
		return 0, ErrTruncated
	case n < 0:
		return 0, fmt.Errorf("%w: varint overflows 64 bits at %d", ErrCorrupt, d.pos)
	}
	d.pos += n
	return v, nil
}

// readCount reads a varint that indexes or sizes something in memory.
func (d *Decoder) readCount() (int, error) {
	v, err := d.ReadVarint()
	if err != nil {
		return 0, err
	}
	if v > math.MaxInt32 {
		return 0, fmt.Errorf("%w: count %d at %d", ErrCorrupt, v, d.pos)
	}
	return int(v), nil
}

func (d *Decoder) readUint16() (uint16, error) {
	b, err := d.next(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (d *Decoder) readUint32() (uint32, error) {
	b, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (d *Decoder) readUint64() (uint64, error) {
	b, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadString reads a heap reference and resolves it.
func (d *Decoder) ReadString() (string, error) {
	off, err := d.readCount()
	if err != nil {
		return "", err
	}
	n, err := d.readCount()
	if err != nil {
		return "", err
	}
	return d.heap.GetString(HeapRef{Offset: off, Length: n})
}

// ReadVariableAccess reads an access word.
func (d *Decoder) ReadVariableAccess() (vm.Space, int, error) {
	w, err := d.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	if w>>2 > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: variable index %d", ErrCorrupt, w>>2)
	}
	return vm.Space(w & 3), int(w >> 2), nil
}

// ReadOperand reads one tagged operand.
func (d *Decoder) ReadOperand() (vm.Operand, error) {
	start := d.pos
	tag, err := d.ReadByte()
	if err != nil {
		return vm.Operand{}, err
	}
	switch Tag(tag) {
	case TagVariable:
		space, index, err := d.ReadVariableAccess()
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.Var(space, index), nil
	case TagLabel:
		target, err := d.readCount()
		if err != nil {
			return vm.Operand{}, err
		}
		return vm.LabelRef(target), nil
	}
	d.pos = start
	v, err := d.ReadConstant()
	if err != nil {
		return vm.Operand{}, err
	}
	return vm.Const(v), nil
}

// ReadConstant reads a tag byte and its payload.
func (d *Decoder) ReadConstant() (vm.Value, error) {
	start := d.pos
	tag, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	if k := numeric.Kind(tag); k.Valid() {
		return d.readNumber(k)
	}
	switch Tag(tag) {
	case TagString:
		return d.ReadString()
	case TagChar:
		r, err := d.readUint32()
		return vm.Char(r), err
	case TagBool:
		b, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		if b > 1 {
			return nil, fmt.Errorf("%w: bool byte %d", ErrCorrupt, b)
		}
		return b == 1, nil
	case TagIndexer:
		i, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		end, err := d.ReadByte()
		if err != nil {
			return nil, err
		}
		return vm.Indexer{Index: int64(i), FromEnd: end != 0}, nil
	case TagDuration:
		n, err := d.readUint64()
		return time.Duration(n), err
	case TagDate:
		sec, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		nsec, err := d.readUint32()
		if err != nil {
			return nil, err
		}
		return time.Unix(int64(sec), int64(nsec)).UTC(), nil
	case TagRange:
		var f [3]uint64
		for i := range f {
			if f[i], err = d.readUint64(); err != nil {
				return nil, err
			}
		}
		return vm.Range{Start: int64(f[0]), End: int64(f[1]), Step: int64(f[2])}, nil
	case TagPattern:
		s, err := d.ReadString()
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return re, nil
	}
	return nil, &TagError{Tag: tag, Pos: start}
}

func (d *Decoder) readNumber(k numeric.Kind) (vm.Value, error) {
	switch k {
	case numeric.SByte, numeric.Byte:
		b, err := d.ReadByte()
		return fixedInteger(k, uint64(b)), err
	case numeric.Short, numeric.UShort:
		v, err := d.readUint16()
		return fixedInteger(k, uint64(v)), err
	case numeric.Int, numeric.UInt:
		v, err := d.readUint32()
		return fixedInteger(k, uint64(v)), err
	case numeric.Long, numeric.NInt, numeric.ULong, numeric.NUInt:
		v, err := d.readUint64()
		return fixedInteger(k, v), err
	case numeric.BigInt:
		n, err := d.readCount()
		if err != nil {
			return nil, err
		}
		b, err := d.next(n)
		if err != nil {
			return nil, err
		}
		return numeric.FromBig(fromTwosComplement(b)), nil
	case numeric.Half:
		v, err := d.readUint16()
		return numeric.FromHalf(float16.Frombits(v)), err
	case numeric.Float:
		v, err := d.readUint32()
		return numeric.FromFloat32(math.Float32frombits(v)), err
	case numeric.Double:
		v, err := d.readUint64()
		return numeric.FromFloat64(math.Float64frombits(v)), err
	case numeric.Decimal:
		var w [4]uint32
		for i := range w {
			v, err := d.readUint32()
			if err != nil {
				return nil, err
			}
			w[i] = v
		}
		n, err := numeric.FromDecimalBits(w[0], w[1], w[2], w[3])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		return n, nil
	case numeric.Complex:
		re, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		im, err := d.readUint64()
		if err != nil {
			return nil, err
		}
		return numeric.FromComplex(complex(math.Float64frombits(re), math.Float64frombits(im))), nil
	}
	return nil, &TagError{Tag: byte(k), Pos: d.pos - 1}
}

// fixedInteger rebuilds a fixed-width integer from its raw bit pattern,
// sign-extending signed kinds.
func fixedInteger(k numeric.Kind, raw uint64) numeric.Value {
	if k.IsSigned() {
		shift := 64 - k.Bits()
		return numeric.NewInt(k, int64(raw<<shift)>>shift)
	}
	return numeric.NewUint(k, raw)
}
