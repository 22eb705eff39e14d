// Package bytecode implements the persistent encoding of Chips programs.
//
// A stream is a header, a deduplicated string heap and a list of
// instructions. Each instruction is its opcode selector (the family byte
// then the child byte for family opcodes) followed, unless the opcode takes
// no operands, by a varint operand count and the tagged operands.
//
// Every count, length and offset is an unsigned LEB128 varint. Fixed-width
// payloads are little endian.
package bytecode
