// Package vm implements the Chips register machine.
//
// This package contains:
//   - The dynamic value model and register file (A, X, Y, S, SP, F)
//   - The opcode catalog: a 256-entry dispatch table with family sub-tables
//   - Opcode behaviors operating on an explicit Context
//   - A reference interpreter over resolved instruction lists
//   - An execution profiler counting opcodes and hot instruction sites
//
// Numeric semantics live in the numeric subpackage; the wire format lives
// in package bytecode.
package vm
