// Package code implements Tardi's compiled-code model: the flat instruction
// stream, the constant table, the operation table, and the per-module name
// map.
package code

import (
	"github.com/tardi-lang/tardi/internal/mem"
	"github.com/tardi-lang/tardi/internal/value"
)

// Stream is the flat instruction vector shared by every module compiled into
// a process: a single sequence of word-sized cells (opcode followed by zero
// or more inline operand cells). It is built directly on internal/mem.Ints'
// paged integer memory — the same page-allocation, load, store and grow
// algorithm used for a Forth-style dictionary, here holding Tardi bytecode
// instead.
type Stream struct {
	mem mem.Ints
	end value.Addr
}

// NewStream returns an empty instruction stream.
func NewStream() *Stream {
	return &Stream{mem: mem.Ints{PageSize: mem.DefaultIntsPageSize}}
}

// Len returns the address one past the last emitted cell.
func (s *Stream) Len() value.Addr { return s.end }

// Emit appends a single cell (opcode or operand), returning its address.
func (s *Stream) Emit(cell int) value.Addr {
	addr := s.end
	// Stor only errors when a memory Limit is configured; the instruction
	// stream never sets one, so this is infallible in practice.
	_ = s.mem.Stor(uint(addr), cell)
	s.end++
	return addr
}

// Reserve emits a placeholder cell, to be filled in later by Patch (used for
// the "jump around the embedded code" finalize strategy).
func (s *Stream) Reserve() value.Addr { return s.Emit(0) }

// Patch overwrites an already-emitted cell, e.g. to back-fill a jump target
// once the destination address is known.
func (s *Stream) Patch(addr value.Addr, cell int) {
	_ = s.mem.Stor(uint(addr), cell)
}

// Load returns the cell at addr.
func (s *Stream) Load(addr value.Addr) int {
	v, _ := s.mem.Load(uint(addr))
	return v
}

// Fetch reads the cell at *ip and advances *ip by one, the VM's fundamental
// fetch-and-advance primitive.
func (s *Stream) Fetch(ip *value.Addr) int {
	v := s.Load(*ip)
	*ip++
	return v
}
