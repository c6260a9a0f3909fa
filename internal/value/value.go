// Package value implements Tardi's tagged value model: a small sum type over
// primitives and compound types, held through shared, interior-mutable
// cells so that stack copies alias the same storage (see Shared).
package value

import "fmt"

// Kind tags the variant held by a Value.
type Kind uint8

const (
	Int Kind = iota
	Float
	Bool
	Char
	String
	Vector
	Hashmap
	Lambda
	Address
	Writer
	Reader
	Error
)

var kindNames = [...]string{
	Int: "integer", Float: "float", Bool: "boolean", Char: "character",
	String: "string", Vector: "vector", Hashmap: "hashmap", Lambda: "lambda",
	Address: "address", Writer: "writer", Reader: "reader", Error: "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Addr is an instruction-stream index, produced for return-stack storage and
// for the Address value kind.
type Addr uint32

// Value is a tagged variant. Compound payloads (vector, hashmap, lambda,
// writer, reader, error) are held by pointer so that copying a Value copies
// the tag cheaply; the required aliasing semantics live one level up, in
// Shared.
type Value struct {
	kind Kind

	i    int64
	f    float64
	b    bool
	ch   rune
	s    string
	addr Addr

	vec *vector
	hm  *Hashmap
	lam *Lambda
	rw  *ioHandle
	err *errVal
}

func (v Value) Kind() Kind { return v.kind }

func NewInt(i int64) Value     { return Value{kind: Int, i: i} }
func NewFloat(f float64) Value { return Value{kind: Float, f: f} }
func NewBool(b bool) Value     { return Value{kind: Bool, b: b} }
func NewChar(r rune) Value     { return Value{kind: Char, ch: r} }
func NewString(s string) Value { return Value{kind: String, s: s} }
func NewAddr(a Addr) Value     { return Value{kind: Address, addr: a} }

func (v Value) Int() int64   { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Bool() bool   { return v.b }
func (v Value) Char() rune   { return v.ch }
func (v Value) Str() string  { return v.s }
func (v Value) Addr() Addr   { return v.addr }

// AsFloat returns the value's numeric contents promoted to float64; it is
// only meaningful when Kind() is Int or Float.
func (v Value) AsFloat() float64 {
	if v.kind == Float {
		return v.f
	}
	return float64(v.i)
}

func (v Value) IsNumeric() bool { return v.kind == Int || v.kind == Float }
