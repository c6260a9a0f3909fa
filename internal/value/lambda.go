package value

// Lambda is a record `{ name?, source_words?, code_addr }`: code_addr is
// the entry point inside the instruction stream. A `:` function is not a
// Lambda value: it is an op-table slot holding its entry address, bound in
// a module's name map (see internal/code.OpTable and code.NameMap).
type Lambda struct {
	Name        string
	SourceWords []string
	CodeAddr    Addr
}

func NewLambda(lam *Lambda) Value { return Value{kind: Lambda, lam: lam} }

func (v Value) LambdaInfo() *Lambda { return v.lam }
