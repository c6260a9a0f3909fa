package code

// Opcode identifies a cell at the head of an instruction as one of the
// VM's fixed dispatch primitives. Every other cell in the stream is either
// an opcode or an inline operand belonging to the opcode immediately
// preceding it.
type Opcode int

const (
	// LitConst k: push constants[k] (via Dup, so the same shared cell)
	// onto the data stack.
	LitConst Opcode = iota
	// Call i: push ip onto the VM's internal call stack, then jump to
	// op-table slot i (a user op) or invoke it directly (a native op).
	Call
	// CallStack: pop an address off the data stack and Call it.
	CallStack
	// Return: pop the internal call stack into ip.
	Return
	// Jump t: set ip to the literal target t.
	Jump
	// JumpStack: pop an address off the data stack and jump to it.
	JumpStack
	// Ip: push the current ip onto the data stack.
	Ip
	// Apply: pop a lambda value and invoke its code address as Call does.
	Apply
	// Break: unwind the innermost enclosing loop (native `while`/`loop`).
	Break
	// Continue: restart the innermost enclosing loop's test.
	Continue
	// Halt: stop dispatch; used to terminate the top-level instruction
	// stream cleanly after a script's last top-level form.
	Halt
)

func (op Opcode) String() string {
	switch op {
	case LitConst:
		return "lit-const"
	case Call:
		return "call"
	case CallStack:
		return "call-stack"
	case Return:
		return "return"
	case Jump:
		return "jump"
	case JumpStack:
		return "jump-stack"
	case Ip:
		return "ip"
	case Apply:
		return "apply"
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Halt:
		return "halt"
	default:
		return "unknown"
	}
}

// Arity reports how many inline operand cells follow the opcode in the
// instruction stream.
func (op Opcode) Arity() int {
	switch op {
	case LitConst, Call, Jump:
		return 1
	default:
		return 0
	}
}
