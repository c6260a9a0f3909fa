package builtin

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

func popVector(m code.Machine, op string) (value.Value, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return value.Value{}, err
	}
	if s.V.Kind() != value.Vector {
		return value.Value{}, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V, nil
}

func popInt(m code.Machine, op string) (int64, error) {
	s, err := m.Data().Pop()
	if err != nil {
		return 0, err
	}
	if s.V.Kind() != value.Int {
		return 0, terr.VMError{Kind: terr.TypeMismatch, Op: op, Left: s.V.Kind().String()}
	}
	return s.V.Int(), nil
}

// Vector literals `{ ... }` are built at compile time by the `{` native
// immediate in literals.go (opVecLiteral), so this file only covers runtime
// vector operations.

// vecPush is the vector-append half of `push!`: `item vector push!` mutates
// vector in place and leaves it back on top. Spec text (§4.6) names `push!`
// as the same built-in the scanner-feedback macros use "to the stream";
// ScannerRef.opPushBang (scanhooks.go) is the single registered native and
// dispatches to this when no macro is currently running, matching the
// observation that the word is reused rather than duplicated.
func vecPush(m code.Machine) error {
	item, err := m.Data().Pop()
	if err != nil {
		return err
	}
	vec, err := popVector(m, "push!")
	if err != nil {
		return err
	}
	vec.VecPushBack(item)
	return m.Data().Push(value.New(vec))
}

func opVecPop(m code.Machine) error {
	vec, err := popVector(m, "pop!")
	if err != nil {
		return err
	}
	item, err := vec.VecPopBack()
	if err != nil {
		return err
	}
	if err := m.Data().Push(value.New(vec)); err != nil {
		return err
	}
	return m.Data().Push(item)
}

func opVecNth(m code.Machine) error {
	i, err := popInt(m, "nth")
	if err != nil {
		return err
	}
	vec, err := popVector(m, "nth")
	if err != nil {
		return err
	}
	item, err := vec.VecGet(int(i))
	if err != nil {
		return err
	}
	return m.Data().Push(item.Dup())
}

func opVecSetNth(m code.Machine) error {
	item, err := m.Data().Pop()
	if err != nil {
		return err
	}
	i, err := popInt(m, "set-nth!")
	if err != nil {
		return err
	}
	vec, err := popVector(m, "set-nth!")
	if err != nil {
		return err
	}
	if err := vec.VecSet(int(i), item); err != nil {
		return err
	}
	return m.Data().Push(value.New(vec))
}

// opLength is the polymorphic `length` word: it works on whichever
// container (Vector or Hashmap) is on top, since both track their own size.
func opLength(m code.Machine) error {
	s, err := m.Data().Pop()
	if err != nil {
		return err
	}
	switch s.V.Kind() {
	case value.Vector:
		return m.Data().Push(value.New(value.NewInt(int64(s.V.VecLen()))))
	case value.Hashmap:
		return m.Data().Push(value.New(value.NewInt(int64(s.V.HashmapLen()))))
	default:
		return terr.VMError{Kind: terr.TypeMismatch, Op: "length", Left: s.V.Kind().String()}
	}
}

// lambdaRunner is implemented by internal/vm.VM; natives that need to invoke
// a lambda argument synchronously (rather than just branch to it, as
// Apply/CallStack do) type-assert for it so this package need not import
// internal/vm directly.
type lambdaRunner interface {
	RunLambda(addr value.Addr) error
}

// opVecMap applies a lambda to every item of a vector, building a fresh
// vector of the results: `{ vector } [ lambda ] map`. Implemented natively
// (rather than as a bootstrap word built from while) because it needs to
// invoke the VM's own call mechanism per element — exactly the job
// runLambda already does for if/when/while in internal/vm/control.go.
func opVecMap(m code.Machine) error {
	lamS, err := m.Data().Pop()
	if err != nil {
		return err
	}
	if lamS.V.Kind() != value.Lambda {
		return terr.VMError{Kind: terr.TypeMismatch, Op: "map", Left: lamS.V.Kind().String()}
	}
	vec, err := popVector(m, "map")
	if err != nil {
		return err
	}
	runner, ok := m.(lambdaRunner)
	if !ok {
		return terr.VMError{Kind: terr.BadOpcode, Op: "map"}
	}
	items := vec.VecItems()
	out := make([]*value.Shared, len(items))
	for i, item := range items {
		if err := m.Data().Push(item.Dup()); err != nil {
			return err
		}
		if err := runner.RunLambda(lamS.V.LambdaInfo().CodeAddr); err != nil {
			return err
		}
		result, err := m.Data().Pop()
		if err != nil {
			return err
		}
		out[i] = result
	}
	return m.Data().Push(value.New(value.NewVector(out)))
}
