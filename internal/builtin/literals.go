package builtin

import (
	"github.com/tardi-lang/tardi/internal/code"
	"github.com/tardi-lang/tardi/internal/terr"
	"github.com/tardi-lang/tardi/internal/value"
)

// opVecLiteral and opHashmapLiteral implement the `{ ... }` and
// `H{ {k v} ... }` canonical macros: both are registered as immediate
// words, so the compiler transfers control to them exactly as it does for
// any other macro, and they build their constant directly by calling back
// into the scanner — vectors can't yet be bootstrapped in Tardi itself at
// the point `{` needs to exist, so these live here as natives rather than
// as std/bootstrap source.
func (r *ScannerRef) opVecLiteral(m code.Machine) error {
	host, err := r.host("{")
	if err != nil {
		return err
	}
	vec, err := buildVectorLiteral(host)
	if err != nil {
		return err
	}
	return emitLiteral(m, vec)
}

func (r *ScannerRef) opHashmapLiteral(m code.Machine) error {
	host, err := r.host("H{")
	if err != nil {
		return err
	}
	hm := value.New(value.NewHashmap())
	for {
		v, word, err := host.ScanValue()
		if err != nil {
			return terr.ScanError{Kind: terr.UnterminatedList, Loc: host.Loc(), Text: "}"}
		}
		if v == nil && word == "}" {
			break
		}
		if v != nil || word != "{" {
			return terr.CompileError{Kind: terr.UnexpectedEnd, Loc: host.Loc(), Word: "H{"}
		}
		pair, err := buildVectorLiteral(host)
		if err != nil {
			return err
		}
		items := pair.V.VecItems()
		if len(items) != 2 {
			return terr.CompileError{Kind: terr.UnexpectedEnd, Loc: host.Loc(), Word: "H{"}
		}
		if err := hm.V.HashmapSet(items[0].V, items[1]); err != nil {
			return err
		}
	}
	return emitLiteral(m, hm)
}

// buildVectorLiteral scans tokens until the matching `}`, collecting each
// one as a vector element; a nested `{` recurses (so vector literals may
// nest, and a hashmap literal's `{k v}` pairs are just 2-element vectors).
func buildVectorLiteral(host ScannerHost) (*value.Shared, error) {
	var items []*value.Shared
	for {
		v, word, err := host.ScanValue()
		if err != nil {
			return nil, terr.ScanError{Kind: terr.UnterminatedList, Loc: host.Loc(), Text: "}"}
		}
		if v == nil && word == "}" {
			return value.New(value.NewVector(items)), nil
		}
		if v != nil {
			items = append(items, v)
			continue
		}
		if word == "{" {
			nested, err := buildVectorLiteral(host)
			if err != nil {
				return nil, err
			}
			items = append(items, nested)
			continue
		}
		return nil, terr.CompileError{Kind: terr.UnknownWord, Word: word, Loc: host.Loc()}
	}
}

// emitLiteral interns v as a constant and emits the LitConst instruction
// that pushes it, the same recipe internal/compiler uses for lambdas.
func emitLiteral(m code.Machine, v *value.Shared) error {
	k := m.Constants().Intern(v)
	m.Stream().Emit(int(code.LitConst))
	m.Stream().Emit(k)
	return nil
}
