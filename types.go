// types.go
//
// The Wrench static type model.
//
// Primitive types are nominal; row and table types are structural: two row
// (or table) types are equal iff they carry the same set of (name, type)
// columns, regardless of declaration order. Column lists are kept in source
// order for literal construction and printing, and compared through a
// canonical name-sorted view.
package wrench

import (
	"sort"
	"strings"
)

// Kind discriminates the type constructors.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindDouble
	KindString
	KindNull
	KindArray
	KindRow
	KindTable
	KindFunc
)

// Column is one named, typed column of a row or table schema.
type Column struct {
	Name string
	Type *Type
}

// Type is a Wrench type. The Kind selects which fields are meaningful:
// Elem for arrays, Cols for rows and tables (source order), Params/Ret for
// functions.
type Type struct {
	Kind   Kind
	Elem   *Type
	Cols   []Column
	Params []*Type
	Ret    *Type
}

// Primitive singletons. Composite types are built with ArrayOf/RowOf/TableOf/FuncOf.
var (
	TypBool   = &Type{Kind: KindBool}
	TypInt    = &Type{Kind: KindInt}
	TypDouble = &Type{Kind: KindDouble}
	TypString = &Type{Kind: KindString}
	TypNull   = &Type{Kind: KindNull}
)

func ArrayOf(elem *Type) *Type       { return &Type{Kind: KindArray, Elem: elem} }
func RowOf(cols []Column) *Type      { return &Type{Kind: KindRow, Cols: cols} }
func TableOf(cols []Column) *Type    { return &Type{Kind: KindTable, Cols: cols} }
func FuncOf(params []*Type, ret *Type) *Type {
	return &Type{Kind: KindFunc, Params: params, Ret: ret}
}

// IsNumeric reports whether t is int or double.
func (t *Type) IsNumeric() bool {
	return t.Kind == KindInt || t.Kind == KindDouble
}

// sortedCols returns the canonical name-ordered view of a schema.
func sortedCols(cols []Column) []Column {
	out := make([]Column, len(cols))
	copy(out, cols)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Equal is structural type equality. Rows and tables compare their canonical
// column multisets; arrays compare element types; functions compare
// signatures pointwise.
func (t *Type) Equal(o *Type) bool {
	if t == nil || o == nil {
		return t == o
	}
	if t.Kind != o.Kind {
		return false
	}
	switch t.Kind {
	case KindArray:
		return t.Elem.Equal(o.Elem)
	case KindRow, KindTable:
		return schemaEqual(t.Cols, o.Cols)
	case KindFunc:
		if len(t.Params) != len(o.Params) {
			return false
		}
		for i := range t.Params {
			if !t.Params[i].Equal(o.Params[i]) {
				return false
			}
		}
		return t.Ret.Equal(o.Ret)
	default:
		return true
	}
}

func schemaEqual(a, b []Column) bool {
	if len(a) != len(b) {
		return false
	}
	as, bs := sortedCols(a), sortedCols(b)
	for i := range as {
		if as[i].Name != bs[i].Name || !as[i].Type.Equal(bs[i].Type) {
			return false
		}
	}
	return true
}

// ColumnType returns the type of the named column, if present.
func (t *Type) ColumnType(name string) (*Type, bool) {
	for _, c := range t.Cols {
		if c.Name == name {
			return c.Type, true
		}
	}
	return nil, false
}

// AssignableTo reports whether a value of type t may bind a site of type dst.
// Identity plus the single implicit widening int -> double.
func (t *Type) AssignableTo(dst *Type) bool {
	if t.Equal(dst) {
		return true
	}
	return t.Kind == KindInt && dst.Kind == KindDouble
}

// String renders the type in surface syntax, columns in source order.
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindDouble:
		return "double"
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindArray:
		return "array(" + t.Elem.String() + ")"
	case KindRow:
		return "row(" + formatCols(t.Cols) + ")"
	case KindTable:
		return "table(" + formatCols(t.Cols) + ")"
	case KindFunc:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + t.Ret.String()
	default:
		return "<unknown>"
	}
}

func formatCols(cols []Column) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.Type.String() + " " + c.Name
	}
	return strings.Join(parts, ", ")
}
