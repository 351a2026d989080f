// intrinsics.go — the fixed registry of named external operations.
//
// The evaluator consults this registry before the environment, so the four
// intrinsic names are reserved: print, import, async_import, table_add_row.
// CSV decoding follows the schema given at the call site; the header row maps
// file columns to schema fields, so column order in the file is free.
package wrench

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var intrinsicNames = map[string]bool{
	"print":         true,
	"import":        true,
	"async_import":  true,
	"table_add_row": true,
}

func isIntrinsic(name string) bool { return intrinsicNames[name] }

func (ip *Interpreter) callIntrinsic(pos Pos, name string, args []Value) Value {
	switch name {
	case "print":
		fmt.Fprintln(ip.Out, FormatValue(args[0]))
		return Null

	case "import":
		schema := args[1].Data.(*TableValue).Schema
		return ip.importCSV(pos, args[0].Data.(string), schema, false)

	case "async_import":
		schema := args[1].Data.(*TableValue).Schema
		return ip.importCSV(pos, args[0].Data.(string), schema, true)

	case "table_add_row":
		// The one sanctioned in-place mutation: the table is shared by
		// reference, so the append is visible to the caller.
		t := args[0].Data.(*TableValue)
		r := args[1].Data.(*RowValue)
		t.AddRow(r)
		return Null

	default:
		ip.fail(pos, ImportFailed, "unknown intrinsic %q", name)
		return Null
	}
}

// decodeCSV opens path and emits one row per CSV record, in file order. The
// header row is matched against the schema by name; every schema column must
// appear. Cell values parse per the schema's column type.
func decodeCSV(pos Pos, path string, schema []Column, emit func(*RowValue)) *RuntimeError {
	f, err := os.Open(path)
	if err != nil {
		return &RuntimeError{Kind: ImportFailed, Line: pos.Line, Col: pos.Col,
			Msg: fmt.Sprintf("cannot open %q: %v", path, err)}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return &RuntimeError{Kind: ImportFailed, Line: pos.Line, Col: pos.Col,
			Msg: fmt.Sprintf("cannot read header of %q: %v", path, err)}
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}
	idx := make([]int, len(schema))
	for i, col := range schema {
		j, ok := colIdx[col.Name]
		if !ok {
			return &RuntimeError{Kind: SchemaMismatch, Line: pos.Line, Col: pos.Col,
				Msg: fmt.Sprintf("%q has no column %q", path, col.Name)}
		}
		idx[i] = j
	}

	line := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &RuntimeError{Kind: ImportFailed, Line: pos.Line, Col: pos.Col,
				Msg: fmt.Sprintf("cannot read %q: %v", path, err)}
		}
		line++
		fields := make(map[string]Value, len(schema))
		for i, col := range schema {
			if idx[i] >= len(record) {
				return &RuntimeError{Kind: ImportFailed, Line: pos.Line, Col: pos.Col,
					Msg: fmt.Sprintf("%q line %d: missing value for column %q", path, line, col.Name)}
			}
			cell := record[idx[i]]
			v, perr := parseCell(cell, col.Type)
			if perr != nil {
				return &RuntimeError{Kind: ImportFailed, Line: pos.Line, Col: pos.Col,
					Msg: fmt.Sprintf("%q line %d, column %q: %v", path, line, col.Name, perr)}
			}
			fields[col.Name] = v
		}
		emit(NewRow(schema, fields))
	}
}

func parseCell(cell string, t *Type) (Value, error) {
	switch t.Kind {
	case KindInt:
		n, err := strconv.ParseInt(cell, 10, 32)
		if err != nil {
			return Null, fmt.Errorf("cannot parse %q as int", cell)
		}
		return IntVal(int32(n)), nil
	case KindDouble:
		f, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return Null, fmt.Errorf("cannot parse %q as double", cell)
		}
		return DoubleVal(f), nil
	case KindBool:
		b, err := strconv.ParseBool(cell)
		if err != nil {
			return Null, fmt.Errorf("cannot parse %q as bool", cell)
		}
		return BoolVal(b), nil
	case KindString:
		return StringVal(cell), nil
	default:
		return Null, fmt.Errorf("column type %s is not importable", t)
	}
}
