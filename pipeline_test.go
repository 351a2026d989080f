package wrench

import (
	"fmt"
	"strings"
	"testing"
)

// async_import must be observationally identical to import: same rows, same
// order, fully materialized before the next statement runs.

func Test_AsyncImport_MatchesImport(t *testing.T) {
	var rows strings.Builder
	rows.WriteString("id,score\n")
	for i := 0; i < 500; i++ {
		fmt.Fprintf(&rows, "%d,%d.5\n", i, i)
	}
	path := writeCSV(t, "big.csv", rows.String())

	syncOut := runSrc(t, `print(import("`+path+`", table(int id, double score)));`)
	asyncOut := runSrc(t, `async_import("`+path+`", table(int id, double score)) pipe print();`)
	if syncOut != asyncOut {
		t.Fatalf("async_import output diverges from import")
	}
}

func Test_AsyncImport_PreservesFileOrder(t *testing.T) {
	var rows strings.Builder
	rows.WriteString("n\n")
	for i := 0; i < 1000; i++ {
		fmt.Fprintf(&rows, "%d\n", i)
	}
	path := writeCSV(t, "ordered.csv", rows.String())

	src := `
fn table(int n) keep(table(int n) t) { return t; };
var table(int n) t = async_import("` + path + `", table(int n)) pipe keep();
var int i = 0;
var bool ordered = true;
for (row(int n) r in t) {
  if (!(r.n == i)) { ordered = false; }
  i = i + 1;
}
print(ordered);
print(i);
`
	if out := runSrc(t, src); out != "true\n1000\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_AsyncImport_CompletesBeforeNextStatement(t *testing.T) {
	path := writeCSV(t, "two.csv", "n\n1\n2\n")
	src := `
fn int count(table(int n) t) {
  var int c = 0;
  for (row(int n) r in t) { c = c + 1; }
  return c;
};
var int c = async_import("` + path + `", table(int n)) pipe count();
print(c);
`
	if out := runSrc(t, src); out != "2\n" {
		t.Fatalf("got %q", out)
	}
}

func Test_AsyncImport_ErrorsSurfaceAtTheCallSite(t *testing.T) {
	rte := runErr(t, `async_import("/no/such/file.csv", table(int n)) pipe print();`)
	if rte.Kind != ImportFailed {
		t.Fatalf("want ImportFailed, got %v", rte.Kind)
	}
}
