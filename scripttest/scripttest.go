// Package scripttest extracts Wrench end-to-end test cases from Markdown.
//
// A test case starts at a heading of the form "Test: <name>" and owns every
// fenced code block until the next test heading:
//
//	## Test: arithmetic
//
//	```wrench
//	print(1 + 2 * 3);
//	```
//
//	```output
//	7
//	```
//
// Fence languages: `wrench` holds the program (required, exactly one),
// `output` the expected stdout, `error` a substring the reported error must
// contain. A case may carry output or error, not both.
package scripttest

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Case is one extracted program with its expectation.
type Case struct {
	Name    string
	Program string
	Output  string // expected stdout, verbatim
	Error   string // expected error substring; empty means the run must succeed

	hasOutput bool
	hasError  bool
}

// Extract parses a Markdown document and returns its test cases in document
// order.
func Extract(source []byte) ([]Case, error) {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(source))

	var cases []Case
	var current *Case

	flush := func() error {
		if current == nil {
			return nil
		}
		if err := validate(current); err != nil {
			return err
		}
		cases = append(cases, *current)
		current = nil
		return nil
	}

	err := ast.Walk(doc, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := node.(type) {
		case *ast.Heading:
			title := nodeText(n, source)
			if strings.HasPrefix(title, "Test: ") {
				if err := flush(); err != nil {
					return ast.WalkStop, err
				}
				current = &Case{Name: strings.TrimPrefix(title, "Test: ")}
			}
		case *ast.FencedCodeBlock:
			lang := string(n.Language(source))
			if lang == "" {
				return ast.WalkContinue, nil
			}
			if current == nil {
				return ast.WalkStop, fmt.Errorf("%s fence outside of a test case", lang)
			}
			content := fenceContent(n, source)
			switch lang {
			case "wrench":
				if current.Program != "" {
					return ast.WalkStop, fmt.Errorf("test %q: multiple wrench fences", current.Name)
				}
				current.Program = content
			case "output":
				if current.hasOutput {
					return ast.WalkStop, fmt.Errorf("test %q: multiple output fences", current.Name)
				}
				current.Output = content
				current.hasOutput = true
			case "error":
				if current.hasError {
					return ast.WalkStop, fmt.Errorf("test %q: multiple error fences", current.Name)
				}
				current.Error = strings.TrimRight(content, "\n")
				current.hasError = true
			default:
				return ast.WalkStop, fmt.Errorf("test %q: unknown fence language %q", current.Name, lang)
			}
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return cases, nil
}

func validate(c *Case) error {
	if c.Program == "" {
		return fmt.Errorf("test %q: missing wrench fence", c.Name)
	}
	if c.hasOutput && c.hasError {
		return fmt.Errorf("test %q: output and error fences are mutually exclusive", c.Name)
	}
	return nil
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if t, ok := child.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}

func fenceContent(n *ast.FencedCodeBlock, source []byte) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
	return b.String()
}
