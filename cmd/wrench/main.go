// Command wrench runs Wrench programs.
//
// Usage:
//
//	wrench <file.wrench> [debug=true]
//	wrench run <file.wrench> [debug=true]
//	wrench repl
//
// Exit codes: 0 success, 1 lex/parse/type error, 2 runtime error, 3 usage
// error. With debug=true the token stream and the parsed AST are dumped to
// stderr before the program runs.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	wrench "github.com/AAUP4-Projekt/wrench"
)

const (
	historyFile = ".wrench_history"
	promptMain  = "==> "
	promptCont  = "... "
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		usage()
		os.Exit(3)
	}
	switch args[0] {
	case "repl":
		os.Exit(cmdRepl())
	case "run":
		args = args[1:]
		if len(args) == 0 {
			usage()
			os.Exit(3)
		}
	case "-h", "--help", "help":
		usage()
		return
	}
	os.Exit(cmdRun(args))
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  wrench <file.wrench> [debug=true]
  wrench run <file.wrench> [debug=true]
  wrench repl`)
}

func cmdRun(args []string) int {
	path := args[0]
	debug := false
	for _, a := range args[1:] {
		if a == "debug=true" {
			debug = true
			continue
		}
		fmt.Fprintf(os.Stderr, "unknown argument %q\n", a)
		usage()
		return 3
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read %s: %v\n", path, err)
		return 3
	}
	src := string(raw)

	if debug {
		toks, err := wrench.DumpTokens(src)
		if err != nil {
			fmt.Fprintln(os.Stderr, wrench.WrapErrorWithSource(err, src))
			return 1
		}
		fmt.Fprintln(os.Stderr, "tokens:")
		fmt.Fprint(os.Stderr, toks)
	}

	prog, err := wrench.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, wrench.WrapErrorWithSource(err, src))
		return 1
	}
	if debug {
		fmt.Fprintln(os.Stderr, "ast:")
		fmt.Fprint(os.Stderr, wrench.FormatProgram(prog))
	}
	if err := wrench.Check(prog); err != nil {
		fmt.Fprintln(os.Stderr, wrench.WrapErrorWithSource(err, src))
		return 1
	}

	ip := wrench.NewInterpreter()
	if err := ip.RunProgram(prog); err != nil {
		fmt.Fprintln(os.Stderr, wrench.WrapErrorWithSource(err, src))
		return 2
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl() int {
	fmt.Println("Wrench REPL — Ctrl+C cancels input, Ctrl+D exits. Type :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	sess := wrench.NewSession(os.Stdout)

	for {
		code, ok := readInput(ln)
		if !ok {
			fmt.Println()
			return 0
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if strings.EqualFold(trimmed, ":quit") {
				return 0
			}
			fmt.Println("unknown command. Type :quit to exit.")
			continue
		}

		if err := sess.Eval(code); err != nil {
			fmt.Fprintln(os.Stderr, wrench.WrapErrorWithSource(err, code))
			continue
		}
		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
	}
}

// readInput collects lines until incompleteInput reports the buffer
// complete; the buffer is not parsed here. Unbalanced input keeps prompting
// on the continuation prompt.
func readInput(ln *liner.State) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(promptMain)
		} else {
			line, err = ln.Prompt(promptCont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.TrimSpace(src) == "" {
			return src, true
		}
		if incompleteInput(src) {
			continue
		}
		return src, true
	}
}

// incompleteInput reports whether src looks like it continues on the next
// line: unbalanced brackets or a missing final terminator.
func incompleteInput(src string) bool {
	round, curly, square := 0, 0, 0
	inStr := false
	for i := 0; i < len(src); i++ {
		c := src[i]
		if inStr {
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
			continue
		}
		switch c {
		case '"':
			inStr = true
		case '(':
			round++
		case ')':
			round--
		case '{':
			curly++
		case '}':
			curly--
		case '[':
			square++
		case ']':
			square--
		}
	}
	if round > 0 || curly > 0 || square > 0 || inStr {
		return true
	}
	trimmed := strings.TrimRight(src, " \t\n")
	return !strings.HasSuffix(trimmed, ";") && !strings.HasSuffix(trimmed, "}")
}
