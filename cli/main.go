package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/ubasic/ubc/compiler"
)

// colorful strings for diagnostics.
const (
	colorRed   = "\x1B[31m"
	colorCyan  = "\x1B[36m"
	colorReset = "\033[0m"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: ubc <command> [args]")
		fmt.Println("commands: build, check, keywords, builtins")
		os.Exit(1)
	}

	cmd := os.Args[1]

	switch cmd {
	case "build":
		doBuild(os.Args[2:], true)
	case "check":
		doBuild(os.Args[2:], false)
	case "keywords":
		for _, kw := range compiler.Keywords() {
			fmt.Println(kw)
		}
	case "builtins":
		for _, name := range compiler.Builtins() {
			fmt.Println(name)
		}
	default:
		fmt.Println("unknown command:", cmd)
		os.Exit(1)
	}
}

// doBuild compiles a source file. Extra arguments of the form name=path
// are loaded as include files; -o selects an output file.
func doBuild(args []string, emit bool) {
	var srcPath, outPath string
	aux := make(map[string]string)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-o":
			if i+1 >= len(args) {
				fmt.Fprintln(os.Stderr, "-o requires a file name")
				os.Exit(1)
			}
			i++
			outPath = args[i]
		case strings.Contains(arg, "="):
			name, path, _ := strings.Cut(arg, "=")
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error reading include %s: %v\n", name, err)
				os.Exit(1)
			}
			aux[name] = string(data)
		default:
			srcPath = arg
		}
	}

	if srcPath == "" {
		fmt.Fprintln(os.Stderr, "usage: ubc build <file.ub> [-o out] [include=path ...]")
		os.Exit(1)
	}

	data, err := os.ReadFile(srcPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error reading file:", err)
		os.Exit(1)
	}

	result, cerr := compiler.Compile(string(data), aux)
	if cerr != nil {
		printDiagnostic(cerr)
		os.Exit(1)
	}

	if !emit {
		fmt.Printf("ok: %d variables, %d functions\n", len(result.Variables), len(result.Functions))
		return
	}

	if outPath != "" {
		if werr := os.WriteFile(outPath, []byte(result.Output+"\n"), 0o644); werr != nil {
			fmt.Fprintln(os.Stderr, "error writing output:", werr)
			os.Exit(1)
		}
		return
	}
	fmt.Println(result.Output)
}

func printDiagnostic(cerr *compiler.CompileError) {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		fmt.Fprintln(os.Stderr, cerr.Content)
		return
	}
	// Colorize the source window and the caret/message line separately.
	lines := strings.SplitN(cerr.Content, "\n", 2)
	if len(lines) == 2 {
		fmt.Fprintln(os.Stderr, colorCyan+lines[0]+colorReset)
		fmt.Fprintln(os.Stderr, colorRed+lines[1]+colorReset)
	} else {
		fmt.Fprintln(os.Stderr, colorRed+cerr.Content+colorReset)
	}
}
