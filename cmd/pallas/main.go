// Command pallas runs a Pallas source file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kallory/pallas"
)

// exUsage mirrors sysexits.h's EX_USAGE, the conventional exit code for
// bad command-line arguments.
const exUsage = 64

type args struct {
	libDir *string

	logInstr *bool
	logFrame *bool
	logGC    *bool
}

func readArgs() *args {
	a := &args{
		libDir: flag.String("l", "", "Directory to load the bundled library from"),

		logInstr: flag.Bool("le", false, "Log each executed instruction and frame transition"),
		logFrame: flag.Bool("lf", false, "Log frame transitions only"),
		logGC:    flag.Bool("lg", false, "Log GC phases"),
	}
	flag.Parse()
	return a
}

func main() {
	os.Exit(run())
}

func run() int {
	a := readArgs()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: pallas [-l DIR] [-le] [-lf] [-lg] <file>")
		return exUsage
	}
	path := flag.Arg(0)

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pallas: can't open %s: %s\n", path, err)
		return exUsage
	}

	cfg := pallas.NewConfig()
	prog := pallas.NewProgram(cfg)
	defer prog.Close()

	logger := log.New(os.Stderr, "", log.LstdFlags)
	installTracing(prog, a, logger)

	if *a.libDir != "" {
		if err := prog.LoadLibraryDir(*a.libDir); err != nil {
			fmt.Fprintf(os.Stderr, "pallas: can't load library directory %s: %s\n", *a.libDir, err)
			return exUsage
		}
	}

	idx := pallas.NewLineIndex(path, string(src))
	_, err = prog.Run(path, string(src))
	if err == nil {
		return 0
	}

	if ue, ok := err.(*pallas.UnwindError); ok {
		line, _ := idx.Position(ue.Span.Range.Start)
		fmt.Fprintf(os.Stderr, "%s: %s at %s line %d\n", ue.ClassName(), ue.Message(), path, line)
		return 1
	}

	// A CompileError (or any other non-UnwindError failure) is a usage-time
	// problem with the program itself, not a runtime exception from it.
	fmt.Fprintln(os.Stderr, err.Error())
	return exUsage
}

// installTracing wires the -le/-lf/-lg flags to the VM's and GC's trace
// hooks, writing through stdlib log exactly as the teacher's CLI logs
// through it in cmd/langlang/main.go.
func installTracing(prog *pallas.Program, a *args, logger *log.Logger) {
	switch {
	case *a.logInstr:
		prog.VM.Trace = func(ev pallas.TraceEvent) {
			switch ev.Kind {
			case "instr":
				logger.Printf("instr pc=%d %s", ev.PC, ev.Instr.String())
			case "enter":
				logger.Printf("frame enter")
			case "exit":
				logger.Printf("frame exit")
			}
		}
	case *a.logFrame:
		prog.VM.Trace = func(ev pallas.TraceEvent) {
			switch ev.Kind {
			case "enter":
				logger.Printf("frame enter")
			case "exit":
				logger.Printf("frame exit")
			}
		}
	}

	if *a.logGC {
		pallas.GCTrace = func(before, after int) {
			logger.Printf("gc collect before=%d after=%d", before, after)
		}
	}
}
