package msg

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Out is where level printers write. Swapped out by tests.
var Out io.Writer = os.Stderr

func Error(format string, a ...any) {
	fmt.Fprint(Out, color.HiRedString("error"), ": ")
	fmt.Fprintf(Out, format, a...)
	fmt.Fprint(Out, "\n")
}

func Warn(format string, a ...any) {
	fmt.Fprint(Out, color.YellowString("warn"), ": ")
	fmt.Fprintf(Out, format, a...)
	fmt.Fprint(Out, "\n")
}

func Fatal(format string, a ...any) {
	fmt.Fprint(Out, color.RedString("fatal"), ": ")
	fmt.Fprintf(Out, format, a...)
	fmt.Fprint(Out, "\n")
	os.Exit(1)
}

func Info(format string, a ...any) {
	fmt.Fprint(Out, color.HiGreenString("info"), ": ")
	fmt.Fprintf(Out, format, a...)
	fmt.Fprint(Out, "\n")
}

// Step prints a highlighted action verb followed by detail text,
// e.g. "  Generating il2cppOutput".
func Step(verb, format string, a ...any) {
	fmt.Fprintf(Out, "  %s ", color.HiGreenString(verb))
	fmt.Fprintf(Out, format, a...)
	fmt.Fprint(Out, "\n")
}

// IndentWriter prefixes every line written through it with Indent.
// Used for subprocess output so tool chatter is visually nested.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	bw := bufio.NewWriter(w.W)
	for _, c := range p {
		if !w.didIndent {
			bw.WriteString(w.Indent)
			w.didIndent = true
		}
		bw.WriteByte(c)
		if c == '\n' || c == '\r' {
			w.didIndent = false
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}
