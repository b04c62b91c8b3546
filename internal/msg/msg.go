package msg

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
)

// Output is where all messages go. Tests swap it for a buffer.
var Output io.Writer = os.Stdout

var mu sync.Mutex

func say(label, format string, a ...any) {
	mu.Lock()
	defer mu.Unlock()
	fmt.Fprint(Output, label)
	fmt.Fprint(Output, ": ")
	fmt.Fprintf(Output, format, a...)
	fmt.Fprint(Output, "\n")
}

func Error(format string, a ...any) {
	say(color.HiRedString("error"), format, a...)
}

func Warn(format string, a ...any) {
	say(color.YellowString("warn"), format, a...)
}

func Fatal(format string, a ...any) {
	say(color.RedString("fatal"), format, a...)
	os.Exit(1)
}

func Info(format string, a ...any) {
	say(color.HiGreenString("info"), format, a...)
}

// IndentWriter prefixes every line written through it with Indent.
type IndentWriter struct {
	Indent    string
	W         io.Writer
	didIndent bool
}

func (w *IndentWriter) Write(p []byte) (n int, err error) {
	start := 0
	for i, c := range p {
		if !w.didIndent {
			if _, err := io.WriteString(w.W, w.Indent); err != nil {
				return start, err
			}
			w.didIndent = true
		}
		if c == '\n' || c == '\r' {
			if _, err := w.W.Write(p[start : i+1]); err != nil {
				return start, err
			}
			start = i + 1
			w.didIndent = false
		}
	}
	if start < len(p) {
		if _, err := w.W.Write(p[start:]); err != nil {
			return start, err
		}
	}
	return len(p), nil
}
