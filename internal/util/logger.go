package util

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Logger interface for console output
type Logger interface {
	Printf(format string, v ...interface{})
	Println(v ...interface{})
	VerbosePrintf(format string, v ...interface{})
	VerbosePrintln(v ...interface{})
	Errorf(format string, v ...interface{})
}

// SimpleLogger writes to the given writer
type SimpleLogger struct {
	writer  io.Writer
	verbose bool
	errc    *color.Color
}

// NewLogger creates a new logger that writes to the given writer
func NewLogger(writer io.Writer) Logger {
	return &SimpleLogger{writer: writer, verbose: false, errc: color.New(color.FgRed)}
}

// NewVerboseLogger creates a new logger with verbose mode enabled
func NewVerboseLogger(writer io.Writer) Logger {
	return &SimpleLogger{writer: writer, verbose: true, errc: color.New(color.FgRed)}
}

func (l *SimpleLogger) Printf(format string, v ...interface{}) {
	fmt.Fprintf(l.writer, format, v...)
}

func (l *SimpleLogger) Println(v ...interface{}) {
	fmt.Fprintln(l.writer, v...)
}

func (l *SimpleLogger) VerbosePrintf(format string, v ...interface{}) {
	if l.verbose {
		fmt.Fprintf(l.writer, format, v...)
	}
}

func (l *SimpleLogger) VerbosePrintln(v ...interface{}) {
	if l.verbose {
		fmt.Fprintln(l.writer, v...)
	}
}

// Errorf writes a failure line in red. Colour is dropped when color.NoColor is set.
func (l *SimpleLogger) Errorf(format string, v ...interface{}) {
	l.errc.Fprintf(l.writer, format, v...)
}
