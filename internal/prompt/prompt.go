// Package prompt asks the user to confirm a flatten before it starts.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
)

const question = "Are you sure you want to proceed? [y/n] "

// Announce prints the path about to be flattened.
func Announce(out io.Writer, path string) {
	fmt.Fprintf(out, "You are about to flatten `%s`\n", color.New(color.Bold).Sprint(path))
}

// Confirm repeats the question until a line starts with y/Y or n/N.
// Anything else, including an empty line, asks again. End of input
// counts as a refusal.
func Confirm(in io.Reader, out io.Writer) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, question)
		line, err := reader.ReadString('\n')
		if len(line) > 0 {
			switch line[0] {
			case 'y', 'Y':
				return true, nil
			case 'n', 'N':
				return false, nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return false, nil
			}
			return false, err
		}
	}
}
