package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// prompt reads one line after printing label.
func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	if _, err := fmt.Fprintf(out, "%s: ", label); err != nil {
		return "", err
	}
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// terminalFD returns the descriptor of r when it is an interactive terminal.
func terminalFD(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	return int(f.Fd()), true
}

// promptPassword reads without echo from a terminal, or a plain line when
// input is piped.
func promptPassword(in *bufio.Reader, out io.Writer, tty *int) (string, error) {
	if tty == nil {
		return prompt(in, out, "Password")
	}
	fd := *tty
	if _, err := fmt.Fprint(out, "Password: "); err != nil {
		return "", err
	}
	pw, err := readPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// valueOrPrompt returns flag unless it is empty.
func valueOrPrompt(in *bufio.Reader, out io.Writer, flag, label string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	return prompt(in, out, label)
}
