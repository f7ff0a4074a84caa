package ui

import (
	"os"

	"golang.org/x/term"
)

const defaultWidth = 80

// Terminal describes the stream a presenter draws on.
func Terminal(f *os.File) (isTTY bool, width int) {
	fd := int(f.Fd())
	if !term.IsTerminal(fd) {
		return false, defaultWidth
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		w = defaultWidth
	}
	return true, w
}
