package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

func Cyan(s string) string {
	return color.New(color.FgHiCyan).SprintFunc()(s)
}

func Red(s string) string {
	return color.New(color.FgHiRed).SprintFunc()(s)
}

func PrintErr(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}
