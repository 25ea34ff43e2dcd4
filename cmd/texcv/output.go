package main

import (
	"fmt"
	"io"
	"os"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

// diag receives status lines so stdout stays clean for document output.
var diag io.Writer = os.Stderr

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printLine(color, mark, format string, args ...any) {
	fmt.Fprintln(diag, colorize(color, mark+" "+fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) { printLine(colorGreen, "✓", format, args...) }
func printError(format string, args ...any)   { printLine(colorRed, "✗", format, args...) }
func printWarning(format string, args ...any) { printLine(colorYellow, "⚠", format, args...) }
func printStep(format string, args ...any)    { printLine(colorCyan, "→", format, args...) }

func printStatus(label string, format string, args ...any) {
	fmt.Fprintf(diag, "  %s %s\n", colorize(colorBold, label+":"), fmt.Sprintf(format, args...))
}

// pageLabel formats a page count; zero means the artifact could not be
// inspected.
func pageLabel(pages int) string {
	switch pages {
	case 0:
		return "page count unknown"
	case 1:
		return "1 page"
	default:
		return fmt.Sprintf("%d pages", pages)
	}
}
