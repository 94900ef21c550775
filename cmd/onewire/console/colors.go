package console

import "github.com/fatih/color"

// Colors follow color.NoColor, so output is plain when stdout is not a terminal.
var (
	Red    = color.New(color.FgRed).SprintFunc()
	Yellow = color.New(color.FgYellow).SprintFunc()
	Green  = color.New(color.FgGreen).SprintFunc()
	Cyan   = color.New(color.FgCyan).SprintFunc()
	White  = color.New(color.FgHiWhite, color.Bold).SprintFunc()
)

// Check renders a pass/fail label.
func Check(ok bool, pass, fail string) string {
	if ok {
		return Green(pass)
	}
	return Red(fail)
}
