package console

import "github.com/fatih/color"

// Colors used for CLI output. They are disabled when stdout is not a terminal.
var (
	Yellow = color.New(color.FgYellow).SprintFunc()
	Red    = color.New(color.FgRed).SprintFunc()
	White  = color.New(color.FgHiWhite).SprintFunc()
)
