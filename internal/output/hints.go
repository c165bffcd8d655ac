package output

import (
	"fmt"
	"strings"
)

// CommandHints maps command names to related commands users might want to run next
var CommandHints = map[string][]string{
	"scan":          {"analyze <dir>"},
	"analyze":       {"process <dir> <out>", "config"},
	"process":       {"verify <dir> <out>", "analyze <dir>"},
	"verify":        {"process <dir> <out>"},
	"config":        {"config export", "analyze <dir>"},
	"config export": {"analyze <dir>"},
}

// PrintHints prints "See also" hints for a command. No-op in quiet mode or if command has no hints.
func (p *Printer) PrintHints(command string) {
	if p.quiet {
		return
	}
	hints, ok := CommandHints[command]
	if !ok || len(hints) == 0 {
		return
	}

	cmds := make([]string, len(hints))
	for i, h := range hints {
		cmds[i] = "texopt " + h
	}
	fmt.Fprintf(p.out, "\nSee also: %s\n", strings.Join(cmds, ", "))
}
