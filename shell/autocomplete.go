package shell

import (
	"context"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/samber/lo"

	"github.com/domino14/tilegame/edition"
	"github.com/domino14/tilegame/store"
)

// ShellCompleter completes command names, their options, and game keys or
// edition names where a command takes one.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

// CommandMetadata holds autocomplete information for a command.
type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"new":       {Options: []string{"-players", "-dictionary", "-key", "-penalty", "-takeback", "-min"}},
	"show":      {Options: []string{"-viewer"}, Args: []string{"public"}},
	"play":      {Options: []string{"-player"}, Args: []string{"across", "down"}},
	"swap":      {Options: []string{"-player"}},
	"pass":      {Options: []string{"-player"}},
	"timeout":   {Options: []string{"-player"}},
	"challenge": {Options: []string{"-player", "-dictionary"}},
	"export":    {Options: []string{"-codec"}},
	"import":    {Options: []string{"-codec"}},
}

var commandNames = []string{
	"new", "unpack", "pack", "digest", "show", "board", "display", "players",
	"turns", "play", "swap", "pass", "timeout", "challenge", "takeback", "end",
	"save", "load", "delete", "list", "export", "import", "script", "help",
	"bye", "exit",
}

// optionValues are the fixed choices for some options.
var optionValues = map[string][]string{
	"-penalty":  {"none", "miss", "per-turn", "per-word"},
	"-codec":    {"cbor", "proto"},
	"-takeback": {"true", "false"},
}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string
	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		var lastComplete string
		if endsWithSpace {
			lastComplete = fields[len(fields)-1]
		} else if len(fields) > 1 {
			lastComplete = fields[len(fields)-2]
		}
		completions = c.argCompletions(fields[0], lastComplete)
	}

	var out [][]rune
	for _, cand := range completions {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, []rune(cand[len(prefix):]+" "))
		}
	}
	return out, len([]rune(prefix))
}

func (c *ShellCompleter) argCompletions(cmd, lastComplete string) []string {
	if vals, ok := optionValues[lastComplete]; ok {
		return vals
	}
	switch cmd {
	case "load", "delete":
		return c.gameKeys()
	case "new":
		return append(edition.BuiltinNames(), commandMetadata[cmd].Options...)
	}
	md := commandMetadata[cmd]
	return append(append([]string{}, md.Args...), md.Options...)
}

func (c *ShellCompleter) gameKeys() []string {
	if c.sc.store == nil {
		return nil
	}
	games, err := c.sc.store.List(context.Background())
	if err != nil {
		return nil
	}
	keys := lo.Map(games, func(s store.Summary, _ int) string { return s.Key })
	sort.Strings(keys)
	return keys
}
