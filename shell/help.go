package shell

import (
	_ "embed"
	"errors"
	"strings"
)

//go:embed helptext/usage.txt
var usageText string

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) == 0 {
		return msg(strings.TrimRight(usageText, "\n")), nil
	}
	// Each command's help is its block in the usage text.
	for _, block := range strings.Split(usageText, "\n\n") {
		if strings.HasPrefix(block, cmd.args[0]+" ") || strings.HasPrefix(block, cmd.args[0]+"\n") {
			return msg(strings.TrimRight(block, "\n")), nil
		}
	}
	return nil, errors.New("there is no help text for the topic " + cmd.args[0])
}
