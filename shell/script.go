package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

const maxScriptDepth = 8

type scriptDepthKey struct{}

// script runs each line of a file as a command. Blank lines and lines
// starting with # are skipped. The first failing command stops the script.
func (sc *ShellController) script(ctx context.Context, cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("script needs a file name")
	}
	depth, _ := ctx.Value(scriptDepthKey{}).(int)
	if depth >= maxScriptDepth {
		return nil, errors.New("scripts nested too deeply")
	}
	ctx = context.WithValue(ctx, scriptDepthKey{}, depth+1)

	f, err := os.Open(cmd.args[0])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []string
	s := bufio.NewScanner(f)
	n := 0
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		c, err := extractFields(line)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", cmd.args[0], n, err)
		}
		log.Debug().Str("script", cmd.args[0]).Int("line", n).Str("cmd", c.cmd).Msg("running")
		r, err := sc.dispatch(ctx, c)
		if err == errExit {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", cmd.args[0], n, err)
		}
		if r != nil && r.message != "" {
			out = append(out, r.message)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return msg(strings.Join(out, "\n")), nil
}
