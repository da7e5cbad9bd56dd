package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tilegame/config"
	"github.com/domino14/tilegame/game"
	"github.com/domino14/tilegame/registry"
	"github.com/domino14/tilegame/store"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("no game loaded; use new, unpack or load first")
	errExit              = errors.New("exit")
)

// ShellController holds the game being worked on and the store it is saved
// to.
type ShellController struct {
	l *readline.Instance

	cfg   *config.Config
	reg   *registry.Registry
	store store.Store

	curGame *game.Game
}

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func NewShellController(cfg *config.Config, st store.Store) *ShellController {
	return &ShellController{
		cfg:   cfg,
		reg:   game.NewRegistry(cfg),
		store: st,
	}
}

// extractFields splits a line into a command, its arguments and its
// options. Every option is a -name followed by a value.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	var args []string
	options := map[string]string{}
	for i := 1; i < len(fields); i++ {
		if strings.HasPrefix(fields[i], "-") && len(fields[i]) > 1 {
			if i == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[i][1:]] = fields[i+1]
			i++
			continue
		}
		args = append(args, fields[i])
	}
	return &shellcmd{cmd: fields[0], args: args, options: options}, nil
}

func (sc *ShellController) showMessage(w io.Writer, msg string) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func (sc *ShellController) showError(w io.Writer, err error) {
	sc.showMessage(w, "Error: "+err.Error())
}

// Execute runs a single line. Output goes to w.
func (sc *ShellController) Execute(ctx context.Context, w io.Writer, line string) error {
	cmd, err := extractFields(strings.TrimSpace(line))
	if err == errNoData {
		return nil
	}
	if err != nil {
		sc.showError(w, err)
		return nil
	}
	resp, err := sc.dispatch(ctx, cmd)
	if err == errExit {
		return err
	}
	if err != nil {
		sc.showError(w, err)
		return nil
	}
	if resp != nil && resp.message != "" {
		sc.showMessage(w, resp.message)
	}
	return nil
}

func (sc *ShellController) dispatch(ctx context.Context, cmd *shellcmd) (*Response, error) {
	switch cmd.cmd {
	case "bye", "exit":
		return nil, errExit
	case "help":
		return sc.help(cmd)
	case "new":
		return sc.newGame(cmd)
	case "unpack":
		return sc.unpack(cmd)
	case "pack":
		return sc.pack(cmd)
	case "digest":
		return sc.digest(cmd)
	case "show":
		return sc.show(ctx, cmd)
	case "board", "display":
		return sc.display(cmd)
	case "players":
		return sc.players(cmd)
	case "turns":
		return sc.turns(cmd)
	case "play":
		return sc.play(cmd)
	case "swap":
		return sc.swap(cmd)
	case "pass":
		return sc.pass(cmd)
	case "timeout":
		return sc.timeout(cmd)
	case "challenge":
		return sc.challenge(ctx, cmd)
	case "takeback":
		return sc.takeBack(cmd)
	case "end":
		return sc.endGame(cmd)
	case "save":
		return sc.save(ctx, cmd)
	case "load":
		return sc.load(ctx, cmd)
	case "delete":
		return sc.deleteGame(ctx, cmd)
	case "list":
		return sc.list(ctx, cmd)
	case "export":
		return sc.export(cmd)
	case "import":
		return sc.importGame(cmd)
	case "script":
		return sc.script(ctx, cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(cmd.cmd))
		return nil, errors.New("unknown command " + cmd.cmd + "; try help")
	}
}

func (sc *ShellController) Loop(ctx context.Context, sig chan os.Signal) {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mtilegame>\033[0m ",
		HistoryFile:     "/tmp/tilegame_readline.tmp",
		AutoComplete:    NewShellCompleter(sc),
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not start readline")
		sig <- syscall.SIGINT
		return
	}
	sc.l = l
	defer sc.l.Close()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			}
			continue
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		if err := sc.Execute(ctx, sc.l.Stderr(), line); err == errExit {
			sig <- syscall.SIGINT
			break
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}
