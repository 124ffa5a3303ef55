package kv

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ValentinKolb/hKV/cmd/util"
	"github.com/ValentinKolb/hKV/lib/store"
	"github.com/ValentinKolb/hKV/rpc/common"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const historyFile = ".hkv_history"

var (
	shellCmd = &cobra.Command{
		Use:   "shell",
		Short: "Starts an interactive shell for the key-value commands",
		Args:  cobra.NoArgs,
		RunE:  runShell,
	}

	shellCommands = []string{"hset", "hget", "hgetall", "hexist", "hdel", "output", "help", "exit"}
)

const shellHelp = `Commands:
  hset <table> <key> <value> [type]   set a value (type: string, int, float, bool, binary)
  hget <table> <key>                  read a value
  hgetall <table>                     read all pairs of a table
  hexist <table> <key>                check if a key exists
  hdel <table> <key>                  delete a key
  output <text|json|yaml>             change the output format
  help                                show this help
  exit                                leave the shell
Arguments containing spaces can be quoted with ' or ".`

func runShell(cmd *cobra.Command, _ []string) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetCompleter(func(input string) (c []string) {
		for _, name := range shellCommands {
			if strings.HasPrefix(name, strings.ToLower(input)) {
				c = append(c, name)
			}
		}
		return
	})

	// Load history
	historyPath := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyPath = filepath.Join(home, historyFile)
		if f, err := os.Open(historyPath); err == nil {
			_, _ = line.ReadHistory(f)
			_ = f.Close()
		}
	}
	defer func() {
		if historyPath == "" {
			return
		}
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	out := cmd.OutOrStdout()
	sh := &shell{out: out, format: viper.GetString("output")}
	fmt.Fprintf(out, "hKV shell, connected to shard %d. Type help for a list of commands.\n", util.GetShardID())

	for {
		input, err := line.Prompt("hkv> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if stop := sh.exec(input); stop {
			return nil
		}
	}
}

// shell executes the lines of an interactive session
type shell struct {
	out    io.Writer
	format string
}

// exec runs a single line and reports whether the shell should stop
func (s *shell) exec(input string) (stop bool) {
	args, err := splitArgs(input)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	if len(args) == 0 {
		return false
	}

	name, args := strings.ToLower(args[0]), args[1:]
	switch name {
	case "exit", "quit":
		return true
	case "help":
		fmt.Fprintln(s.out, shellHelp)
		return false
	case "output":
		if len(args) != 1 {
			fmt.Fprintln(s.out, "usage: output <text|json|yaml>")
			return false
		}
		s.format = args[0]
		return false
	}

	msgType, err := common.ParseMessageType(name)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v (type help for a list of commands)\n", err)
		return false
	}

	// optional value type for hset
	kind := store.KindString
	if msgType == common.MsgTHset && len(args) == 4 {
		if kind, err = store.ParseValueKind(args[3]); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
			return false
		}
		args = args[:3]
	}

	req, err := buildRequest(msgType, args, kind)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}

	resp, err := rpcStore.Execute(req)
	if err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
		return false
	}
	if err := writeResponse(s.out, msgType, resp, s.format); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
	return false
}

// splitArgs splits a line into arguments. Single and double quotes group words,
// a backslash escapes the next character outside of single quotes.
func splitArgs(input string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inArg   bool
		quote   rune
		escaped bool
	)

	for _, r := range input {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inArg = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote %c", quote)
	}
	if escaped {
		return nil, errors.New("line ends with an escape character")
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}
