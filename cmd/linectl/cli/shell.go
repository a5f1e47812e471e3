package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive session over one connection",
		Long: `Open the device once and read commands from a prompt. Every linectl
command is available without the "linectl" prefix; "quit" leaves.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.dev != nil {
				return errors.New("already in a shell")
			}

			dev, release, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "linectl> ",
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				AutoComplete:    completer(),
			})
			if err != nil {
				return fmt.Errorf("failed to create readline: %w", err)
			}
			defer rl.Close()

			session := *a
			session.dev = dev
			out := rl.Stdout()
			fmt.Fprintf(out, "Connected to device 0x%x. Type 'help' for commands.\n", dev.ID())

			for {
				line, err := rl.Readline()
				if err == readline.ErrInterrupt {
					continue
				}
				if err != nil {
					return nil
				}
				if session.execLine(cmd.Context(), out, line) {
					return nil
				}
			}
		},
	}
}

// execLine runs one shell line and reports whether the shell should exit.
func (a *app) execLine(ctx context.Context, out io.Writer, line string) bool {
	args := strings.Fields(line)
	if len(args) == 0 {
		return false
	}
	switch args[0] {
	case "quit", "exit", "q":
		return true
	}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(out)
	_ = root.ExecuteContext(ctx)
	return false
}

func completer() *readline.PrefixCompleter {
	tm := make([]readline.PrefixCompleterInterface, 0, len(tmNames())+1)
	for _, name := range append(tmNames(), "all") {
		tm = append(tm, readline.PcItem(name))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("get-tm", tm...),
		readline.PcItem("set-bus", readline.PcItem("main"), readline.PcItem("reserve")),
		readline.PcItem("set-serial"),
		readline.PcItem("set-time"),
		readline.PcItem("reset"),
		readline.PcItem("call"),
		readline.PcItem("commands"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}
