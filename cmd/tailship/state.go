package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	isatty "github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/crowdsecurity/go-cs-lib/maptools"

	"github.com/tailship/tailship/pkg/statestore"
	"github.com/tailship/tailship/pkg/types"
)

type cliState struct {
	root   *cliRoot
	output string
	color  string
}

func newCLIState(root *cliRoot) *cliState {
	return &cliState{root: root}
}

func (cli *cliState) NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state [state_file]",
		Short: "Show the saved read positions",
		Long: `Show the read positions saved by a running or stopped agent.
Without argument, the state file of the configuration is used.`,
		Example:           "tailship state /var/lib/tailship/state.json -o json",
		Args:              cobra.MaximumNArgs(1),
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""

			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := cli.root.loadConfig(cmd)
				if err != nil {
					return err
				}

				path = *cfg.Agent.StateFile
			}

			if path == "" {
				return fmt.Errorf("no state file configured")
			}

			return cli.show(cmd.OutOrStdout(), path)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cli.output, "output", "o", "human", "output format: human or json")
	flags.StringVar(&cli.color, "color", "auto", "colorize output: yes, no or auto")

	return cmd
}

func (cli *cliState) show(out io.Writer, path string) error {
	states := statestore.Load(path)

	switch cli.output {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")

		if err := enc.Encode(states); err != nil {
			return fmt.Errorf("while encoding state: %w", err)
		}
	case "human":
		if len(states) == 0 {
			fmt.Fprintf(out, "no saved position in %s\n", path)
			return nil
		}

		cli.table(out, states)
	default:
		return fmt.Errorf("output format %q unknown", cli.output)
	}

	return nil
}

func (cli *cliState) wantColor() bool {
	switch cli.color {
	case "yes":
		return true
	case "no":
		return false
	default:
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
}

func (cli *cliState) table(out io.Writer, states map[string]types.FileState) {
	t := table.NewWriter()

	style := table.StyleDefault
	if cli.wantColor() {
		style = table.StyleRounded
		style.Color.Header = text.Colors{text.Italic}
		style.Color.Border = text.Colors{text.FgHiBlack}
		style.Color.Separator = text.Colors{text.FgHiBlack}
	}

	style.Format.Header = text.FormatDefault
	t.SetStyle(style)
	t.AppendHeader(table.Row{"Name", "File", "Position"})

	for _, name := range maptools.SortedKeys(states) {
		state := states[name]

		filename := state.ResolvedName()
		if filename == "" {
			filename = "-"
		}

		position := strconv.FormatInt(state.Position, 10)
		if state.Position == types.PositionEnd {
			position = "end"
		}

		t.AppendRow(table.Row{name, filename, position})
	}

	fmt.Fprintln(out, t.Render())
}
