// Command worldstep creates, advances and inspects regime worlds offline,
// reading and writing snapshot files.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	rulesPath string
	verbose   bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "worldstep",
		Short: "Offline regime world stepping over snapshot files",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			lvl := slog.LevelWarn
			if verbose {
				lvl = slog.LevelInfo
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "rules YAML file (defaults built in)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log turn reports")

	rootCmd.AddCommand(createCmd())
	rootCmd.AddCommand(stepCmd())
	rootCmd.AddCommand(inspectCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func createCmd() *cobra.Command {
	var (
		regimes int
		seed    int64
		seat    string
		diff    string
		out     string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Generate a new world and write its snapshot",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runCreate(regimes, seed, seat, diff, out)
		},
	}

	cmd.Flags().IntVarP(&regimes, "regimes", "n", 4, "number of regimes")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringVar(&seat, "seat", "", "seat a player: rand, largest, wealthiest, techiest")
	cmd.Flags().StringVar(&diff, "difficulty", "", "difficulty preset: min or max (defaults to the rules' globals)")
	cmd.Flags().StringVarP(&out, "out", "o", "world.snap", "snapshot path")
	return cmd
}

func stepCmd() *cobra.Command {
	var (
		turns int
		seed  int64
		out   string
		acts  string
		minN  int
	)

	cmd := &cobra.Command{
		Use:   "step [snapshot]",
		Short: "Advance a world some turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if out == "" {
				out = args[0]
			}
			return runStep(args[0], out, acts, turns, seed, minN)
		},
	}

	cmd.Flags().IntVarP(&turns, "turns", "t", 1, "turns to run")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = random)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the input)")
	cmd.Flags().StringVar(&acts, "acts", "", "JSON file of player actions applied before the first turn")
	cmd.Flags().IntVar(&minN, "min-regimes", 0, "spawn regimes after each turn to keep at least this many")
	return cmd
}

func inspectCmd() *cobra.Command {
	var headerOnly bool

	cmd := &cobra.Command{
		Use:   "inspect [snapshot]",
		Short: "Print a snapshot summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInspect(args[0], headerOnly)
		},
	}

	cmd.Flags().BoolVar(&headerOnly, "header", false, "read only the snapshot header")
	return cmd
}
