package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "diagnose",
		Short: "Score water-supply readings offline",
		Long: `diagnose runs the panchayat water scorers on a JSON reading without a
server, bot or network access. The reading is read from --file or stdin
and the result is printed as JSON.

The export command writes stored evaluations to an xlsx workbook.`,
		SilenceUsage: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(
		newScoreCmd("leak", "Score a suspected leak from network signals", scoreLeak),
		newScoreCmd("daily", "Score an operator's daily pump check", scoreDaily),
		newScoreCmd("maintenance", "Score a pump's maintenance risk", scoreMaintenance),
		newScoreCmd("quality", "Evaluate a water sample against drinking water standards", scoreQuality),
		newScoreCmd("health", "Aggregate a panchayat's health score", scoreHealth),
		newExportCmd(),
	)
	return root
}
