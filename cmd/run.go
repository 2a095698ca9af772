/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"chemcpu/labware"
	"chemcpu/protocol"
	"chemcpu/transfer"
)

var (
	noEnforce bool
	increment float64
	output    string
	gridStyle string
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run <protocol.yaml>",
	Short: "Simulates a transfer protocol",
	Long: `Builds the containers and tasks of a protocol file, runs every task in
order and prints the final contents of each container. A capacity violation
stops the run; transfers already made are kept and reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := protocol.LoadFile(args[0])
		if err != nil {
			return err
		}
		lab, err := protocol.Build(f, labware.WithLetters(cfg.Letters()))
		if err != nil {
			return err
		}
		style, err := labware.ParseGridStyle(gridStyle)
		if err != nil {
			return err
		}
		if !cmd.Flag("grid").Changed {
			style, _ = labware.ParseGridStyle(cfg.Grid.Style)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, lab.Tasks.Summarize(cfg.Transfer.RateNLPerS))

		opts := cfg.TransferOptions(logger)
		if noEnforce {
			opts.EnforceLimits = false
		}
		if cmd.Flag("increment").Changed {
			opts.VolumeIncrement = increment
		}
		results, runErr := lab.Tasks.Run(opts)
		for _, r := range results {
			logger.Info("task finished",
				zap.String("task", r.Task),
				zap.Int("planned", r.Planned),
				zap.Int("committed", len(r.Committed)))
		}
		var capErr *transfer.CapacityError
		if errors.As(runErr, &capErr) {
			last := results[len(results)-1]
			fmt.Fprintf(out, "stopped in %q after %d of %d transfers: %v\n",
				last.Task, len(last.Committed), last.Planned, capErr)
		}

		if err := writeRecords(out, protocol.ReadoutLab(lab, style), output); err != nil {
			return err
		}
		return runErr
	},
}

func writeRecords(w io.Writer, records []protocol.WellRecord, format string) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(records)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case "table", "":
		t := newTable(protocol.Headers()...)
		for _, r := range records {
			t.Row(r.Row()...)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&noEnforce, "no-enforce", false, "skip capacity checks")
	runCmd.Flags().Float64Var(&increment, "increment", 0, "device volume increment in nL (default from config)")
	runCmd.Flags().StringVarP(&output, "output", "o", "table", "output format (table, yaml, json)")
	runCmd.Flags().StringVar(&gridStyle, "grid", "letter", "position style (letter, maldi, none)")
}
