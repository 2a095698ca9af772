/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"chemcpu/labware"
)

// platesCmd represents the plates command
var platesCmd = &cobra.Command{
	Use:   "plates",
	Short: "Lists the labware presets",
	Long:  `Lists every plate and tube preset with its geometry and volume bounds in nL.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		p := message.NewPrinter(language.English)
		t := newTable("Name", "Rows", "Cols", "VolumeMin", "VolumeMax", "Resizable")
		for _, preset := range labware.Presets() {
			t.Row(preset.Name,
				fmt.Sprint(preset.Rows), fmt.Sprint(preset.Cols),
				p.Sprintf("%d", int64(preset.VolumeMin)),
				p.Sprintf("%d", int64(preset.VolumeMax)),
				fmt.Sprint(preset.Resizable))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
	},
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...)
}

func init() {
	rootCmd.AddCommand(platesCmd)
}
