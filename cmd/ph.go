/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"chemcpu/ph"
)

var (
	acidVol, acidConc, acidPH float64
	baseVol, baseConc, basePH float64
)

// phCmd represents the ph command
var phCmd = &cobra.Command{
	Use:   "ph",
	Short: "Computes the pH of a strong acid/strong base mixture",
	Long: `Mixes a volume of strong acid with a volume of strong base, given either
by molar concentration or by pH, and reports the resulting pH together with
the species left in excess. Volumes are in uL.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		calc := cfg.Calculator()
		const litresPerMicrolitre = 1e-6
		byPH := cmd.Flag("acid-ph").Changed || cmd.Flag("base-ph").Changed
		res, err := calc.FromVolumeConcentration(acidVol*litresPerMicrolitre, acidConc, baseVol*litresPerMicrolitre, baseConc)
		if byPH {
			res, err = calc.FromVolumePH(acidVol*litresPerMicrolitre, acidPH, baseVol*litresPerMicrolitre, basePH)
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "pH %.4f\n", res.PH)
		if res.Excess != ph.Balanced {
			fmt.Fprintf(out, "excess %s at %.4g M, limiting %s\n", res.Excess, res.ExcessConcentration, res.Limiting())
		} else {
			fmt.Fprintln(out, "balanced")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(phCmd)
	phCmd.Flags().Float64Var(&acidVol, "acid-vol", 10, "acid volume in uL")
	phCmd.Flags().Float64Var(&acidConc, "acid-conc", 0.1, "acid concentration in M")
	phCmd.Flags().Float64Var(&acidPH, "acid-ph", 1, "acid pH, instead of --acid-conc")
	phCmd.Flags().Float64Var(&baseVol, "base-vol", 10, "base volume in uL")
	phCmd.Flags().Float64Var(&baseConc, "base-conc", 0.1, "base concentration in M")
	phCmd.Flags().Float64Var(&basePH, "base-ph", 13, "base pH, instead of --base-conc")
}
