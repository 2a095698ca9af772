/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"chemcpu/chem"
	"chemcpu/labware"
	"chemcpu/network"
	"chemcpu/transfer"
)

var (
	weightsFile string
	imageFile   string
	neurons     int
	graded      bool
	netEnforce  bool
)

// networkCmd represents the network command
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Encodes an image against a weight file and simulates the result",
	Long: `Writes the image as acid/base rail pairs on a 1536 LDV data plate, pools
each rail onto a 384 PP pooling plate, adds indicator and decodes the pH of
every neuron's rails. The expected outputs computed from the plan are shown
next to the simulated ones. Graded dilutions overfill the data wells, so
capacity limits are only checked with --enforce.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pixels, err := readIntsFile(imageFile)
		if err != nil {
			return fmt.Errorf("image: %w", err)
		}
		n, err := network.New(neurons, len(pixels), network.WithLogger(logger))
		if err != nil {
			return err
		}
		if err := n.SetImage(pixels, graded); err != nil {
			return err
		}
		wf, err := os.Open(weightsFile)
		if err != nil {
			return fmt.Errorf("weights: %w", err)
		}
		defer wf.Close()
		if err := n.LoadWeights(wf); err != nil {
			return fmt.Errorf("weights: %w", err)
		}

		sim, err := newNetworkSim(n)
		if err != nil {
			return err
		}
		expected, simulated, err := sim.run(netEnforce)
		if err != nil {
			return err
		}

		t := newTable("Neuron", "ExpectedLeft", "ExpectedRight", "ExpectedClass", "Left", "Right", "Class")
		for i := range simulated {
			e, s := expected[i], simulated[i]
			t.Row(fmt.Sprint(i),
				fmt.Sprintf("%.2f", e.Left), fmt.Sprintf("%.2f", e.Right), e.Class.String(),
				fmt.Sprintf("%.2f", s.Left), fmt.Sprintf("%.2f", s.Right), s.Class.String())
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func readIntsFile(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return network.ReadInts(f)
}

// networkSim holds the plates of one network run.
type networkSim struct {
	net       *network.Network
	source    *labware.Container
	data      *labware.Container
	pool      *labware.Container
	pools     network.Pools
	indicator labware.Position
}

func newNetworkSim(n *network.Network) (*networkSim, error) {
	source, err := labware.NewFromPreset("WellPlate384PP", "source", labware.WithLetters(cfg.Letters()))
	if err != nil {
		return nil, err
	}
	data, err := labware.NewFromPreset("WellPlate1536LDV", "data", labware.WithLetters(cfg.Letters()))
	if err != nil {
		return nil, err
	}
	pool, err := labware.NewFromPreset("WellPlate384PP", "pooling", labware.WithLetters(cfg.Letters()))
	if err != nil {
		return nil, err
	}
	sim := &networkSim{net: n, source: source, data: data, pool: pool}

	nc := cfg.Network
	draws := n.Neurons() * n.WeightsPerNeuron()
	var waterDraws int
	if n.Graded() {
		for _, px := range n.Image() {
			if px > 0 {
				waterDraws += 2 * px * n.Neurons()
			}
		}
	}
	reagents := []struct {
		compound chem.Compound
		draws    int
		pool     **network.Pool
	}{
		{chem.Compound{ID: "HCl", Name: "hydrochloric acid", Type: chem.TypeAcid, Concentration: nc.AcidConcentration}, draws, &sim.pools.Acid},
		{chem.Compound{ID: "NaOH", Name: "sodium hydroxide", Type: chem.TypeBase, Concentration: nc.BaseConcentration}, draws, &sim.pools.Base},
		{chem.Compound{ID: "H2O", Name: "water", Type: chem.TypeWater}, waterDraws, &sim.pools.Water},
	}
	for _, r := range reagents {
		if r.draws == 0 {
			continue
		}
		positions, err := sim.fill(r.compound, r.draws)
		if err != nil {
			return nil, fmt.Errorf("placing %s: %w", r.compound.Name, err)
		}
		if *r.pool, err = network.NewPool(positions, nc.MaxDrawsPerSource); err != nil {
			return nil, err
		}
	}
	ind, err := source.AddNewMixture("indicator", []chem.Compound{{ID: "indicator", Name: "universal indicator", Type: chem.TypeIndicator}}, nil, nc.ReagentVolumeNL)
	if err != nil {
		return nil, fmt.Errorf("placing indicator: %w", err)
	}
	sim.indicator = ind[0]
	return sim, nil
}

// fill places enough stock wells of compound to serve draws transfers.
func (s *networkSim) fill(compound chem.Compound, draws int) ([]labware.Position, error) {
	nc := cfg.Network
	perWell := max(int(nc.ReagentVolumeNL/nc.UnitVolumeNL), 1)
	if nc.MaxDrawsPerSource > 0 {
		perWell = min(perWell, nc.MaxDrawsPerSource)
	}
	wells := (draws + perWell - 1) / perWell
	var out []labware.Position
	for range wells {
		p, err := s.source.FindEmptyLocation()
		if err != nil {
			return nil, err
		}
		if _, err := s.source.AddNewMixture(compound.Name, []chem.Compound{compound}, &p, nc.ReagentVolumeNL); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *networkSim) run(enforce bool) (expected, simulated []network.Output, err error) {
	nc := cfg.Network
	plan, err := s.net.PlanData(network.DataParams{
		Pools:        s.pools,
		Layout:       network.Layout{Cols: s.data.Cols()},
		UnitVolume:   nc.UnitVolumeNL,
		GradedLevels: nc.GradedLevels,
	})
	if err != nil {
		return nil, nil, err
	}
	calc := cfg.Calculator()
	if expected, err = plan.ExpectedOutputs(calc, nc.AcidPH, nc.BasePH); err != nil {
		return nil, nil, err
	}

	list, err := plan.Tasks(s.source, s.data)
	if err != nil {
		return nil, nil, err
	}
	pooling, sums := network.PlanSummation(plan.Rails, labware.Position{}, nc.PoolVolumeNL)
	poolTask, err := pooling.Task(s.data, s.pool)
	if err != nil {
		return nil, nil, err
	}
	var sumWells []labware.Position
	for _, sw := range sums {
		sumWells = append(sumWells, sw.Left, sw.Right)
	}
	indTask, err := network.PlanIndicator(sumWells, s.indicator, nc.IndicatorVolumeNL).Task(s.source, s.pool)
	if err != nil {
		return nil, nil, err
	}
	list.Merge(transfer.NewTaskList("network readout", poolTask, indTask))

	logger.Info("network protocol", zap.Stringer("summary", list.Summarize(cfg.Transfer.RateNLPerS)))
	opts := cfg.TransferOptions(logger)
	opts.EnforceLimits = enforce
	if _, err := list.Run(opts); err != nil {
		return nil, nil, err
	}
	simulated, err = network.DecodeWells(s.pool, sums, calc)
	return expected, simulated, err
}

func init() {
	rootCmd.AddCommand(networkCmd)
	networkCmd.Flags().StringVar(&weightsFile, "weights", "", "weight file, one value per line, neuron-major")
	networkCmd.Flags().StringVar(&imageFile, "image", "", "image file, one pixel per line")
	networkCmd.Flags().IntVar(&neurons, "neurons", 2, "number of neurons")
	networkCmd.Flags().BoolVar(&graded, "graded", false, "treat pixel values as graded intensities")
	networkCmd.Flags().BoolVar(&netEnforce, "enforce", false, "enforce capacity limits on the data and pooling plates")
	_ = networkCmd.MarkFlagRequired("weights")
	_ = networkCmd.MarkFlagRequired("image")
}
