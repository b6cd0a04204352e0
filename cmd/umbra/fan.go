package main

import (
	"context"
	"errors"
	"math"

	"github.com/spf13/cobra"

	"github.com/chazu/umbra/pkg/analysis"
	"github.com/chazu/umbra/pkg/sensor"
)

const (
	defaultRadius = 100.0
	defaultRays   = 72
)

// fanFlags are shared by the commands that cast a horizontal fan.
type fanFlags struct {
	radius float64
	rays   int
}

func (f *fanFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&f.radius, "radius", "r", defaultRadius, "fan radius, used as the far limit")
	cmd.Flags().IntVarP(&f.rays, "rays", "n", defaultRays, "rays per fan")
}

func newIsovistCmd() *cobra.Command {
	var ff fanFlags
	cmd := &cobra.Command{
		Use:   "isovist",
		Short: "Isovist shape metrics in each sensor's plane",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Isovist(ctx, sensors, s.entities, cc.within(ff.radius), ff.rays)
			})
		},
	}
	ff.register(cmd)
	return cmd
}

func newViewCmd() *cobra.Command {
	var (
		ff    fanFlags
		angle float64
	)
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Open view across a fan centred on each sensor's forward axis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.View(ctx, sensors, s.entities, cc.within(ff.radius), ff.rays, angle*math.Pi/180)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().Float64Var(&angle, "angle", 60, "view angle in degrees")
	return cmd
}

func newVisibilityCmd() *cobra.Command {
	var (
		radius  float64
		targets []string
	)
	cmd := &cobra.Command{
		Use:   "visibility",
		Short: "Line-of-sight from each sensor to target entities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(targets) == 0 {
				return errors.New("visibility: --targets is required")
			}
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				ts, err := s.runner.TargetsOf(targets)
				if err != nil {
					return nil, err
				}
				return s.runner.Visibility(ctx, sensors, s.entities, cc.within(radius), ts)
			})
		},
	}
	cmd.Flags().Float64VarP(&radius, "radius", "r", math.Inf(1), "ignore targets farther than this")
	cmd.Flags().StringSliceVarP(&targets, "targets", "t", nil, "target entities")
	return cmd
}

func newNoiseCmd() *cobra.Command {
	var (
		ff    fanFlags
		roads []string
	)
	cmd := &cobra.Command{
		Use:   "noise",
		Short: "Road traffic noise level at each sensor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(roads) == 0 {
				return errors.New("noise: --roads is required")
			}
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Noise(ctx, sensors, s.entities, roads, cc.within(ff.radius), ff.rays)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().StringSliceVar(&roads, "roads", nil, "road entities")
	return cmd
}

func newWindCmd() *cobra.Command {
	var (
		ff     fanFlags
		layers []float64
	)
	cmd := &cobra.Command{
		Use:   "wind",
		Short: "Exposure to the scene's wind_rose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := parseLayers(layers)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Wind(ctx, sensors, s.entities, cc.within(ff.radius), ff.rays, l)
			})
		},
	}
	ff.register(cmd)
	cmd.Flags().Float64SliceVar(&layers, "layers", nil, "vertical scan as start,end,count (default: sensor height only)")
	return cmd
}

func parseLayers(vs []float64) (analysis.Layers, error) {
	switch {
	case len(vs) == 0:
		return analysis.SingleLayer, nil
	case len(vs) != 3 || vs[2] != math.Trunc(vs[2]):
		return analysis.Layers{}, errors.New("wind: --layers wants start,end,count")
	}
	return analysis.Layers{Start: vs[0], End: vs[1], Count: int(vs[2])}, nil
}
