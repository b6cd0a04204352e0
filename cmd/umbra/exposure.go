package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chazu/umbra/pkg/analysis"
	"github.com/chazu/umbra/pkg/sample"
	"github.com/chazu/umbra/pkg/sensor"
)

// analyzeFunc runs one analysis family over the parsed sensors.
type analyzeFunc func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error)

// runAnalysis reads the sensors, opens the scene and writes the result.
func runAnalysis(cmd *cobra.Command, fn analyzeFunc) error {
	cc, err := getCLIContext(cmd)
	if err != nil {
		return err
	}
	sensors, err := cc.sensors()
	if err != nil {
		return err
	}
	s, err := cc.open()
	if err != nil {
		return err
	}
	res, err := fn(cmd.Context(), cc, s, sensors)
	if err != nil {
		return err
	}
	return cc.writeResult(res)
}

func newSkyCmd() *cobra.Command {
	var (
		detail int
		method string
	)
	cmd := &cobra.Command{
		Use:   "sky",
		Short: "Sky exposure over the hemisphere of sample directions",
		Long:  "Share of the visible sky, cosine weighted by default, as sky_exposure in [0, 1].",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := analysis.ParseSkyMethod(method)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Sky(ctx, sensors, s.entities, cc.limits(), detail, m)
			})
		},
	}
	cmd.Flags().IntVarP(&detail, "detail", "d", 0, fmt.Sprintf("hemisphere detail level (0-%d)", sample.MaxHemisphereDetail))
	cmd.Flags().StringVar(&method, "method", analysis.SkyWeighted.String(), "weighted or unweighted")
	return cmd
}

func newSunCmd() *cobra.Command {
	var (
		detail int
		method string
	)
	cmd := &cobra.Command{
		Use:   "sun",
		Short: "Direct or indirect sun exposure for the scene's geolocation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := analysis.ParseSunMethod(method)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Sun(ctx, sensors, s.entities, cc.limits(), detail, m)
			})
		},
	}
	cmd.Flags().IntVarP(&detail, "detail", "d", 0, "solar path detail level (0-3)")
	cmd.Flags().StringVar(&method, "method", analysis.DirectWeighted.String(),
		"direct_weighted, direct_unweighted, indirect_weighted or indirect_unweighted")
	return cmd
}

func newIrradianceCmd() *cobra.Command {
	var (
		detail     int
		unweighted bool
	)
	cmd := &cobra.Command{
		Use:   "irradiance",
		Short: "Irradiance from the scene's sky_radiance table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalysis(cmd, func(ctx context.Context, cc *cliContext, s *session, sensors []sensor.Spec) (analysis.Result, error) {
				return s.runner.Irradiance(ctx, sensors, s.entities, cc.limits(), detail, !unweighted)
			})
		},
	}
	cmd.Flags().IntVarP(&detail, "detail", "d", 0, "sky patch detail level; must match the radiance table")
	cmd.Flags().BoolVar(&unweighted, "unweighted", false, "ignore the angle of incidence")
	return cmd
}
