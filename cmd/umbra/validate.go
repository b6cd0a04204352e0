package main

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/sensor"
	"github.com/chazu/umbra/pkg/tessellate"
)

var errInvalidScene = errors.New("scene has validation errors")

// validateReport is the JSON written by the validate command.
type validateReport struct {
	OK       bool     `json:"ok"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
	Roots    []string `json:"roots,omitempty"`
	Sensors  *int     `json:"sensors,omitempty"`
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check a scene, and the sensors when --sensors is given",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			g, err := cc.scene()
			if err != nil {
				return err
			}

			res := graph.ValidateAll(g)
			msg := func(e graph.ValidationError, _ int) string { return e.Error() }
			rep := validateReport{
				OK:       res.OK(),
				Errors:   lo.Map(res.Errors, msg),
				Warnings: lo.Map(res.Warnings, msg),
			}
			if rep.OK {
				model, err := tessellate.NewModel(g, cc.kernel())
				if err != nil {
					rep.OK = false
					rep.Errors = append(rep.Errors, err.Error())
				} else {
					rep.Roots = model.Roots()
				}
			}

			if cmd.Flags().Changed("sensors") {
				specs, err := cc.sensors()
				if err == nil {
					_, err = sensor.Build(specs, cc.cfg.Offset)
				}
				if err != nil {
					rep.OK = false
					rep.Errors = append(rep.Errors, err.Error())
				} else {
					rep.Sensors = lo.ToPtr(len(specs))
				}
			}

			if err := cc.writeJSON(rep); err != nil {
				return err
			}
			if !rep.OK {
				return fmt.Errorf("%w: %d errors", errInvalidScene, len(rep.Errors))
			}
			return nil
		},
	}
}
