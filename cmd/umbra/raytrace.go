package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/chazu/umbra/pkg/analysis"
)

var errMalformedRays = errors.New("malformed rays")

func newRaytraceCmd() *cobra.Command {
	var (
		raysPath string
		method   string
	)
	cmd := &cobra.Command{
		Use:   "raytrace",
		Short: "Trace raw rays against the scene",
		Long: "Rays are JSON. A ray is [[ox, oy, oz], [dx, dy, dz]] and gives a bare\n" +
			"result; an array of rays is traced as one batch; deeper nesting gives\n" +
			"one result per group. Distances use the configured near/far limits.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := analysis.ParseRaytraceMethod(method)
			if err != nil {
				return err
			}
			cc, err := getCLIContext(cmd)
			if err != nil {
				return err
			}
			data, err := cc.readInput(raysPath)
			if err != nil {
				return fmt.Errorf("read rays: %w", err)
			}
			in, err := parseRays(data)
			if err != nil {
				return err
			}
			s, err := cc.open()
			if err != nil {
				return err
			}
			res, err := s.runner.Raytrace(cmd.Context(), in, s.entities, cc.limits(), m)
			if err != nil {
				return err
			}
			return cc.writeJSON(res)
		},
	}
	cmd.Flags().StringVar(&raysPath, "rays", "-", "JSON rays file, - for stdin")
	cmd.Flags().StringVar(&method, "method", analysis.TraceAll.String(),
		"stats, distances, hit_polygons, intersections or all")
	return cmd
}

// parseRays reads the nesting of a ray document. An array whose items are
// all rays is a List; any other array is Nested, with bare rays inside it
// becoming Single groups.
func parseRays(data []byte) (analysis.RayInput, error) {
	if r, ok, err := parseRay(data); ok || err != nil {
		if err != nil {
			return nil, err
		}
		return analysis.Single(r), nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedRays, err)
	}
	list := make(analysis.List, 0, len(items))
	for _, item := range items {
		r, ok, err := parseRay(item)
		if err != nil {
			return nil, err
		}
		if !ok {
			return parseNested(items)
		}
		list = append(list, r)
	}
	return list, nil
}

func parseNested(items []json.RawMessage) (analysis.Nested, error) {
	out := make(analysis.Nested, len(items))
	for i, item := range items {
		in, err := parseRays(item)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		out[i] = in
	}
	return out, nil
}

// parseRay reports ok when data is a pair of vectors. A pair of numeric
// arrays of the wrong length is an error rather than a deeper level.
func parseRay(data []byte) (analysis.Ray, bool, error) {
	var pair [][]float64
	if err := json.Unmarshal(data, &pair); err != nil || len(pair) == 0 {
		return analysis.Ray{}, false, nil
	}
	for _, v := range pair {
		if len(v) == 0 {
			return analysis.Ray{}, false, nil // an empty group
		}
	}
	if len(pair) != 2 || len(pair[0]) != 3 || len(pair[1]) != 3 {
		return analysis.Ray{}, false, fmt.Errorf("%w: want [[ox, oy, oz], [dx, dy, dz]], got %s", errMalformedRays, data)
	}
	return analysis.Ray{
		Origin: r3.Vec{X: pair[0][0], Y: pair[0][1], Z: pair[0][2]},
		Dir:    r3.Vec{X: pair[1][0], Y: pair[1][1], Z: pair[1][2]},
	}, true, nil
}
