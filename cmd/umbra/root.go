package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/chazu/umbra/pkg/analysis"
	"github.com/chazu/umbra/pkg/config"
	"github.com/chazu/umbra/pkg/engine"
	"github.com/chazu/umbra/pkg/graph"
	"github.com/chazu/umbra/pkg/kernel"
	"github.com/chazu/umbra/pkg/kernel/poly"
	"github.com/chazu/umbra/pkg/kernel/sdfx"
	"github.com/chazu/umbra/pkg/logging"
	"github.com/chazu/umbra/pkg/sensor"
	"github.com/chazu/umbra/pkg/tessellate"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// rootOptions holds the global flags.
type rootOptions struct {
	ConfigPath  string
	ScenePath   string
	SensorsPath string
	Kernel      string
	LogLevel    string
	Workers     int
	Entities    []string
	Metrics     []string
}

// cliContext carries what every analysis command needs once the
// persistent flags are resolved.
type cliContext struct {
	opts   *rootOptions
	cfg    *config.Config
	logger logging.Logger
	stdin  io.Reader
	stdout io.Writer
}

type cliContextKey struct{}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "umbra",
		Short: "Environmental ray-casting analyses over a scene",
		Long: "umbra evaluates a scene file, meshes the selected entities and casts\n" +
			"rays from sensors to measure sky and sun exposure, irradiance, isovists,\n" +
			"views, visibility, traffic noise and wind exposure. Results are JSON.",
		Version: fmt.Sprintf("%s (commit: %s)", Version, GitCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file path (YAML)")
	pf.StringVarP(&opts.ScenePath, "scene", "s", "", "scene file; empty means an empty scene")
	pf.StringVar(&opts.SensorsPath, "sensors", "-", "JSON sensors file, - for stdin")
	pf.StringVar(&opts.Kernel, "kernel", "", "geometry kernel (poly or sdfx); overrides config")
	pf.StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides config")
	pf.IntVarP(&opts.Workers, "workers", "w", -1, "sensors analyzed in parallel, 0 for one per CPU; overrides config")
	pf.StringSliceVarP(&opts.Entities, "entities", "e", nil, "entities that occlude rays (default: every root; \"\" for none)")
	pf.StringSliceVarP(&opts.Metrics, "metrics", "m", nil, "report only these metrics")

	cmd.AddCommand(
		newSkyCmd(),
		newSunCmd(),
		newIrradianceCmd(),
		newIsovistCmd(),
		newViewCmd(),
		newVisibilityCmd(),
		newRaytraceCmd(),
		newNoiseCmd(),
		newWindCmd(),
		newValidateCmd(),
	)
	return cmd
}

func persistentPreRun(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("kernel") {
		cfg.Kernel = opts.Kernel
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = opts.LogLevel
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.Workers
		if cfg.Workers == 0 {
			cfg.Workers = runtime.NumCPU()
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)

	cc := &cliContext{
		opts:   opts,
		cfg:    cfg,
		logger: logger,
		stdin:  cmd.InOrStdin(),
		stdout: cmd.OutOrStdout(),
	}
	cmd.SetContext(context.WithValue(cmd.Context(), cliContextKey{}, cc))
	return nil
}

func getCLIContext(cmd *cobra.Command) (*cliContext, error) {
	cc, ok := cmd.Context().Value(cliContextKey{}).(*cliContext)
	if !ok {
		return nil, errors.New("cli context not initialized")
	}
	return cc, nil
}

// Execute runs the root command; Ctrl-C cancels the running analysis.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return newRootCommand().ExecuteContext(ctx)
}

func (cc *cliContext) kernel() kernel.Kernel {
	if cc.cfg.Kernel == config.KernelSDF {
		return sdfx.New(sdfx.WithCells(cc.cfg.MeshCells))
	}
	return poly.New()
}

// scene evaluates the scene file. Evaluation errors are reported together.
func (cc *cliContext) scene() (*graph.Scene, error) {
	if cc.opts.ScenePath == "" {
		return graph.New(), nil
	}
	src, err := os.ReadFile(cc.opts.ScenePath)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	g, evalErrs, err := engine.NewEngine().Evaluate(string(src))
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", cc.opts.ScenePath, err)
	}
	if len(evalErrs) > 0 {
		errs := make([]error, len(evalErrs))
		for i, e := range evalErrs {
			errs[i] = e
		}
		return nil, fmt.Errorf("evaluate %s: %w", cc.opts.ScenePath, errors.Join(errs...))
	}
	return g, nil
}

// session is a tessellated scene ready for analysis.
type session struct {
	model    *tessellate.Model
	runner   *analysis.Runner
	entities []string
}

func (cc *cliContext) open() (*session, error) {
	g, err := cc.scene()
	if err != nil {
		return nil, err
	}
	model, err := tessellate.NewModel(g, cc.kernel())
	if err != nil {
		return nil, err
	}
	runner := analysis.NewRunner(model,
		analysis.WithWorkers(cc.cfg.Workers),
		analysis.WithOffset(cc.cfg.Offset),
		analysis.WithLogger(cc.logger),
	)
	entities := cc.opts.Entities
	if entities == nil {
		entities = model.Roots()
	}
	cc.logger.Debug("scene ready",
		logging.String("scene", cc.opts.ScenePath),
		logging.String("kernel", cc.cfg.Kernel),
		logging.Int("entities", len(entities)),
	)
	return &session{model: model, runner: runner, entities: entities}, nil
}

func (cc *cliContext) readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cc.stdin)
	}
	return os.ReadFile(path)
}

func (cc *cliContext) sensors() ([]sensor.Spec, error) {
	data, err := cc.readInput(cc.opts.SensorsPath)
	if err != nil {
		return nil, fmt.Errorf("read sensors: %w", err)
	}
	return sensor.ParseAll(data)
}

func (cc *cliContext) limits() analysis.Limits {
	return analysis.Limits{Near: cc.cfg.Limits.Near, Far: cc.cfg.Limits.Far}
}

// within keeps the configured near limit and takes radius as the far one.
func (cc *cliContext) within(radius float64) analysis.Limits {
	lim := cc.limits()
	lim.Far = radius
	return lim
}

func (cc *cliContext) writeJSON(v any) error {
	enc := json.NewEncoder(cc.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeResult applies --metrics before writing.
func (cc *cliContext) writeResult(res analysis.Result) error {
	if len(cc.opts.Metrics) > 0 {
		var err error
		if res, err = res.Select(cc.opts.Metrics...); err != nil {
			return err
		}
	}
	return cc.writeJSON(res)
}
