package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/birbparty/rush-analytics/internal/telemetry"
	"github.com/birbparty/rush-analytics/sdk"
)

type options struct {
	apiKey      string
	baseURL     string
	timeout     time.Duration
	retries     int
	retryDelay  time.Duration
	noCache     bool
	logLevel    string
	metricsAddr string
}

// runtime carries what every subcommand needs once flags are parsed.
type runtime struct {
	opts     options
	logger   *logrus.Logger
	metrics  *telemetry.Metrics
	observer sdk.Observer
	server   *http.Server
}

// Execute builds the rushctl command tree, runs it with args and releases
// everything it started.
func Execute(ctx context.Context, version string, args []string, stdout, stderr io.Writer) error {
	rt := &runtime{metrics: telemetry.NewMetrics()}
	defer rt.close()

	cmd := newRootCommand(rt, version)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

func newRootCommand(rt *runtime, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rushctl",
		Short: "Command-line client for the Rush Analytics API",
		Long: `Create keyword tracking tasks and query the Rush Analytics API.

Settings are read from RUSH_ANALYTICS_* environment variables (and a .env
file when present). Flags take precedence over the environment.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&rt.opts.apiKey, "api-key", "", "API key (default: $RUSH_ANALYTICS_API_KEY)")
	flags.StringVar(&rt.opts.baseURL, "base-url", "", "API base URL (default: $RUSH_ANALYTICS_BASE_URL or "+sdk.DefaultBaseURL+")")
	flags.DurationVar(&rt.opts.timeout, "timeout", 0, "Per-request timeout (default: $RUSH_ANALYTICS_TIMEOUT or 10s)")
	flags.IntVar(&rt.opts.retries, "retries", 3, "Maximum attempts per call; 1 disables retries")
	flags.DurationVar(&rt.opts.retryDelay, "retry-delay", time.Second, "Initial delay between attempts, doubled after each one")
	flags.BoolVar(&rt.opts.noCache, "no-cache", false, "Disable the response cache")
	flags.StringVar(&rt.opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&rt.opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	})

	cmd.AddCommand(
		taskCmd(rt),
		languagesCmd(rt),
		regionsCmd(rt),
		catalogCmd(rt),
	)

	return cmd
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	if rt.opts.retries < 1 {
		return fmt.Errorf("%w: --retries must be at least 1", ErrUsage)
	}

	rt.logger = telemetry.NewLogger(&telemetry.Config{
		LogLevel:  rt.opts.logLevel,
		LogFormat: "text",
	}, cmd.ErrOrStderr())

	rt.observer = sdk.NewCompositeObserver(
		telemetry.NewLogObserver(rt.logger),
		rt.metrics.Observer(),
	)

	if rt.opts.metricsAddr != "" {
		ln, err := net.Listen("tcp", rt.opts.metricsAddr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", rt.opts.metricsAddr, err)
		}
		rt.server = &http.Server{
			Handler:           rt.metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := rt.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				rt.logger.WithError(err).Error("Metrics server stopped")
			}
		}()
		rt.logger.WithField("addr", ln.Addr().String()).Info("Serving metrics")
	}

	return nil
}

func (rt *runtime) close() {
	if rt.server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = rt.server.Shutdown(ctx)
}

// config merges the environment with the flags the user set.
func (rt *runtime) config(cmd *cobra.Command) (*sdk.Config, error) {
	cfg := sdk.ConfigFromEnv()
	flags := cmd.Flags()

	if flags.Changed("api-key") {
		cfg.WithAPIKey(rt.opts.apiKey)
	}
	if flags.Changed("base-url") {
		cfg.WithBaseURL(rt.opts.baseURL)
	}
	if flags.Changed("timeout") {
		cfg.WithTimeout(rt.opts.timeout)
	}
	if rt.opts.noCache {
		cfg.WithoutCache()
	}

	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	return cfg.WithLogger(rt.logger).WithObserver(rt.observer), nil
}

func (rt *runtime) strategy() sdk.RetryStrategy {
	if rt.opts.retries <= 1 {
		return sdk.NoRetry{}
	}
	return sdk.ExponentialBackoff{
		MaxAttempts: rt.opts.retries,
		Base:        2,
		Unit:        rt.opts.retryDelay,
	}
}

func (rt *runtime) withClient(cmd *cobra.Command, fn func(sdk.Client) error) error {
	cfg, err := rt.config(cmd)
	if err != nil {
		return err
	}

	client, err := sdk.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	return fn(client)
}

// call runs fn under the retry strategy and prints the response.
func (rt *runtime) call(cmd *cobra.Command, label string, fn func(context.Context) (sdk.Response, error)) error {
	resp, err := sdk.Retry(cmd.Context(), rt.strategy(), fn, sdk.WithRetryObserver(rt.observer, label))
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), resp)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrUsage, cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}
