package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oasgate/oasgate/pkg/config"
	"github.com/oasgate/oasgate/pkg/gateway"
	"github.com/oasgate/oasgate/pkg/logging"
)

var serveFlags struct {
	listen         string
	upstream       string
	spec           string
	noValidateReq  bool
	noValidateResp bool
	passthrough    bool
	logLevel       string
	logFormat      string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the validating gateway",
	Long: `Start the gateway: load the OpenAPI document, bind the listen address, and
proxy validated traffic to the upstream. Flags override values from the
configuration file.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveFlags.listen, "listen", "", "Address to bind, e.g. :8080")
	serveCmd.Flags().StringVar(&serveFlags.upstream, "upstream", "", "Upstream base URL to proxy to")
	serveCmd.Flags().StringVar(&serveFlags.spec, "spec", "", "Path to the OpenAPI 3 document")
	serveCmd.Flags().BoolVar(&serveFlags.noValidateReq, "no-validate-request", false, "Disable request validation")
	serveCmd.Flags().BoolVar(&serveFlags.noValidateResp, "no-validate-response", false, "Disable response validation")
	serveCmd.Flags().BoolVar(&serveFlags.passthrough, "passthrough-unmatched", false, "Forward undocumented paths instead of rejecting them")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	serveCmd.Flags().StringVar(&serveFlags.logFormat, "log-format", "", "Log format: text or json")
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads the configuration file (when given) and layers the serve
// flags on top.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if serveFlags.listen != "" {
		cfg.Listen = serveFlags.listen
	}
	if serveFlags.upstream != "" {
		cfg.Upstream = serveFlags.upstream
	}
	if serveFlags.spec != "" {
		cfg.Spec = serveFlags.spec
	}
	if serveFlags.noValidateReq {
		off := false
		cfg.ValidateRequest = &off
	}
	if serveFlags.noValidateResp {
		off := false
		cfg.ValidateResponse = &off
	}
	if serveFlags.passthrough {
		cfg.PassthroughUnmatched = true
	}
	if serveFlags.logLevel != "" {
		cfg.Log.Level = serveFlags.logLevel
	}
	if serveFlags.logFormat != "" {
		cfg.Log.Format = serveFlags.logFormat
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
	})

	g, err := gateway.New(gateway.Options{Config: cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return g.Run(ctx)
}
