package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/httpapi"
	"github.com/ppiankov/auditgate/internal/metrics"
	"github.com/ppiankov/auditgate/internal/policy"
	"github.com/ppiankov/auditgate/internal/server"
	"github.com/ppiankov/auditgate/internal/tracing"
)

var (
	servePort      int
	serveHTTPPort  int
	servePolicy    string
	serveAgent     string
	serveTraceFile string
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 50051, "gRPC listen port")
	serveCmd.Flags().IntVar(&serveHTTPPort, "http-port", 8080, "HTTP API and /metrics port (0 disables)")
	serveCmd.Flags().StringVar(&servePolicy, "policy", "", "Path to policy YAML")
	serveCmd.Flags().StringVar(&serveAgent, "agent", "", "Planner name reported in results")
	serveCmd.Flags().StringVar(&serveTraceFile, "trace-file", "", "Write OpenTelemetry spans to this file")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start gRPC and HTTP audit server",
	Long:  "Runs auditgate as a central audit server over gRPC and HTTP.\nMultiple agents connect as clients for remote auditing.\nSupports hot-reload of the policy file.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveTraceFile != "" {
		if err := tracing.Init("auditgate", version, serveTraceFile); err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			tracing.Shutdown(ctx)
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	srv, err := server.New(server.Config{
		Port:       servePort,
		PolicyPath: servePolicy,
		AgentName:  serveAgent,
		Logger:     logger,
		Metrics:    metrics.New(reg),
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	policyPath := servePolicy
	if policyPath == "" {
		policyPath = policy.DefaultPath()
	}
	reloader, err := server.NewReloader(srv, logger, policyPath)
	if err != nil {
		logger.Warn("hot-reload disabled", "error", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if reloader != nil {
		go reloader.Run(ctx)
	}

	var httpSrv *http.Server
	if serveHTTPPort != 0 {
		api := httpapi.New(func() *engine.Engine { return srv.Engine() }, logger, reg)
		httpSrv = &http.Server{
			Addr:              fmt.Sprintf(":%d", serveHTTPPort),
			Handler:           api.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down audit server...")
		cancel()
		if httpSrv != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			httpSrv.Shutdown(shutdownCtx)
			done()
		}
		srv.GracefulStop()
	}()

	fmt.Fprintf(os.Stderr, "auditgate gRPC server listening on :%d\n", servePort)
	if httpSrv != nil {
		fmt.Fprintf(os.Stderr, "HTTP API and /metrics on :%d\n", serveHTTPPort)
	}
	fmt.Fprintf(os.Stderr, "Policy: %s (%s)\n", policyPath, srv.Engine().PolicyHash)
	if reloader != nil && len(reloader.Paths()) > 0 {
		fmt.Fprintln(os.Stderr, "Hot-reload enabled")
	}
	fmt.Fprintln(os.Stderr)

	return srv.Serve()
}
