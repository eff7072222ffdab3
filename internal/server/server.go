package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/metrics"
	"github.com/ppiankov/auditgate/internal/policydiff"
)

// Config holds gRPC server configuration.
type Config struct {
	Port       int
	PolicyPath string
	AgentName  string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Server implements the AuditGate gRPC service.
type Server struct {
	mu  sync.RWMutex
	eng *engine.Engine
	cfg Config

	grpcServer *grpc.Server
}

// New creates a gRPC server with the policy at cfg.PolicyPath loaded.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	eng, err := engine.Load(cfg.engineConfig())
	if err != nil {
		return nil, err
	}

	s := &Server{
		eng:        eng,
		cfg:        cfg,
		grpcServer: grpc.NewServer(),
	}
	Register(s.grpcServer, s)
	return s, nil
}

func (c Config) engineConfig() engine.Config {
	return engine.Config{
		PolicyPath: c.PolicyPath,
		AgentName:  c.AgentName,
		Logger:     c.Logger,
		Metrics:    c.Metrics,
	}
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", s.cfg.Port, err)
	}
	return s.grpcServer.Serve(lis)
}

// ServeOn starts the gRPC server on the given listener. For testing.
func (s *Server) ServeOn(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server and flushes pending alerts.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
	s.Engine().Alerts.Wait()
}

// Engine returns the currently loaded engine. Callers must not cache it
// across reloads.
func (s *Server) Engine() *engine.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.eng
}

// Evaluate implements the Evaluate RPC.
func (s *Server) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := taskFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	eng := s.Engine()
	v := eng.Check(ctx, task)
	return verdictToStruct(task, v, eng.PolicyHash), nil
}

// Dispatch implements the Dispatch RPC. A blocked task is a normal response
// with status BLOCKED; only transport, argument and action failures are
// gRPC errors.
func (s *Server) Dispatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := taskFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	operation := stringField(req, "operation")

	eng := s.Engine()
	out, err := eng.Dispatch(ctx, operation, task)
	switch {
	case errors.Is(err, gate.ErrUnknownOperation):
		return nil, status.Errorf(codes.NotFound, "unknown operation %q", operation)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, status.FromContextError(err).Err()
	case err != nil:
		return nil, status.Error(codes.Internal, err.Error())
	}
	if operation == "" {
		operation = engine.DefaultOperation
	}
	return outcomeToStruct(operation, task, out, eng.PolicyHash), nil
}

// ReloadPolicy atomically swaps in an engine built from the policy file.
// Called by the hot-reloader on file change. Tasks already in flight finish
// against the engine they started with.
func (s *Server) ReloadPolicy() error {
	eng, err := engine.Load(s.cfg.engineConfig())
	if err != nil {
		return fmt.Errorf("failed to reload policy: %w", err)
	}

	s.mu.Lock()
	old := s.eng
	s.eng = eng
	s.mu.Unlock()

	go old.Alerts.Wait()
	s.cfg.Logger.Info("policy reloaded",
		"path", s.cfg.PolicyPath,
		"policy_hash", eng.PolicyHash,
		"changes", policydiff.Summary(policydiff.Diff(old.Policy, eng.Policy)),
	)
	return nil
}
