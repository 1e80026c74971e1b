package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Pinger is a dependency whose reachability decides the serving status.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthServer reports SERVING while every dependency answers a ping.
type HealthServer struct {
	log    *slog.Logger
	health *health.Server
	deps   map[string]Pinger
}

func NewHealthServer(log *slog.Logger, deps map[string]Pinger) *HealthServer {
	return &HealthServer{log: log, health: health.NewServer(), deps: deps}
}

// Check pings every dependency once and updates the overall status.
func (h *HealthServer) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	for name, d := range h.deps {
		if err := d.Ping(ctx); err != nil {
			h.log.Warn("dependency unhealthy", "dependency", name, "err", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
		}
	}
	h.health.SetServingStatus("", status)
	return status
}

// Watch re-checks dependencies every interval until ctx is done.
func (h *HealthServer) Watch(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		pingCtx, cancel := context.WithTimeout(ctx, interval)
		h.Check(pingCtx)
		cancel()
		select {
		case <-ctx.Done():
			h.health.Shutdown()
			return nil
		case <-t.C:
		}
	}
}

// Run listens on addr and serves in the background. Stop the returned
// server to shut it down.
func Run(log *slog.Logger, addr string, hs *HealthServer) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(log, lis, hs), nil
}

func Serve(log *slog.Logger, lis net.Listener, hs *HealthServer) *grpc.Server {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs.health)
	go func() {
		log.Info("grpc listening", "addr", lis.Addr().String())
		if err := gs.Serve(lis); err != nil {
			log.Error("grpc server stopped", "err", err)
		}
	}()
	return gs
}
