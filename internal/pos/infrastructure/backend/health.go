package backend

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Health checks the order service over the standard gRPC health protocol.
type Health struct {
	conn   *grpc.ClientConn
	client healthpb.HealthClient
}

func DialHealth(addr string) (*Health, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	return &Health{conn: conn, client: healthpb.NewHealthClient(conn)}, nil
}

func (h *Health) Check(ctx context.Context) error {
	resp, err := h.client.Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return err
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("order service is %s", resp.GetStatus())
	}
	return nil
}

func (h *Health) Close() error { return h.conn.Close() }
