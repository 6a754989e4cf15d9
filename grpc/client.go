package grpc

import (
	"context"
	"fmt"
	"time"

	grpc "google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client wraps a connection to a bot's health endpoint.
type Client struct {
	conn          *grpc.ClientConn
	health        healthpb.HealthClient
	serverAddress string
	timeout       time.Duration
}

// NewClient creates a health client for serverAddress.
func NewClient(serverAddress string, timeout time.Duration) (*Client, error) {
	conn, err := grpc.NewClient(serverAddress, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", serverAddress, err)
	}

	return &Client{
		conn:          conn,
		health:        healthpb.NewHealthClient(conn),
		serverAddress: serverAddress,
		timeout:       timeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Serving reports whether the bot at the other end is up and connected to Discord.
func (c *Client) Serving(ctx context.Context) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return false, fmt.Errorf("health check against %s failed: %w", c.serverAddress, err)
	}
	return resp.GetStatus() == healthpb.HealthCheckResponse_SERVING, nil
}
