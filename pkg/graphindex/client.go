// Package graphindex is the exclusive owner of Entity nodes and all derived
// edges in the Neo4j-backed connectivity graph (§3 Ownership). Every write
// is best-effort from C1's point of view: failures are logged, never
// propagated (§4.2), because all data here is reproducible from Postgres.
package graphindex

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/arclinehq/arcline/pkg/titlestore"
)

// Client wraps a Neo4j driver and database name. All query methods are
// read-only from the graph's point of view except sync.go's sync_* calls.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewClient opens a Neo4j driver against uri with basic auth. The driver
// itself is lazily connected; callers should follow with VerifyConnectivity
// during startup health checks.
func NewClient(uri, user, password, database string) (*Client, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}
	if database == "" {
		database = "neo4j"
	}
	return &Client{driver: driver, database: database}, nil
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error { return c.driver.Close(ctx) }

// VerifyConnectivity pings the graph store, used by the startup health check.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

func (c *Client) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   mode,
		DatabaseName: c.database,
	})
}

// withRead runs work in a read session and returns its result and error
// to the caller unlogged.
func (c *Client) withRead(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	sess := c.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)
	return sess.ExecuteRead(ctx, work)
}

func (c *Client) withWrite(ctx context.Context, work func(tx neo4j.ManagedTransaction) (any, error)) (any, error) {
	sess := c.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)
	return sess.ExecuteWrite(ctx, work)
}

// entityNodeID is the composite identity key for an Entity node (§6
// "Entity by name|type").
func entityNodeID(e titlestore.Entity) string {
	return e.Text + "|" + e.Type
}

// logBestEffort logs a graph write failure at warn level without ever
// surfacing it to C1 (§4.2 "Best-effort: failures are logged, never
// propagated to C1").
func logBestEffort(op string, titleID string, err error) {
	if err == nil {
		return
	}
	slog.Warn("graph index best-effort write failed", "op", op, "title_id", titleID, "error", err)
}

// recentWindow converts a day count into a Neo4j-queryable timestamp cutoff.
func recentWindow(days int) time.Time {
	return time.Now().Add(-time.Duration(days) * 24 * time.Hour)
}
