// Package database re-exports the shared test-database harness under the
// name existing callers import.
package database

import (
	"testing"

	"github.com/arclinehq/arcline/pkg/database"
	"github.com/arclinehq/arcline/test/util"
)

// NewTestClient creates an isolated, migrated test database client.
// In CI (when CI_DATABASE_URL is set): connects to external PostgreSQL service container.
// In local dev: spins up a shared testcontainer with PostgreSQL, then an
// isolated schema per test.
// The schema/connection is automatically cleaned up when the test ends.
func NewTestClient(t *testing.T) *database.Client {
	return util.SetupTestDatabase(t)
}
