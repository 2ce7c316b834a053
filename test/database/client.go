// Package database provides a per-test PostgreSQL client backed by
// testcontainers, isolated from other tests via its own schema.
package database

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/codeready-toolchain/triage/pkg/database"
	"github.com/codeready-toolchain/triage/test/util"
	"github.com/stretchr/testify/require"
)

// NewTestClient creates a database client scoped to a fresh schema inside
// the shared test database, runs migrations against it, and registers
// cleanup to drop the schema and close the client's pool.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()
	ctx := context.Background()

	baseConnStr := util.GetBaseConnectionString(t)
	schemaName := util.GenerateSchemaName(t)
	util.CreateSchema(t, baseConnStr, schemaName)
	t.Cleanup(func() { util.DropSchema(t, baseConnStr, schemaName) })

	cfg, err := parseDSN(baseConnStr)
	require.NoError(t, err)
	cfg.SearchPath = schemaName
	cfg.MaxOpenConns = 10
	cfg.MaxIdleConns = 5

	client, err := database.NewClient(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

// parseDSN turns a postgres:// connection URL (as returned by testcontainers)
// into a database.Config.
func parseDSN(connStr string) (database.Config, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return database.Config{}, err
	}

	password, _ := u.User.Password()
	cfg := database.Config{
		Host:     u.Hostname(),
		User:     u.User.Username(),
		Password: password,
		Database: strings.TrimPrefix(u.Path, "/"),
		SSLMode:  u.Query().Get("sslmode"),
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return database.Config{}, err
		}
		cfg.Port = p
	}

	return cfg, nil
}
