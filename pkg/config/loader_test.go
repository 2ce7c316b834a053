package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/codeready-toolchain/triage/pkg/routing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "triage.yaml", `
database:
  host: db.internal
  password: ${TEST_DB_PASSWORD}
classifier:
  use_rule_based: force
drain:
  drain_worker_count: 8
routing:
  assignment_strategy: least_loaded
`)
	t.Setenv("TEST_DB_PASSWORD", "secret")

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, models.BackendModeForce, cfg.Classifier.UseRuleBased)
	assert.Equal(t, 8, cfg.Drain.WorkerCount)
	assert.Equal(t, models.AssignmentLeastLoaded, cfg.Routing.AssignmentStrategy)
	// Unset fields retain their built-in defaults.
	assert.Equal(t, 50, cfg.Drain.BatchLimitLearned)
	assert.Equal(t, 5, cfg.Drain.MaxProcessingAttempts)
	assert.NotNil(t, cfg.Routing.Weights)
	assert.Equal(t, dir, cfg.ConfigDir())
}

func TestInitializeMissingTriageYAML(t *testing.T) {
	_, err := Initialize(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestInitializeInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "triage.yaml", `{{{not yaml`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidYAML)
}

func TestInitializeValidationFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "triage.yaml", `
database:
  password: secret
classifier:
  use_rule_based: nonsense
`)

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "use_rule_based")
}

func TestInitializeLoadsRoutingRules(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "triage.yaml", `
database:
  password: secret
routing:
  routing_rules_path: rules.yaml
`)
	writeFile(t, dir, "rules.yaml", `
weights:
  urgency:
    critical: 90
sla_seconds:
  critical: 1800
escalations:
  - name: vip-negative
    when:
      sentiment: [negative]
    then:
      department: escalation
      priority_boost: 20
      escalated: true
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	require.NotNil(t, cfg.Routing.Weights)
	assert.Equal(t, float64(90), cfg.Routing.Weights.Urgency[models.UrgencyCritical])
	// Axes not present in the override retain the spec defaults.
	assert.Equal(t, float64(5), cfg.Routing.Weights.Urgency[models.UrgencyLow])
	assert.Equal(t, 1800, cfg.Routing.SLASeconds[models.UrgencyCritical])
	require.Len(t, cfg.Routing.Escalations, 1)
	assert.Equal(t, "vip-negative", cfg.Routing.Escalations[0].Name)
}

func TestInitializeMissingRoutingRulesFileIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "triage.yaml", `
database:
  password: secret
routing:
  routing_rules_path: does-not-exist.yaml
`)

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, routing.DefaultEscalations(), cfg.Routing.Escalations)
	assert.Equal(t, routing.DefaultWeights(), *cfg.Routing.Weights)
}
