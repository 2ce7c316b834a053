package classifier

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	events []string
}

func (l *recordingListener) FallbackActivated(modality, reason string) {
	l.events = append(l.events, modality)
}

func TestNewHostRejectsInvalidMode(t *testing.T) {
	_, err := NewHost(HostConfig{Mode: "bogus"})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestHostForceModeUsesRuleBasedOnly(t *testing.T) {
	h, err := NewHost(HostConfig{Mode: models.BackendModeForce})
	require.NoError(t, err)

	triple, err := h.Predict(context.Background(), "Refund request\nI was overcharged, please refund me")
	require.NoError(t, err)
	assert.Contains(t, triple.ModelIdentifier, "rule_based_category")
	assert.Contains(t, triple.ModelIdentifier, "rule_based_sentiment")
}

func TestHostAutoModeFallsBackPermanentlyOnModelUnavailable(t *testing.T) {
	listener := &recordingListener{}
	h, err := NewHost(HostConfig{
		Mode:                 models.BackendModeAuto,
		AvailableMemoryBytes: 32 << 30,
		MemoryThresholdBytes: 16 << 30,
		Listener:             listener,
	})
	require.NoError(t, err)

	triple, err := h.Predict(context.Background(), "Refund request\nI was overcharged, please refund me")
	require.NoError(t, err)
	assert.Contains(t, triple.ModelIdentifier, "rule_based_category")
	assert.Contains(t, triple.ModelIdentifier, "rule_based_sentiment")
	assert.Contains(t, listener.events, "category")
	assert.Contains(t, listener.events, "sentiment")

	// Second call must not re-attempt the learned backend.
	triple2, err := h.Predict(context.Background(), "Another message")
	require.NoError(t, err)
	assert.Contains(t, triple2.ModelIdentifier, "rule_based_category")
	assert.Len(t, listener.events, 2, "fallback must fire at most once per modality")
}

func TestHostOffModeSurfacesClassificationErrorWithoutArtifact(t *testing.T) {
	h, err := NewHost(HostConfig{Mode: models.BackendModeOff})
	require.NoError(t, err)

	_, err = h.Predict(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrClassificationError)
}

func TestHostBelowMemoryThresholdAutoModeUsesRuleBased(t *testing.T) {
	h, err := NewHost(HostConfig{
		Mode:                 models.BackendModeAuto,
		AvailableMemoryBytes: 1 << 30,
		MemoryThresholdBytes: 16 << 30,
	})
	require.NoError(t, err)

	triple, err := h.Predict(context.Background(), "Hello\nJust checking in")
	require.NoError(t, err)
	assert.Contains(t, triple.ModelIdentifier, "rule_based_category")
}
