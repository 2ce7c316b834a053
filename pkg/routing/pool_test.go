package routing

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/triage/pkg/models"
	"github.com/stretchr/testify/assert"
)

func roster() map[models.Department][]models.Consultant {
	return map[models.Department][]models.Consultant{
		models.DepartmentFinance: {
			{ID: "alice", Skills: []string{"refunds"}},
			{ID: "bob", Skills: []string{"refunds", "billing"}},
			{ID: "carol", Skills: []string{"billing"}},
		},
	}
}

func TestConsultantPoolRoundRobinAdvances(t *testing.T) {
	p := NewConsultantPool(roster())
	ctx := context.Background()

	first, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)
	assert.True(t, ok)
	second, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)
	assert.True(t, ok)
	third, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)
	assert.True(t, ok)
	fourth, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)
	assert.True(t, ok)

	assert.Equal(t, []string{"alice", "bob", "carol", "alice"}, []string{first, second, third, fourth})
}

func TestConsultantPoolSkillMatchPicksLeastLoaded(t *testing.T) {
	p := NewConsultantPool(roster())
	ctx := context.Background()

	// Load up bob first via round robin (alice, bob get one each).
	_, _ = p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)
	_, _ = p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil)

	id, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentSkillMatch, []string{"billing"})
	assert.True(t, ok)
	assert.Equal(t, "carol", id, "carol has 'billing' skill and zero load, unlike bob")
}

func TestConsultantPoolLeastLoadedStrategy(t *testing.T) {
	p := NewConsultantPool(roster())
	ctx := context.Background()

	_, _ = p.Assign(ctx, models.DepartmentFinance, models.AssignmentRoundRobin, nil) // alice -> 1

	id, ok := p.Assign(ctx, models.DepartmentFinance, models.AssignmentLeastLoaded, nil)
	assert.True(t, ok)
	assert.Equal(t, "bob", id, "bob and carol are tied at 0, bob is next after alice in rr order")
}

func TestConsultantPoolEmptyDepartmentReturnsFalse(t *testing.T) {
	p := NewConsultantPool(roster())
	_, ok := p.Assign(context.Background(), models.DepartmentLegal, models.AssignmentRoundRobin, nil)
	assert.False(t, ok)
}

func TestConsultantPoolNoSkillMatchReturnsFalse(t *testing.T) {
	p := NewConsultantPool(roster())
	_, ok := p.Assign(context.Background(), models.DepartmentFinance, models.AssignmentSkillMatch, []string{"legal-review"})
	assert.False(t, ok)
}
