package routing

import (
	"context"
	"sort"
	"sync"

	"github.com/codeready-toolchain/triage/pkg/models"
)

// departmentPool holds one department's consultants and its own lock, so
// mutation of per-department state is serialized per-department while
// cross-department operations never interfere (spec.md §4.7).
type departmentPool struct {
	mu          sync.Mutex
	consultants []models.Consultant
	rrCursor    int
}

// ConsultantPool implements the assign(department, strategy, skill_tags)
// capability from spec.md §4.7. It is a pure capability: the Engine calls
// it, it never calls back into the Engine (spec.md §9).
type ConsultantPool struct {
	mu          sync.RWMutex
	departments map[models.Department]*departmentPool
}

// NewConsultantPool seeds the pool from a static roster keyed by
// department, as loaded from configuration.
func NewConsultantPool(roster map[models.Department][]models.Consultant) *ConsultantPool {
	departments := make(map[models.Department]*departmentPool, len(roster))
	for dept, consultants := range roster {
		cloned := make([]models.Consultant, len(consultants))
		copy(cloned, consultants)
		sortByID(cloned)
		departments[dept] = &departmentPool{consultants: cloned}
	}
	return &ConsultantPool{departments: departments}
}

func sortByID(consultants []models.Consultant) {
	sort.Slice(consultants, func(i, j int) bool { return consultants[i].ID < consultants[j].ID })
}

// Assign implements the Pool capability consumed by the Routing Engine.
func (p *ConsultantPool) Assign(_ context.Context, department models.Department, strategy models.AssignmentStrategy, skillTags []string) (string, bool) {
	p.mu.RLock()
	dp, ok := p.departments[department]
	p.mu.RUnlock()
	if !ok || dp == nil {
		return "", false
	}

	dp.mu.Lock()
	defer dp.mu.Unlock()

	if len(dp.consultants) == 0 {
		return "", false
	}

	var idx int
	switch strategy {
	case models.AssignmentSkillMatch:
		idx, ok = leastLoadedMatchingSkills(dp.consultants, skillTags)
	case models.AssignmentLeastLoaded:
		idx, ok = leastLoaded(dp.consultants, dp.rrCursor)
	default: // models.AssignmentRoundRobin and unset
		idx, ok = dp.rrCursor%len(dp.consultants), true
	}
	if !ok {
		return "", false
	}

	dp.consultants[idx].ActiveLoad++
	if strategy == models.AssignmentRoundRobin || strategy == "" {
		dp.rrCursor = (dp.rrCursor + 1) % len(dp.consultants)
	}
	return dp.consultants[idx].ID, true
}

// leastLoadedMatchingSkills picks the least-loaded consultant whose skills
// are a superset of skillTags, ties broken lexicographically (consultants
// is already ID-sorted, so the first minimum encountered is lexicographically
// smallest).
func leastLoadedMatchingSkills(consultants []models.Consultant, skillTags []string) (int, bool) {
	best, bestLoad := -1, 0
	for i, c := range consultants {
		if !c.HasSkills(skillTags) {
			continue
		}
		if best == -1 || c.ActiveLoad < bestLoad {
			best, bestLoad = i, c.ActiveLoad
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// leastLoaded picks the minimum active_load consultant, ties broken by
// round-robin order starting from the current cursor (spec.md §4.7).
func leastLoaded(consultants []models.Consultant, cursor int) (int, bool) {
	n := len(consultants)
	best, bestLoad := -1, 0
	for offset := 0; offset < n; offset++ {
		i := (cursor + offset) % n
		if best == -1 || consultants[i].ActiveLoad < bestLoad {
			best, bestLoad = i, consultants[i].ActiveLoad
		}
	}
	return best, best != -1
}
