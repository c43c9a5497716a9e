// Package memory is an in-process store for development and tests. A single
// mutex guards every table so each repository call is one atomic unit.
package memory

import (
	"sync"
	"time"

	"github.com/riskibarqy/gym-league/internal/domain/heat"
	"github.com/riskibarqy/gym-league/internal/domain/personalrecord"
	"github.com/riskibarqy/gym-league/internal/domain/ranking"
	"github.com/riskibarqy/gym-league/internal/domain/registration"
	"github.com/riskibarqy/gym-league/internal/domain/result"
	"github.com/riskibarqy/gym-league/internal/domain/scoring"
	"github.com/riskibarqy/gym-league/internal/domain/tournament"
)

type Database struct {
	mu  sync.RWMutex
	now func() time.Time

	tournaments   map[string]tournament.Tournament
	registrations map[string]registration.Registration
	rules         map[string][]scoring.Rule
	heats         map[string]heat.Heat
	allocations   map[string]heat.Allocation
	// results are keyed by allocation id.
	results   map[string]result.Result
	records   []personalrecord.Record
	snapshots map[string]ranking.Snapshot
}

func NewDatabase() *Database {
	return &Database{
		now:           time.Now,
		tournaments:   make(map[string]tournament.Tournament),
		registrations: make(map[string]registration.Registration),
		rules:         make(map[string][]scoring.Rule),
		heats:         make(map[string]heat.Heat),
		allocations:   make(map[string]heat.Allocation),
		results:       make(map[string]result.Result),
		snapshots:     make(map[string]ranking.Snapshot),
	}
}

func (db *Database) timestamp() time.Time {
	return db.now().UTC()
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
