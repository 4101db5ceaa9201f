// Package memory provides in-process implementations of the repository
// interfaces. It backs the "memory" database driver and the service tests.
package memory

import (
	"sync"

	"alcyxob/program-ledger/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds all collections behind one mutex.
type Store struct {
	mu sync.RWMutex

	users       map[primitive.ObjectID]domain.User
	catalog     map[int64]domain.CatalogItem
	nextItemID  int64
	activities  map[primitive.ObjectID]domain.Activity
	weeks       map[weekKey]domain.PlanWeek
	periods     map[primitive.ObjectID]domain.PeriodConfig
	enrollments map[primitive.ObjectID]domain.Enrollment
	executions  map[primitive.ObjectID]domain.ExecutionRecord
	execByKey   map[domain.ExecutionKey]primitive.ObjectID
}

type weekKey struct {
	activityID primitive.ObjectID
	week       int
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		users:       make(map[primitive.ObjectID]domain.User),
		catalog:     make(map[int64]domain.CatalogItem),
		activities:  make(map[primitive.ObjectID]domain.Activity),
		weeks:       make(map[weekKey]domain.PlanWeek),
		periods:     make(map[primitive.ObjectID]domain.PeriodConfig),
		enrollments: make(map[primitive.ObjectID]domain.Enrollment),
		executions:  make(map[primitive.ObjectID]domain.ExecutionRecord),
		execByKey:   make(map[domain.ExecutionKey]primitive.ObjectID),
	}
}
