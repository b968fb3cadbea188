// Package seeders registers starter data for a fresh catalog.
//
// A seeder is a named function added from init():
//
//	func init() {
//	    seeders.Register("categories", SeedCategories)
//	}
//
// `vastra seed` runs them all in registration order. Seeders must be safe to
// run twice; SeedCategories, for example, resolves paths that already exist
// into the nodes they already are.
package seeders

import (
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc seeds one slice of data.
type SeederFunc func(db *gorm.DB) error

type seeder struct {
	name string
	fn   SeederFunc
}

var (
	mu       sync.Mutex
	registry []seeder
)

// Register adds a named seeder. Call from init().
func Register(name string, fn SeederFunc) {
	mu.Lock()
	registry = append(registry, seeder{name: name, fn: fn})
	mu.Unlock()
}

// RunAll executes every registered seeder in order, stopping at the first
// failure.
func RunAll(db *gorm.DB) error {
	mu.Lock()
	todo := make([]seeder, len(registry))
	copy(todo, registry)
	mu.Unlock()

	if len(todo) == 0 {
		fmt.Println("Nothing to seed.")
		return nil
	}

	for _, s := range todo {
		fmt.Printf("  Seeding: %s\n", s.name)
		if err := s.fn(db); err != nil {
			return fmt.Errorf("seeder %q: %w", s.name, err)
		}
	}
	return nil
}
