package services

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shashiranjanraj/vastra/config"
)

// profileRegistry maps profile name → FeedProfile so CLI commands and queued
// jobs can reference vendor integrations by name.
var (
	profilesMu sync.RWMutex
	profiles   = map[string]FeedProfile{}
)

// RegisterProfile makes a vendor profile available by name. Call at boot for
// every vendor integration; re-registering a name replaces it.
func RegisterProfile(p FeedProfile) {
	profilesMu.Lock()
	defer profilesMu.Unlock()
	profiles[p.Name] = p
}

// ProfileByName looks up a registered vendor profile.
func ProfileByName(name string) (FeedProfile, error) {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	p, ok := profiles[name]
	if !ok {
		return FeedProfile{}, fmt.Errorf("services: unknown feed profile %q", name)
	}
	return p, nil
}

// ProfileNames lists registered profiles, sorted.
func ProfileNames() []string {
	profilesMu.RLock()
	defer profilesMu.RUnlock()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	// "default": well-behaved single-row feeds using canonical column names.
	RegisterProfile(FeedProfile{
		Name:          "default",
		CurrencyRate:  config.ImportCurrencyRate(),
		MarkupPercent: config.ImportMarkupPercent(),
	})

	// "grouped": multi-row feeds with one product row and N variant rows
	// sharing a group id.
	RegisterProfile(FeedProfile{
		Name:          "grouped",
		MultiRow:      true,
		TypeColumn:    "row_type",
		ParentValue:   "product",
		GroupColumn:   "group_id",
		CurrencyRate:  config.ImportCurrencyRate(),
		MarkupPercent: config.ImportMarkupPercent(),
	})
}
