// Package prompt implements the hot-reloadable PromptDefinition registry
// (spec.md §4 "Prompt/Gate/Framework/Style Registries").
package prompt

import (
	domain "github.com/forgecrew/promptengine/internal/domain/prompt"
	"github.com/forgecrew/promptengine/internal/registry/common"
	"github.com/forgecrew/promptengine/internal/registry/reload"
	"github.com/forgecrew/promptengine/internal/registry/resolve"
)

const fileName = "prompt.yaml"

// Registry is the case-insensitive, hot-reloadable store of prompts.
type Registry struct {
	store       *common.Store[domain.Definition]
	coordinator *reload.Coordinator[domain.Definition]
	tracker     *reload.ResourceChangeTracker
	root        string
}

// New creates a Registry rooted at the resolved prompts directory and
// performs the initial synchronous load.
func New(journalPath string) (*Registry, error) {
	root := resolve.RootFor("MCP_PROMPTS_PATH", "prompts")
	tracker := reload.NewResourceChangeTracker(journalPath)
	store := common.NewStore[domain.Definition]()
	coord := reload.NewCoordinator[domain.Definition](root, fileName, store, tracker, decodeFile)

	if err := coord.LoadAll(); err != nil {
		return nil, err
	}

	return &Registry{store: store, coordinator: coord, tracker: tracker, root: root}, nil
}

// Watch starts the fsnotify-backed hot-reload coordinator.
func (r *Registry) Watch() error { return r.coordinator.Start() }

// Close stops the hot-reload coordinator.
func (r *Registry) Close() { r.coordinator.Stop() }

// Resolve looks up a prompt by ID or name, case-insensitively.
func (r *Registry) Resolve(idOrName string) (domain.Definition, bool) {
	return r.store.Resolve(idOrName)
}

// All returns every registered prompt.
func (r *Registry) All() []domain.Definition { return r.store.All() }

// StartupExternalChanges reports resources edited on disk while the
// process was down (spec.md §4.10).
func (r *Registry) StartupExternalChanges() []reload.ExternalChange {
	return r.tracker.StartupReport(r.coordinator.ResourcePaths())
}

// Suggestions returns up to n prompt IDs closest to query by edit distance, for
// the ResourceNotFound "suggestion list" in spec.md §7 / scenario 6.
func (r *Registry) Suggestions(query string, n int) []string {
	return common.PrefixSuggestions(query, r.store.All(), func(d domain.Definition) string { return d.ID }, n)
}
