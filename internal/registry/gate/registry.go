// Package gate implements the hot-reloadable GateDefinition registry.
package gate

import (
	domain "github.com/forgecrew/promptengine/internal/domain/gate"
	"github.com/forgecrew/promptengine/internal/registry/common"
	"github.com/forgecrew/promptengine/internal/registry/reload"
	"github.com/forgecrew/promptengine/internal/registry/resolve"
)

const fileName = "gate.yaml"

type Registry struct {
	store       *common.Store[domain.Definition]
	coordinator *reload.Coordinator[domain.Definition]
	tracker     *reload.ResourceChangeTracker
}

func New(journalPath string) (*Registry, error) {
	root := resolve.RootFor("MCP_GATES_PATH", "gates")
	tracker := reload.NewResourceChangeTracker(journalPath)
	store := common.NewStore[domain.Definition]()
	coord := reload.NewCoordinator[domain.Definition](root, fileName, store, tracker, decodeFile)

	if err := coord.LoadAll(); err != nil {
		return nil, err
	}
	return &Registry{store: store, coordinator: coord, tracker: tracker}, nil
}

func (r *Registry) Watch() error { return r.coordinator.Start() }
func (r *Registry) Close()       { r.coordinator.Stop() }

func (r *Registry) Resolve(idOrName string) (domain.Definition, bool) { return r.store.Resolve(idOrName) }
func (r *Registry) All() []domain.Definition                          { return r.store.All() }

// ForCategory returns non-framework gates activated for promptCategory,
// unless includeFramework is true (spec.md §4.3 step 2).
func (r *Registry) ForCategory(promptCategory string, includeFramework bool) []domain.Definition {
	var out []domain.Definition
	for _, g := range r.store.All() {
		if g.GateType == domain.KindFramework && !includeFramework {
			continue
		}
		for _, c := range g.Activation.PromptCategories {
			if c == promptCategory {
				out = append(out, g)
				break
			}
		}
	}
	return out
}

func (r *Registry) StartupExternalChanges() []reload.ExternalChange {
	return r.tracker.StartupReport(r.coordinator.ResourcePaths())
}
