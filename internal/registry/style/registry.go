// Package style implements the hot-reloadable StyleDefinition registry.
package style

import (
	domain "github.com/forgecrew/promptengine/internal/domain/style"
	"github.com/forgecrew/promptengine/internal/registry/common"
	"github.com/forgecrew/promptengine/internal/registry/reload"
	"github.com/forgecrew/promptengine/internal/registry/resolve"
)

const fileName = "style.yaml"

type Registry struct {
	store       *common.Store[domain.Definition]
	coordinator *reload.Coordinator[domain.Definition]
	tracker     *reload.ResourceChangeTracker
}

func New(journalPath string) (*Registry, error) {
	root := resolve.RootFor("MCP_STYLES_PATH", "styles")
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

func (r *Registry) StartupExternalChanges() []reload.ExternalChange {
	return r.tracker.StartupReport(r.coordinator.ResourcePaths())
}
