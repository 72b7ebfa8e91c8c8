// Package framework implements the hot-reloadable FrameworkDefinition
// (methodology) registry.
package framework

import (
	domain "github.com/forgecrew/promptengine/internal/domain/framework"
	"github.com/forgecrew/promptengine/internal/registry/common"
	"github.com/forgecrew/promptengine/internal/registry/reload"
	"github.com/forgecrew/promptengine/internal/registry/resolve"
)

const fileName = "framework.yaml"

type Registry struct {
	store       *common.Store[domain.Definition]
	coordinator *reload.Coordinator[domain.Definition]
	tracker     *reload.ResourceChangeTracker
	defaultID   string
}

func New(journalPath, defaultID string) (*Registry, error) {
	root := resolve.RootFor("MCP_METHODOLOGIES_PATH", "methodologies")
	tracker := reload.NewResourceChangeTracker(journalPath)
	store := common.NewStore[domain.Definition]()
	coord := reload.NewCoordinator[domain.Definition](root, fileName, store, tracker, decodeFile)

	if err := coord.LoadAll(); err != nil {
		return nil, err
	}
	return &Registry{store: store, coordinator: coord, tracker: tracker, defaultID: defaultID}, nil
}

func (r *Registry) Watch() error { return r.coordinator.Start() }
func (r *Registry) Close()       { r.coordinator.Stop() }

func (r *Registry) Resolve(idOrName string) (domain.Definition, bool) { return r.store.Resolve(idOrName) }
func (r *Registry) All() []domain.Definition                          { return r.store.All() }

// Default returns the configured default framework, if registered.
func (r *Registry) Default() (domain.Definition, bool) {
	if r.defaultID == "" {
		return domain.Definition{}, false
	}
	return r.store.Resolve(r.defaultID)
}

func (r *Registry) StartupExternalChanges() []reload.ExternalChange {
	return r.tracker.StartupReport(r.coordinator.ResourcePaths())
}
