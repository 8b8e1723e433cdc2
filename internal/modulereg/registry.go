// Package modulereg is the name->factory registry modulemgr.Loader
// resolves dsp_path against (spec.md §9: Go has no portable dlopen, so
// the boundary is a compiled-in registry instead). Every module this
// repo ships gets a factory entry here.
package modulereg

import (
	"fmt"

	"github.com/move-anything/hostrt/internal/modules/linein"
	"github.com/move-anything/hostrt/internal/modules/reverb"
	"github.com/move-anything/hostrt/internal/modules/seqomd"
	"github.com/move-anything/hostrt/internal/pluginabi"
)

// Registry resolves a manifest's dsp_path to a fresh V1 instance.
type Registry struct {
	factories map[string]func() pluginabi.V1
}

// New builds a Registry pre-populated with every built-in module.
func New() *Registry {
	r := &Registry{factories: make(map[string]func() pluginabi.V1)}
	r.Register("seqomd", func() pluginabi.V1 { return seqomd.New() })
	r.Register("reverb", func() pluginabi.V1 { return reverb.New() })
	r.Register("linein", func() pluginabi.V1 { return linein.New() })
	return r
}

// Register adds or replaces the factory for dspPath.
func (r *Registry) Register(dspPath string, factory func() pluginabi.V1) {
	r.factories[dspPath] = factory
}

// Resolve implements modulemgr.Loader.
func (r *Registry) Resolve(dspPath string) (pluginabi.V1, pluginabi.V2, error) {
	factory, ok := r.factories[dspPath]
	if !ok {
		return nil, nil, fmt.Errorf("modulereg: no module registered for dsp_path %q", dspPath)
	}
	return factory(), nil, nil
}
