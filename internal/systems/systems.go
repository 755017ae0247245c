// Package systems wires the built-in diagnostic plugins. Registration is
// explicit and runs in a fixed order from process startup, so the catalog
// contents never depend on package initialization accidents.
package systems

import (
	"go.uber.org/zap"

	"github.com/datadiag/datadiag/internal/catalog"
	"github.com/datadiag/datadiag/internal/systems/sensor"
	"github.com/datadiag/datadiag/internal/systems/tabular"
)

// RegisterAll registers every built-in system into the catalog. New
// plugins are added to this list.
func RegisterAll(c *catalog.Catalog, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	for _, register := range []func(*catalog.Catalog){
		tabular.Register,
		sensor.Register,
	} {
		register(c)
	}
	logger.Info("systems_registered", zap.Strings("systems", c.SystemNames()))
}
