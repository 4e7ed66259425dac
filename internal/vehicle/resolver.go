// SPDX-License-Identifier: MIT

// Package vehicle resolves a vehicle identity to its addressable ECU
// module inventory.
package vehicle

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/session"
)

// vinLength is the fixed length of an ISO 3779 VIN.
const vinLength = 17

// CatalogResolver answers with every module the capability catalog knows.
// Without a live gateway the catalog is the authority on which modules a
// supported vehicle carries.
type CatalogResolver struct {
	catalog *catalog.Catalog
}

// NewCatalogResolver builds a resolver backed by the capability catalog.
func NewCatalogResolver(cat *catalog.Catalog) *CatalogResolver {
	return &CatalogResolver{catalog: cat}
}

// Resolve validates the VIN and returns the module inventory.
func (r *CatalogResolver) Resolve(_ context.Context, v session.Vehicle) (session.VehicleProfile, error) {
	if err := ValidateVIN(v.VIN); err != nil {
		return session.VehicleProfile{}, err
	}
	descriptors := r.catalog.List()
	modules := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		modules = append(modules, d.ID)
	}
	return session.VehicleProfile{ECUModules: modules}, nil
}

// ValidateVIN checks length and character set. I, O and Q are excluded from
// VINs to avoid confusion with 1 and 0.
func ValidateVIN(vin string) error {
	vin = strings.ToUpper(strings.TrimSpace(vin))
	if len(vin) != vinLength {
		return fmt.Errorf("vin must be %d characters, got %d", vinLength, len(vin))
	}
	for _, c := range vin {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
			if c == 'I' || c == 'O' || c == 'Q' {
				return fmt.Errorf("vin contains forbidden character %q", c)
			}
		default:
			return fmt.Errorf("vin contains invalid character %q", c)
		}
	}
	return nil
}
