// SPDX-License-Identifier: MIT

package vehicle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecuscope/ecuscope/internal/catalog"
	"github.com/ecuscope/ecuscope/internal/session"
)

func TestValidateVIN(t *testing.T) {
	tests := []struct {
		name    string
		vin     string
		wantErr bool
	}{
		{name: "valid", vin: "WVWZZZ1JZ3W386752"},
		{name: "valid lowercase", vin: "wvwzzz1jz3w386752"},
		{name: "too short", vin: "WVWZZZ1", wantErr: true},
		{name: "too long", vin: "WVWZZZ1JZ3W3867521", wantErr: true},
		{name: "forbidden letter I", vin: "WVWZZZ1JZ3W38675I", wantErr: true},
		{name: "forbidden letter O", vin: "WVWZZZ1JZ3W38675O", wantErr: true},
		{name: "forbidden letter Q", vin: "WVWZZZ1JZ3W38675Q", wantErr: true},
		{name: "punctuation", vin: "WVWZZZ1JZ3W38675-", wantErr: true},
		{name: "empty", vin: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateVIN(tt.vin)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCatalogResolver_Resolve(t *testing.T) {
	r := NewCatalogResolver(catalog.New())

	profile, err := r.Resolve(context.Background(), session.Vehicle{VIN: "WVWZZZ1JZ3W386752"})
	require.NoError(t, err)
	assert.NotEmpty(t, profile.ECUModules)
	assert.Contains(t, profile.ECUModules, "EMS")
}

func TestCatalogResolver_RejectsBadVIN(t *testing.T) {
	r := NewCatalogResolver(catalog.New())

	_, err := r.Resolve(context.Background(), session.Vehicle{VIN: "SHORT"})
	assert.Error(t, err)
}
