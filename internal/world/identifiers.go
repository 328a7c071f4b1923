package world

import (
	"fmt"
	"strings"

	"github.com/udisondev/bubblebuff/internal/model"
)

// Blueprint identifiers of the caster features and pools the scheduler cares about.
// Scenarios may use either the identifier or the readable alias.
const (
	featurePowerfulChange     = "5e01e267021bffe4e99ebee3fdc872d1"
	featureShareTransmutation = "c4ed8d1a90c93754eacea361653a7d56"
	// One feature grants both improved variants.
	featureImprovedTransmutation = "c94d764d2ce3cd14f892f7c00d9f3a70"

	poolArcanist = "cac948cbbe79b55459459dd6a8fe44ce"
)

var featureCapabilities = map[string][]model.Capability{
	featurePowerfulChange:        {model.CapPowerfulChange},
	featureShareTransmutation:    {model.CapShareTransmutation},
	featureImprovedTransmutation: {model.CapImprovedShareTransmutation, model.CapImprovedPowerfulChange},

	"powerful_change":              {model.CapPowerfulChange},
	"improved_powerful_change":     {model.CapImprovedPowerfulChange},
	"share_transmutation":          {model.CapShareTransmutation},
	"improved_share_transmutation": {model.CapImprovedShareTransmutation},
	"reservoir_cl_buff":            {model.CapReservoirCLBuff},
}

// capabilitiesOf maps a feature identifier to the capabilities it grants.
// Unknown features grant nothing.
func capabilitiesOf(feature string) []model.Capability {
	return featureCapabilities[strings.ToLower(strings.TrimSpace(feature))]
}

// poolOf maps a pool identifier to its PoolID.
func poolOf(name string) model.PoolID {
	name = strings.TrimSpace(name)
	if strings.EqualFold(name, poolArcanist) {
		return model.ArcanistPool
	}
	return model.PoolID(name)
}

// parseCapability resolves a capability by its readable name, e.g. "powerful_change"
// or "PowerfulChange".
func parseCapability(name string) (model.Capability, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, c := range []model.Capability{
		model.CapPowerfulChange,
		model.CapImprovedPowerfulChange,
		model.CapShareTransmutation,
		model.CapImprovedShareTransmutation,
		model.CapReservoirCLBuff,
	} {
		if strings.ToLower(c.String()) == strings.ReplaceAll(key, "_", "") {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", name)
}
