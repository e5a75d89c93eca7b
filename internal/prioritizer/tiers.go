package prioritizer

import (
	"fmt"

	"careerarc/pkg/models"
)

// TierMap maps a document length to the highest priority it includes
type TierMap map[models.DocumentLength]int

// DefaultTierMap is used when configuration does not name a length
var DefaultTierMap = TierMap{
	models.DocumentLengthShort:    2,
	models.DocumentLengthMedium:   3,
	models.DocumentLengthLong:     4,
	models.DocumentLengthExtended: 5,
}

// TierMapFromConfig builds a tier map from the documents.length_tiers
// configuration. Lengths missing from cfg keep their default threshold.
func TierMapFromConfig(cfg map[string]int) (TierMap, error) {
	tiers := make(TierMap, len(DefaultTierMap))
	for length, max := range DefaultTierMap {
		tiers[length] = max
	}

	for name, max := range cfg {
		length := models.DocumentLength(name)
		if _, known := DefaultTierMap[length]; !known {
			return nil, fmt.Errorf("unknown document length %q", name)
		}
		if max < 1 {
			return nil, fmt.Errorf("document length %q must map to a priority of at least 1, got %d", name, max)
		}
		tiers[length] = max
	}

	prev := 0
	for _, length := range models.DocumentLengths {
		if tiers[length] < prev {
			return nil, fmt.Errorf("document length %q includes less content than a shorter length", length)
		}
		prev = tiers[length]
	}
	return tiers, nil
}

// MaxPriority returns the threshold for a length
func (t TierMap) MaxPriority(length models.DocumentLength) (int, bool) {
	max, ok := t[length]
	return max, ok
}
