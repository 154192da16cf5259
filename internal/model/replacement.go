package model

// Tier identifies which matching rule set produced a replacement.
type Tier int

// Matching tiers, tried in ascending order.
const (
	TierExactTight Tier = 1
	TierExactLoose Tier = 2
	TierParent     Tier = 3
)

// Replacement links an attrited merchant to the merchant chosen to replace it.
type Replacement struct {
	AttritedKey         string
	ReplacementKey      string
	CategoryOriginal    string
	CategoryReplacement string
	Tier                Tier
	VolumeOriginal      float64
	VolumeReplacement   float64
	TxnOriginal         float64
	TxnReplacement      float64
}

// TierStats counts matches per tier and attrited merchants left unmatched.
type TierStats struct {
	Tier1    int
	Tier2    int
	Tier3    int
	NotFound int
}

// Add records one outcome. A zero tier counts as not found.
func (s *TierStats) Add(t Tier) {
	switch t {
	case TierExactTight:
		s.Tier1++
	case TierExactLoose:
		s.Tier2++
	case TierParent:
		s.Tier3++
	default:
		s.NotFound++
	}
}

// Found returns the number of attrited merchants that received a replacement.
func (s TierStats) Found() int {
	return s.Tier1 + s.Tier2 + s.Tier3
}
