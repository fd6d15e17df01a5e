// Package detect implements the chameleon-carrier detection engine:
// identifier normalization, inverted indices, weighted pairwise affiliation
// scoring with rarity down-weighting, temporal co-location bonuses,
// union-find clustering, and per-carrier risk scoring.
package detect

import "time"

// Feature identifies one linkable identifier kind. The declaration order is
// fixed: it is the tie-break order for reasons and the iteration order for
// scoring.
type Feature int

const (
	FeatureVIN Feature = iota
	FeatureOfficer
	FeaturePriorRevoke
	FeaturePhone
	FeatureFax
	FeatureCellPhone
	FeatureAddress
	FeatureAddressNewDOT
	FeatureFleetAnomaly

	featureCount
)

func (f Feature) String() string {
	switch f {
	case FeatureVIN:
		return "vin"
	case FeatureOfficer:
		return "officer"
	case FeaturePriorRevoke:
		return "prior_revoke"
	case FeaturePhone:
		return "phone"
	case FeatureFax:
		return "fax"
	case FeatureCellPhone:
		return "cell_phone"
	case FeatureAddress:
		return "address"
	case FeatureAddressNewDOT:
		return "address_new_dot"
	case FeatureFleetAnomaly:
		return "fleet_anomaly"
	default:
		return "unknown"
	}
}

// FeatureFromString resolves a persisted feature name back to its enum.
func FeatureFromString(s string) (Feature, bool) {
	for f := Feature(0); f < featureCount; f++ {
		if f.String() == s {
			return f, true
		}
	}
	return 0, false
}

// featureWeights holds the fixed per-feature link weights, indexed by Feature.
// FeatureFleetAnomaly is a reserved slot: it carries a weight but no extractor
// produces it.
var featureWeights = [featureCount]float64{
	FeatureVIN:           60,
	FeatureOfficer:       55,
	FeaturePriorRevoke:   50,
	FeaturePhone:         40,
	FeatureFax:           35,
	FeatureCellPhone:     35,
	FeatureAddress:       25,
	FeatureAddressNewDOT: 40,
	FeatureFleetAnomaly:  30,
}

// Weight returns the fixed link weight for the feature.
func (f Feature) Weight() float64 {
	if f < 0 || f >= featureCount {
		return 0
	}
	return featureWeights[f]
}

const (
	// DefaultClusterThreshold is the minimum pair score for a clustering edge.
	DefaultClusterThreshold = 30.0

	// MeaningfulLinkScore is the persistence cutoff for links. Clustering
	// always sees the unfiltered pair map.
	MeaningfulLinkScore = 5.0

	// TemporalWindowDays bounds the add-date gap for the address_new_dot
	// bonus, inclusive.
	TemporalWindowDays = 180

	// reasonValueMax caps stored reason values.
	reasonValueMax = 100
)

// rarityWeight down-weights feature values shared by many carriers. A value
// shared by exactly two carriers contributes full weight; the contribution
// decays as 2/freq beyond that. Buckets of one contribute nothing.
func rarityWeight(freq int) float64 {
	if freq <= 1 {
		return 0
	}
	return 2.0 / float64(freq)
}

// Carrier is the engine's view of one motor carrier, with inspection-derived
// VINs and crash aggregates joined in.
type Carrier struct {
	DOT             int64
	LegalName       string
	DBAName         string
	PhyStreet       string
	PhyCity         string
	PhyState        string
	PhyZip          string
	Phone           string
	Fax             string
	CellPhone       string
	Officer1        string
	Officer2        string
	StatusCode      string
	PriorRevokeFlag string
	PriorRevokeDOT  int64 // 0 when absent
	AddDate         time.Time
	PowerUnits      int
	TotalDrivers    int
	FleetSize       string
	DocketPrefix    string
	DocketNumber    string

	VINs       []string
	CrashCount int
	Fatalities int
}

// FeatureValue is one normalized (feature, value) identifier emitted for a
// carrier.
type FeatureValue struct {
	Feature Feature
	Value   string
}

// ExtractFeatures emits the carrier's normalized identifier tuples with
// per-carrier duplicates suppressed. Empty normalized values are skipped.
// known reports whether a DOT is present in the carrier universe; the
// synthetic prior_revoke tuple is emitted only when the referenced prior DOT
// resolves, and its value keys the exact pair as "{minDot}_{maxDot}".
func ExtractFeatures(c *Carrier, known func(dot int64) bool) []FeatureValue {
	out := make([]FeatureValue, 0, 8)
	seen := make(map[FeatureValue]struct{}, 8)
	add := func(f Feature, v string) {
		if v == "" {
			return
		}
		fv := FeatureValue{Feature: f, Value: v}
		if _, dup := seen[fv]; dup {
			return
		}
		seen[fv] = struct{}{}
		out = append(out, fv)
	}

	add(FeaturePhone, NormalizePhone(c.Phone))
	add(FeatureFax, NormalizePhone(c.Fax))
	add(FeatureCellPhone, NormalizePhone(c.CellPhone))
	add(FeatureAddress, NormalizeAddress(c.PhyStreet, c.PhyCity, c.PhyState))
	add(FeatureOfficer, NormalizeOfficer(c.Officer1))
	add(FeatureOfficer, NormalizeOfficer(c.Officer2))
	for _, vin := range c.VINs {
		add(FeatureVIN, NormalizeVIN(vin))
	}

	if c.PriorRevokeFlag == "Y" && c.PriorRevokeDOT != 0 && known(c.PriorRevokeDOT) {
		add(FeaturePriorRevoke, priorRevokeKey(c.DOT, c.PriorRevokeDOT))
	}

	return out
}
