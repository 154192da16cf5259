package model

// GroupMetrics aggregates one group of activity for one period.
type GroupMetrics struct {
	Code                string
	UniqueMerchants     int
	TotalTransactions   float64
	TotalValue          float64
	AvgValuePerMerchant float64
	AvgValuePerTxn      float64
}

// SampleMetrics is a panel's activity aggregated at every level.
type SampleMetrics struct {
	ByCategory    map[string]GroupMetrics
	BySubCategory map[string]GroupMetrics
	Overall       GroupMetrics
	Period        Period
}

// Delta is a before/after pair for one figure.
type Delta struct {
	Before    float64
	After     float64
	Change    float64
	PctChange float64
}

// GroupComparison compares one group before and after replacement.
type GroupComparison struct {
	Code                string
	UniqueMerchants     Delta
	TotalTransactions   Delta
	TotalValue          Delta
	AvgValuePerMerchant Delta
	AvgValuePerTxn      Delta
}

// Comparison is the full before/after report for a run.
type Comparison struct {
	Categories    []GroupComparison
	SubCategories []GroupComparison
	Overall       GroupComparison
	Period        Period
}
