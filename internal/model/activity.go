package model

// CategoryDigits is the length of a category code; longer codes are sub-categories.
const CategoryDigits = 3

// ActivityRecord is one merchant's activity summary for one period.
type ActivityRecord struct {
	MerchantKey string
	Category    string
	SubCategory string
	Period      Period
	TxnCount    float64
	TotalValue  float64
}

// CategoryCode returns the record's category, deriving it from the
// sub-category when it was not supplied.
func (r ActivityRecord) CategoryCode() string {
	if r.Category != "" {
		return r.Category
	}
	return TruncateCode(r.SubCategory, CategoryDigits)
}

// TruncateCode keeps the leading digits of a hierarchical code. Codes shorter
// than digits are returned unchanged.
func TruncateCode(code string, digits int) string {
	if digits <= 0 || len(code) <= digits {
		return code
	}
	return code[:digits]
}

// Profile summarizes a merchant's activity over a lookback window.
type Profile struct {
	MerchantKey   string
	Category      string
	AvgVolume     float64
	AvgTxnCount   float64
	ActivePeriods int
}
