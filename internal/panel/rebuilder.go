package panel

// Rebuild unions survivors with the chosen replacement merchants.
func Rebuild(survivors, replacements []string) []string {
	set := newKeySet(survivors)
	for _, k := range replacements {
		set[k] = struct{}{}
	}
	return set.sorted()
}

// TargetSize is the number of members a panel of originalSize must keep.
func TargetSize(originalSize int, retention float64) int {
	return int(float64(originalSize) * retention)
}

// RetentionRate is newSize as a fraction of originalSize; zero for an empty original.
func RetentionRate(newSize, originalSize int) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(newSize) / float64(originalSize)
}
