package panel

import "sort"

// keySet is a set of merchant keys.
type keySet map[string]struct{}

func newKeySet(keys []string) keySet {
	s := make(keySet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

func (s keySet) has(k string) bool {
	_, ok := s[k]
	return ok
}

// sorted returns the members in ascending order.
func (s keySet) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// DetectAttrition splits the tracked set by current-period activity.
// Attrited members have no activity; survivors do. Both results are sorted
// and free of duplicates.
func DetectAttrition(tracked, active []string) (attrited, survivors []string) {
	activeSet := newKeySet(active)
	attritedSet := make(keySet)
	survivorSet := make(keySet)

	for _, k := range tracked {
		if activeSet.has(k) {
			survivorSet[k] = struct{}{}
		} else {
			attritedSet[k] = struct{}{}
		}
	}

	return attritedSet.sorted(), survivorSet.sorted()
}
