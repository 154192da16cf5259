package panel

import "sync"

// ClaimRegistry records replacement merchants already handed out in a run.
// Claim is an atomic check-then-claim, so concurrent matchers never receive
// the same merchant.
type ClaimRegistry struct {
	claimed map[string]string
	mu      sync.Mutex
}

// NewClaimRegistry creates an empty registry.
func NewClaimRegistry() *ClaimRegistry {
	return &ClaimRegistry{claimed: make(map[string]string)}
}

// Claim assigns candidate to owner. It returns false if the candidate was
// already claimed by anyone.
func (r *ClaimRegistry) Claim(candidate, owner string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.claimed[candidate]; taken {
		return false
	}
	r.claimed[candidate] = owner
	return true
}

// Owner returns who claimed candidate.
func (r *ClaimRegistry) Owner(candidate string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	owner, ok := r.claimed[candidate]
	return owner, ok
}

// Len returns the number of claimed candidates.
func (r *ClaimRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.claimed)
}
