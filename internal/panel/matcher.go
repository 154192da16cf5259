package panel

import (
	"context"

	"github.com/Veraticus/panel-keeper/internal/model"
	"golang.org/x/sync/errgroup"
)

// tierRule is one matching tier: the slice of the pool it searches and the
// predicate a candidate must satisfy.
type tierRule struct {
	scope  func(target model.Profile) []int
	accept func(target, candidate model.Profile) bool
	tier   model.Tier
}

// Matcher finds replacements in a read-only candidate pool.
type Matcher struct {
	claims     *ClaimRegistry
	byCategory map[string][]int
	byParent   map[string][]int
	pool       []model.Profile
	rules      []tierRule
	cfg        Config
}

// NewMatcher indexes pool for tiered search. When cfg.DedupReplacements is
// set, every accepted candidate is claimed so no two attrited merchants share
// a replacement.
func NewMatcher(pool []model.Profile, cfg Config) *Matcher {
	m := &Matcher{
		pool:       pool,
		cfg:        cfg,
		byCategory: make(map[string][]int),
		byParent:   make(map[string][]int),
	}
	if cfg.DedupReplacements {
		m.claims = NewClaimRegistry()
	}

	for i, p := range pool {
		m.byCategory[p.Category] = append(m.byCategory[p.Category], i)
		parent := m.parent(p.Category)
		m.byParent[parent] = append(m.byParent[parent], i)
	}

	sameCategory := func(target model.Profile) []int { return m.byCategory[target.Category] }
	sameParent := func(target model.Profile) []int { return m.byParent[m.parent(target.Category)] }

	m.rules = []tierRule{
		{
			tier:  model.TierExactTight,
			scope: sameCategory,
			accept: func(target, c model.Profile) bool {
				return cfg.Tier1Volume.Contains(target.AvgVolume, c.AvgVolume) &&
					cfg.Tier1Txn.Contains(target.AvgTxnCount, c.AvgTxnCount)
			},
		},
		{
			tier:  model.TierExactLoose,
			scope: sameCategory,
			accept: func(target, c model.Profile) bool {
				return cfg.Tier2Volume.Contains(target.AvgVolume, c.AvgVolume)
			},
		},
		{
			tier:   model.TierParent,
			scope:  sameParent,
			accept: func(_, _ model.Profile) bool { return true },
		},
	}

	return m
}

func (m *Matcher) parent(category string) string {
	return model.TruncateCode(category, m.cfg.ParentDigits)
}

// Match returns the first candidate of the lowest tier that has one.
func (m *Matcher) Match(target model.Profile) (model.Replacement, bool) {
	for _, rule := range m.rules {
		for _, idx := range rule.scope(target) {
			c := m.pool[idx]
			if !rule.accept(target, c) {
				continue
			}
			if m.claims != nil && !m.claims.Claim(c.MerchantKey, target.MerchantKey) {
				continue
			}
			return model.Replacement{
				AttritedKey:         target.MerchantKey,
				ReplacementKey:      c.MerchantKey,
				Tier:                rule.tier,
				CategoryOriginal:    target.Category,
				CategoryReplacement: c.Category,
				VolumeOriginal:      target.AvgVolume,
				VolumeReplacement:   c.AvgVolume,
				TxnOriginal:         target.AvgTxnCount,
				TxnReplacement:      c.AvgTxnCount,
			}, true
		}
	}
	return model.Replacement{}, false
}

// Outcome is the match result for one attrited merchant.
type Outcome struct {
	Replacement *model.Replacement
	AttritedKey string
}

// MatchAll matches every target using up to cfg.Workers goroutines. Outcomes
// keep the order of targets. onDone, if not nil, is called once per target
// and must be safe for concurrent use.
func (m *Matcher) MatchAll(ctx context.Context, targets []model.Profile, onDone func()) ([]Outcome, error) {
	outcomes := make([]Outcome, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.cfg.Workers))

	for i, target := range targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = Outcome{AttritedKey: target.MerchantKey}
			if r, ok := m.Match(target); ok {
				outcomes[i].Replacement = &r
			}
			if onDone != nil {
				onDone()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}
