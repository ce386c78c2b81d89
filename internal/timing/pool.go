package timing

import "github.com/nrkno/sofie-core-sub006/internal/models"

// DurationPools implements display-duration pooling. Parts sharing a
// DisplayDurationGroup key pool their expected durations; a member with
// an explicit DisplayDuration consumes exactly that much from the pool
// (capped at what the pool holds), a member without an override drains
// whatever the pool still has after outstanding explicit overrides are
// reserved.
//
// Consumption is strictly left-to-right in part order. The first member
// without an override takes the entire unreserved pool at that point; a
// later member without an override receives only what remains. This
// order dependence is relied on by existing content and must not be
// replaced with an even split.
type DurationPools struct {
	pool     map[string]int64
	reserved map[string]int64
}

// NewDurationPools prepares pools for one pass over the given part
// instances, pre-reserving every explicit DisplayDuration override so
// that no-override members cannot starve later overrides.
func NewDurationPools(instances []*models.PartInstance) *DurationPools {
	p := &DurationPools{
		pool:     make(map[string]int64),
		reserved: make(map[string]int64),
	}
	for _, inst := range instances {
		part := &inst.Part
		if !poolMember(part) {
			continue
		}
		if part.DisplayDuration > 0 {
			p.reserved[part.DisplayDurationGroup] += part.DisplayDuration
		}
	}
	return p
}

// Consume advances the pool for one part, in part order. It returns the
// display duration drawn from the part's group and whether the part is
// a pool member at all. Non-members leave the pools untouched.
func (p *DurationPools) Consume(part *models.Part) (int64, bool) {
	if !poolMember(part) {
		return 0, false
	}
	group := part.DisplayDurationGroup

	if part.ExpectedDuration != nil && *part.ExpectedDuration > 0 {
		p.pool[group] += *part.ExpectedDuration
	}

	var take int64
	if part.DisplayDuration > 0 {
		take = min64(part.DisplayDuration, p.pool[group])
		p.reserved[group] = max64(0, p.reserved[group]-part.DisplayDuration)
	} else {
		take = max64(0, p.pool[group]-p.reserved[group])
	}
	p.pool[group] -= take
	return take, true
}

func poolMember(part *models.Part) bool {
	return part.DisplayDurationGroup != "" && !part.Floated
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
