package timing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nrkno/sofie-core-sub006/internal/models"
)

// Helper to create a pooled part with an expected duration in ms.
func createPooledPart(group string, expected int64, display int64) *models.PartInstance {
	part := models.NewPart(uuid.New(), uuid.New(), 0, "pooled")
	part.DisplayDurationGroup = group
	part.DisplayDuration = display
	if expected > 0 {
		part.ExpectedDuration = &expected
	}
	return &models.PartInstance{ID: uuid.New(), PartID: part.ID, Part: *part}
}

func TestDurationPools_FirstMemberWithoutOverrideTakesWholePool(t *testing.T) {
	instances := []*models.PartInstance{
		createPooledPart("A", 10000, 0),
		createPooledPart("A", 0, 0),
	}
	pools := NewDurationPools(instances)

	d1, member := pools.Consume(&instances[0].Part)
	require.True(t, member)
	d2, member := pools.Consume(&instances[1].Part)
	require.True(t, member)

	assert.Equal(t, int64(10000), d1)
	assert.Equal(t, int64(0), d2)
	assert.Equal(t, int64(10000), d1+d2, "pool must conserve the group total")
}

func TestDurationPools_ExplicitOverrideIsReservedUpFront(t *testing.T) {
	instances := []*models.PartInstance{
		createPooledPart("A", 10000, 0),
		createPooledPart("A", 0, 4000),
	}
	pools := NewDurationPools(instances)

	d1, _ := pools.Consume(&instances[0].Part)
	d2, _ := pools.Consume(&instances[1].Part)

	assert.Equal(t, int64(6000), d1, "no-override member gets the pool minus the reserved override")
	assert.Equal(t, int64(4000), d2, "override member consumes exactly its declared duration")
	assert.Equal(t, int64(10000), d1+d2, "pool must conserve the group total")
}

func TestDurationPools_OverrideCappedAtPoolTotal(t *testing.T) {
	instances := []*models.PartInstance{
		createPooledPart("A", 3000, 5000),
	}
	pools := NewDurationPools(instances)

	d, _ := pools.Consume(&instances[0].Part)
	assert.Equal(t, int64(3000), d, "override is capped at the pool's accumulated total")
}

func TestDurationPools_OrderDependence(t *testing.T) {
	// Two members without overrides: the first drains the pool, the
	// later one receives only what remains.
	instances := []*models.PartInstance{
		createPooledPart("A", 5000, 0),
		createPooledPart("A", 2000, 0),
	}
	pools := NewDurationPools(instances)

	d1, _ := pools.Consume(&instances[0].Part)
	d2, _ := pools.Consume(&instances[1].Part)

	assert.Equal(t, int64(5000), d1)
	assert.Equal(t, int64(2000), d2, "the later member only sees expected time accumulated after the first drain")
}

func TestDurationPools_NonMembersUntouched(t *testing.T) {
	inst := createPooledPart("", 5000, 0)
	pools := NewDurationPools([]*models.PartInstance{inst})

	_, member := pools.Consume(&inst.Part)
	assert.False(t, member)
}

func TestDurationPools_FloatedPartsAreSkipped(t *testing.T) {
	floated := createPooledPart("A", 0, 4000)
	floated.Part.Floated = true
	instances := []*models.PartInstance{
		createPooledPart("A", 10000, 0),
		floated,
	}
	pools := NewDurationPools(instances)

	d1, _ := pools.Consume(&instances[0].Part)
	assert.Equal(t, int64(10000), d1, "floated overrides must not reserve pool time")

	_, member := pools.Consume(&floated.Part)
	assert.False(t, member)
}

func TestDurationPools_SeparateGroupsDoNotInteract(t *testing.T) {
	instances := []*models.PartInstance{
		createPooledPart("A", 4000, 0),
		createPooledPart("B", 6000, 0),
	}
	pools := NewDurationPools(instances)

	d1, _ := pools.Consume(&instances[0].Part)
	d2, _ := pools.Consume(&instances[1].Part)

	assert.Equal(t, int64(4000), d1)
	assert.Equal(t, int64(6000), d2)
}
