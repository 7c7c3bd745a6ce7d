package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fluxerr "github.com/Eximchain/terraform-exim-blockscout-explorer/pkg/errors"
)

func TestResolve(t *testing.T) {
	for _, tc := range []struct {
		current ID
		standby ID
		slot    Slot
	}{
		{"myapp-asg-a", "myapp-asg-b", SlotA},
		{"myapp-asg-b", "myapp-asg-a", SlotB},
		{"a", "b", SlotA},
		{"b", "a", SlotB},
		{"blockscout-ab", "blockscout-aa", SlotB},
	} {
		t.Run(string(tc.current), func(t *testing.T) {
			pair, err := Resolve(tc.current)
			require.NoError(t, err)
			assert.Equal(t, tc.current, pair.Active)
			assert.Equal(t, tc.standby, pair.Standby)
			assert.Equal(t, tc.slot, pair.ActiveSlot())
			assert.Equal(t, tc.current[:len(tc.current)-1], pair.Standby[:len(pair.Standby)-1])
		})
	}
}

func TestResolveRejectsOtherDiscriminators(t *testing.T) {
	for _, current := range []ID{"", "myapp-asg-c", "myapp-asg-A", "myapp-asg-1", "myapp-asg-a "} {
		_, err := Resolve(current)
		assert.Error(t, err, "%q", current)
		assert.True(t, fluxerr.IsConfiguration(err), "%q", current)
	}
}

func TestPairSlots(t *testing.T) {
	pair, err := Resolve("web-b")
	require.NoError(t, err)
	assert.Equal(t, ID("web-a"), pair.A())
	assert.Equal(t, ID("web-b"), pair.B())

	pair, err = Resolve("web-a")
	require.NoError(t, err)
	assert.Equal(t, ID("web-a"), pair.A())
	assert.Equal(t, ID("web-b"), pair.B())
}

func TestSlotOther(t *testing.T) {
	assert.Equal(t, SlotB, SlotA.Other())
	assert.Equal(t, SlotA, SlotB.Other())
	assert.Equal(t, "a", SlotA.String())
	assert.Equal(t, "b", SlotB.String())
}
