package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func slots(list ...Slot) []Slot { return list }

func TestIsEligibleSequence(t *testing.T) {
	first := Slot{ID: "1", ApproverID: "a", Sequence: 1, Mandatory: true, Status: Pending}
	second := Slot{ID: "2", ApproverID: "b", Sequence: 2, Mandatory: true, Status: Pending}

	tests := []struct {
		name        string
		firstStatus string
		follows     bool
		want        bool
	}{
		{"blocked while earlier pending", Pending, true, false},
		{"eligible once earlier approved", Approved, true, true},
		{"halted when earlier rejected", Rejected, true, false},
		{"no ordering when sequence not followed", Pending, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := first
			f.Status = tt.firstStatus
			assert.Equal(t, tt.want, IsEligible(second, slots(f, second), tt.follows, nil))
		})
	}
}

func TestParallelAndOptionalApprovers(t *testing.T) {
	a := Slot{ID: "a", Sequence: 1, Mandatory: true, Status: Approved}
	b := Slot{ID: "b", Sequence: 1, Mandatory: true, Status: Pending}
	c := Slot{ID: "c", Sequence: 2, Mandatory: false, Status: Pending}
	all := slots(a, b, c)

	assert.True(t, IsEligible(b, all, true, nil), "same sequence is parallel")
	assert.True(t, IsEligible(c, all, true, nil), "optional approvers ignore ordering")

	c.Mandatory = true
	all = slots(a, b, c)
	reasons := Blockers(c, all, true, nil)
	assert.Equal(t, []Reason{{Code: ReasonAwaitingEarlier, Ref: "b"}}, reasons)
}

func TestGateBlocksUntilFulfilled(t *testing.T) {
	x := Slot{ID: "x", Sequence: 1, Mandatory: true, Status: Pending}
	gate := Gate{RequirementID: "r1", Enforced: true}

	assert.False(t, IsEligible(x, slots(x), false, []Gate{gate}))
	assert.Equal(t, ReasonRequirementUnfulfilled, Blockers(x, slots(x), true, []Gate{gate})[0].Code)

	gate.Fulfilled = true
	assert.True(t, IsEligible(x, slots(x), false, []Gate{gate}))

	notEnforced := Gate{RequirementID: "r2", Enforced: false}
	assert.True(t, IsEligible(x, slots(x), true, []Gate{notEnforced}))
}

func TestGateAppliesToOptionalApprovers(t *testing.T) {
	opt := Slot{ID: "o", Sequence: 3, Status: Pending}
	assert.False(t, IsEligible(opt, slots(opt), true, []Gate{{RequirementID: "r", Enforced: true}}))
}

func TestNextMandatory(t *testing.T) {
	_, ok := NextMandatory(nil)
	assert.False(t, ok)

	all := slots(
		Slot{ID: "opt", Sequence: 0, Status: Pending},
		Slot{ID: "done", Sequence: 1, Mandatory: true, Status: Approved},
		Slot{ID: "b", Sequence: 2, Mandatory: true, Status: Pending},
		Slot{ID: "c", Sequence: 2, Mandatory: true, Status: Pending},
		Slot{ID: "d", Sequence: 3, Mandatory: true, Status: Pending},
	)
	next, ok := NextMandatory(all)
	assert.True(t, ok)
	assert.Equal(t, "b", next.ID)
}

func TestFullyApproved(t *testing.T) {
	tests := []struct {
		name string
		all  []Slot
		want bool
	}{
		{"empty", nil, false},
		{"mandatory approved, optional pending", slots(
			Slot{ID: "1", Mandatory: true, Status: Approved},
			Slot{ID: "2", Status: Pending},
		), true},
		{"mandatory pending", slots(
			Slot{ID: "1", Mandatory: true, Status: Pending},
			Slot{ID: "2", Status: Approved},
		), false},
		{"only optional, all approved", slots(
			Slot{ID: "1", Status: Approved},
			Slot{ID: "2", Status: Approved},
		), true},
		{"only optional, one rejected", slots(
			Slot{ID: "1", Status: Approved},
			Slot{ID: "2", Status: Rejected},
		), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FullyApproved(tt.all))
		})
	}
}

func TestHalted(t *testing.T) {
	assert.False(t, Halted(slots(Slot{Status: Rejected})))
	assert.True(t, Halted(slots(Slot{Mandatory: true, Status: Rejected})))
}
