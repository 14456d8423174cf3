// Package sequencer decides whose turn it is to act on a response.
//
// It holds no state. Callers load the approval slots of one response together
// with the requirement gates of the acting approver and ask for a verdict.
package sequencer

// Slot statuses. They mirror the persisted approval statuses.
const (
	Pending  = "pending"
	Approved = "approved"
	Rejected = "rejected"
)

// Slot is one approval instance of a response.
type Slot struct {
	ID         string
	ApproverID string
	Sequence   int
	Mandatory  bool
	Status     string
}

// Gate is a cross-form prerequisite attached to the acting approver.
type Gate struct {
	RequirementID  string
	RequiredFormID string
	Enforced       bool
	Fulfilled      bool
}

type ReasonCode string

const (
	ReasonRequirementUnfulfilled ReasonCode = "requirement_unfulfilled"
	ReasonAwaitingEarlier        ReasonCode = "awaiting_earlier_approver"
	ReasonEarlierRejected        ReasonCode = "earlier_approver_rejected"
)

// Reason explains one thing that keeps a slot from being actionable.
// Ref is the requirement id or the blocking slot id.
type Reason struct {
	Code ReasonCode `json:"code"`
	Ref  string     `json:"ref"`
}

// Blockers lists everything preventing slot from being acted on. An empty
// result means the slot is eligible.
//
// Enforced, unfulfilled gates always block. When followsSequence is set, a
// mandatory slot also waits for every other mandatory slot with a strictly
// lower sequence to be approved; a rejected earlier slot halts it for good.
// Optional slots are never held back by ordering.
func Blockers(slot Slot, all []Slot, followsSequence bool, gates []Gate) []Reason {
	var reasons []Reason
	for _, g := range gates {
		if g.Enforced && !g.Fulfilled {
			reasons = append(reasons, Reason{Code: ReasonRequirementUnfulfilled, Ref: g.RequirementID})
		}
	}

	if !followsSequence || !slot.Mandatory {
		return reasons
	}

	for _, other := range all {
		if other.ID == slot.ID || !other.Mandatory || other.Sequence >= slot.Sequence {
			continue
		}
		switch other.Status {
		case Approved:
		case Rejected:
			reasons = append(reasons, Reason{Code: ReasonEarlierRejected, Ref: other.ID})
		default:
			reasons = append(reasons, Reason{Code: ReasonAwaitingEarlier, Ref: other.ID})
		}
	}
	return reasons
}

// IsEligible reports whether slot may be acted on now.
func IsEligible(slot Slot, all []Slot, followsSequence bool, gates []Gate) bool {
	return len(Blockers(slot, all, followsSequence, gates)) == 0
}

// NextMandatory returns the pending mandatory slot with the lowest sequence.
// Ties keep input order.
func NextMandatory(all []Slot) (Slot, bool) {
	var next Slot
	found := false
	for _, s := range all {
		if !s.Mandatory || s.Status != Pending {
			continue
		}
		if !found || s.Sequence < next.Sequence {
			next = s
			found = true
		}
	}
	return next, found
}

// Halted reports whether a mandatory slot was rejected.
func Halted(all []Slot) bool {
	for _, s := range all {
		if s.Mandatory && s.Status == Rejected {
			return true
		}
	}
	return false
}

// FullyApproved reports whether the response needs no further sign-off: every
// mandatory slot is approved, or every slot when none is mandatory.
func FullyApproved(all []Slot) bool {
	if len(all) == 0 {
		return false
	}
	hasMandatory := false
	for _, s := range all {
		if s.Mandatory {
			hasMandatory = true
			break
		}
	}
	for _, s := range all {
		if (s.Mandatory || !hasMandatory) && s.Status != Approved {
			return false
		}
	}
	return true
}
