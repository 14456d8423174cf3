package transfer

import (
	common_models "go-approvals/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind names one family of per-user assignments.
type Kind string

const (
	KindSchedules     Kind = "schedules"
	KindApprovals     Kind = "approvals"
	KindNotifications Kind = "notifications"
	KindModerators    Kind = "moderators"
)

// AllKinds is the order in which kinds are transferred and reported.
var AllKinds = []Kind{KindSchedules, KindApprovals, KindNotifications, KindModerators}

func (k Kind) Valid() bool {
	for _, known := range AllKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Assignment is one row owned by a user, reduced to what the transfer needs.
// Key is the natural key within the form; Detail carries the source row.
type Assignment struct {
	ID     primitive.ObjectID `json:"id"`
	FormID primitive.ObjectID `json:"form_id"`
	Key    string             `json:"key"`
	Detail interface{}        `json:"detail"`
}

type KindResult struct {
	Transferred      int `json:"transferred"`
	SkippedDuplicate int `json:"skipped_duplicate"`
}

type TransferResult struct {
	FromUserID primitive.ObjectID  `json:"from_user_id"`
	ToUserID   primitive.ObjectID  `json:"to_user_id"`
	Kinds      map[Kind]KindResult `json:"kinds"`
	Summary    KindResult          `json:"summary"`
}

// TransferRequest is one item of a batch. FormIDs selects a specific transfer;
// without it everything the user owns moves. Empty Kinds means all kinds.
type TransferRequest struct {
	FromUserID primitive.ObjectID   `json:"from_user_id"`
	ToUserID   primitive.ObjectID   `json:"to_user_id"`
	FormIDs    []primitive.ObjectID `json:"form_ids,omitempty"`
	Kinds      []Kind               `json:"kinds,omitempty"`
}

type BatchItemResult struct {
	Index   int             `json:"index"`
	Request TransferRequest `json:"request"`
	Result  *TransferResult `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// BatchResult reports each item separately. Items commit independently, so a
// failed item does not undo the ones before it.
type BatchResult struct {
	BatchID   string            `json:"batch_id"`
	Items     []BatchItemResult `json:"items"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
}

type Responsibility struct {
	Assignment
	Form *common_models.FormSummary `json:"form,omitempty"`
}

type Responsibilities struct {
	UserID primitive.ObjectID        `json:"user_id"`
	Items  map[Kind][]Responsibility `json:"items"`
	Total  int                       `json:"total"`
}
