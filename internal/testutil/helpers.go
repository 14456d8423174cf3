package testutil

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errInjected = errors.New("injected store failure")

// ErrInjected is returned by stores configured to fail.
func ErrInjected() error { return errInjected }

// Logger returns a logger that discards output.
func Logger() *zap.Logger { return zap.NewNop() }

// IDs returns n fresh ObjectIDs.
func IDs(n int) []primitive.ObjectID {
	out := make([]primitive.ObjectID, n)
	for i := range out {
		out[i] = primitive.NewObjectID()
	}
	return out
}

func idSet(ids []primitive.ObjectID) map[primitive.ObjectID]bool {
	set := make(map[primitive.ObjectID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
