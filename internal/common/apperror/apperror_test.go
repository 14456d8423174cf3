package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("bulk update: %w", NotFound("approval_template", "abc"))

	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindConflict))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestErrorSummaryNamesResourceAndKey(t *testing.T) {
	err := Duplicate("notification_rule", "form=1 user=2 trigger=each_approval")
	assert.Equal(t, "notification_rule: already exists (form=1 user=2 trigger=each_approval)", err.Error())
}

func TestFromMongo(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want Kind
	}{
		{name: "no documents", in: mongo.ErrNoDocuments, want: KindNotFound},
		{name: "duplicate key", in: mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}, want: KindDuplicate},
		{name: "other", in: errors.New("boom"), want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(FromMongo(tt.in, "x", "1")))
		})
	}
	assert.NoError(t, FromMongo(nil, "x", "1"))
}
