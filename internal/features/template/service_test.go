package template_test

import (
	"context"
	"testing"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/template"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type recordingReassigner struct {
	changes []template.SlotChange
}

func (r *recordingReassigner) ReassignPending(ctx context.Context, change template.SlotChange) (int64, error) {
	r.changes = append(r.changes, change)
	return 2, nil
}

type fixture struct {
	svc        template.TemplateService
	store      *testutil.TemplateStore
	forms      *testutil.FormStore
	reassigner *recordingReassigner
	tx         *testutil.Transactor
	formID     primitive.ObjectID
}

func newFixture() *fixture {
	store := testutil.NewTemplateStore()
	forms := testutil.NewFormStore()
	reassigner := &recordingReassigner{}
	tx := testutil.NewTransactor(store)
	f := forms.AddForm("Purchase order")
	return &fixture{
		svc:        template.NewTemplateService(store, forms, reassigner, tx, &testutil.AuditRecorder{}, testutil.Logger()),
		store:      store,
		forms:      forms,
		reassigner: reassigner,
		tx:         tx,
		formID:     f.ID,
	}
}

func boolPtr(b bool) *bool { return &b }
func intPtr(i int) *int    { return &i }

func TestAddApproversIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(2)

	inputs := []template.ApproverInput{
		{ApproverID: ids[0], SequenceNumber: 1},
		{ApproverID: ids[1], SequenceNumber: 2, IsMandatory: boolPtr(false), DeadlineDays: intPtr(3)},
	}

	first, err := f.svc.AddApprovers(ctx, f.formID, inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Configured)
	assert.Equal(t, 2, first.Added)
	assert.Len(t, first.CreatedIDs, 2)

	second, err := f.svc.AddApprovers(ctx, f.formID, inputs)
	require.NoError(t, err)
	assert.Equal(t, 2, second.Configured)
	assert.Equal(t, 0, second.Added)
	assert.Empty(t, second.CreatedIDs)

	active, err := f.svc.ListActive(ctx, f.formID)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.True(t, active[0].IsMandatory, "mandatory defaults to true")
	assert.False(t, active[1].IsMandatory)
	assert.Equal(t, 3, *active[1].DeadlineDays)
}

func TestAddApproversValidation(t *testing.T) {
	f := newFixture()
	approver := primitive.NewObjectID()

	tests := []struct {
		name   string
		formID primitive.ObjectID
		input  template.ApproverInput
		kind   apperror.Kind
	}{
		{"missing approver", f.formID, template.ApproverInput{SequenceNumber: 1}, apperror.KindInvalid},
		{"zero sequence", f.formID, template.ApproverInput{ApproverID: approver}, apperror.KindInvalid},
		{"negative deadline", f.formID, template.ApproverInput{ApproverID: approver, SequenceNumber: 1, DeadlineDays: intPtr(-1)}, apperror.KindInvalid},
		{"unknown form", primitive.NewObjectID(), template.ApproverInput{ApproverID: approver, SequenceNumber: 1}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AddApprovers(context.Background(), tt.formID, []template.ApproverInput{tt.input})
			require.Error(t, err)
			assert.True(t, apperror.Is(err, tt.kind), "got %v", err)
		})
	}
	assert.Empty(t, f.store.All())
}

func TestListActiveOrdersBySequenceThenInsertion(t *testing.T) {
	f := newFixture()
	ids := testutil.IDs(3)
	_, err := f.svc.AddApprovers(context.Background(), f.formID, []template.ApproverInput{
		{ApproverID: ids[0], SequenceNumber: 2},
		{ApproverID: ids[1], SequenceNumber: 1},
		{ApproverID: ids[2], SequenceNumber: 1},
	})
	require.NoError(t, err)

	active, err := f.svc.ListActive(context.Background(), f.formID)
	require.NoError(t, err)
	require.Len(t, active, 3)
	assert.Equal(t, ids[1], active[0].ApproverID)
	assert.Equal(t, ids[2], active[1].ApproverID)
	assert.Equal(t, ids[0], active[2].ApproverID)
}

func TestBulkUpdateReplacesRowOnIdentityChange(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(2)

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: ids[0], SequenceNumber: 1, DeadlineDays: intPtr(5)}})
	require.NoError(t, err)
	oldID := added.CreatedIDs[0]

	outcomes, err := f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{ID: oldID, ApproverID: &ids[1]}})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	require.NotNil(t, outcomes[0].ReplacedBy)
	assert.Equal(t, int64(2), outcomes[0].ReassignedPending)

	old, err := f.svc.GetByID(ctx, oldID)
	require.NoError(t, err)
	assert.False(t, old.IsActive)
	assert.NotNil(t, old.DeactivatedAt)

	replacement, err := f.svc.GetByID(ctx, *outcomes[0].ReplacedBy)
	require.NoError(t, err)
	assert.True(t, replacement.IsActive)
	assert.Equal(t, ids[1], replacement.ApproverID)
	assert.Equal(t, 1, replacement.SequenceNumber)
	assert.Equal(t, 5, *replacement.DeadlineDays, "unspecified fields copied from the old row")

	require.Len(t, f.reassigner.changes, 1)
	change := f.reassigner.changes[0]
	assert.Equal(t, ids[0], change.OldApproverID)
	assert.Equal(t, 1, change.OldSequence)
	assert.Equal(t, ids[1], change.NewApproverID)
	assert.Equal(t, replacement.ID, change.NewTemplateID)
}

func TestBulkUpdateMandatoryOnlyChangeReusesSlot(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	approver := primitive.NewObjectID()

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: approver, SequenceNumber: 1}})
	require.NoError(t, err)

	outcomes, err := f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{ID: added.CreatedIDs[0], IsMandatory: boolPtr(false)}})
	require.NoError(t, err)
	require.NotNil(t, outcomes[0].ReplacedBy)

	active, err := f.svc.ListActive(ctx, f.formID)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.False(t, active[0].IsMandatory)
	assert.False(t, f.reassigner.changes[0].NewMandatory)
}

func TestBulkUpdateInPlace(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	approver := primitive.NewObjectID()

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: approver, SequenceNumber: 1}})
	require.NoError(t, err)
	id := added.CreatedIDs[0]

	outcomes, err := f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{
		ID:              id,
		ApproverID:      &approver,
		DeadlineDays:    intPtr(7),
		FollowsSequence: boolPtr(true),
	}})
	require.NoError(t, err)
	assert.Nil(t, outcomes[0].ReplacedBy)
	assert.Empty(t, f.reassigner.changes)

	row, err := f.svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, row.IsActive)
	assert.Equal(t, 7, *row.DeadlineDays)
	assert.True(t, row.FollowsSequence)
	assert.Len(t, f.store.All(), 1)
}

func TestBulkUpdateIsAtomic(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(3)

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: ids[0], SequenceNumber: 1}})
	require.NoError(t, err)
	before := f.store.All()

	_, err = f.svc.BulkUpdate(ctx, []template.TemplateUpdate{
		{ID: added.CreatedIDs[0], ApproverID: &ids[1]},
		{ID: primitive.NewObjectID(), ApproverID: &ids[2]},
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
	assert.Equal(t, before, f.store.All(), "first update rolled back")
	assert.Equal(t, 1, f.tx.Rollbacks)
}

func TestBulkUpdateRejectsInactiveRow(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(2)

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: ids[0], SequenceNumber: 1}})
	require.NoError(t, err)
	require.NoError(t, f.svc.Deactivate(ctx, added.CreatedIDs[0]))

	_, err = f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{ID: added.CreatedIDs[0], ApproverID: &ids[1]}})
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestBulkUpdateCollisionAborts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(2)

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{
		{ApproverID: ids[0], SequenceNumber: 1},
		{ApproverID: ids[1], SequenceNumber: 1},
	})
	require.NoError(t, err)

	_, err = f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{ID: added.CreatedIDs[0], ApproverID: &ids[1]}})
	assert.True(t, apperror.Is(err, apperror.KindDuplicate))

	active, err := f.svc.ListActive(ctx, f.formID)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestActiveSlotsStayUnique(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	ids := testutil.IDs(3)

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{
		{ApproverID: ids[0], SequenceNumber: 1},
		{ApproverID: ids[1], SequenceNumber: 2},
		{ApproverID: ids[0], SequenceNumber: 1},
	})
	require.NoError(t, err)
	_, _ = f.svc.BulkUpdate(ctx, []template.TemplateUpdate{{ID: added.CreatedIDs[1], ApproverID: &ids[2]}})
	_, _ = f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: ids[1], SequenceNumber: 2}})

	type slot struct {
		approver primitive.ObjectID
		seq      int
	}
	seen := map[slot]bool{}
	for _, row := range f.store.All() {
		if !row.IsActive {
			continue
		}
		key := slot{row.ApproverID, row.SequenceNumber}
		assert.False(t, seen[key], "duplicate active slot %v", key)
		seen[key] = true
	}
}

func TestDeactivateLeavesHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	added, err := f.svc.AddApprovers(ctx, f.formID, []template.ApproverInput{{ApproverID: primitive.NewObjectID(), SequenceNumber: 1}})
	require.NoError(t, err)

	require.NoError(t, f.svc.Deactivate(ctx, added.CreatedIDs[0]))
	require.NoError(t, f.svc.Deactivate(ctx, added.CreatedIDs[0]), "second call is a no-op")

	active, err := f.svc.ListActive(ctx, f.formID)
	require.NoError(t, err)
	assert.Empty(t, active)
	assert.Len(t, f.store.All(), 1)

	err = f.svc.Deactivate(ctx, primitive.NewObjectID())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}
