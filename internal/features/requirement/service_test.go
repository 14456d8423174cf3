package requirement_test

import (
	"context"
	"testing"

	"go-approvals/internal/common/apperror"
	"go-approvals/internal/features/requirement"
	"go-approvals/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fixture struct {
	svc      requirement.RequirementService
	store    *testutil.RequirementStore
	forms    *testutil.FormStore
	formID   primitive.ObjectID
	priorID  primitive.ObjectID
	approver primitive.ObjectID
}

func newFixture() *fixture {
	store := testutil.NewRequirementStore()
	forms := testutil.NewFormStore()
	travel := forms.AddForm("Travel request")
	prior := forms.AddForm("Budget check")
	return &fixture{
		svc:      requirement.NewRequirementService(store, forms, &testutil.AuditRecorder{}, testutil.Logger()),
		store:    store,
		forms:    forms,
		formID:   travel.ID,
		priorID:  prior.ID,
		approver: primitive.NewObjectID(),
	}
}

func TestCreateRequirementSkipsDuplicates(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	in := requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID}

	first, created, err := f.svc.CreateRequirement(ctx, f.formID, in)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, first.LineaAprobacion, "enforced by default")

	second, created, err := f.svc.CreateRequirement(ctx, f.formID, in)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	all, err := f.svc.ListForForm(ctx, f.formID)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCreateRequirementValidation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		in   requirement.RequirementInput
		kind apperror.Kind
	}{
		{"missing approver", requirement.RequirementInput{RequiredFormID: f.priorID}, apperror.KindInvalid},
		{"self reference", requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.formID}, apperror.KindInvalid},
		{"unknown required form", requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: primitive.NewObjectID()}, apperror.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := f.svc.CreateRequirement(context.Background(), f.formID, tt.in)
			assert.True(t, apperror.Is(err, tt.kind), "got %v", err)
		})
	}
}

func TestEnsureRequirementRowsIsIdempotent(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, err := f.svc.CreateRequirement(ctx, f.formID, requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID})
	require.NoError(t, err)
	response := f.forms.AddResponse(f.formID, primitive.NewObjectID())

	first, err := f.svc.EnsureRequirementRows(ctx, response.ID)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.False(t, first[0].IsFulfilled)

	second, err := f.svc.EnsureRequirementRows(ctx, response.ID)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)
	assert.Equal(t, 1, f.store.RowCount())

	_, err = f.svc.EnsureRequirementRows(ctx, primitive.NewObjectID())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestEnsureRequirementRowsLosingInsertRaceIsConflict(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, err := f.svc.CreateRequirement(ctx, f.formID, requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID})
	require.NoError(t, err)
	response := f.forms.AddResponse(f.formID, primitive.NewObjectID())

	f.store.LoseInsertRace = true
	_, err = f.svc.EnsureRequirementRows(ctx, response.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict), "got %v", err)

	rows, err := f.svc.EnsureRequirementRows(ctx, response.ID)
	require.NoError(t, err, "a retry sees the winner's row")
	assert.Len(t, rows, 1)
	assert.Equal(t, 1, f.store.RowCount())
}

func TestFulfillFlipsGate(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	req, _, err := f.svc.CreateRequirement(ctx, f.formID, requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID})
	require.NoError(t, err)
	response := f.forms.AddResponse(f.formID, primitive.NewObjectID())

	gates, err := f.svc.GatesFor(ctx, &response, f.approver)
	require.NoError(t, err)
	require.Len(t, gates, 1)
	assert.True(t, gates[0].Enforced)
	assert.False(t, gates[0].Fulfilled)

	ok, err := f.svc.IsFulfilled(ctx, response.ID, req.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	rows, err := f.svc.ListForResponse(ctx, response.ID)
	require.NoError(t, err)
	prior := f.forms.AddResponse(f.priorID, primitive.NewObjectID())

	row, err := f.svc.Fulfill(ctx, rows[0].ID, prior.ID)
	require.NoError(t, err)
	assert.True(t, row.IsFulfilled)
	assert.Equal(t, prior.ID, *row.FulfillingResponseID)

	ok, err = f.svc.IsFulfilled(ctx, response.ID, req.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	gates, err = f.svc.GatesFor(ctx, &response, f.approver)
	require.NoError(t, err)
	assert.True(t, gates[0].Fulfilled)
}

func TestFulfillSemantics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, err := f.svc.CreateRequirement(ctx, f.formID, requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID})
	require.NoError(t, err)
	response := f.forms.AddResponse(f.formID, primitive.NewObjectID())
	rows, err := f.svc.EnsureRequirementRows(ctx, response.ID)
	require.NoError(t, err)
	rowID := rows[0].ID

	a := f.forms.AddResponse(f.priorID, primitive.NewObjectID())
	b := f.forms.AddResponse(f.priorID, primitive.NewObjectID())

	_, err = f.svc.Fulfill(ctx, rowID, a.ID)
	require.NoError(t, err)
	_, err = f.svc.Fulfill(ctx, rowID, a.ID)
	require.NoError(t, err, "same fulfilling response is idempotent")

	row, err := f.svc.Fulfill(ctx, rowID, b.ID)
	require.NoError(t, err, "last write wins")
	assert.Equal(t, b.ID, *row.FulfillingResponseID)

	wrongForm := f.forms.AddResponse(f.formID, primitive.NewObjectID())
	_, err = f.svc.Fulfill(ctx, rowID, wrongForm.ID)
	assert.True(t, apperror.Is(err, apperror.KindConflict))

	_, err = f.svc.Fulfill(ctx, primitive.NewObjectID(), a.ID)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))

	_, err = f.svc.Fulfill(ctx, rowID, primitive.NewObjectID())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestGatesForOtherApproverIsEmpty(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	_, _, err := f.svc.CreateRequirement(ctx, f.formID, requirement.RequirementInput{ApproverID: f.approver, RequiredFormID: f.priorID})
	require.NoError(t, err)
	response := f.forms.AddResponse(f.formID, primitive.NewObjectID())

	gates, err := f.svc.GatesFor(ctx, &response, primitive.NewObjectID())
	require.NoError(t, err)
	assert.Empty(t, gates)
}
