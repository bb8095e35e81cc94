package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

var testTime = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func buildDoc(t *testing.T, kind document.Kind, validators, reviewer1s, reviewer2s []document.UserID) *document.Document {
	t.Helper()
	doc := &document.Document{
		ID:           7,
		Number:       "DOC-TEST",
		Kind:         kind,
		SubmitterID:  "submitter",
		ValidatorIDs: validators,
		Reviewer1IDs: reviewer1s,
		Reviewer2IDs: reviewer2s,
	}
	tr, err := workflow.PlanSubmit(doc, testTime)
	require.NoError(t, err)
	applyTr(doc, tr)
	return doc
}

func applyTr(doc *document.Document, tr workflow.Transition) {
	doc.History = doc.History.Append(tr.Entry)
	doc.Status = tr.To.String()
}

func approve(t *testing.T, doc *document.Document, actor document.UserID, substitute bool) workflow.Transition {
	t.Helper()
	tr, err := workflow.PlanApprove(doc, actor, substitute, testTime)
	require.NoError(t, err)
	applyTr(doc, tr)
	return tr
}

func TestPlan_Submit(t *testing.T) {
	doc := buildDoc(t, document.KindClaim,
		[]document.UserID{"v1", "v2"}, []document.UserID{"r1"}, []document.UserID{"r2"})

	tr, err := workflow.PlanSubmit(doc, testTime)
	require.NoError(t, err)
	intent := Plan(doc, tr)

	assert.Equal(t, TemplateApprovalRequest, intent.Template)
	assert.Equal(t, []document.UserID{"v1", "v2"}, intent.Recipients)
}

func TestPlan_MidChainApproval(t *testing.T) {
	doc := buildDoc(t, document.KindAdvance,
		nil, []document.UserID{"u1"}, []document.UserID{"u2"})

	tr := approve(t, doc, "u1", false)
	intent := Plan(doc, tr)

	assert.Equal(t, TemplateApprovalRequest, intent.Template)
	assert.Equal(t, []document.UserID{"u2"}, intent.Recipients)
	require.Len(t, intent.Chain, 1)
	assert.Equal(t, document.UserID("u1"), intent.Chain[0].Actor)
	assert.False(t, intent.Chain[0].Substitute)
}

func TestPlan_FinalApproval(t *testing.T) {
	doc := buildDoc(t, document.KindAdvance,
		nil, []document.UserID{"u1"}, []document.UserID{"u2"})

	approve(t, doc, "u1", false)
	tr := approve(t, doc, "u2", false)
	intent := Plan(doc, tr)

	assert.Equal(t, TemplateApproved, intent.Template)
	assert.Equal(t, []document.UserID{"submitter"}, intent.Recipients)
	require.Len(t, intent.Chain, 2)
	assert.Equal(t, document.UserID("u1"), intent.Chain[0].Actor)
	assert.Equal(t, document.UserID("u2"), intent.Chain[1].Actor)
}

func TestPlan_Rejection(t *testing.T) {
	doc := buildDoc(t, document.KindAdvance,
		nil, []document.UserID{"u1"}, []document.UserID{"u2"})
	doc.RejectReason = "missing receipts"

	tr, err := workflow.PlanReject(doc, "u1", false, "missing receipts", testTime)
	require.NoError(t, err)
	applyTr(doc, tr)
	intent := Plan(doc, tr)

	assert.Equal(t, TemplateRejected, intent.Template)
	assert.Equal(t, []document.UserID{"submitter"}, intent.Recipients)
	assert.Equal(t, "missing receipts", intent.RejectReason)
	require.Len(t, intent.Chain, 1)
	assert.Equal(t, []workflow.Role{workflow.RoleReviewer1}, intent.Chain[0].Gates)
}

func TestPlan_Cancel(t *testing.T) {
	doc := buildDoc(t, document.KindAdvance,
		nil, []document.UserID{"u1"}, []document.UserID{"u2"})

	tr, err := workflow.PlanCancel(doc, "submitter", testTime)
	require.NoError(t, err)
	applyTr(doc, tr)
	intent := Plan(doc, tr)

	assert.Empty(t, intent.Recipients)
}

func TestPlan_NoHoldersMeansNoRecipients(t *testing.T) {
	doc := buildDoc(t, document.KindAdvance,
		nil, []document.UserID{"u1"}, []document.UserID{"u2"})
	tr := approve(t, doc, "u1", false)

	// Holder set emptied after the fact; planner degrades to an empty set.
	doc.Reviewer2IDs = nil
	intent := Plan(doc, tr)
	assert.Empty(t, intent.Recipients)
}

// Chain of Validator cleared by substitute S, Reviewer1 by its holder, and
// Reviewer2 by the same substitute S names exactly two distinct actors, each
// once.
func TestBuildChain_GlobalActorDedup(t *testing.T) {
	doc := buildDoc(t, document.KindSettlement,
		[]document.UserID{"v"}, []document.UserID{"r1"}, []document.UserID{"r2"})

	approve(t, doc, "sub", true)  // Validator gate, substitute
	approve(t, doc, "r1", false)  // Reviewer1 gate, own role
	approve(t, doc, "sub", true)  // Reviewer2 gate, same substitute

	chain := BuildChain(doc.Kind, doc.History)
	require.Len(t, chain, 2)

	assert.Equal(t, document.UserID("sub"), chain[0].Actor)
	assert.True(t, chain[0].Substitute)
	assert.Equal(t, []workflow.Role{workflow.RoleValidator, workflow.RoleReviewer2}, chain[0].Gates)

	assert.Equal(t, document.UserID("r1"), chain[1].Actor)
	assert.False(t, chain[1].Substitute)
	assert.Equal(t, []workflow.Role{workflow.RoleReviewer1}, chain[1].Gates)
}

// All gates cleared by the same substitute collapse to one segment covering
// the whole gate sequence.
func TestBuildChain_SingleSubstitute(t *testing.T) {
	doc := buildDoc(t, document.KindSettlement,
		[]document.UserID{"v"}, []document.UserID{"r1"}, []document.UserID{"r2"})

	for i := 0; i < 3; i++ {
		approve(t, doc, "sub", true)
	}

	chain := BuildChain(doc.Kind, doc.History)
	require.Len(t, chain, 1)
	assert.Len(t, chain[0].Gates, len(workflow.Gates(doc.Kind)))
}

// The combined Validator+Reviewer1 entry produces one segment with both gates.
func TestBuildChain_CombinedEntry(t *testing.T) {
	doc := buildDoc(t, document.KindClaim,
		[]document.UserID{"u1"}, []document.UserID{"u1"}, []document.UserID{"u2"})

	approve(t, doc, "u1", false)
	approve(t, doc, "u2", false)

	chain := BuildChain(doc.Kind, doc.History)
	require.Len(t, chain, 2)
	assert.Equal(t, []workflow.Role{workflow.RoleValidator, workflow.RoleReviewer1}, chain[0].Gates)
	assert.Equal(t, []workflow.Role{workflow.RoleReviewer2}, chain[1].Gates)
}

func TestReminderIntent(t *testing.T) {
	t.Run("targets the open gate", func(t *testing.T) {
		doc := buildDoc(t, document.KindAdvance,
			nil, []document.UserID{"u1"}, []document.UserID{"u2"})
		approve(t, doc, "u1", false)

		intent, ok := ReminderIntent(doc)
		require.True(t, ok)
		assert.Equal(t, TemplateReminder, intent.Template)
		assert.Equal(t, []document.UserID{"u2"}, intent.Recipients)
	})

	t.Run("all validators are reminded", func(t *testing.T) {
		doc := buildDoc(t, document.KindClaim,
			[]document.UserID{"v1", "v2"}, []document.UserID{"r1"}, []document.UserID{"r2"})

		intent, ok := ReminderIntent(doc)
		require.True(t, ok)
		assert.Equal(t, []document.UserID{"v1", "v2"}, intent.Recipients)
	})

	t.Run("no open gate means no reminder", func(t *testing.T) {
		doc := buildDoc(t, document.KindAdvance,
			nil, []document.UserID{"u1"}, []document.UserID{"u2"})
		approve(t, doc, "u1", false)
		approve(t, doc, "u2", false)

		_, ok := ReminderIntent(doc)
		assert.False(t, ok)
	})
}
