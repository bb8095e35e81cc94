package notification

import (
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

// TemplateKind selects the message template for an intent
type TemplateKind string

const (
	TemplateApprovalRequest TemplateKind = "APPROVAL_REQUEST"
	TemplateApproved        TemplateKind = "APPROVED"
	TemplateRejected        TemplateKind = "REJECTED"
	TemplateReminder        TemplateKind = "REMINDER"
)

// ChainSegment names one actor in the approval chain together with every
// gate they cleared. Substitute segments are rendered with a generic label
// rather than the actor's name.
type ChainSegment struct {
	Actor      document.UserID
	Gates      []workflow.Role
	Substitute bool
}

// Intent is the planned notification for a transition: who to tell, with
// which template, and the structured description of who did what. Names and
// contact data stay with the external directory; the planner deals only in
// identifiers and role labels.
type Intent struct {
	Recipients   []document.UserID
	Template     TemplateKind
	Chain        []ChainSegment
	RejectReason string
	DocumentID   int64
	Number       string
	Kind         document.Kind
}

// Plan computes the notification intent for a transition just applied. The
// document is the post-transition snapshot (history already contains the
// transition's entry). When no recipients can be resolved the intent carries
// an empty set; the notifier no-ops on empty recipients.
func Plan(doc *document.Document, t workflow.Transition) Intent {
	intent := Intent{
		DocumentID: doc.ID,
		Number:     doc.Number,
		Kind:       doc.Kind,
	}

	switch t.Label.Action {
	case workflow.ActionSubmit:
		intent.Template = TemplateApprovalRequest
		if gate, open := workflow.NextOpenGate(doc.Kind, doc.History); open {
			intent.Recipients = workflow.GateHolders(doc, gate)
		}

	case workflow.ActionReject:
		intent.Template = TemplateRejected
		intent.Recipients = []document.UserID{doc.SubmitterID}
		intent.RejectReason = doc.RejectReason
		intent.Chain = []ChainSegment{{
			Actor:      t.Entry.Actor,
			Gates:      t.Label.Gates,
			Substitute: t.Label.Substitute,
		}}

	case workflow.ActionApprove:
		if t.To == workflow.StateApproved {
			intent.Template = TemplateApproved
			intent.Recipients = []document.UserID{doc.SubmitterID}
			intent.Chain = BuildChain(doc.Kind, doc.History)
		} else {
			intent.Template = TemplateApprovalRequest
			if gate, open := workflow.NextOpenGate(doc.Kind, doc.History); open {
				intent.Recipients = workflow.GateHolders(doc, gate)
			}
			intent.Chain = []ChainSegment{{
				Actor:      t.Entry.Actor,
				Gates:      t.Label.Gates,
				Substitute: t.Label.Substitute,
			}}
		}

	case workflow.ActionCancel:
		// Cancellation is driven by the submitter; nobody to notify.
	}

	return intent
}

// BuildChain reconstructs the full approval chain from history alone: for
// each gate in kind order it finds the clearing entry, then groups gates by
// clearing actor so that each actor is named exactly once, in order of first
// appearance. One approval clearing consecutive gates and one substitute
// clearing several gates across separate actions both collapse to a single
// segment this way.
func BuildChain(kind document.Kind, history document.History) []ChainSegment {
	var chain []ChainSegment
	for _, gate := range workflow.Gates(kind) {
		entry, label, cleared := workflow.GateClearance(history, gate)
		if !cleared {
			continue
		}
		merged := false
		for i := range chain {
			if chain[i].Actor == entry.Actor && chain[i].Substitute == label.Substitute {
				chain[i].Gates = append(chain[i].Gates, gate)
				merged = true
				break
			}
		}
		if !merged {
			chain = append(chain, ChainSegment{
				Actor:      entry.Actor,
				Gates:      []workflow.Role{gate},
				Substitute: label.Substitute,
			})
		}
	}
	return chain
}

// ReminderIntent computes the reminder for a stale non-terminal document:
// the holders of the next pending gate, found by the same gate-order history
// scan used for chain reconstruction
func ReminderIntent(doc *document.Document) (Intent, bool) {
	gate, open := workflow.NextOpenGate(doc.Kind, doc.History)
	if !open {
		return Intent{}, false
	}
	return Intent{
		Recipients: workflow.GateHolders(doc, gate),
		Template:   TemplateReminder,
		DocumentID: doc.ID,
		Number:     doc.Number,
		Kind:       doc.Kind,
	}, true
}
