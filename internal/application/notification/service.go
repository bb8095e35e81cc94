package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
	"github.com/garyjia/reimbursement-approval/internal/domain/document"
	"github.com/garyjia/reimbursement-approval/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Service turns planned intents into delivered messages: recipient IDs are
// resolved through the directory, the chain description is rendered with
// display names, and the result goes to the notifier. Delivery failure is
// logged and swallowed; it never travels back to the transition that
// produced the intent.
type Service interface {
	Dispatch(ctx context.Context, intent Intent) error
}

type serviceImpl struct {
	directory port.UserDirectory
	notifier  port.Notifier
	logger    Logger
}

// NewService creates a new notification service
func NewService(directory port.UserDirectory, notifier port.Notifier, logger Logger) Service {
	return &serviceImpl{
		directory: directory,
		notifier:  notifier,
		logger:    logger,
	}
}

// Dispatch resolves, renders and sends one intent. An empty recipient set is
// a silent no-op per the notifier contract.
func (s *serviceImpl) Dispatch(ctx context.Context, intent Intent) error {
	if len(intent.Recipients) == 0 {
		return nil
	}

	recipients := s.resolveRecipients(ctx, intent.Recipients)
	if len(recipients) == 0 {
		s.logger.Info("No resolvable recipients, skipping notification",
			"document_id", intent.DocumentID,
			"template", intent.Template)
		return nil
	}

	msg := port.Message{
		Recipients: recipients,
		Subject:    s.renderSubject(intent),
		Body:       s.renderBody(ctx, intent),
		DocumentID: intent.DocumentID,
		Number:     intent.Number,
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("Notification delivery failed",
			"error", err,
			"document_id", intent.DocumentID,
			"template", intent.Template,
			"recipients", len(recipients))
		return nil
	}

	s.logger.Info("Notification sent",
		"document_id", intent.DocumentID,
		"template", intent.Template,
		"recipients", len(recipients))
	return nil
}

func (s *serviceImpl) resolveRecipients(ctx context.Context, ids []document.UserID) []port.UserProfile {
	var out []port.UserProfile
	for _, id := range ids {
		profile, err := s.directory.Lookup(ctx, id)
		if err != nil {
			if !errors.Is(err, port.ErrUserNotFound) {
				s.logger.Error("Recipient lookup failed", "error", err, "user", id)
			}
			continue
		}
		out = append(out, *profile)
	}
	return out
}

var kindTitles = map[document.Kind]string{
	document.KindAdvance:    "expense advance",
	document.KindSettlement: "settlement report",
	document.KindClaim:      "reimbursement claim",
}

func (s *serviceImpl) renderSubject(intent Intent) string {
	title := kindTitles[intent.Kind]
	switch intent.Template {
	case TemplateApprovalRequest:
		return fmt.Sprintf("Approval needed: %s %s", title, intent.Number)
	case TemplateApproved:
		return fmt.Sprintf("Approved: %s %s", title, intent.Number)
	case TemplateRejected:
		return fmt.Sprintf("Rejected: %s %s", title, intent.Number)
	case TemplateReminder:
		return fmt.Sprintf("Reminder: %s %s awaits your approval", title, intent.Number)
	}
	return fmt.Sprintf("%s %s", title, intent.Number)
}

func (s *serviceImpl) renderBody(ctx context.Context, intent Intent) string {
	switch intent.Template {
	case TemplateApprovalRequest:
		if len(intent.Chain) == 0 {
			return fmt.Sprintf("Document %s has been submitted and awaits your approval.", intent.Number)
		}
		return fmt.Sprintf("Document %s was cleared by %s and now awaits your approval.",
			intent.Number, s.describeSegment(ctx, intent.Chain[0]))

	case TemplateApproved:
		return fmt.Sprintf("Document %s is fully approved. %s", intent.Number,
			s.describeChain(ctx, intent.Kind, intent.Chain))

	case TemplateRejected:
		seg := ChainSegment{}
		if len(intent.Chain) > 0 {
			seg = intent.Chain[0]
		}
		return fmt.Sprintf("Document %s was rejected by %s. Reason: %s",
			intent.Number, s.describeSegment(ctx, seg), intent.RejectReason)

	case TemplateReminder:
		return fmt.Sprintf("Document %s has been awaiting your approval for more than a day.", intent.Number)
	}
	return ""
}

var roleTitles = map[workflow.Role]string{
	workflow.RoleValidator: "Validator",
	workflow.RoleReviewer1: "First Reviewer",
	workflow.RoleReviewer2: "Second Reviewer",
}

// describeSegment renders one chain segment: the actor's display name for a
// normal holder, a generic stand-in label for a substitute
func (s *serviceImpl) describeSegment(ctx context.Context, seg ChainSegment) string {
	titles := make([]string, len(seg.Gates))
	for i, g := range seg.Gates {
		titles[i] = roleTitles[g]
	}
	capacity := strings.Join(titles, ", ")

	if seg.Substitute {
		if capacity == "" {
			return "a stand-in approver"
		}
		return fmt.Sprintf("a stand-in approver acting as %s", capacity)
	}

	name := string(seg.Actor)
	if profile, err := s.directory.Lookup(ctx, seg.Actor); err == nil {
		name = profile.Name
	}
	if capacity == "" {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, capacity)
}

// describeChain renders the full gate-order chain. A single actor who
// cleared every gate gets the short phrasing.
func (s *serviceImpl) describeChain(ctx context.Context, kind document.Kind, chain []ChainSegment) string {
	if len(chain) == 1 && len(chain[0].Gates) == len(workflow.Gates(kind)) {
		return fmt.Sprintf("Fully approved by %s.", s.describeSegment(ctx, ChainSegment{
			Actor:      chain[0].Actor,
			Substitute: chain[0].Substitute,
		}))
	}

	parts := make([]string, len(chain))
	for i, seg := range chain {
		parts[i] = s.describeSegment(ctx, seg)
	}
	return fmt.Sprintf("Approval chain: %s.", strings.Join(parts, ", then "))
}
