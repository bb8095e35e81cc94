package lark

import (
	"context"
	"encoding/json"
	"fmt"

	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/reimbursement-approval/internal/application/port"
)

// Messenger delivers workflow notifications as Lark IM text messages.
// It implements port.Notifier; a partial delivery failure is reported so the
// caller can log it, but the caller never retries synchronously.
type Messenger struct {
	client *Client
	logger *zap.Logger
}

// NewMessenger creates a new Lark messenger
func NewMessenger(client *Client, logger *zap.Logger) *Messenger {
	return &Messenger{
		client: client,
		logger: logger,
	}
}

var _ port.Notifier = (*Messenger)(nil)

// Send delivers the message to every recipient. An empty recipient list is a no-op.
func (m *Messenger) Send(ctx context.Context, msg port.Message) error {
	if len(msg.Recipients) == 0 {
		return nil
	}

	content, err := textContent(fmt.Sprintf("%s\n%s", msg.Subject, msg.Body))
	if err != nil {
		return fmt.Errorf("encode message content: %w", err)
	}

	var failed int
	for _, recipient := range msg.Recipients {
		if err := m.sendText(ctx, string(recipient.ID), content); err != nil {
			m.logger.Error("Failed to deliver message",
				zap.String("user_id", string(recipient.ID)),
				zap.String("number", msg.Number),
				zap.Error(err))
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("delivery failed for %d of %d recipients", failed, len(msg.Recipients))
	}
	return nil
}

func (m *Messenger) sendText(ctx context.Context, userID, content string) error {
	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeUserId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(userID).
			MsgType(larkim.MsgTypeText).
			Content(content).
			Build()).
		Build()

	resp, err := m.client.client.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}
	return nil
}

func textContent(text string) (string, error) {
	data, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", err
	}
	return string(data), nil
}
