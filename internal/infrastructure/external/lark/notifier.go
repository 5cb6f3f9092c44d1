package lark

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	"go.uber.org/zap"

	"github.com/garyjia/travel-expense/internal/application/port"
)

// ErrUnknownRecipient is returned when a user has no Lark open_id configured
var ErrUnknownRecipient = errors.New("recipient has no lark open_id")

// MessageCreator is the slice of the IM API the notifier needs
type MessageCreator interface {
	Create(ctx context.Context, req *larkim.CreateMessageReq, options ...larkcore.RequestOptionFunc) (*larkim.CreateMessageResp, error)
}

// Notifier delivers engine notifications as Lark text messages
type Notifier struct {
	messages MessageCreator
	openIDs  map[string]string
	logger   *zap.Logger
}

// NewNotifier creates a Lark notifier. Pass client.Im.Message as messages.
func NewNotifier(messages MessageCreator, openIDs map[string]string, logger *zap.Logger) *Notifier {
	return &Notifier{
		messages: messages,
		openIDs:  openIDs,
		logger:   logger,
	}
}

// Send implements port.Notifier
func (n *Notifier) Send(ctx context.Context, recipientID, message string) error {
	if message == "" {
		return fmt.Errorf("message cannot be empty")
	}

	openID, ok := n.openIDs[recipientID]
	if !ok || openID == "" {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, recipientID)
	}

	content, err := json.Marshal(map[string]string{"text": message})
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType("open_id").
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(openID).
			MsgType("text").
			Content(string(content)).
			Build()).
		Build()

	resp, err := n.messages.Create(ctx, req)
	if err != nil {
		n.logger.Error("Failed to send message",
			zap.String("recipient_id", recipientID),
			zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	if !resp.Success() {
		n.logger.Error("API returned failure",
			zap.String("recipient_id", recipientID),
			zap.Int("code", resp.Code),
			zap.String("msg", resp.Msg))
		return fmt.Errorf("API error: code=%d, msg=%s", resp.Code, resp.Msg)
	}

	messageID := ""
	if resp.Data != nil && resp.Data.MessageId != nil {
		messageID = *resp.Data.MessageId
	}

	n.logger.Info("Message sent successfully",
		zap.String("message_id", messageID),
		zap.String("recipient_id", recipientID))

	return nil
}

// Verify interface compliance
var _ port.Notifier = (*Notifier)(nil)
