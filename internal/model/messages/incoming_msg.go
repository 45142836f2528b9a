package messages

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/ext"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/model/actions"
)

type messageSender interface {
	SendMessage(text string, userID int64) error
	SendDocument(name string, data []byte, userID int64) error
}

type Service struct {
	sender  messageSender
	handler *HandlerService
}

func NewService(sender messageSender, coordinator *actions.Coordinator) *Service {
	return &Service{
		sender:  sender,
		handler: newHandler(sender, coordinator),
	}
}

// Message is one incoming chat update; Attachment carries a photo the
// user sent along with the command (a receipt for /add).
type Message struct {
	Text       string
	UserID     int64
	Attachment *expenseapi.Receipt
}

func (s *Service) HandleIncomingMessage(ctx context.Context, msg Message) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "handleMessage")
	defer span.Finish()

	start := time.Now()
	resp, err := s.handler.HandleMessage(ctx, msg)
	observeResponse(time.Since(start), err != nil)
	if err != nil {
		ext.Error.Set(span, true)
		if resp == "" {
			resp = somethingWrongMessage
		}
		_ = s.sender.SendMessage(resp, msg.UserID)
		return err
	}
	return s.sender.SendMessage(resp, msg.UserID)
}
