package tg

import (
	"context"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"expensetrack/companion-bot/internal/clients/expenseapi"
	"expensetrack/companion-bot/internal/logger"
	"expensetrack/companion-bot/internal/model/messages"
)

const (
	defaultUpdateOffset = 0
	timeoutSeconds      = 30
)

type tokenGetter interface {
	Token() string
	OwnerID() int64
}

// Client is the Telegram transport. The bot is personal: updates from
// anyone but the configured owner are dropped before they reach the
// message model.
type Client struct {
	client  *tgbotapi.BotAPI
	ownerID int64
}

func New(tokenGetter tokenGetter) (*Client, error) {
	client, err := tgbotapi.NewBotAPI(tokenGetter.Token())
	if err != nil {
		return nil, errors.Wrap(err, "cannot NewBotApi")
	}
	return &Client{client: client, ownerID: tokenGetter.OwnerID()}, nil
}

func (c *Client) SendMessage(text string, userID int64) error {
	_, err := c.client.Send(tgbotapi.NewMessage(userID, text))
	if err != nil {
		return errors.Wrap(err, "client.Send")
	}
	return nil
}

func (c *Client) SendDocument(name string, data []byte, userID int64) error {
	doc := tgbotapi.NewDocument(userID, tgbotapi.FileBytes{Name: name, Bytes: data})
	_, err := c.client.Send(doc)
	if err != nil {
		return errors.Wrap(err, "client.Send document")
	}
	return nil
}

func (c *Client) ListenUpdates(ctx context.Context, msgModel *messages.Service) {
	u := tgbotapi.NewUpdate(defaultUpdateOffset)
	u.Timeout = 60

	updates := c.client.GetUpdatesChan(u)

	logger.Info("Start listening for messages")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Stop listening for messages")
			return
		case update := <-updates:
			c.listenOnce(ctx, update, msgModel)
		}
	}
}

func (c *Client) listenOnce(ctx context.Context, update tgbotapi.Update, msgModel *messages.Service) {
	if update.Message == nil {
		return
	}
	if update.Message.From.ID != c.ownerID {
		logger.Info("dropping message from stranger", zap.Int64("user", update.Message.From.ID))
		return
	}

	logger.Info(update.Message.Text, zap.String("user", update.Message.From.UserName))

	ctx, cancel := context.WithTimeout(ctx, time.Second*timeoutSeconds)
	defer cancel()

	text := update.Message.Text
	if text == "" {
		text = update.Message.Caption
	}

	err := msgModel.HandleIncomingMessage(ctx, messages.Message{
		Text:       text,
		UserID:     update.Message.From.ID,
		Attachment: c.attachment(ctx, update.Message),
	})
	if err != nil {
		logger.Error("error processing message:", zap.Error(err))
	}
}

// attachment downloads the photo sent with the message, if any, so it
// can ride along as the receipt. Download failures only lose the
// receipt, never the command.
func (c *Client) attachment(ctx context.Context, msg *tgbotapi.Message) *expenseapi.Receipt {
	if len(msg.Photo) == 0 {
		return nil
	}

	largest := msg.Photo[len(msg.Photo)-1]
	file, err := c.client.GetFile(tgbotapi.FileConfig{FileID: largest.FileID})
	if err != nil {
		logger.Error("cannot resolve photo file", zap.Error(err))
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.Link(c.client.Token), nil)
	if err != nil {
		logger.Error("cannot build photo request", zap.Error(err))
		return nil
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Error("cannot download photo", zap.Error(err))
		return nil
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		logger.Error("cannot read photo", zap.Error(err))
		return nil
	}
	return &expenseapi.Receipt{Name: "receipt.jpg", Data: data}
}
