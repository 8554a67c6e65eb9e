package slack

import (
	"context"
	"log/slog"

	goslack "github.com/slack-go/slack"

	"github.com/memohai/converse/internal/messenger"
)

const (
	textAttachmentColor = "#3AA3E3"
	buttonType          = "button"
)

// Messenger posts to one Slack conversation as the bot user.
type Messenger struct {
	client  *goslack.Client
	channel string
	logger  *slog.Logger
}

// New implements messenger.Factory.
func (a *API) New(token, channel string) messenger.Messenger {
	return &Messenger{
		client:  a.client(token),
		channel: channel,
		logger:  a.logger.With(slog.String("channel", channel)),
	}
}

func (m *Messenger) Send(ctx context.Context, text string) bool {
	return m.post(ctx, goslack.MsgOptionText(text, false))
}

func (m *Messenger) SendText(ctx context.Context, text string, replies []messenger.QuickReply) bool {
	return m.post(ctx, goslack.MsgOptionAttachments(goslack.Attachment{
		Fallback:   "New message",
		Color:      textAttachmentColor,
		Text:       text,
		MarkdownIn: []string{"text"},
		CallbackID: m.channel,
		Actions:    toActions(replies),
	}))
}

func (m *Messenger) SendImage(ctx context.Context, url string, replies []messenger.QuickReply) bool {
	return m.post(ctx, goslack.MsgOptionAttachments(goslack.Attachment{
		Fallback:   "image",
		ImageURL:   url,
		CallbackID: m.channel,
		Actions:    toActions(replies),
	}))
}

func (m *Messenger) post(ctx context.Context, opts ...goslack.MsgOption) bool {
	opts = append(opts, goslack.MsgOptionAsUser(true))
	if _, _, err := m.client.PostMessageContext(ctx, m.channel, opts...); err != nil {
		m.logger.Warn("chat.postMessage failed", slog.Any("error", err))
		return false
	}
	return true
}

// GetLatest reads the newest message of the conversation. Attachment text,
// image and buttons take precedence over the message body.
func (m *Messenger) GetLatest(ctx context.Context) (messenger.Message, error) {
	resp, err := m.client.GetConversationHistoryContext(ctx, &goslack.GetConversationHistoryParameters{
		ChannelID: m.channel,
		Limit:     1,
	})
	if err != nil {
		return messenger.Message{}, err
	}
	if len(resp.Messages) == 0 {
		return messenger.Message{}, messenger.ErrNoMessages
	}
	msg := resp.Messages[0]
	out := messenger.Message{
		Text:      msg.Text,
		UserID:    msg.User,
		BotID:     msg.BotID,
		Timestamp: msg.Timestamp,
	}
	if len(msg.Attachments) > 0 {
		att := msg.Attachments[0]
		out.ImageURL = att.ImageURL
		if att.Text != "" {
			out.Text = att.Text
		}
		for _, a := range att.Actions {
			out.Replies = append(out.Replies, messenger.QuickReply{Label: a.Text, Value: a.Value})
		}
	}
	return out, nil
}

func toActions(replies []messenger.QuickReply) []goslack.AttachmentAction {
	if len(replies) == 0 {
		return nil
	}
	actions := make([]goslack.AttachmentAction, 0, len(replies))
	for _, r := range replies {
		actions = append(actions, goslack.AttachmentAction{
			Name:  r.Value,
			Text:  r.Label,
			Type:  buttonType,
			Value: r.Value,
		})
	}
	return actions
}
