// Package messenger defines the per-recipient send/receive handle used by the
// pipeline and by host actions.
package messenger

import (
	"context"
	"errors"
)

// ErrNoMessages is returned by GetLatest when the conversation is empty.
var ErrNoMessages = errors.New("no messages")

// QuickReply is a button offered alongside a message. Equality is structural.
type QuickReply struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Message is an entry of a conversation history.
type Message struct {
	Text      string       `json:"text"`
	ImageURL  string       `json:"image_url,omitempty"`
	Replies   []QuickReply `json:"replies,omitempty"`
	UserID    string       `json:"user_id,omitempty"`
	BotID     string       `json:"bot_id,omitempty"`
	Timestamp string       `json:"ts,omitempty"`
}

// Messenger sends to and reads from one recipient (a user DM or a channel).
// Send results are reported, never retried.
type Messenger interface {
	Send(ctx context.Context, text string) bool
	SendText(ctx context.Context, text string, replies []QuickReply) bool
	SendImage(ctx context.Context, url string, replies []QuickReply) bool
	GetLatest(ctx context.Context) (Message, error)
}

// Factory builds messengers bound to a token and a destination channel.
type Factory interface {
	New(token, channel string) Messenger
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func(token, channel string) Messenger

// New calls f(token, channel).
func (f FactoryFunc) New(token, channel string) Messenger {
	return f(token, channel)
}
