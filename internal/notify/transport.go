package notify

import "context"

// MessageRef identifies a delivered message so it can later be edited or
// deleted by reference instead of by scanning channel history.
type MessageRef struct {
	ChannelID int64  `json:"channel_id"`
	MessageID string `json:"message_id"`
}

// Transport is the opaque chat-delivery collaborator. Destinations are opaque
// channel identifiers; the core never interprets them further.
type Transport interface {
	Send(ctx context.Context, channelID int64, text string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
	Delete(ctx context.Context, ref MessageRef) error
}
