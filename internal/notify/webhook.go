package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// WebhookTransport delivers messages by POSTing them to a chat gateway
// webhook. The gateway owns the actual chat protocol; this side only speaks
// send/edit/delete with opaque refs.
type WebhookTransport struct {
	url    string
	client *http.Client
}

// NewWebhookTransport builds a transport for the given gateway URL.
func NewWebhookTransport(url string, client *http.Client) *WebhookTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &WebhookTransport{url: url, client: client}
}

type webhookRequest struct {
	Op        string `json:"op"`
	ChannelID int64  `json:"channel_id"`
	MessageID string `json:"message_id,omitempty"`
	Text      string `json:"text,omitempty"`
}

type webhookResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers text to the channel and returns a ref for later edits.
func (t *WebhookTransport) Send(ctx context.Context, channelID int64, text string) (MessageRef, error) {
	resp, err := t.post(ctx, webhookRequest{Op: "send", ChannelID: channelID, Text: text})
	if err != nil {
		return MessageRef{}, err
	}
	messageID := resp.MessageID
	if messageID == "" {
		// gateway did not echo an id; track under a local one
		messageID = uuid.NewString()
	}
	return MessageRef{ChannelID: channelID, MessageID: messageID}, nil
}

// Edit replaces the text of a previously sent message.
func (t *WebhookTransport) Edit(ctx context.Context, ref MessageRef, text string) error {
	_, err := t.post(ctx, webhookRequest{Op: "edit", ChannelID: ref.ChannelID, MessageID: ref.MessageID, Text: text})
	return err
}

// Delete removes a previously sent message.
func (t *WebhookTransport) Delete(ctx context.Context, ref MessageRef) error {
	_, err := t.post(ctx, webhookRequest{Op: "delete", ChannelID: ref.ChannelID, MessageID: ref.MessageID})
	return err
}

func (t *WebhookTransport) post(ctx context.Context, payload webhookRequest) (*webhookResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gateway returned status %d for op %s", resp.StatusCode, payload.Op)
	}

	var decoded webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		// a bare 2xx with no body is a valid ack
		return &webhookResponse{}, nil
	}
	return &decoded, nil
}
