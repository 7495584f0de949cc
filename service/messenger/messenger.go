package messenger

import (
	"context"

	"github.com/openclaw/gating/model"
)

// Button is one pressable card button; CallbackData round-trips through
// the messaging channel verbatim.
type Button struct {
	Text         string `json:"text"`
	CallbackData string `json:"callbackData"`
}

// Card is a rendered approval card: text plus button rows. A resolved
// request renders with no buttons.
type Card struct {
	Text    string     `json:"text"`
	Buttons [][]Button `json:"buttons,omitempty"`
}

// Target is a chat the card should be posted to.
type Target struct {
	ChatID string `json:"chatId"`
}

// Service delivers approval cards and notifications over a messaging
// channel. Implementations are collaborators; the gating service never
// depends on a concrete transport.
type Service interface {
	// PostCard posts the card to every target and returns a reference per
	// delivered message, in target order.
	PostCard(ctx context.Context, request *model.ApprovalRequest, card *Card, targets []Target) ([]model.MessageRef, error)

	// EditCard replaces a previously posted card in place. May fail when
	// the underlying message no longer exists.
	EditCard(ctx context.Context, message model.MessageRef, card *Card) error

	// Notify sends a plain text message to a chat.
	Notify(ctx context.Context, chatID, text string) error
}
