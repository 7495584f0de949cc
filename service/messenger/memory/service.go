// Package memory provides an in-process messenger that records every
// delivery, used by tests and the CLI dry mode.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/messenger"
)

// Posted records one delivered card.
type Posted struct {
	ApprovalID string
	Message    model.MessageRef
	Card       messenger.Card
}

// Edited records one in-place card update.
type Edited struct {
	Message model.MessageRef
	Card    messenger.Card
}

// Notified records one plain text notification.
type Notified struct {
	ChatID string
	Text   string
}

// Service is a capture-only messenger. Message ids are sequential per
// service instance.
type Service struct {
	mux      sync.Mutex
	sequence int
	posted   []Posted
	edited   []Edited
	notified []Notified

	// FailEdits makes every EditCard call fail, exercising the
	// notification fallback path.
	FailEdits bool
}

var _ messenger.Service = (*Service)(nil)

// New creates an empty capture messenger.
func New() *Service {
	return &Service{}
}

// PostCard records the card once per target and mints message references.
func (s *Service) PostCard(_ context.Context, request *model.ApprovalRequest, card *messenger.Card, targets []messenger.Target) ([]model.MessageRef, error) {
	s.mux.Lock()
	defer s.mux.Unlock()
	refs := make([]model.MessageRef, 0, len(targets))
	for _, target := range targets {
		s.sequence++
		ref := model.MessageRef{
			Channel:   "memory",
			ChatID:    target.ChatID,
			MessageID: fmt.Sprintf("%d", s.sequence),
		}
		s.posted = append(s.posted, Posted{ApprovalID: request.ApprovalID, Message: ref, Card: *card})
		refs = append(refs, ref)
	}
	return refs, nil
}

// EditCard records the update, or fails when FailEdits is set.
func (s *Service) EditCard(_ context.Context, message model.MessageRef, card *messenger.Card) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	if s.FailEdits {
		return fmt.Errorf("message %s/%s no longer exists", message.ChatID, message.MessageID)
	}
	s.edited = append(s.edited, Edited{Message: message, Card: *card})
	return nil
}

// Notify records the notification.
func (s *Service) Notify(_ context.Context, chatID, text string) error {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.notified = append(s.notified, Notified{ChatID: chatID, Text: text})
	return nil
}

// PostedCards returns all recorded card posts.
func (s *Service) PostedCards() []Posted {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]Posted(nil), s.posted...)
}

// EditedCards returns all recorded card edits.
func (s *Service) EditedCards() []Edited {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]Edited(nil), s.edited...)
}

// Notifications returns all recorded notifications.
func (s *Service) Notifications() []Notified {
	s.mux.Lock()
	defer s.mux.Unlock()
	return append([]Notified(nil), s.notified...)
}
