package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/openclaw/gating/model"
	"github.com/openclaw/gating/service/messenger"
)

// stdoutMessenger prints cards instead of delivering them, so the CLI can
// run without any chat transport. Message ids are sequential.
type stdoutMessenger struct {
	mux      sync.Mutex
	sequence int
}

var _ messenger.Service = (*stdoutMessenger)(nil)

func newStdoutMessenger() *stdoutMessenger {
	return &stdoutMessenger{}
}

func printCard(card *messenger.Card) {
	fmt.Println(card.Text)
	for _, row := range card.Buttons {
		for _, button := range row {
			fmt.Printf("  [%s] %s\n", button.Text, button.CallbackData)
		}
	}
}

func (m *stdoutMessenger) PostCard(_ context.Context, _ *model.ApprovalRequest, card *messenger.Card, targets []messenger.Target) ([]model.MessageRef, error) {
	m.mux.Lock()
	defer m.mux.Unlock()
	refs := make([]model.MessageRef, 0, len(targets))
	for _, target := range targets {
		m.sequence++
		fmt.Printf("-- card -> chat %s --\n", target.ChatID)
		printCard(card)
		refs = append(refs, model.MessageRef{
			Channel:   "stdout",
			ChatID:    target.ChatID,
			MessageID: fmt.Sprintf("%d", m.sequence),
		})
	}
	return refs, nil
}

func (m *stdoutMessenger) EditCard(_ context.Context, message model.MessageRef, card *messenger.Card) error {
	fmt.Printf("-- card update -> chat %s message %s --\n", message.ChatID, message.MessageID)
	printCard(card)
	return nil
}

func (m *stdoutMessenger) Notify(_ context.Context, chatID, text string) error {
	fmt.Printf("-- notify -> chat %s: %s\n", chatID, text)
	return nil
}
