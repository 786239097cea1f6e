// Package chat manages patient/pharmacy conversations and relays their
// messages and read receipts to connected clients.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/clock"
	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/models"
	"github.com/linesmerrill/medtrack-api/realtime"
)

// DefaultPageSize is used when a history request does not name a limit
const DefaultPageSize = 50

// Publisher sends an event to every connection on a topic
type Publisher interface {
	Publish(topic, name string, payload interface{}) int
}

// PresenceChecker reports whether users are connected
type PresenceChecker interface {
	IsOnline(userID string) bool
	OnlineStatus(userIDs []string) map[string]bool
}

// Manager owns conversation membership and message relay
type Manager struct {
	Conversations databases.ConversationDatabase
	Messages      databases.MessageDatabase
	Bus           Publisher
	Presence      PresenceChecker
	Clock         clock.Clock
}

// NewManager returns a Manager backed by the given stores
func NewManager(conversations databases.ConversationDatabase, messages databases.MessageDatabase, bus Publisher, presence PresenceChecker, clk clock.Clock) *Manager {
	return &Manager{
		Conversations: conversations,
		Messages:      messages,
		Bus:           bus,
		Presence:      presence,
		Clock:         clk,
	}
}

// GetOrCreate returns the conversation between a patient and a pharmacy,
// creating it on first contact. Callers ensure the initiator is the patient.
func (m *Manager) GetOrCreate(ctx context.Context, patientID, pharmacyID string) (*models.Conversation, error) {
	if patientID == "" || pharmacyID == "" {
		return nil, fmt.Errorf("patient and pharmacy are required: %w", models.ErrValidation)
	}

	conv, err := m.Conversations.FindByParticipants(ctx, patientID, pharmacyID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	now := m.Clock.Now()
	conv = &models.Conversation{
		ID:              primitive.NewObjectID(),
		Patient:         patientID,
		Pharmacy:        pharmacyID,
		LastMessageDate: now,
		Messages:        []primitive.ObjectID{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	err = m.Conversations.Insert(ctx, conv)
	if errors.Is(err, databases.ErrDuplicate) {
		// lost a race with another request for the same pair
		return m.Conversations.FindByParticipants(ctx, patientID, pharmacyID)
	}
	if err != nil {
		return nil, err
	}
	zap.S().Infow("conversation created", "conversationID", conv.ID.Hex(), "patient", patientID, "pharmacy", pharmacyID)
	return conv, nil
}

// Get returns a conversation userID takes part in
func (m *Manager) Get(ctx context.Context, conversationID, userID string) (*models.Conversation, error) {
	conv, err := m.Conversations.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, fmt.Errorf("user %s in conversation %s: %w", userID, conversationID, models.ErrForbidden)
	}
	return conv, nil
}

// CanJoin reports, as an error, whether userID may subscribe to the
// conversation's topic
func (m *Manager) CanJoin(ctx context.Context, conversationID, userID string) error {
	_, err := m.Get(ctx, conversationID, userID)
	return err
}

// ListConversations returns the conversations userID takes part in
func (m *Manager) ListConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	convs, err := m.Conversations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	return convs, nil
}

// SendMessage stores a message from senderID to the other participant and
// relays it to the conversation topic and the receiver's personal topic
func (m *Manager) SendMessage(ctx context.Context, conversationID, senderID, text string) (*models.SentMessageResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required: %w", models.ErrValidation)
	}

	conv, err := m.Get(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}
	receiver := conv.Counterpart(senderID)

	msg := &models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: conv.ID,
		Sender:         senderID,
		Receiver:       receiver,
		Message:        text,
		CreatedAt:      m.Clock.Now(),
	}
	if err := m.Messages.Insert(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to store message: %w", err)
	}
	if err := m.Conversations.RecordMessage(ctx, msg, receiver == conv.Patient); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	event := models.MessageEvent{ConversationID: conv.ID.Hex(), Message: msg}
	m.Bus.Publish(realtime.ConversationTopic(conv.ID.Hex()), models.EventNewMessage, event)
	m.Bus.Publish(realtime.UserTopic(receiver), models.EventNewMessageNotification, event)

	return &models.SentMessageResponse{
		Message:        *msg,
		ReceiverOnline: m.Presence.IsOnline(receiver),
	}, nil
}

// MarkRead clears userID's unread counter and read-flags every message
// addressed to them in the conversation
func (m *Manager) MarkRead(ctx context.Context, conversationID, userID string) error {
	conv, err := m.Get(ctx, conversationID, userID)
	if err != nil {
		return err
	}
	if err := m.Conversations.ResetUnread(ctx, conv.ID, userID == conv.Patient); err != nil {
		return err
	}
	n, err := m.Messages.MarkRead(ctx, conv.ID, userID)
	if err != nil {
		return err
	}
	zap.S().Debugw("messages marked read", "conversationID", conversationID, "userID", userID, "count", n)

	m.Bus.Publish(realtime.ConversationTopic(conv.ID.Hex()), models.EventMessagesRead, models.MessagesReadPayload{
		ConversationID: conv.ID.Hex(),
		UserID:         userID,
	})
	return nil
}

// ListMessages returns one page of history in chronological order. page is
// 1-based; limit falls back to DefaultPageSize.
func (m *Manager) ListMessages(ctx context.Context, conversationID, userID string, page, limit int64) (*models.MessagesPage, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}

	conv, err := m.Get(ctx, conversationID, userID)
	if err != nil {
		return nil, err
	}

	total, err := m.Messages.CountByConversation(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	msgs, err := m.Messages.FindByConversation(ctx, conv.ID, page, limit)
	if err != nil {
		return nil, err
	}
	// stored newest first, returned oldest first
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	return &models.MessagesPage{
		Messages: msgs,
		Pagination: models.Pagination{
			CurrentPage:  page,
			TotalPages:   (total + limit - 1) / limit,
			TotalRecords: total,
			Limit:        limit,
		},
	}, nil
}

// OnlineStatus maps each of userIDs to whether it is connected
func (m *Manager) OnlineStatus(userIDs []string) map[string]bool {
	return m.Presence.OnlineStatus(userIDs)
}
