package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Conversation holds the structure for the conversations collection in mongo.
// There is at most one conversation per patient/pharmacy pair.
type Conversation struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id"`
	Patient         string               `json:"patient" bson:"patient"`
	Pharmacy        string               `json:"pharmacy" bson:"pharmacy"`
	LastMessage     string               `json:"lastMessage" bson:"lastMessage"`
	LastMessageDate time.Time            `json:"lastMessageDate" bson:"lastMessageDate"`
	UnreadPatient   int                  `json:"unreadPatient" bson:"unreadPatient"`
	UnreadPharmacy  int                  `json:"unreadPharmacy" bson:"unreadPharmacy"`
	Messages        []primitive.ObjectID `json:"messages" bson:"messages"`
	CreatedAt       time.Time            `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt" bson:"updatedAt"`
}

// IsParticipant reports whether userID is the patient or the pharmacy of record
func (c *Conversation) IsParticipant(userID string) bool {
	return userID != "" && (c.Patient == userID || c.Pharmacy == userID)
}

// Counterpart returns the other participant of the conversation
func (c *Conversation) Counterpart(userID string) string {
	if c.Patient == userID {
		return c.Pharmacy
	}
	return c.Patient
}

// Message holds the structure for the messages collection in mongo. Only Read
// changes after creation.
type Message struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	ConversationID primitive.ObjectID `json:"conversationId" bson:"conversationId"`
	Sender         string             `json:"sender" bson:"sender"`
	Receiver       string             `json:"receiver" bson:"receiver"`
	Message        string             `json:"message" bson:"message"`
	Read           bool               `json:"read" bson:"read"`
	CreatedAt      time.Time          `json:"createdAt" bson:"createdAt"`
}

// SendMessageRequest is the body of a chat message post
type SendMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// SentMessageResponse is returned after a message is stored and relayed
type SentMessageResponse struct {
	Message
	ReceiverOnline bool `json:"receiverOnline"`
}

// MessagesPage is one page of a conversation's history in chronological order
type MessagesPage struct {
	Messages   []Message  `json:"messages"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	CurrentPage  int64 `json:"currentPage"`
	TotalPages   int64 `json:"totalPages"`
	TotalRecords int64 `json:"totalRecords"`
	Limit        int64 `json:"limit"`
}

// OnlineStatusRequest asks which of the given users are connected
type OnlineStatusRequest struct {
	UserIDs []string `json:"userIds" validate:"required"`
}
