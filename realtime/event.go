// Package realtime tracks live client connections and fans events out to them
// by topic.
package realtime

import "encoding/json"

// Event is the envelope written to every client connection
type Event struct {
	Name string      `json:"event"`
	Data interface{} `json:"data"`
}

// IncomingEvent is the envelope read from a client connection. Data is decoded
// by whoever handles the named event.
type IncomingEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

const (
	userTopicPrefix         = "user:"
	conversationTopicPrefix = "conversation:"
)

// UserTopic is the personal topic of a user
func UserTopic(userID string) string {
	return userTopicPrefix + userID
}

// ConversationTopic is the shared topic of a conversation
func ConversationTopic(conversationID string) string {
	return conversationTopicPrefix + conversationID
}
