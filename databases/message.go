package databases

// go generate: mockery --name MessageDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/linesmerrill/medtrack-api/models"
)

const messageName = "messages"

// MessageDatabase contains the methods to use with the message database
type MessageDatabase interface {
	Insert(ctx context.Context, msg *models.Message) error
	FindByConversation(ctx context.Context, conversationID primitive.ObjectID, page, limit int64) ([]models.Message, error)
	CountByConversation(ctx context.Context, conversationID primitive.ObjectID) (int64, error)
	MarkRead(ctx context.Context, conversationID primitive.ObjectID, receiver string) (int64, error)
}

type messageDatabase struct {
	db DatabaseHelper
}

// NewMessageDatabase initializes a new instance of message database with the provided db connection
func NewMessageDatabase(db DatabaseHelper) MessageDatabase {
	return &messageDatabase{
		db: db,
	}
}

func (m *messageDatabase) collection() CollectionHelper {
	return m.db.Collection(messageName)
}

func (m *messageDatabase) Insert(ctx context.Context, msg *models.Message) error {
	_, err := m.collection().InsertOne(ctx, msg)
	return err
}

// FindByConversation returns one page of messages, newest first. page is 1-based.
func (m *messageDatabase) FindByConversation(ctx context.Context, conversationID primitive.ObjectID, page, limit int64) ([]models.Message, error) {
	opts := newMongoPaginate(limit, page).getPaginatedOpts("createdAt")
	cur, err := m.collection().Find(ctx, bson.M{"conversationId": conversationID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (m *messageDatabase) CountByConversation(ctx context.Context, conversationID primitive.ObjectID) (int64, error) {
	return m.collection().CountDocuments(ctx, bson.M{"conversationId": conversationID})
}

// MarkRead flips read on every unread message addressed to receiver and
// returns how many changed
func (m *messageDatabase) MarkRead(ctx context.Context, conversationID primitive.ObjectID, receiver string) (int64, error) {
	res, err := m.collection().UpdateMany(ctx,
		bson.M{"conversationId": conversationID, "receiver": receiver, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
