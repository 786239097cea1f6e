package databases

// go generate: mockery --name ConversationDatabase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/linesmerrill/medtrack-api/models"
)

const conversationName = "conversations"

// ErrDuplicate is returned when an insert collides with a unique index
var ErrDuplicate = errors.New("duplicate document")

// ConversationDatabase contains the methods to use with the conversation database
type ConversationDatabase interface {
	FindByID(ctx context.Context, id string) (*models.Conversation, error)
	FindByParticipants(ctx context.Context, patientID, pharmacyID string) (*models.Conversation, error)
	FindByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	Insert(ctx context.Context, conv *models.Conversation) error
	RecordMessage(ctx context.Context, msg *models.Message, receiverIsPatient bool) error
	ResetUnread(ctx context.Context, id primitive.ObjectID, patientSide bool) error
	EnsureIndexes(ctx context.Context) error
}

type conversationDatabase struct {
	db DatabaseHelper
}

// NewConversationDatabase initializes a new instance of conversation database with the provided db connection
func NewConversationDatabase(db DatabaseHelper) ConversationDatabase {
	return &conversationDatabase{
		db: db,
	}
}

func (c *conversationDatabase) collection() CollectionHelper {
	return c.db.Collection(conversationName)
}

// EnsureIndexes creates the unique {patient, pharmacy} index Insert relies on
// to report ErrDuplicate. Creating an index that already exists is a no-op.
func (c *conversationDatabase) EnsureIndexes(ctx context.Context) error {
	name, err := c.collection().CreateIndex(ctx, participantsIndex())
	if err != nil {
		return fmt.Errorf("create %s index: %w", conversationName, err)
	}
	zap.S().Debugw("index ensured", "collection", conversationName, "index", name)
	return nil
}

func participantsIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "patient", Value: 1}, {Key: "pharmacy", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("patient_pharmacy_unique"),
	}
}

func (c *conversationDatabase) FindByID(ctx context.Context, id string) (*models.Conversation, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	conv := &models.Conversation{}
	if err := c.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(conv); err != nil {
		return nil, notFound(err, "conversation "+id)
	}
	return conv, nil
}

func (c *conversationDatabase) FindByParticipants(ctx context.Context, patientID, pharmacyID string) (*models.Conversation, error) {
	conv := &models.Conversation{}
	err := c.collection().FindOne(ctx, bson.M{"patient": patientID, "pharmacy": pharmacyID}).Decode(conv)
	if err != nil {
		return nil, notFound(err, "conversation")
	}
	return conv, nil
}

// FindByUser lists the conversations userID takes part in, most recent activity first
func (c *conversationDatabase) FindByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	filter := bson.M{"$or": bson.A{bson.M{"patient": userID}, bson.M{"pharmacy": userID}}}
	cur, err := c.collection().Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "lastMessageDate", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var convs []models.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// Insert stores a new conversation, ErrDuplicate when the pair already has one
func (c *conversationDatabase) Insert(ctx context.Context, conv *models.Conversation) error {
	_, err := c.collection().InsertOne(ctx, conv)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("conversation %s/%s: %w", conv.Patient, conv.Pharmacy, ErrDuplicate)
	}
	return err
}

// RecordMessage appends msg to its conversation, refreshes the last-message
// fields and bumps the receiver side's unread counter in a single update
func (c *conversationDatabase) RecordMessage(ctx context.Context, msg *models.Message, receiverIsPatient bool) error {
	counter := "unreadPharmacy"
	if receiverIsPatient {
		counter = "unreadPatient"
	}
	update := bson.M{
		"$push": bson.M{"messages": msg.ID},
		"$set": bson.M{
			"lastMessage":     msg.Message,
			"lastMessageDate": msg.CreatedAt,
			"updatedAt":       msg.CreatedAt,
		},
		"$inc": bson.M{counter: 1},
	}
	res, err := c.collection().UpdateOne(ctx, bson.M{"_id": msg.ConversationID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("conversation %s: %w", msg.ConversationID.Hex(), models.ErrNotFound)
	}
	return nil
}

// ResetUnread zeroes one side's unread counter
func (c *conversationDatabase) ResetUnread(ctx context.Context, id primitive.ObjectID, patientSide bool) error {
	counter := "unreadPharmacy"
	if patientSide {
		counter = "unreadPatient"
	}
	_, err := c.collection().UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{counter: 0, "updatedAt": time.Now().UTC()}})
	return err
}
