package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/medtrack-api/databases"
	"github.com/linesmerrill/medtrack-api/databases/mocks"
	"github.com/linesmerrill/medtrack-api/models"
)

func TestConversationDatabase_InsertDuplicate(t *testing.T) {
	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	collectionHelper.On("InsertOne", mock.Anything, mock.Anything).Return(nil, dup)
	dbHelper.On("Collection", "conversations").Return(collectionHelper)

	err := databases.NewConversationDatabase(dbHelper).Insert(context.Background(), &models.Conversation{Patient: "p", Pharmacy: "ph"})
	assert.ErrorIs(t, err, databases.ErrDuplicate)
}

func TestConversationDatabase_EnsureIndexes(t *testing.T) {
	t.Run("unique participant pair", func(t *testing.T) {
		dbHelper := mocks.NewDatabaseHelper(t)
		collectionHelper := mocks.NewCollectionHelper(t)

		var model mongo.IndexModel
		collectionHelper.On("CreateIndex", mock.Anything, mock.AnythingOfType("mongo.IndexModel")).
			Run(func(args mock.Arguments) { model = args.Get(1).(mongo.IndexModel) }).
			Return("patient_pharmacy_unique", nil)
		dbHelper.On("Collection", "conversations").Return(collectionHelper)

		assert.NoError(t, databases.NewConversationDatabase(dbHelper).EnsureIndexes(context.Background()))
		assert.Equal(t, bson.D{{Key: "patient", Value: 1}, {Key: "pharmacy", Value: 1}}, model.Keys)
		if assert.NotNil(t, model.Options) && assert.NotNil(t, model.Options.Unique) {
			assert.True(t, *model.Options.Unique)
		}
	})

	t.Run("create fails", func(t *testing.T) {
		dbHelper := mocks.NewDatabaseHelper(t)
		collectionHelper := mocks.NewCollectionHelper(t)
		collectionHelper.On("CreateIndex", mock.Anything, mock.Anything).Return("", errors.New("not primary"))
		dbHelper.On("Collection", "conversations").Return(collectionHelper)

		err := databases.NewConversationDatabase(dbHelper).EnsureIndexes(context.Background())
		assert.ErrorContains(t, err, "not primary")
	})
}

func TestConversationDatabase_RecordMessage(t *testing.T) {
	msg := &models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: primitive.NewObjectID(),
		Message:        "hello",
		CreatedAt:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}

	tests := []struct {
		name              string
		receiverIsPatient bool
		counter           string
		matched           int64
		wantErr           error
	}{
		{name: "patient receives", receiverIsPatient: true, counter: "unreadPatient", matched: 1},
		{name: "pharmacy receives", receiverIsPatient: false, counter: "unreadPharmacy", matched: 1},
		{name: "conversation gone", receiverIsPatient: true, counter: "unreadPatient", matched: 0, wantErr: models.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dbHelper := mocks.NewDatabaseHelper(t)
			collectionHelper := mocks.NewCollectionHelper(t)

			collectionHelper.On("UpdateOne", mock.Anything, bson.M{"_id": msg.ConversationID}, mock.MatchedBy(func(update bson.M) bool {
				inc := update["$inc"].(bson.M)
				set := update["$set"].(bson.M)
				return inc[tt.counter] == 1 && len(inc) == 1 && set["lastMessage"] == "hello"
			})).Return(&mongo.UpdateResult{MatchedCount: tt.matched}, nil)
			dbHelper.On("Collection", "conversations").Return(collectionHelper)

			err := databases.NewConversationDatabase(dbHelper).RecordMessage(context.Background(), msg, tt.receiverIsPatient)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestMessageDatabase_MarkRead(t *testing.T) {
	convID := primitive.NewObjectID()

	dbHelper := mocks.NewDatabaseHelper(t)
	collectionHelper := mocks.NewCollectionHelper(t)

	collectionHelper.On("UpdateMany", mock.Anything,
		bson.M{"conversationId": convID, "receiver": "p1", "read": false},
		bson.M{"$set": bson.M{"read": true}}).
		Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)
	dbHelper.On("Collection", "messages").Return(collectionHelper)

	n, err := databases.NewMessageDatabase(dbHelper).MarkRead(context.Background(), convID, "p1")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
