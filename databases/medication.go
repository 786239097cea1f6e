package databases

// go generate: mockery --name MedicationDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/medtrack-api/models"
)

const medicationName = "medications"

// MedicationDatabase contains the methods to use with the medication database
type MedicationDatabase interface {
	FindByID(ctx context.Context, id string) (*models.Medication, error)
	FindByPatient(ctx context.Context, patientID string, activeOnly bool) ([]models.Medication, error)
	FindDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.Medication, error)
	FindUpcoming(ctx context.Context, patientID string, from, to time.Time) ([]models.Medication, error)
	Insert(ctx context.Context, med *models.Medication) error
	Save(ctx context.Context, med *models.Medication) error
	Delete(ctx context.Context, id string) (*models.Medication, error)
}

type medicationDatabase struct {
	db DatabaseHelper
}

// NewMedicationDatabase initializes a new instance of medication database with the provided db connection
func NewMedicationDatabase(db DatabaseHelper) MedicationDatabase {
	return &medicationDatabase{
		db: db,
	}
}

func (m *medicationDatabase) collection() CollectionHelper {
	return m.db.Collection(medicationName)
}

// FindByID retrieves a single medication, ErrNotFound when the id does not resolve
func (m *medicationDatabase) FindByID(ctx context.Context, id string) (*models.Medication, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	med := &models.Medication{}
	if err := m.collection().FindOne(ctx, bson.M{"_id": oid}).Decode(med); err != nil {
		return nil, notFound(err, "medication "+id)
	}
	return med, nil
}

// FindByPatient lists a patient's medications, newest first
func (m *medicationDatabase) FindByPatient(ctx context.Context, patientID string, activeOnly bool) ([]models.Medication, error) {
	filter := bson.M{"patient": patientID}
	if activeOnly {
		filter["active"] = true
	}
	return m.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

// FindDueWithin returns active medications holding at least one active reminder
// due in [now, now+window] or one snoozed reminder whose snooze ended in
// [now-window, now]
func (m *medicationDatabase) FindDueWithin(ctx context.Context, now time.Time, window time.Duration) ([]models.Medication, error) {
	filter := bson.M{
		"active": true,
		"reminders": bson.M{"$elemMatch": bson.M{"$or": bson.A{
			bson.M{
				"status": models.ReminderActive,
				"time":   bson.M{"$gte": now, "$lte": now.Add(window)},
			},
			bson.M{
				"status":      models.ReminderSnoozed,
				"snoozeUntil": bson.M{"$gte": now.Add(-window), "$lte": now},
			},
		}}},
	}
	return m.find(ctx, filter)
}

// FindUpcoming returns a patient's active medications with an active reminder in [from, to]
func (m *medicationDatabase) FindUpcoming(ctx context.Context, patientID string, from, to time.Time) ([]models.Medication, error) {
	filter := bson.M{
		"patient": patientID,
		"active":  true,
		"reminders": bson.M{"$elemMatch": bson.M{
			"status": models.ReminderActive,
			"time":   bson.M{"$gte": from, "$lte": to},
		}},
	}
	return m.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "nextReminder", Value: 1}}))
}

func (m *medicationDatabase) find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Medication, error) {
	cur, err := m.collection().Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var meds []models.Medication
	if err := cur.All(ctx, &meds); err != nil {
		return nil, err
	}
	return meds, nil
}

// Insert stores a new medication
func (m *medicationDatabase) Insert(ctx context.Context, med *models.Medication) error {
	_, err := m.collection().InsertOne(ctx, med)
	return err
}

// Save replaces the stored document with med. The replace is atomic per document.
func (m *medicationDatabase) Save(ctx context.Context, med *models.Medication) error {
	res, err := m.collection().ReplaceOne(ctx, bson.M{"_id": med.ID}, med)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("medication %s: %w", med.ID.Hex(), models.ErrNotFound)
	}
	return nil
}

// Delete removes a medication and returns what was stored
func (m *medicationDatabase) Delete(ctx context.Context, id string) (*models.Medication, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	med := &models.Medication{}
	if err := m.collection().FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(med); err != nil {
		return nil, notFound(err, "medication "+id)
	}
	return med, nil
}
