package databases

// go generate: mockery --name UserDatabase

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/linesmerrill/medtrack-api/models"
)

const userName = "users"

// UserDatabase contains the methods to use with the user database
type UserDatabase interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindPharmacies(ctx context.Context, verifiedOnly bool) ([]models.User, error)
	SetVerified(ctx context.Context, id string, verified bool) error
}

type userDatabase struct {
	db DatabaseHelper
}

// NewUserDatabase initializes a new instance of user database with the provided db connection
func NewUserDatabase(db DatabaseHelper) UserDatabase {
	return &userDatabase{
		db: db,
	}
}

func (u *userDatabase) FindByID(ctx context.Context, id string) (*models.User, error) {
	user := &models.User{}
	if err := u.db.Collection(userName).FindOne(ctx, idFilter(id)).Decode(user); err != nil {
		return nil, notFound(err, "user "+id)
	}
	return user, nil
}

// FindPharmacies lists pharmacy accounts sorted by pharmacy name
func (u *userDatabase) FindPharmacies(ctx context.Context, verifiedOnly bool) ([]models.User, error) {
	filter := bson.M{"user.userType": models.RolePharmacy}
	if verifiedOnly {
		filter["user.verified"] = true
	}
	opts := options.Find().SetSort(bson.D{{Key: "user.pharmacyName", Value: 1}})
	cur, err := u.db.Collection(userName).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// SetVerified flips the verification flag of a pharmacy account
func (u *userDatabase) SetVerified(ctx context.Context, id string, verified bool) error {
	filter := idFilter(id)
	filter["user.userType"] = models.RolePharmacy
	update := bson.M{"$set": bson.M{"user.verified": verified, "user.updatedAt": time.Now().UTC()}}
	res, err := u.db.Collection(userName).UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("pharmacy %s: %w", id, models.ErrNotFound)
	}
	return nil
}
