package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sbilibin2017/gw-home-inventory/internal/logger"
	"github.com/sbilibin2017/gw-home-inventory/internal/models"
)

// UsersCollection is the Mongo collection holding user documents.
const UsersCollection = "users"

// userDocument is the stored shape of a user.
type userDocument struct {
	ID                string     `bson:"_id"`
	Username          string     `bson:"username"`
	FirstName         string     `bson:"firstName"`
	LastName          string     `bson:"lastName"`
	Email             string     `bson:"email"`
	PhoneNumber       string     `bson:"phoneNumber"`
	Address           string     `bson:"address"`
	Category          string     `bson:"category"`
	Password          string     `bson:"password"`
	OTP               string     `bson:"otp,omitempty"`
	OTPExpiration     *time.Time `bson:"otpExpiration,omitempty"`
	ResetTokenID      string     `bson:"resetTokenId,omitempty"`
	PasswordChangedAt *time.Time `bson:"passwordChangedAt,omitempty"`
	CreatedAt         time.Time  `bson:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt"`
}

func toUserDocument(u *models.UserDB) userDocument {
	return userDocument{
		ID:                u.UserID.String(),
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             models.NormalizeEmail(u.Email),
		PhoneNumber:       u.PhoneNumber,
		Address:           u.Address,
		Category:          u.Category,
		Password:          u.PasswordHash,
		OTP:               u.OTP,
		OTPExpiration:     u.OTPExpiration,
		ResetTokenID:      u.ResetTokenID,
		PasswordChangedAt: u.PasswordChangedAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func (d userDocument) toModel() (*models.UserDB, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", d.ID, err)
	}
	return &models.UserDB{
		UserID:            id,
		Username:          d.Username,
		FirstName:         d.FirstName,
		LastName:          d.LastName,
		Email:             d.Email,
		PhoneNumber:       d.PhoneNumber,
		Address:           d.Address,
		Category:          d.Category,
		PasswordHash:      d.Password,
		OTP:               d.OTP,
		OTPExpiration:     d.OTPExpiration,
		ResetTokenID:      d.ResetTokenID,
		PasswordChangedAt: d.PasswordChangedAt,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}, nil
}

// EnsureUserIndexes creates the unique indexes that enforce username and email uniqueness.
func EnsureUserIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(UsersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_username"),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_email"),
		},
	})

	logger.Log.Infow("ensure indexes", "collection", UsersCollection, "error", err)

	return err
}

type UserReadRepository struct {
	coll *mongo.Collection
}

func NewUserReadRepository(db *mongo.Database) *UserReadRepository {
	return &UserReadRepository{coll: db.Collection(UsersCollection)}
}

// GetByUsernameOrEmail returns the first user matching either the username or the email.
// Nil arguments are ignored. A nil user and nil error mean no match.
func (r *UserReadRepository) GetByUsernameOrEmail(ctx context.Context, username, email *string) (*models.UserDB, error) {
	var or bson.A
	if username != nil {
		or = append(or, bson.M{"username": *username})
	}
	if email != nil {
		or = append(or, bson.M{"email": models.NormalizeEmail(*email)})
	}
	if len(or) == 0 {
		return nil, nil
	}

	return r.findOne(ctx, bson.M{"$or": or})
}

// GetByID returns the user with the given id, or nil when absent.
func (r *UserReadRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	return r.findOne(ctx, bson.M{"_id": userID.String()})
}

func (r *UserReadRepository) findOne(ctx context.Context, filter bson.M) (*models.UserDB, error) {
	var doc userDocument
	err := r.coll.FindOne(ctx, filter).Decode(&doc)

	logger.Log.Infow(
		"find",
		"collection", UsersCollection,
		"filter", redactFilter(filter),
		"error", err,
	)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return doc.toModel()
}

type UserWriteRepository struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewUserWriteRepository(db *mongo.Database) *UserWriteRepository {
	return &UserWriteRepository{coll: db.Collection(UsersCollection), now: time.Now}
}

// Save inserts a new user document.
func (r *UserWriteRepository) Save(ctx context.Context, user *models.UserDB) error {
	now := r.now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := r.coll.InsertOne(ctx, toUserDocument(user))

	logger.Log.Infow(
		"insert",
		"collection", UsersCollection,
		"user_id", user.UserID,
		"username", user.Username,
		"error", err,
	)

	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

// SetOTP stores a one-time code and its expiry. Only the OTP fields are touched.
func (r *UserWriteRepository) SetOTP(ctx context.Context, userID uuid.UUID, code string, expiresAt time.Time) error {
	return r.updateOne(ctx, "set_otp", userID, bson.M{
		"$set": bson.M{
			"otp":           code,
			"otpExpiration": expiresAt.UTC(),
			"updatedAt":     r.now().UTC(),
		},
	})
}

// ClearOTP removes any stored one-time code.
func (r *UserWriteRepository) ClearOTP(ctx context.Context, userID uuid.UUID) error {
	return r.updateOne(ctx, "clear_otp", userID, bson.M{
		"$unset": bson.M{"otp": "", "otpExpiration": ""},
		"$set":   bson.M{"updatedAt": r.now().UTC()},
	})
}

// ConsumeOTP atomically removes the stored code if it equals code and has not expired at now,
// and records resetTokenID as the only reset token the user may redeem.
// ErrNotFound means the code did not match, already expired or was consumed concurrently.
func (r *UserWriteRepository) ConsumeOTP(ctx context.Context, userID uuid.UUID, code string, now time.Time, resetTokenID string) error {
	filter := bson.M{
		"_id":           userID.String(),
		"otp":           code,
		"otpExpiration": bson.M{"$gte": now.UTC()},
	}
	return r.updateOneWhere(ctx, "consume_otp", userID, filter, bson.M{
		"$unset": bson.M{"otp": "", "otpExpiration": ""},
		"$set": bson.M{
			"resetTokenId": resetTokenID,
			"updatedAt":    r.now().UTC(),
		},
	})
}

// UpdatePassword replaces the password hash, provided resetTokenID is still the user's
// outstanding reset token, and retires that token in the same write.
// ErrNotFound means the user is gone or the token was already redeemed.
func (r *UserWriteRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, resetTokenID, passwordHash string) error {
	now := r.now().UTC()
	filter := bson.M{
		"_id":          userID.String(),
		"resetTokenId": resetTokenID,
	}
	return r.updateOneWhere(ctx, "update_password", userID, filter, bson.M{
		"$unset": bson.M{"resetTokenId": ""},
		"$set": bson.M{
			"password":          passwordHash,
			"passwordChangedAt": now,
			"updatedAt":         now,
		},
	})
}

// Update applies a partial update. Nil fields are left untouched.
func (r *UserWriteRepository) Update(ctx context.Context, userID uuid.UUID, upd models.UserUpdate) error {
	set := bson.M{"updatedAt": r.now().UTC()}
	if upd.FirstName != nil {
		set["firstName"] = *upd.FirstName
	}
	if upd.LastName != nil {
		set["lastName"] = *upd.LastName
	}
	if upd.PhoneNumber != nil {
		set["phoneNumber"] = *upd.PhoneNumber
	}
	if upd.Address != nil {
		set["address"] = *upd.Address
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.PasswordHash != nil {
		set["password"] = *upd.PasswordHash
	}
	if upd.PasswordChangedAt != nil {
		set["passwordChangedAt"] = upd.PasswordChangedAt.UTC()
	}

	update := bson.M{"$set": set}
	if upd.PasswordHash != nil {
		// a password set from the profile retires any outstanding reset token
		update["$unset"] = bson.M{"resetTokenId": ""}
	}

	return r.updateOne(ctx, "update_profile", userID, update)
}

// Delete removes the user document permanently.
func (r *UserWriteRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": userID.String()})

	var deleted int64
	if res != nil {
		deleted = res.DeletedCount
	}
	logger.Log.Infow(
		"delete",
		"collection", UsersCollection,
		"user_id", userID,
		"result", deleted,
		"error", err,
	)

	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *UserWriteRepository) updateOne(ctx context.Context, op string, userID uuid.UUID, update bson.M) error {
	return r.updateOneWhere(ctx, op, userID, bson.M{"_id": userID.String()}, update)
}

func (r *UserWriteRepository) updateOneWhere(ctx context.Context, op string, userID uuid.UUID, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)

	var matched int64
	if res != nil {
		matched = res.MatchedCount
	}
	logger.Log.Infow(
		"update",
		"collection", UsersCollection,
		"op", op,
		"user_id", userID,
		"result", matched,
		"error", err,
	)

	if err != nil {
		return err
	}
	if matched == 0 {
		return ErrNotFound
	}
	return nil
}

// redactFilter keeps filters loggable. Filters never carry secrets, but emails are masked.
func redactFilter(filter bson.M) bson.M {
	out := bson.M{}
	for k, v := range filter {
		switch k {
		case "email":
			out[k] = maskEmail(fmt.Sprint(v))
		case "$or":
			var parts bson.A
			if arr, ok := v.(bson.A); ok {
				for _, p := range arr {
					if m, ok := p.(bson.M); ok {
						parts = append(parts, redactFilter(m))
					}
				}
			}
			out[k] = parts
		default:
			out[k] = v
		}
	}
	return out
}

func maskEmail(email string) string {
	for i := 0; i < len(email); i++ {
		if email[i] == '@' {
			if i <= 1 {
				return "*" + email[i:]
			}
			return email[:1] + "***" + email[i:]
		}
	}
	return "***"
}
