package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

const collectionUsers = "users"

// CredentialRepository implements ports.CredentialRepository using MongoDB.
type CredentialRepository struct {
	col *mongo.Collection
}

func NewCredentialRepository(db *mongo.Database) *CredentialRepository {
	return &CredentialRepository{col: db.Collection(collectionUsers)}
}

func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, c); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (r *CredentialRepository) FindByID(ctx context.Context, id string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *CredentialRepository) FindByEmail(ctx context.Context, email string) (*domain.Credential, error) {
	return r.findOne(ctx, bson.M{"email": domain.NormalizeEmail(email)})
}

func (r *CredentialRepository) findOne(ctx context.Context, filter bson.M) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var c domain.Credential
	if err := r.col.FindOne(ctx, filter).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return &c, nil
}

func (r *CredentialRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	var out []*domain.Credential
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return out, nil
}

// SetVerificationCode only matches unverified credentials so a concurrent
// verification is never undone.
func (r *CredentialRepository) SetVerificationCode(ctx context.Context, id, code string, expires, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"verification_code":    code,
		"verification_expires": expires,
		"updated_at":           now,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "verified": false}, update)
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("set verification code: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return domain.ErrAlreadyVerified
}

func (r *CredentialRepository) SetResetCode(ctx context.Context, id, code string, expires, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"reset_code":    code,
		"reset_expires": expires,
		"updated_at":    now,
	}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("set reset code: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *CredentialRepository) UpdateAccount(ctx context.Context, id string, u ports.AccountUpdate, now time.Time) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c domain.Credential
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, accountUpdate(u, now), opts).Decode(&c)
	switch {
	case err == nil:
		return &c, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, domain.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return nil, domain.ErrDuplicateEmail
	default:
		return nil, fmt.Errorf("update credential: %w", err)
	}
}

// accountUpdate sets only the provided fields, leaving codes and refresh
// tokens to their own atomic writers.
func accountUpdate(u ports.AccountUpdate, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if u.Email != "" {
		set["email"] = domain.NormalizeEmail(u.Email)
	}
	if u.FirstName != "" {
		set["first_name"] = u.FirstName
	}
	if u.LastName != "" {
		set["last_name"] = u.LastName
	}
	if u.Phone != "" {
		set["phone"] = u.Phone
	}
	if u.Role != "" {
		set["role"] = u.Role
	}
	return bson.M{"$set": set}
}

func (r *CredentialRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *CredentialRepository) List(ctx context.Context, f ports.CredentialFilter) ([]*domain.Credential, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.Role != "" {
		filter["role"] = f.Role
	}
	if f.Verified != nil {
		filter["verified"] = *f.Verified
	}
	if f.Search != "" {
		filter["$or"] = searchClause(f.Search, "first_name", "last_name", "email")
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count credentials: %w", err)
	}
	cur, err := r.col.Find(ctx, filter, pageOptions(f.Page, f.Limit, bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, 0, fmt.Errorf("list credentials: %w", err)
	}
	var out []*domain.Credential
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode credentials: %w", err)
	}
	return out, total, nil
}

func (r *CredentialRepository) CountByRole(ctx context.Context) (map[string]int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$role"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count by role: %w", err)
	}
	var rows []struct {
		Role  string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode role counts: %w", err)
	}

	counts := map[string]int64{domain.RolePatient: 0, domain.RoleDoctor: 0, domain.RoleAdmin: 0}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

// ConsumeVerificationCode matches and clears the code in a single
// findOneAndUpdate so a code can verify at most once.
func (r *CredentialRepository) ConsumeVerificationCode(ctx context.Context, email, code string, now time.Time) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":                domain.NormalizeEmail(email),
		"verified":             false,
		"verification_code":    code,
		"verification_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set":   bson.M{"verified": true, "updated_at": now},
		"$unset": bson.M{"verification_code": "", "verification_expires": ""},
	}
	return r.consume(ctx, filter, update)
}

func (r *CredentialRepository) ConsumeResetCode(ctx context.Context, email, code, passwordHash string, now time.Time) (*domain.Credential, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"email":         domain.NormalizeEmail(email),
		"reset_code":    code,
		"reset_expires": bson.M{"$gt": now},
	}
	update := bson.M{
		"$set": bson.M{
			"password_hash":  passwordHash,
			"refresh_tokens": bson.A{},
			"updated_at":     now,
		},
		"$unset": bson.M{"reset_code": "", "reset_expires": ""},
	}
	return r.consume(ctx, filter, update)
}

func (r *CredentialRepository) consume(ctx context.Context, filter, update bson.M) (*domain.Credential, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var c domain.Credential
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrInvalidOrExpiredCode
		}
		return nil, fmt.Errorf("consume code: %w", err)
	}
	return &c, nil
}

// PushRefreshToken appends with $slice so the cap holds even under
// concurrent logins.
func (r *CredentialRepository) PushRefreshToken(ctx context.Context, id string, rec domain.RefreshTokenRecord, keep int) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$push": bson.M{"refresh_tokens": bson.M{
		"$each":  bson.A{rec},
		"$slice": -keep,
	}}}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("push refresh token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *CredentialRepository) PullRefreshToken(ctx context.Context, id, token string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$pull": bson.M{"refresh_tokens": bson.M{"token": token}}}
	if _, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("pull refresh token: %w", err)
	}
	return nil
}

// EnsureIndexes creates the unique email index and the listing indexes.
func (r *CredentialRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
