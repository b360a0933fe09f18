package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

const (
	collectionPatients = "patients"
	collectionDoctors  = "doctors"
)

var profileSort = bson.D{{Key: "last_name", Value: 1}, {Key: "first_name", Value: 1}}

// profileCollection holds the operations shared by the patient and doctor
// collections. Both key documents by a uuid _id and a unique user_id.
type profileCollection[T any] struct {
	col      *mongo.Collection
	notFound error
}

func (c profileCollection[T]) create(ctx context.Context, doc *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := c.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateProfile
		}
		return fmt.Errorf("insert %s: %w", c.col.Name(), err)
	}
	return nil
}

func (c profileCollection[T]) findOne(ctx context.Context, filter bson.M) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc T
	if err := c.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, c.notFound
		}
		return nil, fmt.Errorf("find %s: %w", c.col.Name(), err)
	}
	return &doc, nil
}

func (c profileCollection[T]) findMany(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*T, error) {
	cur, err := c.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.col.Name(), err)
	}
	var out []*T
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", c.col.Name(), err)
	}
	return out, nil
}

func (c profileCollection[T]) findByIDs(ctx context.Context, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return c.findMany(ctx, bson.M{"_id": bson.M{"$in": ids}}, nil)
}

func (c profileCollection[T]) replace(ctx context.Context, id string, doc *T) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := c.col.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return fmt.Errorf("replace %s: %w", c.col.Name(), err)
	}
	if res.MatchedCount == 0 {
		return c.notFound
	}
	return nil
}

func (c profileCollection[T]) list(ctx context.Context, filter bson.M, page, limit int) ([]*T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	total, err := c.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", c.col.Name(), err)
	}
	out, err := c.findMany(ctx, filter, pageOptions(page, limit, profileSort))
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (c profileCollection[T]) count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return c.col.CountDocuments(ctx, bson.M{})
}

func (c profileCollection[T]) ensureIndexes(ctx context.Context, extra ...mongo.IndexModel) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := append([]mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}},
	}, extra...)
	_, err := c.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func profileFilter(f ports.ProfileFilter) bson.M {
	filter := bson.M{}
	if f.IDs != nil {
		filter["_id"] = bson.M{"$in": f.IDs}
	}
	if f.Search != "" {
		filter["$or"] = searchClause(f.Search, "first_name", "last_name", "email")
	}
	return filter
}

// PatientRepository implements ports.PatientRepository.
type PatientRepository struct {
	c profileCollection[domain.PatientProfile]
}

func NewPatientRepository(db *mongo.Database) *PatientRepository {
	return &PatientRepository{c: profileCollection[domain.PatientProfile]{
		col:      db.Collection(collectionPatients),
		notFound: domain.ErrPatientNotFound,
	}}
}

func (r *PatientRepository) Create(ctx context.Context, p *domain.PatientProfile) error {
	return r.c.create(ctx, p)
}

func (r *PatientRepository) FindByID(ctx context.Context, id string) (*domain.PatientProfile, error) {
	return r.c.findOne(ctx, bson.M{"_id": id})
}

func (r *PatientRepository) FindByUserID(ctx context.Context, userID string) (*domain.PatientProfile, error) {
	return r.c.findOne(ctx, bson.M{"user_id": userID})
}

func (r *PatientRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.PatientProfile, error) {
	return r.c.findByIDs(ctx, ids)
}

func (r *PatientRepository) Update(ctx context.Context, p *domain.PatientProfile) error {
	return r.c.replace(ctx, p.ID, p)
}

func (r *PatientRepository) List(ctx context.Context, f ports.ProfileFilter) ([]*domain.PatientProfile, int64, error) {
	return r.c.list(ctx, profileFilter(f), f.Page, f.Limit)
}

func (r *PatientRepository) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}

func (r *PatientRepository) EnsureIndexes(ctx context.Context) error {
	return r.c.ensureIndexes(ctx)
}

// DoctorRepository implements ports.DoctorRepository.
type DoctorRepository struct {
	c profileCollection[domain.DoctorProfile]
}

func NewDoctorRepository(db *mongo.Database) *DoctorRepository {
	return &DoctorRepository{c: profileCollection[domain.DoctorProfile]{
		col:      db.Collection(collectionDoctors),
		notFound: domain.ErrDoctorNotFound,
	}}
}

func (r *DoctorRepository) Create(ctx context.Context, d *domain.DoctorProfile) error {
	return r.c.create(ctx, d)
}

func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*domain.DoctorProfile, error) {
	return r.c.findOne(ctx, bson.M{"_id": id})
}

func (r *DoctorRepository) FindByUserID(ctx context.Context, userID string) (*domain.DoctorProfile, error) {
	return r.c.findOne(ctx, bson.M{"user_id": userID})
}

func (r *DoctorRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.DoctorProfile, error) {
	return r.c.findByIDs(ctx, ids)
}

func (r *DoctorRepository) Update(ctx context.Context, d *domain.DoctorProfile) error {
	return r.c.replace(ctx, d.ID, d)
}

func (r *DoctorRepository) List(ctx context.Context, f ports.ProfileFilter) ([]*domain.DoctorProfile, int64, error) {
	filter := profileFilter(f)
	if f.Specialty != "" {
		filter["specialty"] = primitiveRegex(f.Specialty)
	}
	if f.OnlyAvailable {
		filter["is_available"] = true
	}
	return r.c.list(ctx, filter, f.Page, f.Limit)
}

func (r *DoctorRepository) Count(ctx context.Context) (int64, error) {
	return r.c.count(ctx)
}

func (r *DoctorRepository) EnsureIndexes(ctx context.Context) error {
	return r.c.ensureIndexes(ctx,
		mongo.IndexModel{Keys: bson.D{{Key: "specialty", Value: 1}, {Key: "is_available", Value: 1}}},
	)
}
