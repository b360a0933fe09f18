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
	collectionTestResults     = "test_results"
	collectionReferrals       = "referrals"
	collectionRecommendations = "test_recommendations"
	collectionAudit           = "audit_logs"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// TestResultRepository implements ports.TestResultRepository.
type TestResultRepository struct {
	col *mongo.Collection
}

func NewTestResultRepository(db *mongo.Database) *TestResultRepository {
	return &TestResultRepository{col: db.Collection(collectionTestResults)}
}

func (r *TestResultRepository) Create(ctx context.Context, t *domain.TestResult) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("insert test result: %w", err)
	}
	return nil
}

func (r *TestResultRepository) ListByPatient(ctx context.Context, patientID string) ([]*domain.TestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "test_date", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"patient_id": patientID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list test results: %w", err)
	}
	var out []*domain.TestResult
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode test results: %w", err)
	}
	return out, nil
}

func (r *TestResultRepository) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{"patient_id": patientID})
}

func (r *TestResultRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return r.col.CountDocuments(ctx, bson.M{})
}

func (r *TestResultRepository) MarkNotified(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"notification_sent": true}})
	if err != nil {
		return fmt.Errorf("mark test result notified: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrTestResultNotFound
	}
	return nil
}

func (r *TestResultRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "test_date", Value: -1}},
	})
	return err
}

// ReferralRepository implements ports.ReferralRepository.
type ReferralRepository struct {
	col *mongo.Collection
}

func NewReferralRepository(db *mongo.Database) *ReferralRepository {
	return &ReferralRepository{col: db.Collection(collectionReferrals)}
}

func (r *ReferralRepository) Create(ctx context.Context, ref *domain.Referral) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, ref); err != nil {
		return fmt.Errorf("insert referral: %w", err)
	}
	return nil
}

func (r *ReferralRepository) FindByID(ctx context.Context, id string) (*domain.Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var ref domain.Referral
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&ref); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrReferralNotFound
		}
		return nil, fmt.Errorf("find referral: %w", err)
	}
	return &ref, nil
}

func (r *ReferralRepository) Update(ctx context.Context, ref *domain.Referral) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": ref.ID}, ref)
	if err != nil {
		return fmt.Errorf("replace referral: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrReferralNotFound
	}
	return nil
}

func (r *ReferralRepository) List(ctx context.Context, f ports.ReferralFilter) ([]*domain.Referral, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, referralFilter(f), options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	var out []*domain.Referral
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode referrals: %w", err)
	}
	return out, nil
}

func (r *ReferralRepository) CountPendingForDoctor(ctx context.Context, doctorID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, referralFilter(ports.ReferralFilter{
		ReferredDoctorID: doctorID,
		Status:           string(domain.ReferralPending),
	}))
}

func (r *ReferralRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "referring_doctor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "referred_doctor_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func referralFilter(f ports.ReferralFilter) bson.M {
	filter := bson.M{}
	if f.ReferringDoctorID != "" {
		filter["referring_doctor_id"] = f.ReferringDoctorID
	}
	if f.ReferredDoctorID != "" {
		filter["referred_doctor_id"] = f.ReferredDoctorID
	}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	return filter
}

// RecommendationRepository implements ports.RecommendationRepository.
type RecommendationRepository struct {
	col *mongo.Collection
}

func NewRecommendationRepository(db *mongo.Database) *RecommendationRepository {
	return &RecommendationRepository{col: db.Collection(collectionRecommendations)}
}

func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.TestRecommendation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}
	return nil
}

func (r *RecommendationRepository) FindByID(ctx context.Context, id string) (*domain.TestRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var rec domain.TestRecommendation
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRecommendationNotFound
		}
		return nil, fmt.Errorf("find recommendation: %w", err)
	}
	return &rec, nil
}

func (r *RecommendationRepository) Update(ctx context.Context, rec *domain.TestRecommendation) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": rec.ID}, rec)
	if err != nil {
		return fmt.Errorf("replace recommendation: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRecommendationNotFound
	}
	return nil
}

func (r *RecommendationRepository) List(ctx context.Context, f ports.RecommendationFilter) ([]*domain.TestRecommendation, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{}
	if f.DoctorID != "" {
		filter["doctor_id"] = f.DoctorID
	}
	if f.PatientID != "" {
		filter["patient_id"] = f.PatientID
	}
	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	var out []*domain.TestRecommendation
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode recommendations: %w", err)
	}
	return out, nil
}

func (r *RecommendationRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "doctor_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// AuditRepository implements ports.AuditRecorder. Entries are append-only.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

func (r *AuditRepository) Record(ctx context.Context, e *domain.AuditEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "at", Value: -1}}},
		{Keys: bson.D{{Key: "resource", Value: 1}, {Key: "resource_id", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
