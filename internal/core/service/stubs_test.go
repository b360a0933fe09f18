package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
	"github.com/carelink/healthcare-portal/internal/pkg/password"
)

var testHasher = password.NewHasher(password.Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16})

// ── credentials ───────────────────────────────────────────────────────────────

type stubCredentialRepo struct {
	mu    sync.Mutex
	users map[string]*domain.Credential // by id
}

func newStubCredentialRepo() *stubCredentialRepo {
	return &stubCredentialRepo{users: make(map[string]*domain.Credential)}
}

func cloneCredential(c *domain.Credential) *domain.Credential {
	if c == nil {
		return nil
	}
	clone := *c
	clone.RefreshTokens = append([]domain.RefreshTokenRecord(nil), c.RefreshTokens...)
	return &clone
}

func (r *stubCredentialRepo) byEmail(email string) *domain.Credential {
	for _, u := range r.users {
		if u.Email == email {
			return u
		}
	}
	return nil
}

func (r *stubCredentialRepo) Create(_ context.Context, c *domain.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byEmail(c.Email) != nil {
		return domain.ErrDuplicateEmail
	}
	r.users[c.ID] = cloneCredential(c)
	return nil
}

func (r *stubCredentialRepo) FindByID(_ context.Context, id string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		return cloneCredential(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialRepo) FindByEmail(_ context.Context, email string) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.byEmail(email); u != nil {
		return cloneCredential(u), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubCredentialRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Credential
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out = append(out, cloneCredential(u))
		}
	}
	return out, nil
}

func (r *stubCredentialRepo) SetVerificationCode(_ context.Context, id, code string, expires, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	if u.Verified {
		return domain.ErrAlreadyVerified
	}
	u.VerificationCode, u.VerificationExpires, u.UpdatedAt = code, expires, now
	return nil
}

func (r *stubCredentialRepo) SetResetCode(_ context.Context, id, code string, expires, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ResetCode, u.ResetExpires, u.UpdatedAt = code, expires, now
	return nil
}

func (r *stubCredentialRepo) UpdateAccount(_ context.Context, id string, a ports.AccountUpdate, now time.Time) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if a.Email != "" {
		if other := r.byEmail(a.Email); other != nil && other.ID != id {
			return nil, domain.ErrDuplicateEmail
		}
		u.Email = domain.NormalizeEmail(a.Email)
	}
	if a.FirstName != "" {
		u.FirstName = a.FirstName
	}
	if a.LastName != "" {
		u.LastName = a.LastName
	}
	if a.Phone != "" {
		u.Phone = a.Phone
	}
	if a.Role != "" {
		u.Role = a.Role
	}
	u.UpdatedAt = now
	return cloneCredential(u), nil
}

func (r *stubCredentialRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

func (r *stubCredentialRepo) List(_ context.Context, f ports.CredentialFilter) ([]*domain.Credential, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Credential
	for _, u := range r.users {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.Verified != nil && u.Verified != *f.Verified {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(u.FirstName+" "+u.LastName+" "+u.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, cloneCredential(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, int64(len(out)), nil
}

func (r *stubCredentialRepo) CountByRole(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, u := range r.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (r *stubCredentialRepo) ConsumeVerificationCode(_ context.Context, email, code string, now time.Time) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil || u.Verified || u.VerificationCode == "" || u.VerificationCode != code || !now.Before(u.VerificationExpires) {
		return nil, domain.ErrInvalidOrExpiredCode
	}
	u.Verified = true
	u.VerificationCode = ""
	u.VerificationExpires = time.Time{}
	return cloneCredential(u), nil
}

func (r *stubCredentialRepo) ConsumeResetCode(_ context.Context, email, code, hash string, now time.Time) (*domain.Credential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.byEmail(email)
	if u == nil || u.ResetCode == "" || u.ResetCode != code || !now.Before(u.ResetExpires) {
		return nil, domain.ErrInvalidOrExpiredCode
	}
	u.PasswordHash = hash
	u.ResetCode = ""
	u.ResetExpires = time.Time{}
	u.RefreshTokens = nil
	return cloneCredential(u), nil
}

func (r *stubCredentialRepo) PushRefreshToken(_ context.Context, id string, rec domain.RefreshTokenRecord, keep int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.RefreshTokens = append(u.RefreshTokens, rec)
	if over := len(u.RefreshTokens) - keep; over > 0 {
		u.RefreshTokens = append([]domain.RefreshTokenRecord(nil), u.RefreshTokens[over:]...)
	}
	return nil
}

func (r *stubCredentialRepo) PullRefreshToken(_ context.Context, id, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.RemoveRefreshToken(token)
	}
	return nil
}

// ── notifier ─────────────────────────────────────────────────────────────────

type sentMail struct {
	kind string
	to   string
	body string
}

type stubNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *stubNotifier) record(kind, to, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentMail{kind: kind, to: to, body: body})
	return nil
}

func (n *stubNotifier) byKind(kind string) []sentMail {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentMail
	for _, m := range n.sent {
		if m.kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func (n *stubNotifier) lastCode(to string) string {
	mails := n.byKind("verification")
	for i := len(mails) - 1; i >= 0; i-- {
		if mails[i].to == to {
			return mails[i].body
		}
	}
	return ""
}

func (n *stubNotifier) SendVerificationCode(_ context.Context, to, _, code string) error {
	return n.record("verification", to, code)
}

func (n *stubNotifier) SendPasswordReset(_ context.Context, to, _, code string) error {
	return n.record("reset", to, code)
}

func (n *stubNotifier) SendAppointmentConfirmation(_ context.Context, a ports.AppointmentNotice) error {
	return n.record("confirmation", a.PatientEmail, a.StartTime)
}

func (n *stubNotifier) SendAppointmentReminder(_ context.Context, a ports.AppointmentNotice) error {
	return n.record("reminder", a.PatientEmail, a.StartTime)
}

func (n *stubNotifier) SendDoctorDigest(_ context.Context, to, _ string, _ time.Time, entries []ports.DigestEntry) error {
	return n.record("digest", to, strings.Repeat("x", len(entries)))
}

func (n *stubNotifier) SendTestResultReady(_ context.Context, to, _, testName string) error {
	return n.record("test_result", to, testName)
}

func (n *stubNotifier) SendReferral(_ context.Context, to, _, _, reason, _ string) error {
	return n.record("referral", to, reason)
}

func (n *stubNotifier) SendTestRecommendation(_ context.Context, to, _, _ string, tests []string) error {
	return n.record("recommendation", to, strings.Join(tests, ","))
}

// ── profile sync ─────────────────────────────────────────────────────────────

type stubSyncer struct {
	mu    sync.Mutex
	calls []ports.SyncProfileInput
	err   error
}

func (s *stubSyncer) SyncProfile(_ context.Context, in ports.SyncProfileInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, in)
	return s.err
}

// ── medical repositories ────────────────────────────────────────────────────

type stubPatientRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.PatientProfile // by id
	creates  int
}

func newStubPatientRepo() *stubPatientRepo {
	return &stubPatientRepo{profiles: make(map[string]*domain.PatientProfile)}
}

func clonePatient(p *domain.PatientProfile) *domain.PatientProfile {
	c := *p
	return &c
}

func (r *stubPatientRepo) Create(_ context.Context, p *domain.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.UserID == p.UserID {
			return domain.ErrDuplicateProfile
		}
	}
	r.creates++
	r.profiles[p.ID] = clonePatient(p)
	return nil
}

func (r *stubPatientRepo) FindByID(_ context.Context, id string) (*domain.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		return clonePatient(p), nil
	}
	return nil, domain.ErrPatientNotFound
}

func (r *stubPatientRepo) FindByUserID(_ context.Context, userID string) (*domain.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			return clonePatient(p), nil
		}
	}
	return nil, domain.ErrPatientNotFound
}

func (r *stubPatientRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.PatientProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PatientProfile
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			out = append(out, clonePatient(p))
		}
	}
	return out, nil
}

func (r *stubPatientRepo) Update(_ context.Context, p *domain.PatientProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[p.ID]; !ok {
		return domain.ErrPatientNotFound
	}
	r.profiles[p.ID] = clonePatient(p)
	return nil
}

func (r *stubPatientRepo) List(_ context.Context, f ports.ProfileFilter) ([]*domain.PatientProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	allowed := map[string]bool{}
	for _, id := range f.IDs {
		allowed[id] = true
	}
	var out []*domain.PatientProfile
	for _, p := range r.profiles {
		if f.IDs != nil && !allowed[p.ID] {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.FullName()+" "+p.Email), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, clonePatient(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubPatientRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.profiles)), nil
}

type stubDoctorRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.DoctorProfile
}

func newStubDoctorRepo() *stubDoctorRepo {
	return &stubDoctorRepo{profiles: make(map[string]*domain.DoctorProfile)}
}

func cloneDoctor(d *domain.DoctorProfile) *domain.DoctorProfile {
	c := *d
	return &c
}

func (r *stubDoctorRepo) Create(_ context.Context, d *domain.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.profiles {
		if existing.UserID == d.UserID {
			return domain.ErrDuplicateProfile
		}
	}
	r.profiles[d.ID] = cloneDoctor(d)
	return nil
}

func (r *stubDoctorRepo) FindByID(_ context.Context, id string) (*domain.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.profiles[id]; ok {
		return cloneDoctor(d), nil
	}
	return nil, domain.ErrDoctorNotFound
}

func (r *stubDoctorRepo) FindByUserID(_ context.Context, userID string) (*domain.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.profiles {
		if d.UserID == userID {
			return cloneDoctor(d), nil
		}
	}
	return nil, domain.ErrDoctorNotFound
}

func (r *stubDoctorRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.DoctorProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DoctorProfile
	for _, id := range ids {
		if d, ok := r.profiles[id]; ok {
			out = append(out, cloneDoctor(d))
		}
	}
	return out, nil
}

func (r *stubDoctorRepo) Update(_ context.Context, d *domain.DoctorProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[d.ID]; !ok {
		return domain.ErrDoctorNotFound
	}
	r.profiles[d.ID] = cloneDoctor(d)
	return nil
}

func (r *stubDoctorRepo) List(_ context.Context, f ports.ProfileFilter) ([]*domain.DoctorProfile, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.DoctorProfile
	for _, d := range r.profiles {
		if f.OnlyAvailable && !d.IsAvailable {
			continue
		}
		if f.Specialty != "" && d.Specialty != f.Specialty {
			continue
		}
		out = append(out, cloneDoctor(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubDoctorRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.profiles)), nil
}

// stubDirectory serves identity pulls, optionally backed by a credential repo.
type stubDirectory struct {
	mu    sync.Mutex
	users map[string]domain.UserBasic
	repo  *stubCredentialRepo
	err   error
	calls int
}

func (d *stubDirectory) FetchBasicInfo(ctx context.Context, ids []string) ([]domain.UserBasic, error) {
	d.mu.Lock()
	d.calls++
	err := d.err
	d.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if d.repo != nil {
		creds, _ := d.repo.FindByIDs(ctx, ids)
		out := make([]domain.UserBasic, 0, len(creds))
		for _, c := range creds {
			out = append(out, domain.UserBasic{ID: c.ID, BasicInfo: c.BasicInfo(), Role: c.Role})
		}
		return out, nil
	}
	var out []domain.UserBasic
	for _, id := range ids {
		if u, ok := d.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *stubDirectory) UserStats(_ context.Context) (*ports.UserStats, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &ports.UserStats{Total: int64(len(d.users))}, nil
}

type stubAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[string]*domain.Appointment
	// slotChecked runs after every slot check, before the caller inserts.
	slotChecked func()
}

func newStubAppointmentRepo() *stubAppointmentRepo {
	return &stubAppointmentRepo{appointments: make(map[string]*domain.Appointment)}
}

func cloneAppointment(a *domain.Appointment) *domain.Appointment {
	c := *a
	return &c
}

func (r *stubAppointmentRepo) Create(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appointments[a.ID] = cloneAppointment(a)
	return nil
}

func (r *stubAppointmentRepo) FindByID(_ context.Context, id string) (*domain.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[id]; ok {
		return cloneAppointment(a), nil
	}
	return nil, domain.ErrAppointmentNotFound
}

func (r *stubAppointmentRepo) Update(_ context.Context, a *domain.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return domain.ErrAppointmentNotFound
	}
	r.appointments[a.ID] = cloneAppointment(a)
	return nil
}

func matchAppointment(a *domain.Appointment, f ports.AppointmentFilter) bool {
	if f.PatientID != "" && a.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && a.DoctorID != f.DoctorID {
		return false
	}
	if len(f.Statuses) > 0 {
		ok := false
		for _, s := range f.Statuses {
			if a.Status == s {
				ok = true
			}
		}
		if !ok {
			return false
		}
	}
	if !f.From.IsZero() && a.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.Date.Before(f.To) {
		return false
	}
	if f.ReminderSent != nil && a.ReminderSent != *f.ReminderSent {
		return false
	}
	return true
}

func (r *stubAppointmentRepo) List(_ context.Context, f ports.AppointmentFilter) ([]*domain.Appointment, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Appointment
	for _, a := range r.appointments {
		if matchAppointment(a, f) {
			out = append(out, cloneAppointment(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].StartTime < out[j].StartTime
	})
	return out, int64(len(out)), nil
}

func (r *stubAppointmentRepo) Count(ctx context.Context, f ports.AppointmentFilter) (int64, error) {
	_, n, err := r.List(ctx, f)
	return n, err
}

func (r *stubAppointmentRepo) SlotTaken(_ context.Context, doctorID string, date time.Time, start string) (bool, error) {
	r.mu.Lock()
	taken := false
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.Date.Equal(date) && a.StartTime == start &&
			(a.Status == domain.AppointmentScheduled || a.Status == domain.AppointmentConfirmed) {
			taken = true
		}
	}
	hook := r.slotChecked
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return taken, nil
}

func (r *stubAppointmentRepo) MarkReminderSent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.appointments[id]; ok {
		a.ReminderSent = true
		return nil
	}
	return domain.ErrAppointmentNotFound
}

func (r *stubAppointmentRepo) PatientIDsForDoctor(_ context.Context, doctorID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && !seen[a.PatientID] {
			seen[a.PatientID] = true
			out = append(out, a.PatientID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (r *stubAppointmentRepo) HaveMet(_ context.Context, doctorID, patientID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && a.PatientID == patientID {
			return true, nil
		}
	}
	return false, nil
}

type stubTestResultRepo struct {
	mu      sync.Mutex
	results []*domain.TestResult
}

func (r *stubTestResultRepo) Create(_ context.Context, t *domain.TestResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *t
	r.results = append(r.results, &c)
	return nil
}

func (r *stubTestResultRepo) ListByPatient(_ context.Context, patientID string) ([]*domain.TestResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TestResult
	for _, t := range r.results {
		if t.PatientID == patientID {
			c := *t
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *stubTestResultRepo) CountByPatient(ctx context.Context, patientID string) (int64, error) {
	list, _ := r.ListByPatient(ctx, patientID)
	return int64(len(list)), nil
}

func (r *stubTestResultRepo) Count(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.results)), nil
}

func (r *stubTestResultRepo) MarkNotified(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.results {
		if t.ID == id {
			t.NotificationSent = true
		}
	}
	return nil
}

type stubReferralRepo struct {
	mu        sync.Mutex
	referrals map[string]*domain.Referral
}

func newStubReferralRepo() *stubReferralRepo {
	return &stubReferralRepo{referrals: make(map[string]*domain.Referral)}
}

func (r *stubReferralRepo) Create(_ context.Context, ref *domain.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *ref
	r.referrals[ref.ID] = &c
	return nil
}

func (r *stubReferralRepo) FindByID(_ context.Context, id string) (*domain.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok {
		c := *ref
		return &c, nil
	}
	return nil, domain.ErrReferralNotFound
}

func (r *stubReferralRepo) Update(_ context.Context, ref *domain.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *ref
	r.referrals[ref.ID] = &c
	return nil
}

func (r *stubReferralRepo) List(_ context.Context, f ports.ReferralFilter) ([]*domain.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Referral
	for _, ref := range r.referrals {
		if f.ReferringDoctorID != "" && ref.ReferringDoctorID != f.ReferringDoctorID {
			continue
		}
		if f.ReferredDoctorID != "" && ref.ReferredDoctorID != f.ReferredDoctorID {
			continue
		}
		if f.PatientID != "" && ref.PatientID != f.PatientID {
			continue
		}
		if f.Status != "" && string(ref.Status) != f.Status {
			continue
		}
		c := *ref
		out = append(out, &c)
	}
	return out, nil
}

func (r *stubReferralRepo) CountPendingForDoctor(ctx context.Context, doctorID string) (int64, error) {
	list, _ := r.List(ctx, ports.ReferralFilter{ReferredDoctorID: doctorID, Status: string(domain.ReferralPending)})
	return int64(len(list)), nil
}

type stubRecommendationRepo struct {
	mu    sync.Mutex
	items map[string]*domain.TestRecommendation
}

func newStubRecommendationRepo() *stubRecommendationRepo {
	return &stubRecommendationRepo{items: make(map[string]*domain.TestRecommendation)}
}

func cloneRecommendation(r *domain.TestRecommendation) *domain.TestRecommendation {
	c := *r
	c.Tests = append([]domain.RecommendedTest(nil), r.Tests...)
	return &c
}

func (r *stubRecommendationRepo) Create(_ context.Context, rec *domain.TestRecommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.ID] = cloneRecommendation(rec)
	return nil
}

func (r *stubRecommendationRepo) FindByID(_ context.Context, id string) (*domain.TestRecommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.items[id]; ok {
		return cloneRecommendation(rec), nil
	}
	return nil, domain.ErrRecommendationNotFound
}

func (r *stubRecommendationRepo) Update(_ context.Context, rec *domain.TestRecommendation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rec.ID] = cloneRecommendation(rec)
	return nil
}

func (r *stubRecommendationRepo) List(_ context.Context, f ports.RecommendationFilter) ([]*domain.TestRecommendation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.TestRecommendation
	for _, rec := range r.items {
		if f.DoctorID != "" && rec.DoctorID != f.DoctorID {
			continue
		}
		if f.PatientID != "" && rec.PatientID != f.PatientID {
			continue
		}
		out = append(out, cloneRecommendation(rec))
	}
	return out, nil
}
