package domain

import (
	"strings"
	"time"
)

// Identity is the verified caller behind a request.
type Identity struct {
	UserID    string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Role      string `json:"role"`
}

// BasicInfo returns the identity fields carried by the token verification.
func (i Identity) BasicInfo() BasicInfo {
	return BasicInfo{
		FirstName: i.FirstName,
		LastName:  i.LastName,
		Email:     i.Email,
		Phone:     i.Phone,
		Avatar:    i.Avatar,
	}
}

// UserBasic is the public identity of a credential returned by internal lookups.
type UserBasic struct {
	ID string `json:"id"`
	BasicInfo
	Role string `json:"role"`
}

// BasicInfo holds the identity fields denormalized into every profile.
//
// Merge precedence, highest first: explicit overrides, freshly pulled auth
// values, stored values. No merge ever replaces a non-empty field with an
// empty one.
type BasicInfo struct {
	FirstName string `json:"firstName" bson:"first_name"`
	LastName  string `json:"lastName" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
	Phone     string `json:"phone,omitempty" bson:"phone,omitempty"`
	Avatar    string `json:"avatar,omitempty" bson:"avatar,omitempty"`
}

// Normalize trims whitespace and lowercases the email.
func (b BasicInfo) Normalize() BasicInfo {
	return BasicInfo{
		FirstName: strings.TrimSpace(b.FirstName),
		LastName:  strings.TrimSpace(b.LastName),
		Email:     NormalizeEmail(b.Email),
		Phone:     strings.TrimSpace(b.Phone),
		Avatar:    strings.TrimSpace(b.Avatar),
	}
}

// Overlay returns b with every non-empty field of over applied on top.
func (b BasicInfo) Overlay(over BasicInfo) BasicInfo {
	return BasicInfo{
		FirstName: firstNonEmpty(over.FirstName, b.FirstName),
		LastName:  firstNonEmpty(over.LastName, b.LastName),
		Email:     firstNonEmpty(over.Email, b.Email),
		Phone:     firstNonEmpty(over.Phone, b.Phone),
		Avatar:    firstNonEmpty(over.Avatar, b.Avatar),
	}
}

// FillGaps returns b with only its empty fields taken from incoming.
func (b BasicInfo) FillGaps(incoming BasicInfo) BasicInfo {
	return incoming.Overlay(b)
}

// MergeOver is Overlay under the name used by push-style sync.
func (b BasicInfo) MergeOver(incoming BasicInfo) BasicInfo {
	return b.Overlay(incoming)
}

// HasName reports whether both name fields are populated.
func (b BasicInfo) HasName() bool {
	return b.FirstName != "" && b.LastName != ""
}

// Complete reports whether every field needed for display and mail is set.
func (b BasicInfo) Complete() bool {
	return b.HasName() && b.Email != ""
}

// FullName joins first and last name.
func (b BasicInfo) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

var bloodTypes = map[string]struct{}{
	"A+": {}, "A-": {}, "B+": {}, "B-": {}, "AB+": {}, "AB-": {}, "O+": {}, "O-": {},
}

// ValidBloodType reports whether t is a recognised ABO/Rh group. Empty is allowed.
func ValidBloodType(t string) bool {
	if t == "" {
		return true
	}
	_, ok := bloodTypes[t]
	return ok
}

// Measurement is a numeric value with its unit.
type Measurement struct {
	Value float64 `json:"value" bson:"value"`
	Unit  string  `json:"unit" bson:"unit"`
}

type Allergy struct {
	Allergen string `json:"allergen" bson:"allergen"`
	Reaction string `json:"reaction,omitempty" bson:"reaction,omitempty"`
	Severity string `json:"severity,omitempty" bson:"severity,omitempty"`
}

type Medication struct {
	Name      string     `json:"name" bson:"name"`
	Dosage    string     `json:"dosage,omitempty" bson:"dosage,omitempty"`
	Frequency string     `json:"frequency,omitempty" bson:"frequency,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty" bson:"start_date,omitempty"`
}

type EmergencyContact struct {
	Name         string `json:"name" bson:"name"`
	Relationship string `json:"relationship" bson:"relationship"`
	Phone        string `json:"phone" bson:"phone"`
}

type InsuranceInfo struct {
	Provider     string     `json:"provider" bson:"provider"`
	PolicyNumber string     `json:"policyNumber" bson:"policy_number"`
	ValidUntil   *time.Time `json:"validUntil,omitempty" bson:"valid_until,omitempty"`
}

type HistoryEntry struct {
	Condition     string     `json:"condition" bson:"condition"`
	DiagnosedDate *time.Time `json:"diagnosedDate,omitempty" bson:"diagnosed_date,omitempty"`
	Status        string     `json:"status,omitempty" bson:"status,omitempty"`
	Notes         string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// PatientProfile is the medical record of a patient credential.
type PatientProfile struct {
	ID                string            `json:"id" bson:"_id"`
	UserID            string            `json:"userId" bson:"user_id"`
	BasicInfo         `bson:",inline"`
	DateOfBirth       *time.Time        `json:"dateOfBirth,omitempty" bson:"date_of_birth,omitempty"`
	Gender            string            `json:"gender,omitempty" bson:"gender,omitempty"`
	Address           string            `json:"address,omitempty" bson:"address,omitempty"`
	BloodType         string            `json:"bloodType,omitempty" bson:"blood_type,omitempty"`
	Height            *Measurement      `json:"height,omitempty" bson:"height,omitempty"`
	Weight            *Measurement      `json:"weight,omitempty" bson:"weight,omitempty"`
	Allergies         []Allergy         `json:"allergies" bson:"allergies"`
	ChronicConditions []string          `json:"chronicConditions" bson:"chronic_conditions"`
	Medications       []Medication      `json:"medications" bson:"medications"`
	EmergencyContact  *EmergencyContact `json:"emergencyContact,omitempty" bson:"emergency_contact,omitempty"`
	Insurance         *InsuranceInfo    `json:"insuranceInfo,omitempty" bson:"insurance,omitempty"`
	MedicalHistory    []HistoryEntry    `json:"medicalHistory" bson:"medical_history"`
	CreatedAt         time.Time         `json:"createdAt" bson:"created_at"`
	UpdatedAt         time.Time         `json:"updatedAt" bson:"updated_at"`
}

// AvailabilitySlot is a weekly window in which a doctor takes appointments.
type AvailabilitySlot struct {
	Day       string `json:"day" bson:"day"`
	StartTime string `json:"startTime" bson:"start_time"`
	EndTime   string `json:"endTime" bson:"end_time"`
}

type Rating struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

// Defaults applied when a doctor profile is created without professional data.
const (
	DefaultSpecialty       = "General Medicine"
	DefaultQualification   = "MD"
	DefaultConsultationFee = 500
)

// DoctorProfile is the professional record of a doctor credential.
type DoctorProfile struct {
	ID              string             `json:"id" bson:"_id"`
	UserID          string             `json:"userId" bson:"user_id"`
	BasicInfo       `bson:",inline"`
	Specialty       string             `json:"specialty" bson:"specialty"`
	Qualification   string             `json:"qualification" bson:"qualification"`
	LicenseNumber   string             `json:"licenseNumber" bson:"license_number"`
	Experience      int                `json:"experience" bson:"experience"`
	Availability    []AvailabilitySlot `json:"availability" bson:"availability"`
	ConsultationFee float64            `json:"consultationFee" bson:"consultation_fee"`
	Department      string             `json:"department,omitempty" bson:"department,omitempty"`
	Bio             string             `json:"bio,omitempty" bson:"bio,omitempty"`
	Rating          Rating             `json:"rating" bson:"rating"`
	IsAvailable     bool               `json:"isAvailable" bson:"is_available"`
	CreatedAt       time.Time          `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updatedAt" bson:"updated_at"`
}

var weekdays = map[string]struct{}{
	"Monday": {}, "Tuesday": {}, "Wednesday": {}, "Thursday": {}, "Friday": {}, "Saturday": {}, "Sunday": {},
}

// ValidWeekday reports whether day is a capitalised English weekday name.
func ValidWeekday(day string) bool {
	_, ok := weekdays[day]
	return ok
}

// ProfileSummary is the compact view of a profile embedded in listings.
type ProfileSummary struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Specialty string `json:"specialty,omitempty"`
}

func (p *PatientProfile) Summary() *ProfileSummary {
	if p == nil {
		return nil
	}
	return &ProfileSummary{ID: p.ID, UserID: p.UserID, FirstName: p.FirstName, LastName: p.LastName, Email: p.Email, Phone: p.Phone}
}

func (d *DoctorProfile) Summary() *ProfileSummary {
	if d == nil {
		return nil
	}
	return &ProfileSummary{ID: d.ID, UserID: d.UserID, FirstName: d.FirstName, LastName: d.LastName, Email: d.Email, Phone: d.Phone, Specialty: d.Specialty}
}
