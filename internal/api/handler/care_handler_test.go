package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/carelink/healthcare-portal/internal/core/domain"
	"github.com/carelink/healthcare-portal/internal/core/ports"
)

// stubCareService overrides the methods a test needs; the embedded nil
// interface panics on anything else.
type stubCareService struct {
	ports.CareService
	recordFn    func(ctx context.Context, doctor domain.Identity, in ports.TestResultInput) (*domain.TestResult, error)
	recommendFn func(ctx context.Context, doctor domain.Identity, in ports.RecommendationInput) (*domain.TestRecommendation, error)
	testFn      func(ctx context.Context, caller domain.Identity, recID, testID, status string) (*domain.TestRecommendation, error)
}

func (s *stubCareService) RecordTestResult(ctx context.Context, doctor domain.Identity, in ports.TestResultInput) (*domain.TestResult, error) {
	return s.recordFn(ctx, doctor, in)
}

func (s *stubCareService) CreateRecommendation(ctx context.Context, doctor domain.Identity, in ports.RecommendationInput) (*domain.TestRecommendation, error) {
	return s.recommendFn(ctx, doctor, in)
}

func (s *stubCareService) UpdateRecommendedTest(ctx context.Context, caller domain.Identity, recID, testID, status string) (*domain.TestRecommendation, error) {
	return s.testFn(ctx, caller, recID, testID, status)
}

func TestCareHandler_RecordTestResult(t *testing.T) {
	e := newTestEcho()
	stub := &stubCareService{
		recordFn: func(_ context.Context, doctor domain.Identity, in ports.TestResultInput) (*domain.TestResult, error) {
			if doctor.UserID != "u-doc" || in.PatientID != "p-1" || in.TestDate.IsZero() {
				t.Fatalf("unexpected input %+v", in)
			}
			return &domain.TestResult{ID: "tr-1"}, nil
		},
	}
	h := NewCareHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/doctors/test-results",
		`{"patientId":"p-1","testType":"blood","testName":"CBC","testDate":"2026-11-01","results":"normal"}`)
	c, rec := authedContext(e, req, doctorIdentity)
	if err := h.RecordTestResult(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got, _ := c.Get("audit_resource_id").(string); got != "tr-1" {
		t.Fatalf("audit resource = %q", got)
	}
}

func TestCareHandler_RecordTestResult_NotTreating(t *testing.T) {
	e := newTestEcho()
	stub := &stubCareService{
		recordFn: func(context.Context, domain.Identity, ports.TestResultInput) (*domain.TestResult, error) {
			return nil, domain.ErrForbidden
		},
	}
	h := NewCareHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/doctors/test-results",
		`{"patientId":"p-9","testType":"blood","testName":"CBC","results":"normal"}`)
	c, _ := authedContext(e, req, doctorIdentity)
	if err := h.RecordTestResult(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestCareHandler_CreateRecommendation_NeedsTests(t *testing.T) {
	e := newTestEcho()
	h := NewCareHandler(&stubCareService{})

	req := jsonRequest(http.MethodPost, "/api/test-recommendations", `{"appointmentId":"a-1","tests":[]}`)
	c, _ := authedContext(e, req, doctorIdentity)

	var ve *domain.ValidationError
	if err := h.CreateRecommendation(c); !errors.As(err, &ve) || ve.Fields["tests"] == "" {
		t.Fatalf("expected tests validation error, got %v", err)
	}
}

func TestCareHandler_CreateRecommendation(t *testing.T) {
	e := newTestEcho()
	stub := &stubCareService{
		recommendFn: func(_ context.Context, _ domain.Identity, in ports.RecommendationInput) (*domain.TestRecommendation, error) {
			if len(in.Tests) != 2 || in.Tests[1].Urgency != "stat" {
				t.Fatalf("unexpected tests %+v", in.Tests)
			}
			return &domain.TestRecommendation{ID: "r-1"}, nil
		},
	}
	h := NewCareHandler(stub)

	req := jsonRequest(http.MethodPost, "/api/test-recommendations", `{
		"appointmentId": "a-1",
		"tests": [
			{"testName": "Lipid panel", "testType": "blood"},
			{"testName": "ECG", "urgency": "stat"}
		]
	}`)
	c, rec := authedContext(e, req, doctorIdentity)
	if err := h.CreateRecommendation(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestCareHandler_UpdateTestStatus(t *testing.T) {
	e := newTestEcho()
	stub := &stubCareService{
		testFn: func(_ context.Context, caller domain.Identity, recID, testID, status string) (*domain.TestRecommendation, error) {
			if caller.Role != domain.RolePatient || recID != "r-1" || testID != "t-2" || status != "scheduled" {
				t.Fatalf("unexpected args %s %s %s %s", caller.Role, recID, testID, status)
			}
			return &domain.TestRecommendation{ID: recID}, nil
		},
	}
	h := NewCareHandler(stub)

	req := jsonRequest(http.MethodPut, "/api/test-recommendations/r-1/test-status", `{"testId":"t-2","status":"scheduled"}`)
	c, _ := authedContext(e, req, patientIdentity)
	c.SetParamNames("id")
	c.SetParamValues("r-1")
	if err := h.UpdateTestStatus(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}
