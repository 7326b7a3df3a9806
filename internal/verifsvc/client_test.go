package verifsvc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSubmitDecodesDecisionAndWarnings(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/verifications" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "key-1" {
			t.Errorf("missing api key header")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"decision":"reject","warning":[{"code":"FACE_MISMATCH","detail":"faces differ"},{"code":"IMAGE_TOO_BLURRY"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", "profile-1")
	outcome, err := client.Submit(context.Background(), "front", "back", "selfie")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if outcome.Decision != DecisionReject {
		t.Fatalf("expected reject, got %s", outcome.Decision)
	}
	if len(outcome.Warnings) != 2 || outcome.Warnings[0].Code != "FACE_MISMATCH" || outcome.Warnings[0].Detail != "faces differ" {
		t.Fatalf("warnings not passed through verbatim: %+v", outcome.Warnings)
	}
	if got["document"] != "front" || got["document_back"] != "back" || got["face"] != "selfie" || got["profile"] != "profile-1" {
		t.Fatalf("unexpected request payload: %v", got)
	}
}

func TestSubmitAcceptDecision(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"decision":"accept","warning":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", "profile-1")
	outcome, err := client.Submit(context.Background(), "f", "b", "s")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if outcome.Decision != DecisionAccept || len(outcome.Warnings) != 0 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestSubmitServiceRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"document unreadable"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", "profile-1")
	_, err := client.Submit(context.Background(), "f", "b", "s")

	var svcErr *Error
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if svcErr.Kind != KindServiceRejected {
		t.Fatalf("expected service rejected, got %s", svcErr.Kind)
	}
	if svcErr.Status != http.StatusUnprocessableEntity || svcErr.Message != "document unreadable" {
		t.Fatalf("expected status and message preserved, got %+v", svcErr)
	}
}

func TestSubmitMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", "profile-1")
	_, err := client.Submit(context.Background(), "f", "b", "s")

	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != KindMalformed {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestSubmitUnknownDecisionIsMalformed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"decision":"maybe","warning":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "key-1", "profile-1")
	_, err := client.Submit(context.Background(), "f", "b", "s")

	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != KindMalformed {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestSubmitTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, "key-1", "profile-1")
	_, err := client.Submit(context.Background(), "f", "b", "s")

	var svcErr *Error
	if !errors.As(err, &svcErr) || svcErr.Kind != KindTransport {
		t.Fatalf("expected transport error, got %v", err)
	}
}
