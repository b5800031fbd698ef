package services

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWhatsAppServiceSend(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody []byte

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"messages":[{"id":"wamid.1"}]}`))
	}))
	defer srv.Close()

	t.Setenv("WHATSAPP_API_BASE_URL", srv.URL)
	service := NewWhatsAppService()

	trigger := testTrigger()
	if err := service.SendText(trigger, "+1555", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/phone-1/messages" {
		t.Errorf("path = %q, want the trigger's phone id endpoint", gotPath)
	}
	if gotAuth != "Bearer token-1" {
		t.Errorf("authorization = %q, want the trigger's bearer token", gotAuth)
	}

	var sent SendMessageRequest
	if err := json.Unmarshal(gotBody, &sent); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if sent.MessagingProduct != "whatsapp" || sent.To != "+1555" || sent.Text.Body != "hello" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestWhatsAppServiceSendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad token"}}`))
	}))
	defer srv.Close()

	t.Setenv("WHATSAPP_API_BASE_URL", srv.URL)
	service := NewWhatsAppService()

	if err := service.SendText(testTrigger(), "+1555", "hello"); err == nil {
		t.Error("non-200 response should surface as an error")
	}
}
