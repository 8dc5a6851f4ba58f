package gatewayclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePaymentIntent_SendsAuthAndPayload(t *testing.T) {
	var gotAuth string
	var gotReq CreateIntentRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment-intents" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		json.NewEncoder(w).Encode(Intent{ID: "pi_abc", Status: "requires_payment", Amount: gotReq.Amount, Currency: gotReq.Currency})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	intent, err := client.CreatePaymentIntent(context.Background(), CreateIntentRequest{
		Amount:   5000,
		Currency: "USD",
		Customer: Customer{Name: "Jordan Doe", Email: "jordan@example.com"},
		Metadata: map[string]string{"donation_id": "d1"},
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if intent.ID != "pi_abc" {
		t.Fatalf("expected intent id pi_abc, got %q", intent.ID)
	}
	if gotAuth != "Bearer sk_test" {
		t.Fatalf("expected bearer auth, got %q", gotAuth)
	}
	if gotReq.Metadata["donation_id"] != "d1" {
		t.Fatalf("expected metadata forwarded, got %v", gotReq.Metadata)
	}
}

func TestInitializePayment_ReturnsRedirect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment-intents/pi_abc/initialize" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(RedirectDetails{RedirectURL: "https://pay.example.com/pi_abc"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	details, err := client.InitializePayment(context.Background(), "pi_abc")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if details.RedirectURL != "https://pay.example.com/pi_abc" {
		t.Fatalf("unexpected redirect url %q", details.RedirectURL)
	}
}

func TestCreatePaymentIntent_SurfacesGatewayErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"title":"Invalid currency","detail":"XYZ is not supported","status":"422"}]}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	_, err := client.CreatePaymentIntent(context.Background(), CreateIntentRequest{Amount: 100, Currency: "XYZ"})
	if err == nil {
		t.Fatal("expected an error from the gateway")
	}
	apiErr, ok := err.(*ErrorResponse)
	if !ok {
		t.Fatalf("expected *ErrorResponse, got %T", err)
	}
	if apiErr.Errors[0].Title != "Invalid currency" {
		t.Fatalf("unexpected error title %q", apiErr.Errors[0].Title)
	}
}

func TestCreatePaymentIntent_NonJSONErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream timeout"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "sk_test")
	_, err := client.CreatePaymentIntent(context.Background(), CreateIntentRequest{Amount: 100, Currency: "USD"})
	if err == nil {
		t.Fatal("expected an error for a 502 response")
	}
}
