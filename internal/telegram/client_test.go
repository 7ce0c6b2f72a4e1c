package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(apiResponse{OK: true})
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.Client())
	c.baseURL = srv.URL

	if err := c.SendMessage(context.Background(), 42, "Total balance: 5.00"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if gotPath != "/botTOKEN/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "Total balance: 5.00" {
		t.Errorf("unexpected payload: %+v", gotBody)
	}
}

func TestSendMessageRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(apiResponse{OK: false, Description: "bot was blocked by the user"})
	}))
	defer srv.Close()

	c := NewClient("TOKEN", srv.Client())
	c.baseURL = srv.URL

	err := c.SendMessage(context.Background(), 42, "hi")
	if err == nil {
		t.Fatal("rejected send should return an error")
	}
}
