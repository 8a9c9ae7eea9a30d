// Package integrationtest provides helpers used in end-to-end api tests.
package integrationtest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/go-petr/pet-ledger/cmd/httpserver"
	"github.com/go-petr/pet-ledger/internal/accountdelivery"
	"github.com/go-petr/pet-ledger/internal/transactionservice"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-petr/pet-ledger/pkg/randompkg"
	"github.com/go-petr/pet-ledger/pkg/web"
)

// SetupServer returns a server with empty stores and a silent logger.
func SetupServer(t *testing.T, publisher transactionservice.Publisher) *httpserver.Server {
	t.Helper()

	config := configpkg.Config{Environment: "test"}

	server, err := httpserver.New(zerolog.Nop(), config, publisher)
	if err != nil {
		t.Fatalf(`httpserver.New(logger, config, publisher) returned error: %v`, err)
	}

	return server
}

// Do sends a json request to the server and returns the recorded response.
func Do(t *testing.T, server http.Handler, method, url string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte

	if body != nil {
		var err error

		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("Encoding request body error: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Creating request error: %v", err)
	}

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	return recorder
}

// SeedAccount opens an account with a random number and the given balance.
func SeedAccount(t *testing.T, server http.Handler, balance string) accountdelivery.Account {
	t.Helper()

	body := map[string]string{
		"account_number": randompkg.AccountNumber(),
		"username":       randompkg.Username(),
		"balance":        balance,
	}

	recorder := Do(t, server, http.MethodPost, "/accounts", body)
	if recorder.Code != http.StatusCreated {
		t.Fatalf("seeding account: status %d, body %s", recorder.Code, recorder.Body.String())
	}

	data := &struct {
		Account accountdelivery.Account `json:"account"`
	}{}

	if err := json.NewDecoder(recorder.Body).Decode(&web.Response{Data: data}); err != nil {
		t.Fatalf("Decoding response body error: %v", err)
	}

	return data.Account
}

// Event is a message captured by RecordingPublisher.
type Event struct {
	RoutingKey string
	Body       any
}

// RecordingPublisher keeps every published event in memory.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event.
func (p *RecordingPublisher) Publish(_ context.Context, routingKey string, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, Event{RoutingKey: routingKey, Body: body})

	return nil
}

// Events returns a copy of the recorded events.
func (p *RecordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Event(nil), p.events...)
}
