// Package e2e runs the Gherkin scenarios under features/ against an
// in-process server built by app.New.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/sha3"

	"passport/internal/app"
	"passport/internal/platform/config"
	"passport/pkg/domain"
	adminmw "passport/pkg/platform/middleware/admin"
)

const adminToken = "e2e-admin"

// TestContext holds one scenario's server, actors and last response.
type TestContext struct {
	app      *app.App
	tokens   map[string]string
	passport string
	status   int
	body     []byte
}

func NewTestContext() (*TestContext, error) {
	reg := prometheus.NewRegistry()
	a, err := app.New(app.Options{
		Config: config.Server{
			AdminToken:     adminToken,
			JWTSigningKey:  "e2e-signing-key",
			JWTIssuer:      "passport-e2e",
			ProposeTimeout: time.Hour,
			AcceptTimeout:  time.Hour,
		},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Registerer: reg,
		Gatherer:   reg,
	})
	if err != nil {
		return nil, err
	}
	return &TestContext{app: a, tokens: make(map[string]string)}, nil
}

// Address derives a stable address from an actor name.
func (tc *TestContext) Address(actor string) domain.Address {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(actor))
	var a domain.Address
	copy(a[:], h.Sum(nil)[12:])
	return a
}

func (tc *TestContext) token(actor string) (string, error) {
	if tok, ok := tc.tokens[actor]; ok {
		return tok, nil
	}
	tok, err := tc.app.Tokens.GenerateToken(tc.Address(actor), time.Hour)
	if err != nil {
		return "", err
	}
	tc.tokens[actor] = tok
	return tok, nil
}

// Do sends a request as actor. An empty actor sends no credentials.
func (tc *TestContext) Do(method, path, actor string, body any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, "/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != "" {
		tok, err := tc.token(actor)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return tc.serve(req)
}

// Credit mints tokens to actor through the admin surface.
func (tc *TestContext) Credit(actor string, amount uint64) error {
	payload, err := json.Marshal(map[string]any{"amount": amount})
	if err != nil {
		return err
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/accounts/"+tc.Address(actor).String()+"/credit", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(adminmw.HeaderName, adminToken)
	if err := tc.serve(req); err != nil {
		return err
	}
	return tc.ExpectStatus(http.StatusOK)
}

func (tc *TestContext) serve(req *http.Request) error {
	rr := httptest.NewRecorder()
	tc.app.Handler.ServeHTTP(rr, req)
	tc.status = rr.Code
	tc.body = rr.Body.Bytes()
	return nil
}

func (tc *TestContext) Status() int {
	return tc.status
}

func (tc *TestContext) ExpectStatus(want int) error {
	if tc.status != want {
		return fmt.Errorf("expected status %d, got %d: %s", want, tc.status, tc.body)
	}
	return nil
}

// ResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var decoded map[string]any
	if err := json.Unmarshal(tc.body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	v, ok := decoded[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q: %s", field, tc.body)
	}
	return v, nil
}

func (tc *TestContext) PassportPath() string {
	return "/passports/" + tc.passport
}

func (tc *TestContext) SetPassport(id string) {
	tc.passport = id
}
