package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"circlerate/internal/domain"
)

func ratingCatalog() []domain.Trait {
	return []domain.Trait{
		{ID: "polite", PositiveName: "Polite", NegativeName: "Rude", Position: 1},
		{ID: "honest", PositiveName: "Honest", NegativeName: "Dishonest", Position: 2},
	}
}

func (a *testApp) seedRatee(userID, circleID, tokenID string) {
	_ = a.users.Create(context.Background(), domain.User{ID: userID, PhoneNumber: "+5491100000077", FirstName: "Ana"})
	_ = a.circles.Create(context.Background(), domain.Circle{ID: circleID, OwnerID: userID, Name: "Friends"})
	_ = a.tokens.Create(context.Background(), domain.RatingToken{
		ID:        tokenID,
		RateeID:   userID,
		ContactID: "contact-1",
		CircleID:  circleID,
		CreatedAt: time.Now().UTC(),
	})
}

func TestListTraits(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	rec := doJSON(t, app, http.MethodGet, "/ratings/traits", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	traits := decodeBody(t, rec)["traits"].([]any)
	if len(traits) != 2 {
		t.Fatalf("expected 2 traits, got %d", len(traits))
	}
}

func TestValidateTokenAndFullSession(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	app.seedRatee("ratee-1", "circle-1", "tok-1")

	rec := doJSON(t, app, http.MethodGet, "/ratings/validate-token/tok-1", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("validate: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	sessionID, _ := body["session_id"].(string)
	if sessionID == "" {
		t.Fatal("missing session id")
	}
	first := body["trait"].(map[string]any)
	if first["id"] != "polite" {
		t.Fatalf("expected polite first, got %v", first["id"])
	}

	rec = doJSON(t, app, http.MethodPost, "/ratings/submit", "", map[string]any{
		"session_id": sessionID,
		"value":      1,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	step := decodeBody(t, rec)
	if step["trait"].(map[string]any)["id"] != "honest" {
		t.Fatalf("expected honest next, got %v", step["trait"])
	}

	rec = doJSON(t, app, http.MethodPost, "/ratings/skip", "", map[string]any{
		"session_id": sessionID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("skip: expected 200, got %d", rec.Code)
	}
	step = decodeBody(t, rec)
	if step["completed"] != true {
		t.Fatalf("expected completion, got %v", step)
	}

	// Solo el submit dejó rastro en el ledger.
	history, _ := app.ratings.ListByRatee(context.Background(), "ratee-1")
	if len(history) != 1 || history[0].TraitID != "polite" || history[0].Value != 1 {
		t.Fatalf("unexpected ledger: %+v", history)
	}
}

func TestValidateTokenReuseRejected(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	app.seedRatee("ratee-1", "circle-1", "tok-1")

	if rec := doJSON(t, app, http.MethodGet, "/ratings/validate-token/tok-1", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("first validate failed: %d", rec.Code)
	}
	rec := doJSON(t, app, http.MethodGet, "/ratings/validate-token/tok-1", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on reuse, got %d", rec.Code)
	}
}

func TestSubmitInvalidValue(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	app.seedRatee("ratee-1", "circle-1", "tok-1")
	rec := doJSON(t, app, http.MethodGet, "/ratings/validate-token/tok-1", "", nil)
	sessionID := decodeBody(t, rec)["session_id"].(string)

	rec = doJSON(t, app, http.MethodPost, "/ratings/submit", "", map[string]any{
		"session_id": sessionID,
		"value":      5,
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSubmitUnknownSessionConflicts(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	rec := doJSON(t, app, http.MethodPost, "/ratings/submit", "", map[string]any{
		"session_id": "ghost",
		"value":      1,
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestTraitDetailsEndpoint(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	app.seedRatee("ratee-1", "circle-1", "tok-1")

	rec := doJSON(t, app, http.MethodGet, "/ratings/trait-details/ratee-1/honest", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["trait"].(map[string]any)["id"] != "honest" {
		t.Fatalf("unexpected trait: %v", body["trait"])
	}

	rec = doJSON(t, app, http.MethodGet, "/ratings/trait-details/ratee-1/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestReputationSummaryRequiresOwnID(t *testing.T) {
	app := newTestApp(ratingCatalog()...)
	token := app.loginAs("u1")

	rec := doJSON(t, app, http.MethodGet, "/ratings/users/u1", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("own summary: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if _, ok := body["ranked_traits"]; !ok {
		t.Fatalf("summary missing ranking: %v", body)
	}

	rec = doJSON(t, app, http.MethodGet, "/ratings/users/someone-else", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign summary: expected 403, got %d", rec.Code)
	}

	rec = doJSON(t, app, http.MethodGet, "/ratings/users/u1", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", rec.Code)
	}
}
