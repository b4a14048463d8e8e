package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"littlebird/internal/domain"
	"littlebird/internal/service"
)

const testSecret = "test-secret"

type mockSyncer struct {
	runFn func(ctx context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error)
}

func (m *mockSyncer) Run(ctx context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error) {
	if m.runFn != nil {
		return m.runFn(ctx, action, q)
	}
	return nil, errors.New("not implemented")
}

type mockSyncState struct {
	states []domain.SyncState
}

func (m *mockSyncState) List(context.Context) ([]domain.SyncState, error) {
	return m.states, nil
}

type mockBills struct {
	listFn func(ctx context.Context, f domain.ListFilter) ([]domain.Bill, error)
	getFn  func(ctx context.Context, id int64) (*domain.Bill, error)
}

func (m *mockBills) List(ctx context.Context, f domain.ListFilter) ([]domain.Bill, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, errors.New("not implemented")
}

func (m *mockBills) Get(ctx context.Context, id int64) (*domain.Bill, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, errors.New("not implemented")
}

type mockUpstream struct {
	billsFn func(ctx context.Context, q domain.SyncQuery) ([]domain.Bill, error)
}

func (m *mockUpstream) FetchBills(ctx context.Context, q domain.SyncQuery) ([]domain.Bill, error) {
	if m.billsFn != nil {
		return m.billsFn(ctx, q)
	}
	return nil, errors.New("not implemented")
}

func (m *mockUpstream) FetchLegislators(context.Context, domain.SyncQuery) ([]domain.Legislator, error) {
	return nil, errors.New("not implemented")
}

type mockClients struct {
	createFn func(ctx context.Context, userID uuid.UUID, in service.ClientInput) (*domain.Client, error)
	linkFn   func(ctx context.Context, userID, clientID uuid.UUID, billID int64) error
}

func (m *mockClients) Create(ctx context.Context, userID uuid.UUID, in service.ClientInput) (*domain.Client, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClients) Get(context.Context, uuid.UUID, uuid.UUID) (*domain.Client, error) {
	return nil, domain.ErrNotFound
}

func (m *mockClients) List(context.Context, uuid.UUID) ([]domain.Client, error) {
	return []domain.Client{}, nil
}

func (m *mockClients) Update(context.Context, uuid.UUID, uuid.UUID, service.ClientInput) (*domain.Client, error) {
	return nil, errors.New("not implemented")
}

func (m *mockClients) Delete(context.Context, uuid.UUID, uuid.UUID) error {
	return nil
}

func (m *mockClients) LinkBill(ctx context.Context, userID, clientID uuid.UUID, billID int64) error {
	if m.linkFn != nil {
		return m.linkFn(ctx, userID, clientID, billID)
	}
	return errors.New("not implemented")
}

func (m *mockClients) UnlinkBill(context.Context, uuid.UUID, uuid.UUID, int64) error {
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(context.Context) error { return m.err }

func newTestServer(deps Deps) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewServer(Config{Host: "127.0.0.1", Port: 0, AllowedOrigins: []string{"https://app.example.com"}, JWTSecret: testSecret}, deps, logger)
	return s.Handler()
}

func signToken(t *testing.T, secret, subject string, expiresAt time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func authedRequest(t *testing.T, method, target, body string) *http.Request {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.NewString(), time.Now().Add(time.Hour)))
	return req
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := newTestServer(Deps{})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decodeEnvelope(t, rec)["success"])
}

func TestReady_DatabaseDown(t *testing.T) {
	h := newTestServer(Deps{DB: &mockPinger{err: errors.New("connection refused")}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, decodeEnvelope(t, rec)["success"])
}

func TestAuth_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "not bearer", header: "Basic abc"},
		{name: "wrong secret", header: "Bearer " + signToken(t, "other", uuid.NewString(), time.Now().Add(time.Hour))},
		{name: "expired", header: "Bearer " + signToken(t, testSecret, uuid.NewString(), time.Now().Add(-time.Hour))},
		{name: "subject not uuid", header: "Bearer " + signToken(t, testSecret, "user-1", time.Now().Add(time.Hour))},
	}

	h := newTestServer(Deps{SyncState: &mockSyncState{}})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/sync/state", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, false, decodeEnvelope(t, rec)["success"])
		})
	}
}

func TestSync_Success(t *testing.T) {
	var gotAction domain.SyncAction
	var gotQuery domain.SyncQuery
	h := newTestServer(Deps{Syncer: &mockSyncer{
		runFn: func(_ context.Context, action domain.SyncAction, q domain.SyncQuery) (any, error) {
			gotAction, gotQuery = action, q
			return &domain.SyncResult{Created: 2, Updated: 1, Total: 3}, nil
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/sync", `{"action":"bills","session":"2025"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ActionBills, gotAction)
	assert.Equal(t, "2025", gotQuery.Session)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["result"].(map[string]any)["created"])
}

func TestSync_InvalidAction(t *testing.T) {
	h := newTestServer(Deps{Syncer: &mockSyncer{}})

	for _, body := range []string{`{"action":"votes"}`, `{}`, `not json`} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/sync", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Equal(t, false, decodeEnvelope(t, rec)["success"])
	}
}

func TestSync_InProgress(t *testing.T) {
	h := newTestServer(Deps{Syncer: &mockSyncer{
		runFn: func(context.Context, domain.SyncAction, domain.SyncQuery) (any, error) {
			return nil, domain.ErrSyncInProgress
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/sync", `{"action":"full"}`))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSync_FullFailureCarriesPartialResult(t *testing.T) {
	h := newTestServer(Deps{Syncer: &mockSyncer{
		runFn: func(context.Context, domain.SyncAction, domain.SyncQuery) (any, error) {
			return &domain.FullSyncResult{
				Legislators: &domain.SyncResult{Created: 1, Total: 1},
			}, &domain.UpstreamError{StatusCode: 500, Body: "boom"}
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/sync", `{"action":"full"}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Contains(t, body["error"], "status 500")
	result := body["result"].(map[string]any)
	assert.Nil(t, result["bills"])
	assert.NotNil(t, result["legislators"])
}

func TestGetBill(t *testing.T) {
	h := newTestServer(Deps{Bills: &mockBills{
		getFn: func(_ context.Context, id int64) (*domain.Bill, error) {
			if id == 7 {
				return &domain.Bill{ID: 7, Identifier: "HB 7"}, nil
			}
			return nil, domain.ErrNotFound
		},
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills/7", ""))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HB 7", decodeEnvelope(t, rec)["result"].(map[string]any)["identifier"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills/8", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills/abc", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListBills_Filter(t *testing.T) {
	var got domain.ListFilter
	h := newTestServer(Deps{Bills: &mockBills{
		listFn: func(_ context.Context, f domain.ListFilter) ([]domain.Bill, error) {
			got = f
			return []domain.Bill{}, nil
		},
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills?q=water&session=2025&order_by=title&order=desc&limit=10&offset=20", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.ListFilter{
		Query:      "water",
		Session:    "2025",
		OrderBy:    "title",
		Descending: true,
		Limit:      10,
		Offset:     20,
	}, got)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills?limit=lots", ""))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpstreamBills_SinglePage(t *testing.T) {
	var got domain.SyncQuery
	h := newTestServer(Deps{Upstream: &mockUpstream{
		billsFn: func(_ context.Context, q domain.SyncQuery) ([]domain.Bill, error) {
			got = q
			return []domain.Bill{{ExternalID: "b1"}}, nil
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/upstream/bills?q=water", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "water", got.Query)
	assert.Equal(t, 1, got.MaxPages)
}

func TestCreateClient(t *testing.T) {
	h := newTestServer(Deps{Clients: &mockClients{
		createFn: func(_ context.Context, userID uuid.UUID, in service.ClientInput) (*domain.Client, error) {
			if in.Name == "" {
				return nil, domain.ErrInvalidInput
			}
			return &domain.Client{ID: uuid.New(), UserID: userID, Name: in.Name}, nil
		},
	}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/clients", `{"name":"Acme","bill_ids":[1]}`))
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/clients", `{"name":""}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(t, http.MethodPost, "/api/v1/clients", `{"nme":"typo"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLinkClientBill_PassesPathValues(t *testing.T) {
	clientID := uuid.New()
	var gotClient uuid.UUID
	var gotBill int64
	h := newTestServer(Deps{Clients: &mockClients{
		linkFn: func(_ context.Context, _ uuid.UUID, cid uuid.UUID, billID int64) error {
			gotClient, gotBill = cid, billID
			return nil
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodPut, "/api/v1/clients/"+clientID.String()+"/bills/42", ""))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, clientID, gotClient)
	assert.Equal(t, int64(42), gotBill)
}

func TestInternalErrorsAreHidden(t *testing.T) {
	h := newTestServer(Deps{Bills: &mockBills{
		listFn: func(context.Context, domain.ListFilter) ([]domain.Bill, error) {
			return nil, errors.New("pq: relation \"bills\" does not exist")
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decodeEnvelope(t, rec)["error"])
}

func TestRecovery(t *testing.T) {
	h := newTestServer(Deps{Bills: &mockBills{
		listFn: func(context.Context, domain.ListFilter) ([]domain.Bill, error) {
			panic("boom")
		},
	}})
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, authedRequest(t, http.MethodGet, "/api/v1/bills", ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decodeEnvelope(t, rec)["success"])
}

func TestCORS_Preflight(t *testing.T) {
	h := newTestServer(Deps{})
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sync", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
