package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"helpkart/internal/caching"
	"helpkart/internal/common"
	"helpkart/internal/middleware"
	"helpkart/internal/models"
	"helpkart/internal/repositories/memory"
	"helpkart/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type APITestSuite struct {
	suite.Suite
	e *echo.Echo
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}

func (suite *APITestSuite) SetupTest() {
	logger := zap.NewNop()
	store := memory.NewStore()
	mr := miniredis.RunT(suite.T())
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	suite.T().Cleanup(func() { _ = client.Close() })
	cache := caching.NewCacheServiceFromClient(client)

	centers, items, requests, txns := store.Centers(), store.Items(), store.Requests(), store.Transactions()
	auth := services.NewAuthService(centers, txns, cache, "handler-test-secret-handler-test-00", services.AuthOptions{}, logger)

	suite.e = echo.New()
	suite.e.HTTPErrorHandler = ErrorHandler(logger)
	RegisterRoutes(suite.e, &Handlers{
		Auth:         NewAuthHandlers(auth, false),
		Inventory:    NewInventoryHandlers(services.NewInventoryService(items, txns, cache, logger)),
		Requests:     NewRequestHandlers(services.NewRequestService(centers, requests, txns, cache, logger)),
		Browse:       NewBrowseHandlers(services.NewBrowseService(centers, items, requests, logger)),
		Transactions: NewTransactionHandlers(services.NewTransactionService(centers, items, requests, txns, cache, logger)),
		Dashboard:    NewDashboardHandlers(services.NewDashboardService(centers, items, requests, txns, cache, time.Minute, logger)),
		Health:       NewHealthHandlers(stubPinger{}, cache, "test"),
	}, middleware.SessionMiddleware(auth))
}

func (suite *APITestSuite) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	return rec
}

func (suite *APITestSuite) decode(rec *httptest.ResponseRecorder, dst interface{}) {
	suite.Require().NoError(json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func (suite *APITestSuite) errorCode(rec *httptest.ResponseRecorder) string {
	var resp common.ErrorResponse
	suite.decode(rec, &resp)
	return resp.Error.Code
}

// signup registers a center and returns its session token
func (suite *APITestSuite) signup(name, email string) (string, *models.Center) {
	rec := suite.do(http.MethodPost, "/v1/auth/register", map[string]interface{}{
		"name": name, "email": email, "password": "secret1",
	}, "")
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var center models.Center
	suite.decode(rec, &center)

	rec = suite.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": email, "password": "secret1"}, "")
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var token models.SessionToken
	suite.decode(rec, &token)
	return token.Token, &center
}

func (suite *APITestSuite) TestRegisterAndLogin() {
	rec := suite.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"name": "Alpha", "email": "alpha@x.com", "password": "secret1",
	}, "")
	suite.Require().Equal(http.StatusCreated, rec.Code)
	assert.NotContains(suite.T(), rec.Body.String(), "password")

	rec = suite.do(http.MethodPost, "/v1/auth/register", map[string]string{
		"name": "Alpha", "email": "alpha@x.com", "password": "secret1",
	}, "")
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Equal(suite.T(), "DUPLICATE_EMAIL", suite.errorCode(rec))

	rec = suite.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "alpha@x.com", "password": "nope"}, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.Equal(suite.T(), "INVALID_CREDENTIALS", suite.errorCode(rec))

	rec = suite.do(http.MethodPost, "/v1/auth/login", map[string]string{"email": "alpha@x.com", "password": "secret1"}, "")
	suite.Require().Equal(http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	suite.Require().Len(cookies, 1)
	assert.Equal(suite.T(), middleware.SessionCookieName, cookies[0].Name)
	assert.True(suite.T(), cookies[0].HttpOnly)
}

func (suite *APITestSuite) TestSessionRequired() {
	rec := suite.do(http.MethodGet, "/v1/inventory", nil, "")
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
	assert.Equal(suite.T(), "UNAUTHORIZED", suite.errorCode(rec))

	rec = suite.do(http.MethodGet, "/v1/inventory", nil, "not-a-token")
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *APITestSuite) TestCookieSessionAndLogout() {
	token, center := suite.signup("Alpha", "alpha@x.com")

	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: token})
	rec := httptest.NewRecorder()
	suite.e.ServeHTTP(rec, req)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var me models.Center
	suite.decode(rec, &me)
	assert.Equal(suite.T(), center.ID, me.ID)

	rec = suite.do(http.MethodPost, "/v1/auth/logout", nil, token)
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)

	rec = suite.do(http.MethodGet, "/v1/me", nil, token)
	assert.Equal(suite.T(), http.StatusUnauthorized, rec.Code)
}

func (suite *APITestSuite) TestSurplusRequestAndApprove() {
	alphaToken, alpha := suite.signup("Alpha", "alpha@x.com")
	betaToken, _ := suite.signup("Beta", "beta@x.com")

	rec := suite.do(http.MethodPost, "/v1/inventory", map[string]interface{}{
		"name": "Rice", "quantity": 50, "unit": "kg", "category": "Food", "classification": "surplus",
	}, alphaToken)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var rice models.InventoryItem
	suite.decode(rec, &rice)

	rec = suite.do(http.MethodGet, "/v1/browse/surplus", nil, betaToken)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var surplus struct {
		Items []*models.SurplusListing `json:"items"`
	}
	suite.decode(rec, &surplus)
	suite.Require().Len(surplus.Items, 1)
	assert.Equal(suite.T(), "Alpha", surplus.Items[0].CenterName)
	assert.Equal(suite.T(), alpha.ID, surplus.Items[0].CenterID)

	rec = suite.do(http.MethodPost, "/v1/transactions/request", map[string]interface{}{
		"item_id": rice.ID, "quantity": 20,
	}, betaToken)
	suite.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var txn models.Transaction
	suite.decode(rec, &txn)
	assert.Equal(suite.T(), models.TransactionStatusPending, txn.Status)

	rec = suite.do(http.MethodPost, "/v1/transactions/"+txn.ID.String()+"/approve", nil, betaToken)
	assert.Equal(suite.T(), http.StatusForbidden, rec.Code)
	assert.Equal(suite.T(), "FORBIDDEN", suite.errorCode(rec))

	rec = suite.do(http.MethodPost, "/v1/transactions/"+txn.ID.String()+"/approve", nil, alphaToken)
	suite.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	rec = suite.do(http.MethodPost, "/v1/transactions/"+txn.ID.String()+"/approve", nil, alphaToken)
	assert.Equal(suite.T(), http.StatusConflict, rec.Code)
	assert.Equal(suite.T(), "INVALID_STATE", suite.errorCode(rec))

	rec = suite.do(http.MethodGet, "/v1/inventory/"+rice.ID.String(), nil, alphaToken)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var stored models.InventoryItem
	suite.decode(rec, &stored)
	assert.Equal(suite.T(), 30, stored.Quantity)

	rec = suite.do(http.MethodGet, "/v1/transactions", nil, betaToken)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var history models.TransactionHistory
	suite.decode(rec, &history)
	suite.Require().Len(history.Received, 1)
	assert.Equal(suite.T(), "Alpha", history.Received[0].CounterpartyName)

	rec = suite.do(http.MethodGet, "/v1/dashboard", nil, alphaToken)
	suite.Require().Equal(http.StatusOK, rec.Code)
	var summary models.DashboardSummary
	suite.decode(rec, &summary)
	assert.Equal(suite.T(), 1, summary.CompletedTransactions)
	assert.Equal(suite.T(), 30, summary.Inventory.TotalQuantity)
}

func (suite *APITestSuite) TestValidationErrorsCarryField() {
	token, _ := suite.signup("Alpha", "alpha@x.com")

	rec := suite.do(http.MethodPost, "/v1/inventory", map[string]interface{}{
		"name": "Rice", "quantity": -1, "unit": "kg",
	}, token)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	var resp common.ErrorResponse
	suite.decode(rec, &resp)
	assert.Equal(suite.T(), "VALIDATION_ERROR", resp.Error.Code)
	assert.Contains(suite.T(), resp.Error.Details, "quantity")

	rec = suite.do(http.MethodGet, "/v1/inventory/not-a-uuid", nil, token)
	assert.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodDelete, "/v1/requests/"+"00000000-0000-0000-0000-000000000001", nil, token)
	assert.Equal(suite.T(), http.StatusNoContent, rec.Code)
}

func (suite *APITestSuite) TestHealth() {
	rec := suite.do(http.MethodGet, "/health", nil, "")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)

	rec = suite.do(http.MethodGet, "/health/ready", nil, "")
	assert.Equal(suite.T(), http.StatusOK, rec.Code)
	var status HealthStatus
	suite.decode(rec, &status)
	assert.Equal(suite.T(), "ready", status.Status)
}

func (suite *APITestSuite) TestSwaggerDoc() {
	rec := suite.do(http.MethodGet, "/swagger/doc.json", nil, "")
	suite.Require().Equal(http.StatusOK, rec.Code)

	var doc struct {
		Info struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]interface{} `json:"paths"`
	}
	suite.decode(rec, &doc)
	assert.Equal(suite.T(), "HelpKart API", doc.Info.Title)
	assert.Contains(suite.T(), doc.Paths, "/transactions/{id}/approve")
}

func TestReadinessCheck_DatabaseDown(t *testing.T) {
	e := echo.New()
	h := NewHealthHandlers(stubPinger{err: errors.New("connection refused")}, stubPinger{}, "test")
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()

	require.NoError(t, h.ReadinessCheck(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"unhealthy"`)
}

func TestErrorHandler_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	ErrorHandler(zap.NewNop())(errors.New("pq: relation missing"), e.NewContext(req, rec))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation missing")

	rec = httptest.NewRecorder()
	ErrorHandler(zap.NewNop())(errors.Join(common.ErrUnavailable, errors.New("dial tcp")), e.NewContext(req, rec))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "UNAVAILABLE")
}
