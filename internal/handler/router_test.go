package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markwave-backend/internal/client"
	"markwave-backend/internal/config"
	"markwave-backend/internal/events"
	"markwave-backend/internal/graph"
	"markwave-backend/internal/hashing"
	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/repository/redis"
	"markwave-backend/internal/service"
	"markwave-backend/internal/util"
)

func newTestRouter(t *testing.T, graphClient *graph.MemoryClient) chi.Router {
	t.Helper()

	mr := miniredis.RunT(t)
	rc := client.NewRedisClientFromExisting(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rc.Close() })

	userService := service.NewUserService(
		graphdb.NewUserRepository(graphClient),
		redis.NewOTPCache(rc),
		hashing.NewHasher(),
		events.NoopPublisher{},
		config.OTPConfig{TTL: 5 * time.Minute, MaxIssuance: 5},
	)
	productService := service.NewProductService(graphdb.NewProductRepository(graphClient))
	purchaseService := service.NewPurchaseService(graphdb.NewPurchaseRepository(graphClient), events.NoopPublisher{})

	return NewRouter(
		NewUserHandler(userService),
		NewProductHandler(productService),
		NewPurchaseHandler(purchaseService),
		graphClient,
		[]string{"http://localhost:3000"},
		util.Get(),
	)
}

func doJSON(t *testing.T, router chi.Router, method, path string, body any) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func testUserProps() map[string]any {
	return map[string]any{
		"mobile":        "9876543210",
		"user_id":       "u-1",
		"name":          "Ramesh",
		"referral_type": model.ReferralTypeNew,
		"verified":      false,
		"form_filled":   false,
	}
}

func TestRegisterEndpoint_Created(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushWriteResult(graph.Result{Records: []graph.Record{
		{"user": testUserProps(), "created": true},
	}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPost, "/users/", map[string]any{
		"mobile":        "9876543210",
		"name":          "Ramesh",
		"referral_type": model.ReferralTypeNew,
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "success", resp.Status)
	require.NotNil(t, resp.User)
	assert.Equal(t, "u-1", resp.User.UserID)
}

func TestRegisterEndpoint_Existing(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushWriteResult(graph.Result{Records: []graph.Record{
		{"user": testUserProps(), "created": false},
	}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPost, "/users/", map[string]any{
		"mobile": "9876543210",
		"name":   "Ramesh",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "User already exists", resp.Message)
	require.NotNil(t, resp.User)
}

func TestRegisterEndpoint_BadBody(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	req := httptest.NewRequest(http.MethodPost, "/users/", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterEndpoint_ValidationError(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	rec, resp := doJSON(t, router, http.MethodPost, "/users/", map[string]any{
		"mobile": "12",
		"name":   "Ramesh",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "error", resp.Status)
}

func TestGetUserEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	rec, resp := doJSON(t, router, http.MethodGet, "/users/0000000000", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", resp.Message)
}

func TestUpdateUserEndpoint(t *testing.T) {
	props := testUserProps()
	props["city"] = "Anand"

	graphClient := graph.NewMemoryClient()
	graphClient.PushWriteResult(graph.Result{Records: []graph.Record{{"user": props}}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPut, "/users/9876543210", map[string]any{
		"city": "Anand",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.FieldsUpdated)
	assert.Equal(t, 1, *resp.FieldsUpdated)
	require.NotNil(t, resp.User)
	assert.Equal(t, "Anand", resp.User.City)
}

func TestUpdateUserEndpoint_UnsafeCustomKey(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	rec, _ := doJSON(t, router, http.MethodPut, "/users/9876543210", map[string]any{
		"custom": map[string]any{"x; DROP": 1},
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyEndpoint_NotReferral(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushReadResult(graph.Result{Records: []graph.Record{
		{"type": model.ReferralTypeCustomer, "verified": false},
	}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPost, "/users/verify", map[string]any{
		"mobile": "9876543210",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestVerifyEndpoint_IssuesCode(t *testing.T) {
	verified := testUserProps()
	verified["verified"] = true

	graphClient := graph.NewMemoryClient()
	graphClient.PushReadResult(graph.Result{Records: []graph.Record{
		{"type": model.ReferralTypeNew, "verified": false},
	}})
	graphClient.PushWriteResult(graph.Result{Records: []graph.Record{{"user": verified}}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPost, "/users/verify", map[string]any{
		"mobile":       "9876543210",
		"device_id":    "dev-1",
		"device_model": "Redmi Note 9",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Regexp(t, `^[0-9]{6}$`, resp.OTP)
	require.NotNil(t, resp.User)
	assert.True(t, resp.User.Verified)
}

func TestListUsersEndpoints(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushReadResult(graph.Result{Records: []graph.Record{{"user": testUserProps()}}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodGet, "/users/referrals", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Users, 1)

	// Empty lists come back as [], not null.
	rec, resp = doJSON(t, router, http.MethodGet, "/users/customers", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, resp.Users)
	assert.Empty(t, resp.Users)
}

func TestProductEndpoints(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushReadResult(graph.Result{Records: []graph.Record{{"product": map[string]any{
		"id":    "BUF-001",
		"breed": "Murrah",
	}}}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodGet, "/products/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Murrah", resp.Products[0].Breed)

	rec, resp = doJSON(t, router, http.MethodGet, "/products/BUF-404", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product not found", resp.Message)
}

func TestPurchaseEndpoint(t *testing.T) {
	graphClient := graph.NewMemoryClient()
	graphClient.PushWriteResult(graph.Result{Records: []graph.Record{{"id": "pur-1"}}})
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodPost, "/purchases/", map[string]any{
		"mobile": "9876543210",
		"item":   "BUF-001",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, resp.Purchase)
	assert.Equal(t, "pur-1", resp.Purchase.ID)
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	rec, resp := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", resp.Message)
}

func TestHealthEndpoint_StorageDown(t *testing.T) {
	graphClient := graph.NewMemoryClient().WithConnectivityError(errors.New("refused"))
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "error", resp.Status)
}

func TestUnknownRoute(t *testing.T) {
	router := newTestRouter(t, graph.NewMemoryClient())

	rec, resp := doJSON(t, router, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "endpoint not found", resp.Message)
}

func TestStorageFailureIsGeneric(t *testing.T) {
	graphClient := graph.NewMemoryClient().WithError(errors.New("bolt: connection reset by peer"))
	router := newTestRouter(t, graphClient)

	rec, resp := doJSON(t, router, http.MethodGet, "/users/9876543210", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to get user", resp.Message)
	assert.NotContains(t, rec.Body.String(), "bolt:")
}
