package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/internal/service"
	"bridgebot/backend/internal/service/autotrader"
	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/crypto"
	"bridgebot/backend/pkg/jwt"
	"bridgebot/backend/pkg/redis"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiResponse struct {
	Success    bool             `json:"success"`
	Data       json.RawMessage  `json:"data"`
	Error      *util.ErrorInfo  `json:"error"`
	Pagination *util.Pagination `json:"pagination"`
}

type stubEngine struct {
	passErr error
	initErr error
	block   chan struct{}
	entered chan struct{}
}

func (e *stubEngine) InitializeTradeThresholds(ctx context.Context) (int, error) {
	if e.initErr != nil {
		return 0, e.initErr
	}
	return 6, nil
}

func (e *stubEngine) PendingThresholds(ctx context.Context) (int, error) {
	return 0, nil
}

func (e *stubEngine) ScoutPass(ctx context.Context) (*model.ScoutPassSummary, error) {
	if e.block != nil {
		e.entered <- struct{}{}
		<-e.block
	}
	summary := &model.ScoutPassSummary{Evaluated: 2, Jumps: []string{}}
	if e.passErr != nil {
		summary.Aborted = true
		summary.AbortReason = e.passErr.Error()
	}
	return summary, e.passErr
}

func (e *stubEngine) UpdateValues(ctx context.Context) ([]model.CoinValue, error) {
	return nil, nil
}

type testAPI struct {
	router  *gin.Engine
	ratios  *repository.RatioRepository
	history *repository.HistoryRepository
	engine  *stubEngine
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))

	api := &testAPI{
		router:  gin.New(),
		ratios:  repository.NewRatioRepository(rdb, "idr"),
		history: repository.NewHistoryRepository(rdb, 100),
		engine:  &stubEngine{},
	}

	h := NewScoutHandler(api.ratios, api.history, service.NewScoutScheduler(api.engine, time.Hour, time.Hour))
	v1 := api.router.Group("/api/v1")
	v1.GET("/coins", h.ListCoins)
	v1.PUT("/coins/:symbol", h.SetCoinEnabled)
	v1.GET("/ratios", h.ListRatios)
	v1.GET("/scout-history", h.ScoutHistory)
	v1.GET("/jumps", h.ListJumps)
	v1.GET("/jumps/:id", h.GetJump)
	v1.GET("/values/:coin", h.ListValues)
	v1.POST("/scout", h.TriggerScout)
	v1.POST("/thresholds/initialize", h.InitializeThresholds)
	return api
}

func (a *testAPI) do(t *testing.T, method, path string, body interface{}) (int, apiResponse) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func (a *testAPI) seed(t *testing.T, coins ...string) {
	t.Helper()
	ctx := context.Background()
	for _, c := range coins {
		require.NoError(t, a.ratios.UpsertCoin(ctx, c, true))
	}
	for _, from := range coins {
		for _, to := range coins {
			if from != to {
				require.NoError(t, a.ratios.EnsurePair(ctx, from, to))
			}
		}
	}
}

func TestScoutHandler_Coins(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "btc", "eth")

	code, resp := api.do(t, http.MethodPut, "/api/v1/coins/ETH", map[string]bool{"enabled": false})
	require.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)

	code, resp = api.do(t, http.MethodGet, "/api/v1/coins", nil)
	require.Equal(t, http.StatusOK, code)
	var coins []model.Coin
	require.NoError(t, json.Unmarshal(resp.Data, &coins))
	assert.Equal(t, []model.Coin{{Symbol: "btc", Enabled: true}, {Symbol: "eth", Enabled: false}}, coins)
}

func TestScoutHandler_SetCoinEnabledErrors(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(t, http.MethodPut, "/api/v1/coins/doge", map[string]bool{"enabled": true})
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.ErrCodeNotFound, resp.Error.Code)

	code, resp = api.do(t, http.MethodPut, "/api/v1/coins/doge", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, util.ErrCodeValidation, resp.Error.Code)
}

func TestScoutHandler_ListRatios(t *testing.T) {
	api := newTestAPI(t)
	api.seed(t, "btc", "eth", "ada")
	require.NoError(t, api.ratios.SetRatio(context.Background(), "btc", "eth", 20))

	code, resp := api.do(t, http.MethodGet, "/api/v1/ratios?from=btc", nil)
	require.Equal(t, http.StatusOK, code)

	var pairs []model.Pair
	require.NoError(t, json.Unmarshal(resp.Data, &pairs))
	require.Len(t, pairs, 2)
	assert.Equal(t, "ada", pairs[0].To)
	assert.Nil(t, pairs[0].Ratio)
	assert.Equal(t, "eth", pairs[1].To)
	require.NotNil(t, pairs[1].Ratio)
	assert.Equal(t, 20.0, *pairs[1].Ratio)

	_, resp = api.do(t, http.MethodGet, "/api/v1/ratios", nil)
	require.NoError(t, json.Unmarshal(resp.Data, &pairs))
	assert.Len(t, pairs, 6)
}

func TestScoutHandler_History(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		require.NoError(t, api.history.LogScout(ctx, model.ScoutRecord{
			From: "btc", To: "eth", TargetRatio: float64(i + 1), Datetime: now.Add(time.Duration(i) * time.Second),
		}))
	}
	require.NoError(t, api.history.SaveJump(ctx, &model.Jump{
		ID: "j1", From: "btc", To: "eth", State: model.JumpStateSettled, CreatedAt: now, UpdatedAt: now,
	}))

	code, resp := api.do(t, http.MethodGet, "/api/v1/scout-history?limit=2", nil)
	require.Equal(t, http.StatusOK, code)
	var records []model.ScoutRecord
	require.NoError(t, json.Unmarshal(resp.Data, &records))
	require.Len(t, records, 2)
	assert.Equal(t, 3.0, records[0].TargetRatio)
	assert.Equal(t, int64(3), resp.Pagination.Total)

	code, resp = api.do(t, http.MethodGet, "/api/v1/jumps", nil)
	require.Equal(t, http.StatusOK, code)
	var jumps []model.Jump
	require.NoError(t, json.Unmarshal(resp.Data, &jumps))
	require.Len(t, jumps, 1)
	assert.Equal(t, "j1", jumps[0].ID)

	code, _ = api.do(t, http.MethodGet, "/api/v1/jumps/j1", nil)
	assert.Equal(t, http.StatusOK, code)
	code, resp = api.do(t, http.MethodGet, "/api/v1/jumps/missing", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, util.ErrCodeNotFound, resp.Error.Code)

	code, resp = api.do(t, http.MethodGet, "/api/v1/values/btc", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, "[]", string(resp.Data))
}

func TestScoutHandler_TriggerScout(t *testing.T) {
	api := newTestAPI(t)

	code, resp := api.do(t, http.MethodPost, "/api/v1/scout", nil)
	require.Equal(t, http.StatusOK, code)
	var summary model.ScoutPassSummary
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.Equal(t, 2, summary.Evaluated)

	api.engine.passErr = autotrader.ErrMissingPrice
	code, resp = api.do(t, http.MethodPost, "/api/v1/scout", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(resp.Data, &summary))
	assert.True(t, summary.Aborted)
}

func TestScoutHandler_TriggerScoutBeforeThresholds(t *testing.T) {
	api := newTestAPI(t)
	api.engine.initErr = errors.New("venue down")

	code, resp := api.do(t, http.MethodPost, "/api/v1/scout", nil)
	require.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, util.ErrCodeServiceUnavailable, resp.Error.Code)

	api.engine.initErr = nil
	code, _ = api.do(t, http.MethodPost, "/api/v1/scout", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestScoutHandler_TriggerScoutWhileRunning(t *testing.T) {
	api := newTestAPI(t)
	api.engine.block = make(chan struct{})
	api.engine.entered = make(chan struct{})

	done := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scout", nil)
		w := httptest.NewRecorder()
		api.router.ServeHTTP(w, req)
		done <- w.Code
	}()
	<-api.engine.entered

	code, resp := api.do(t, http.MethodPost, "/api/v1/scout", nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, util.ErrCodeConflict, resp.Error.Code)

	code, _ = api.do(t, http.MethodPost, "/api/v1/thresholds/initialize", nil)
	assert.Equal(t, http.StatusConflict, code)

	close(api.engine.block)
	assert.Equal(t, http.StatusOK, <-done)

	code, resp = api.do(t, http.MethodPost, "/api/v1/thresholds/initialize", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"initialized":6}`, string(resp.Data))
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := crypto.HashPassword("correct-horse")
	require.NoError(t, err)
	auth := service.NewAuthService(jwt.NewJWTManager("secret", time.Hour), "operator", hash)

	router := gin.New()
	router.POST("/login", NewAuthHandler(auth).Login)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := post(`{"username":"operator","password":"correct-horse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var tokens model.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Data, &tokens))
	assert.NotEmpty(t, tokens.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, post(`{"username":"operator","password":"nope-nope"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"username":"operator"}`).Code)
}
