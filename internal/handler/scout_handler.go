package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"bridgebot/backend/internal/model"
	"bridgebot/backend/internal/repository"
	"bridgebot/backend/internal/service"
	"bridgebot/backend/internal/service/autotrader"
	"bridgebot/backend/internal/util"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// ScoutHandler exposes the coin universe, ratios and trading history
type ScoutHandler struct {
	ratios    *repository.RatioRepository
	history   *repository.HistoryRepository
	scheduler *service.ScoutScheduler
}

func NewScoutHandler(ratios *repository.RatioRepository, history *repository.HistoryRepository, scheduler *service.ScoutScheduler) *ScoutHandler {
	return &ScoutHandler{
		ratios:    ratios,
		history:   history,
		scheduler: scheduler,
	}
}

// ListCoins handles GET /api/v1/coins
func (h *ScoutHandler) ListCoins(c *gin.Context) {
	coins, err := h.ratios.GetCoins(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, coins)
}

// SetCoinEnabled handles PUT /api/v1/coins/:symbol
func (h *ScoutHandler) SetCoinEnabled(c *gin.Context) {
	var req model.SetCoinEnabledRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	symbol := strings.ToLower(c.Param("symbol"))
	if err := h.ratios.SetCoinEnabled(c.Request.Context(), symbol, *req.Enabled); err != nil {
		if errors.Is(err, repository.ErrCoinNotFound) {
			util.SendError(c, util.ErrNotFound("Coin not found"))
			return
		}
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, model.Coin{Symbol: symbol, Enabled: *req.Enabled})
}

// ListRatios handles GET /api/v1/ratios?from=
func (h *ScoutHandler) ListRatios(c *gin.Context) {
	ctx := c.Request.Context()

	var sources []string
	if from := strings.ToLower(c.Query("from")); from != "" {
		sources = []string{from}
	} else {
		coins, err := h.ratios.GetCoins(ctx)
		if err != nil {
			util.SendError(c, err)
			return
		}
		for _, coin := range coins {
			sources = append(sources, coin.Symbol)
		}
	}

	pairs := []model.Pair{}
	for _, from := range sources {
		p, err := h.ratios.ListPairs(ctx, from)
		if err != nil {
			util.SendError(c, err)
			return
		}
		pairs = append(pairs, p...)
	}

	util.SendSuccess(c, pairs)
}

// ScoutHistory handles GET /api/v1/scout-history?limit=
func (h *ScoutHandler) ScoutHistory(c *gin.Context) {
	limit := parseLimit(c)

	records, total, err := h.history.ListScoutHistory(c.Request.Context(), limit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendPaginated(c, records, util.Pagination{Limit: limit, Total: total})
}

// ListJumps handles GET /api/v1/jumps?limit=
func (h *ScoutHandler) ListJumps(c *gin.Context) {
	limit := parseLimit(c)

	jumps, total, err := h.history.ListJumps(c.Request.Context(), limit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendPaginated(c, jumps, util.Pagination{Limit: limit, Total: total})
}

// GetJump handles GET /api/v1/jumps/:id
func (h *ScoutHandler) GetJump(c *gin.Context) {
	jump, err := h.history.GetJump(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrJumpNotFound) {
			util.SendError(c, util.ErrNotFound("Jump not found"))
			return
		}
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, jump)
}

// ListValues handles GET /api/v1/values/:coin?limit=
func (h *ScoutHandler) ListValues(c *gin.Context) {
	values, err := h.history.ListCoinValues(c.Request.Context(), strings.ToLower(c.Param("coin")), parseLimit(c))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, values)
}

// TriggerScout handles POST /api/v1/scout
func (h *ScoutHandler) TriggerScout(c *gin.Context) {
	summary, err := h.scheduler.RunPass(c.Request.Context())
	switch {
	case errors.Is(err, service.ErrPassInProgress):
		util.SendError(c, util.ErrConflict("A scout pass is already running"))
	case errors.Is(err, service.ErrThresholdsNotReady):
		util.SendError(c, util.WrapError(http.StatusServiceUnavailable, util.ErrCodeServiceUnavailable, "Trade thresholds are not initialized yet", err))
	case err == nil, errors.Is(err, autotrader.ErrMissingPrice):
		// an aborted pass is a normal outcome, reported in the summary
		util.SendSuccess(c, summary)
	default:
		util.SendError(c, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Scout pass failed", err))
	}
}

// InitializeThresholds handles POST /api/v1/thresholds/initialize
func (h *ScoutHandler) InitializeThresholds(c *gin.Context) {
	n, err := h.scheduler.InitializeThresholds(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrPassInProgress) {
			util.SendError(c, util.ErrConflict("A scout pass is already running"))
			return
		}
		util.SendError(c, util.WrapError(http.StatusInternalServerError, util.ErrCodeInternal, "Threshold initialization failed", err))
		return
	}

	util.SendSuccess(c, gin.H{"initialized": n})
}

func parseLimit(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}
