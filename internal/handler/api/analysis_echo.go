package api

import (
	"errors"
	"net/http"

	models "TechPulse/internal/domain/models"
	"TechPulse/internal/service/stream"
	"TechPulse/internal/services/indicators"
	"TechPulse/internal/usecase"
	xhttp "TechPulse/pkg/http"
	xlogger "TechPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the analysis usecase over HTTP and, when a hub
// is configured, the websocket result stream.
type AnalysisEchoHandler struct {
	logger     *xlogger.Logger
	uc         *usecase.AnalysisUseCase
	hub        *stream.Hub
	streamPath string
}

func NewAnalysisEchoHandler(logger *xlogger.Logger, uc *usecase.AnalysisUseCase, hub *stream.Hub, streamPath string) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{logger: logger, uc: uc, hub: hub, streamPath: streamPath}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api/analysis")
	g.POST("", h.Analyze)
	g.POST("/batch", h.AnalyzeBatch)
	g.GET("/defaults", h.Defaults)
	g.GET("/history", h.History)

	if h.hub != nil && h.streamPath != "" {
		e.GET(h.streamPath, h.Stream)
	}
}

func (h *AnalysisEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.Analyze(c.Request().Context(), usecase.SourceHTTP, *req)
	if err != nil {
		return h.analysisError(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) AnalyzeBatch(c echo.Context) error {
	req := &models.BatchAnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.uc.AnalyzeBatch(c.Request().Context(), usecase.SourceHTTP, req.Items))
}

func (h *AnalysisEchoHandler) Defaults(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, h.uc.Defaults())
}

func (h *AnalysisEchoHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.uc.History(c.Request().Context(), req.Symbol, req.Limit)
	if err != nil {
		if errors.Is(err, usecase.ErrHistoryDisabled) {
			return xhttp.AppErrorResponse(c,
				xhttp.NewAppError("ERR_HISTORY_DISABLED", "", err.Error(), http.StatusNotImplemented))
		}
		h.logger.Error("history usecase error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("could not load analysis history").WithError(err))
	}
	if res == nil {
		res = []*models.Analysis{}
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Stream(c echo.Context) error {
	if err := h.hub.ServeWS(c.Response(), c.Request()); err != nil {
		// The upgrader has already answered the request.
		h.logger.Debug("websocket upgrade failed", xlogger.Error(err))
	}
	return nil
}

func (h *AnalysisEchoHandler) analysisError(c echo.Context, err error) error {
	if errors.Is(err, indicators.ErrInvalidArgument) {
		return xhttp.AppErrorResponse(c, xhttp.InvalidArgumentError(err))
	}
	h.logger.Error("analysis usecase error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, xhttp.InternalError("analysis failed").WithError(err))
}

var _ xhttp.Handler = (*AnalysisEchoHandler)(nil)
