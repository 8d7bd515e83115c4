package api

import (
	"errors"

	"HodlWatch/internal/domain/models"
	"HodlWatch/internal/services/analytics"
	"HodlWatch/internal/usecase"
	xhttp "HodlWatch/pkg/http"
	xlogger "HodlWatch/pkg/logger"
	"HodlWatch/pkg/util"

	"github.com/labstack/echo/v4"
)

// DashboardHandler serves the consumer-facing query surface over the
// annotated series and the cached Update Result.
type DashboardHandler struct {
	logger  *xlogger.Logger
	updater *usecase.Updater
	engine  *analytics.Engine
}

func NewDashboardHandler(logger *xlogger.Logger, updater *usecase.Updater, engine *analytics.Engine) *DashboardHandler {
	return &DashboardHandler{logger: logger, updater: updater, engine: engine}
}

func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/update", h.Update)
	g.GET("/series", h.Series)
	g.GET("/distribution", h.Distribution)
	g.GET("/extremes", h.Extremes)
	e.GET("/health", h.Health)
}

// SeriesWindow is the chart-friendly projection of a trailing window.
type SeriesWindow struct {
	Dates       []string  `json:"dates"`
	Percentages []float64 `json:"percentages"`
	ATHValues   []float64 `json:"ath_values"`
	HighValues  []float64 `json:"high_values"`
}

func (h *DashboardHandler) Update(c echo.Context) error {
	req := &models.UpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	var (
		result models.UpdateResult
		err    error
	)
	if req.Force {
		result, err = h.updater.RunCycle(c.Request().Context(), true)
	} else {
		result, err = h.updater.GetUpdate(c.Request().Context())
	}
	if err != nil {
		h.logger.Error("update usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, result)
}

func (h *DashboardHandler) Series(c echo.Context) error {
	req := &models.SeriesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	annotated, err := h.updater.Annotated()
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}

	window := annotated
	if req.Days != "all" {
		n := util.ParseIntDefault(req.Days, 365)
		if n <= 0 {
			return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
				Field: "days", Message: "must be a positive integer or \"all\"",
			}})
		}
		if n < len(annotated) {
			window = annotated[len(annotated)-n:]
		}
	}

	out := SeriesWindow{
		Dates:       make([]string, len(window)),
		Percentages: make([]float64, len(window)),
		ATHValues:   make([]float64, len(window)),
		HighValues:  make([]float64, len(window)),
	}
	for i, row := range window {
		out.Dates[i] = util.FormatDay(row.Date)
		out.Percentages[i] = row.PercentOfATH
		out.ATHValues[i] = row.ATH
		out.HighValues[i] = row.High
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *DashboardHandler) Distribution(c echo.Context) error {
	annotated, err := h.updater.Annotated()
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	dist, err := h.engine.Distribution(annotated)
	if err != nil {
		h.logger.Error("distribution error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, dist)
}

func (h *DashboardHandler) Extremes(c echo.Context) error {
	req := &models.ExtremesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	annotated, err := h.updater.Annotated()
	if err != nil {
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	ext, err := h.engine.RankExtremes(annotated, req.K)
	if err != nil {
		h.logger.Error("extremes error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, mapDomainError(err))
	}
	return xhttp.SuccessResponse(c, ext)
}

func (h *DashboardHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if _, _, ok := h.updater.LastResult(); !ok {
		status["status"] = "warming"
	}
	return xhttp.SuccessResponse(c, status)
}

// mapDomainError translates the domain error taxonomy onto HTTP statuses.
// Missing data is 503 (retryable once a cycle lands), upstream failures 502.
func mapDomainError(err error) error {
	var cold *models.ColdStartError
	var exhausted *models.SourcesExhaustedError
	switch {
	case models.IsPrecondition(err):
		return xhttp.UnavailableError("no analysis computed yet").WithError(err)
	case errors.As(err, &cold):
		return xhttp.BadGatewayError("historical backfill failed").WithError(err)
	case errors.As(err, &exhausted):
		return xhttp.BadGatewayError("all price sources failed").WithError(err)
	case models.IsTransient(err), models.IsSchema(err):
		return xhttp.BadGatewayError("price source failed").WithError(err)
	default:
		return xhttp.InternalError("internal error").WithError(err)
	}
}
