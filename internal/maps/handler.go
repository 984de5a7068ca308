package maps

import (
	"net/http"

	"listingmap_backend/internal/listings/state"
	"listingmap_backend/platform/apperr"
	"listingmap_backend/platform/httpkit"
	"listingmap_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler exposes the map variants over HTTP.
type Handler struct {
	svc *Service
	val *validator.Validator
}

func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the map routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/variants", h.ListVariants)

	variant := rg.Group("/maps/:variant")
	variant.GET("", h.GetMap)
	variant.POST("/reload", h.Reload)
	variant.PUT("/grouping", h.SetGrouping)
	variant.GET("/cells", h.GetCell)
	variant.POST("/selection", h.Select)
	variant.DELETE("/selection", h.ClearSelection)
	variant.GET("/loads", h.ListLoads)
	variant.GET("/loads/:loadId/cells", h.ListLoadCells)
}

// ListVariants handles GET /api/v1/variants
func (h *Handler) ListVariants(c *gin.Context) {
	all := h.svc.Variants()
	out := make([]VariantSummary, 0, len(all))
	for _, v := range all {
		out = append(out, VariantSummary{
			Name:             v.Name,
			Title:            v.Title,
			Provider:         string(v.Provider),
			Precision:        v.Precision,
			DistrictGrouping: v.DistrictGrouping && h.svc.DistrictsEnabled(),
			Map:              v.Map,
		})
	}
	httpkit.OK(c, out)
}

// GetMap handles GET /api/v1/maps/:variant
// A failed load still returns the (empty) view, with 503.
func (h *Handler) GetMap(c *gin.Context) {
	mv, err := h.svc.MapView(c.Request.Context(), c.Param("variant"))
	if httpkit.HandleError(c, err) {
		return
	}
	if mv.Status == state.StatusFailed {
		httpkit.JSON(c, http.StatusServiceUnavailable, mv)
		return
	}
	httpkit.OK(c, mv)
}

// Reload handles POST /api/v1/maps/:variant/reload
func (h *Handler) Reload(c *gin.Context) {
	view, err := h.svc.Reload(c.Request.Context(), c.Param("variant"))
	if httpkit.HandleError(c, err) {
		return
	}

	resp := ReloadResponse{
		Variant: view.Variant,
		Status:  view.Status,
		LoadID:  view.LoadID,
		Counts:  view.Counts,
	}
	if view.Grid != nil {
		resp.Cells = view.Grid.Len()
	}
	if view.Err != nil {
		resp.Error = view.Err.Error()
		httpkit.JSON(c, http.StatusServiceUnavailable, resp)
		return
	}
	httpkit.OK(c, resp)
}

// SetGrouping handles PUT /api/v1/maps/:variant/grouping
func (h *Handler) SetGrouping(c *gin.Context) {
	var req GroupingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	mv, err := h.svc.SetGrouping(c.Request.Context(), c.Param("variant"), req.Mode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, mv)
}

// GetCell handles GET /api/v1/maps/:variant/cells?key=...
func (h *Handler) GetCell(c *gin.Context) {
	var req CellQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	panel, err := h.svc.Cell(c.Request.Context(), c.Param("variant"), req.Key, req.Mode)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, panel)
}

// Select handles POST /api/v1/maps/:variant/selection
func (h *Handler) Select(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	mv, err := h.svc.Select(c.Request.Context(), c.Param("variant"), req.Key)
	if httpkit.HandleError(c, err) {
		return
	}
	resp := SelectionResponse{MapView: mv}
	if mv.InfoWindow != nil {
		resp.Panel = &mv.InfoWindow.Panel
	}
	httpkit.OK(c, resp)
}

// ClearSelection handles DELETE /api/v1/maps/:variant/selection
func (h *Handler) ClearSelection(c *gin.Context) {
	mv, err := h.svc.ClearSelection(c.Request.Context(), c.Param("variant"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, SelectionResponse{MapView: mv})
}

// ListLoads handles GET /api/v1/maps/:variant/loads
func (h *Handler) ListLoads(c *gin.Context) {
	var req LoadsQuery
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest(msgInvalidRequest))
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Fields(err))
		return
	}

	loads, err := h.svc.Loads(c.Request.Context(), c.Param("variant"), req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, loads)
}

// ListLoadCells handles GET /api/v1/maps/:variant/loads/:loadId/cells
func (h *Handler) ListLoadCells(c *gin.Context) {
	loadID, err := uuid.Parse(c.Param("loadId"))
	if err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid load id").WithDetails(map[string]string{"loadId": c.Param("loadId")}))
		return
	}

	cells, err := h.svc.LoadCells(c.Request.Context(), c.Param("variant"), loadID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, cells)
}
