package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/domain"
	"github.com/loanflow/origination/internal/core/ports"
)

// ApplicationHandler handles HTTP requests for the application registry.
type ApplicationHandler struct {
	service ports.ApplicationService
}

func NewApplicationHandler(service ports.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Create handles POST /v1/applications.
//
// @Summary      Open a loan application
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createApplicationRequest  true  "Application"
// @Success      201   {object}  domain.Application
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/applications [post]
func (h *ApplicationHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createApplicationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	app, err := h.service.Create(c.Request().Context(), user, ports.CreateApplicationInput{
		CustomerID: req.CustomerID,
		ModuleID:   req.ModuleID,
		ProductID:  req.ProductID,
		AgentID:    req.AgentID,
		AdminID:    req.AdminID,
		Remarks:    req.Remarks,
		Fields:     req.Fields,
	})
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderLocation, applicationLink(app.ReferenceID))
	return c.JSON(http.StatusCreated, app)
}

// List handles GET /v1/applications.
//
// @Summary      List the applications visible to the caller
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        module  query     string  false  "Module slug"
// @Param        status  query     string  false  "Application status"
// @Param        search  query     string  false  "Partial reference id"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  listApplicationsResponse
// @Failure      403     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /v1/applications [get]
func (h *ApplicationHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var q listApplicationsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	res, err := h.service.List(c.Request().Context(), user, ports.ListApplicationsInput{
		ModuleSlug: q.Module,
		Status:     q.Status,
		Search:     q.Search,
		Page:       q.Page,
		Limit:      q.Limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listApplicationsResponse{
		Data: res.Items,
		Meta: pageMeta{Total: res.Total, Page: res.Page, Limit: res.Limit, TotalPages: res.TotalPages},
	})
}

// Get handles GET /v1/applications/:reference.
//
// @Summary      Get an application with its remark timeline
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string  true  "Reference id (e.g. ABC-123456)"
// @Success      200        {object}  applicationDetailResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/applications/{reference} [get]
func (h *ApplicationHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	detail, err := h.service.Get(c.Request().Context(), user, c.Param("reference"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, applicationDetailResponse{Application: detail.Application, Remarks: detail.Remarks})
}

// AutoSave handles PATCH /v1/applications/:reference.
// The body is a flat object of field name to value; unknown fields are ignored.
//
// @Summary      Save application fields
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string          true  "Reference id"
// @Param        body       body      map[string]any  true  "Fields to save"
// @Success      200        {object}  autoSaveResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference} [patch]
func (h *ApplicationHandler) AutoSave(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	// bind the body only; path params would otherwise land in the map
	fields := map[string]any{}
	if err := new(echo.DefaultBinder).BindBody(c, &fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if len(fields) == 0 {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "no fields to save")
	}

	res, err := h.service.AutoSave(c.Request().Context(), user, c.Param("reference"), fields)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, autoSaveResponse{Application: res.Application, Applied: res.Applied})
}

// AssignAgent handles PUT /v1/applications/:reference/agent.
//
// @Summary      Assign an agent
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string         true  "Reference id"
// @Param        body       body      assignRequest  true  "Agent"
// @Success      200        {object}  domain.Application
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/agent [put]
func (h *ApplicationHandler) AssignAgent(c echo.Context) error {
	return h.assign(c, h.service.AssignAgent)
}

// AssignAdmin handles PUT /v1/applications/:reference/admin.
//
// @Summary      Assign an admin
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string         true  "Reference id"
// @Param        body       body      assignRequest  true  "Admin"
// @Success      200        {object}  domain.Application
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/admin [put]
func (h *ApplicationHandler) AssignAdmin(c echo.Context) error {
	return h.assign(c, h.service.AssignAdmin)
}

type assignFunc func(ctx context.Context, actor *domain.User, referenceID, userID string) (*domain.Application, error)

func (h *ApplicationHandler) assign(c echo.Context, fn assignFunc) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req assignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	app, err := fn(c.Request().Context(), user, c.Param("reference"), req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// SetModule handles PUT /v1/applications/:reference/module.
//
// @Summary      Move an application to another module
// @Description  Clears the product selection when the module changes.
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string            true  "Reference id"
// @Param        body       body      setModuleRequest  true  "Module"
// @Success      200        {object}  domain.Application
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/module [put]
func (h *ApplicationHandler) SetModule(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req setModuleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	app, err := h.service.SetModule(c.Request().Context(), user, c.Param("reference"), req.ModuleID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// Delete handles DELETE /v1/applications/:reference.
//
// @Summary      Permanently delete an application
// @Tags         applications
// @Security     BearerAuth
// @Param        reference  path  string  true  "Reference id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/applications/{reference} [delete]
func (h *ApplicationHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), user, c.Param("reference")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// RequestDeletion handles POST /v1/applications/:reference/delete-request.
//
// @Summary      Ask the admins to delete one of the caller's applications
// @Tags         applications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string                true  "Reference id"
// @Param        body       body      deleteRequestRequest  true  "Reason"
// @Success      200        {object}  domain.Application
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      409        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/delete-request [post]
func (h *ApplicationHandler) RequestDeletion(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req deleteRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	app, err := h.service.RequestDeletion(c.Request().Context(), user, c.Param("reference"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, app)
}

// Dashboard handles GET /v1/dashboard.
//
// @Summary      Back-office overview of the applications visible to the caller
// @Tags         applications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dashboardResponse
// @Failure      403  {object}  errorResponse
// @Router       /v1/dashboard [get]
func (h *ApplicationHandler) Dashboard(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	board, err := h.service.Dashboard(c.Request().Context(), user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDashboardResponse(board))
}

func toDashboardResponse(d *ports.Dashboard) dashboardResponse {
	top := make([]topModuleResponse, 0, len(d.TopModules))
	for _, m := range d.TopModules {
		top = append(top, topModuleResponse{ModuleID: m.ModuleID, Name: m.Name, Total: m.Total, Week: m.Week})
	}
	return dashboardResponse{
		TotalApplications:   d.Total,
		WeekApplications:    d.Week,
		TotalActive:         d.Open,
		WeekActive:          d.WeekOpen,
		TotalPending:        d.InProgress,
		TotalApproved:       d.Approved,
		TotalRejected:       d.Rejected,
		TotalCustomers:      d.Customers,
		WeekCustomers:       d.WeekCustomers,
		TotalDisbursed:      d.Disbursed,
		WeekDisbursed:       d.WeekDisbursed,
		DisbursedGrowth:     d.DisbursedGrowth,
		MonthlyDisbursed:    d.MonthlyDisbursed[:],
		TopModules:          top,
		RecentApplications:  d.RecentApplications,
		RecentNotifications: d.RecentNotifications,
	}
}

func applicationLink(referenceID string) string {
	return "/v1/applications/" + referenceID
}
