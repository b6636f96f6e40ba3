package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/ports"
)

// WorkflowHandler exposes the remark timeline of an application.
type WorkflowHandler struct {
	service ports.WorkflowService
}

func NewWorkflowHandler(service ports.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{service: service}
}

func toRemarkResponse(res *ports.RemarkResult) remarkResponse {
	return remarkResponse{
		Remark:            res.Remark,
		ApplicationStatus: res.ApplicationStatus,
		StatusChanged:     res.StatusChanged,
	}
}

// AddRemark handles POST /v1/applications/:reference/remarks.
//
// @Summary      Add a workflow remark
// @Description  The newest remark decides the application status.
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string         true  "Reference id"
// @Param        body       body      remarkRequest  true  "Remark"
// @Success      201        {object}  remarkResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/remarks [post]
func (h *WorkflowHandler) AddRemark(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req remarkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.service.AddRemark(c.Request().Context(), user, c.Param("reference"), ports.RemarkInput{
		Status:  req.Status,
		Remarks: req.Remarks,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toRemarkResponse(res))
}

// UpdateRemark handles PUT /v1/applications/:reference/remarks/:id.
//
// @Summary      Edit a workflow remark
// @Tags         workflow
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string         true  "Reference id"
// @Param        id         path      string         true  "Remark id"
// @Param        body       body      remarkRequest  true  "Remark"
// @Success      200        {object}  remarkResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/applications/{reference}/remarks/{id} [put]
func (h *WorkflowHandler) UpdateRemark(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req remarkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	res, err := h.service.UpdateRemark(c.Request().Context(), user, c.Param("reference"), c.Param("id"), ports.RemarkInput{
		Status:  req.Status,
		Remarks: req.Remarks,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toRemarkResponse(res))
}

// DeleteRemark handles DELETE /v1/applications/:reference/remarks/:id.
//
// @Summary      Delete a workflow remark
// @Tags         workflow
// @Produce      json
// @Security     BearerAuth
// @Param        reference  path      string  true  "Reference id"
// @Param        id         path      string  true  "Remark id"
// @Success      200        {object}  remarkResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /v1/applications/{reference}/remarks/{id} [delete]
func (h *WorkflowHandler) DeleteRemark(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	status, err := h.service.DeleteRemark(c.Request().Context(), user, c.Param("reference"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, remarkResponse{ApplicationStatus: status})
}
