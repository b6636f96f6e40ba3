package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/ports"
)

// UserHandler covers account administration and sub-agent management.
type UserHandler struct {
	service ports.UserService
}

func NewUserHandler(service ports.UserService) *UserHandler {
	return &UserHandler{service: service}
}

// SetModulePermissions handles PUT /v1/users/:id/module-permissions.
//
// @Summary      Replace a user's module permissions
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                    true  "User id"
// @Param        body  body      modulePermissionsRequest  true  "Module ids"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/users/{id}/module-permissions [put]
func (h *UserHandler) SetModulePermissions(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req modulePermissionsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.SetModulePermissions(c.Request().Context(), actor, c.Param("id"), req.ModuleIDs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// SetStatus handles PUT /v1/users/:id/status.
//
// @Summary      Activate or deactivate a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      userStatusRequest  true  "Status"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/users/{id}/status [put]
func (h *UserHandler) SetStatus(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req userStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.SetStatus(c.Request().Context(), actor, c.Param("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListSubAgents handles GET /v1/sub-agents.
//
// @Summary      List the caller's sub agents
// @Tags         sub-agents
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.User
// @Failure      403  {object}  errorResponse
// @Router       /v1/sub-agents [get]
func (h *UserHandler) ListSubAgents(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListSubAgents(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// AddSubAgent handles POST /v1/sub-agents.
//
// @Summary      Promote a customer to sub agent
// @Tags         sub-agents
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      subAgentRequest  true  "Customer"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/sub-agents [post]
func (h *UserHandler) AddSubAgent(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var req subAgentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	user, err := h.service.AddSubAgent(c.Request().Context(), actor, req.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// RemoveSubAgent handles DELETE /v1/sub-agents/:id.
//
// @Summary      Release a sub agent back to customer
// @Tags         sub-agents
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  domain.User
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/sub-agents/{id} [delete]
func (h *UserHandler) RemoveSubAgent(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	user, err := h.service.RemoveSubAgent(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}
