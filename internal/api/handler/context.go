package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/api/middleware"
	"github.com/loanflow/origination/internal/core/domain"
)

// currentUser returns the account placed in context by the LoadUser
// middleware. Its absence means the route was mounted without the auth chain.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.ContextUser).(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return user, nil
}

// bindAndValidate binds the request into req and runs the registered validator.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}
