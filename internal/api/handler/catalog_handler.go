package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/loanflow/origination/internal/core/ports"
)

// CatalogHandler serves loan modules and their products.
type CatalogHandler struct {
	service ports.CatalogService
}

func NewCatalogHandler(service ports.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func toModuleResponse(s ports.ModuleSummary) moduleResponse {
	return moduleResponse{
		LoanModule:   s.Module,
		ProductCount: s.ProductCount,
		RateRange:    s.RateRange,
		TenureRange:  s.TenureRange,
	}
}

// ListModules handles GET /v1/modules.
//
// @Summary      List the loan modules visible to the caller
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   moduleResponse
// @Failure      401  {object}  errorResponse
// @Router       /v1/modules [get]
func (h *CatalogHandler) ListModules(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	summaries, err := h.service.ListModules(c.Request().Context(), user)
	if err != nil {
		return err
	}
	out := make([]moduleResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, toModuleResponse(s))
	}
	return c.JSON(http.StatusOK, out)
}

// GetModule handles GET /v1/modules/:slug.
//
// @Summary      Get a loan module
// @Tags         modules
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Module slug"
// @Success      200   {object}  moduleResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/modules/{slug} [get]
func (h *CatalogHandler) GetModule(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	summary, err := h.service.GetModule(c.Request().Context(), user, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toModuleResponse(*summary))
}

// CreateModule handles POST /v1/modules.
//
// @Summary      Create a loan module
// @Tags         modules
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createModuleRequest  true  "Module"
// @Success      201   {object}  domain.LoanModule
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/modules [post]
func (h *CatalogHandler) CreateModule(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createModuleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	module, err := h.service.CreateModule(c.Request().Context(), user, ports.CreateModuleInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Logo:        req.Logo,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, module)
}

// DeleteModule handles DELETE /v1/modules/:slug.
//
// @Summary      Delete a loan module and its products
// @Tags         modules
// @Security     BearerAuth
// @Param        slug  path  string  true  "Module slug"
// @Success      204
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/modules/{slug} [delete]
func (h *CatalogHandler) DeleteModule(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteModule(c.Request().Context(), user, c.Param("slug")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProducts handles GET /v1/modules/:slug/products.
//
// @Summary      List the products of a module
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string  true  "Module slug"
// @Success      200   {array}   domain.Product
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/modules/{slug}/products [get]
func (h *CatalogHandler) ListProducts(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	products, err := h.service.ListProducts(c.Request().Context(), user, c.Param("slug"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /v1/modules/:slug/products.
//
// @Summary      Add a product to a module
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        slug  path      string                true  "Module slug"
// @Param        body  body      createProductRequest  true  "Product"
// @Success      201   {object}  domain.Product
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/modules/{slug}/products [post]
func (h *CatalogHandler) CreateProduct(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var req createProductRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	product, err := h.service.CreateProduct(c.Request().Context(), user, c.Param("slug"), ports.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		MinimumLoan: req.MinimumLoan,
		MaximumLoan: req.MaximumLoan,
		Rates:       req.Rates,
		TenureYears: req.TenureYears,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, product)
}
