package adminapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/webserver"
)

type productCreatePayload struct {
	Name  string           `json:"name" validate:"required,max=100"`
	Price *decimal.Decimal `json:"price" validate:"required"`
	Stock *int             `json:"stock" validate:"required,min=0"`
}

type productUpdatePayload struct {
	Name  *string          `json:"name" validate:"omitempty,max=100"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,min=0"`
}

// registerProductRoutes registers product CRUD endpoints
func registerProductRoutes() {
	webserver.ApiGET("/products", listProducts)
	webserver.ApiGET("/products/low-stock", listLowStockProducts)
	webserver.ApiGET("/products/:id", getProduct)
	webserver.ApiPOST("/products", createProduct)
	webserver.ApiPUT("/products/:id", updateProduct)
	webserver.ApiDELETE("/products/:id", deleteProduct)
}

// listProducts
// @Summary List products
// @Tags Product
// @Param search query string false "Case-insensitive name filter"
// @Success 200 {object} Response
// @Router /products [get]
func listProducts(c echo.Context) error {
	products, err := GetAppContext(c).ProductService().Search(c.QueryParam("search"))
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, products)
}

// @Summary List products below the low-stock threshold
// @Tags Product
// @Success 200 {object} Response
// @Router /products/low-stock [get]
func listLowStockProducts(c echo.Context) error {
	svc := GetAppContext(c).ProductService()
	products, err := svc.LowStock()
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, map[string]interface{}{
		"threshold": svc.Threshold(),
		"products":  products,
	})
}

// @Summary Get product
// @Tags Product
// @Param id path int true "Product ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [get]
func getProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	p, err := GetAppContext(c).ProductService().Get(id)
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, p)
}

// @Summary Create product
// @Tags Product
// @Param product body productCreatePayload true "Product"
// @Success 201 {object} Response
// @Failure 422 {object} ErrorResponse
// @Router /products [post]
func createProduct(c echo.Context) error {
	var payload productCreatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	p, err := GetAppContext(c).ProductService().Create(domain.ProductCreate{
		Name:  payload.Name,
		Price: *payload.Price,
		Stock: *payload.Stock,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return created(c, p)
}

// @Summary Update product
// @Tags Product
// @Param id path int true "Product ID"
// @Param product body productUpdatePayload true "Fields to change"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [put]
func updateProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	var payload productUpdatePayload
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse product parameters", nil)
	}
	if err := c.Validate(&payload); err != nil {
		return handleValidationError(c, err)
	}

	p, err := GetAppContext(c).ProductService().Update(id, domain.ProductUpdate{
		Name:  payload.Name,
		Price: payload.Price,
		Stock: payload.Stock,
	})
	if err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, p)
}

// @Summary Delete product
// @Tags Product
// @Param id path int true "Product ID"
// @Success 200 {object} Response
// @Failure 404 {object} ErrorResponse
// @Router /products/{id} [delete]
func deleteProduct(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_ID", "Invalid product ID", nil)
	}
	if err := GetAppContext(c).ProductService().Delete(id); err != nil {
		return handleServiceError(c, err)
	}
	return ok(c, map[string]interface{}{"id": id, "deleted": true})
}
