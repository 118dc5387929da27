// Package webui serves the server-rendered shop pages.
package webui

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/mitchellh/mapstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"github.com/talkincode/toughpos/internal/app"
	"github.com/talkincode/toughpos/internal/domain"
	"github.com/talkincode/toughpos/internal/webserver"
	"go.uber.org/zap"
)

const (
	sessionName = "toughpos"
	flashKey    = "flash"
)

// Init installs the renderer and registers the page routes
func Init(appCtx app.AppContext) error {
	cfg := appCtx.Config()
	r, err := NewRenderer(cfg.System.Language, appCtx.ReportService().Location())
	if err != nil {
		return err
	}
	webserver.SetRenderer(r)

	webserver.GET("/", dashboardPage)
	webserver.GET("/pos", posPage)
	webserver.GET("/products", productsPage)
	webserver.GET("/products/add", addProductPage)
	webserver.POST("/products/add", addProductSubmit)
	webserver.GET("/products/:id/edit", editProductPage)
	webserver.POST("/products/:id/edit", editProductSubmit)
	webserver.POST("/products/:id/delete", deleteProductSubmit)
	webserver.GET("/transactions", transactionsPage)
	webserver.GET("/transactions/:id", transactionDetailPage)
	return nil
}

func appContext(c echo.Context) app.AppContext {
	return c.Get(webserver.AppContextKey).(app.AppContext)
}

// page collects the values every template expects
func page(c echo.Context, title, active string, data echo.Map) echo.Map {
	if data == nil {
		data = echo.Map{}
	}
	data["Title"] = title
	data["Active"] = active
	data["AppName"] = appContext(c).Config().System.Appid
	data["Flashes"] = takeFlashes(c)
	return data
}

func addFlash(c echo.Context, msg string) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		zap.L().Warn("load session", zap.Error(err))
		return
	}
	sess.AddFlash(msg, flashKey)
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Warn("save session", zap.Error(err))
	}
}

func takeFlashes(c echo.Context) []string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes(flashKey)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		zap.L().Warn("save session", zap.Error(err))
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		out = append(out, cast.ToString(f))
	}
	return out
}

// renderError shows the error page; storage failures keep their details in the log
func renderError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Data files could not be read or written"
	var (
		nf *domain.NotFoundError
		se *domain.StorageError
	)
	switch {
	case errors.As(err, &nf):
		status, message = http.StatusNotFound, nf.Error()
	case errors.As(err, &se):
		zap.L().Error("storage failure", zap.String("uri", c.Request().RequestURI), zap.Error(err))
	default:
		zap.L().Error("page failed", zap.String("uri", c.Request().RequestURI), zap.Error(err))
		message = "Internal server error"
	}
	return c.Render(status, "error", page(c, "Error", "", echo.Map{"Status": status, "Message": message}))
}

func dashboardPage(c echo.Context) error {
	stats, err := appContext(c).ReportService().Dashboard(c.Request().Context())
	if err != nil {
		return renderError(c, err)
	}
	return c.Render(http.StatusOK, "dashboard", page(c, "Dashboard", "dashboard", echo.Map{"Stats": stats}))
}

func posPage(c echo.Context) error {
	products, err := appContext(c).ProductService().List()
	if err != nil {
		return renderError(c, err)
	}
	return c.Render(http.StatusOK, "pos", page(c, "Kasir", "pos", echo.Map{"Products": products}))
}

func productsPage(c echo.Context) error {
	svc := appContext(c).ProductService()
	q := strings.TrimSpace(c.QueryParam("search"))
	products, err := svc.Search(q)
	if err != nil {
		return renderError(c, err)
	}
	return c.Render(http.StatusOK, "products", page(c, "Produk", "products", echo.Map{
		"Products":  products,
		"Search":    q,
		"Threshold": svc.Threshold(),
	}))
}

// productForm the add/edit form fields as posted
type productForm struct {
	Name  string `mapstructure:"name"`
	Price string `mapstructure:"price"`
	Stock int    `mapstructure:"stock"`
}

func decodeProductForm(c echo.Context) (productForm, decimal.Decimal, error) {
	var form productForm
	values, err := c.FormParams()
	if err != nil {
		return form, decimal.Zero, domain.NewValidationError("", "unable to read form")
	}
	input := make(map[string]interface{}, len(values))
	for k, v := range values {
		if len(v) > 0 {
			input[k] = strings.TrimSpace(v[0])
		}
	}
	if stock, _ := input["stock"].(string); stock == "" {
		_ = mapstructure.WeakDecode(input, &form)
		return form, decimal.Zero, domain.NewValidationError("stock", "stock is required")
	}
	if err := mapstructure.WeakDecode(input, &form); err != nil {
		return form, decimal.Zero, domain.NewValidationError("stock", "stock must be a whole number")
	}
	price, err := decimal.NewFromString(form.Price)
	if err != nil {
		return form, decimal.Zero, domain.NewValidationError("price", "price must be a number")
	}
	return form, price, nil
}

func renderProductForm(c echo.Context, status int, title string, id int64, form productForm, err error) error {
	data := echo.Map{"Form": form, "ID": id}
	if err != nil {
		data["Error"] = err.Error()
	}
	return c.Render(status, "product_form", page(c, title, "products", data))
}

func addProductPage(c echo.Context) error {
	return renderProductForm(c, http.StatusOK, "Tambah Produk", 0, productForm{}, nil)
}

func addProductSubmit(c echo.Context) error {
	form, price, err := decodeProductForm(c)
	if err == nil {
		var p domain.Product
		p, err = appContext(c).ProductService().Create(domain.ProductCreate{Name: form.Name, Price: price, Stock: form.Stock})
		if err == nil {
			addFlash(c, "Produk \""+p.Name+"\" ditambahkan")
			return c.Redirect(http.StatusSeeOther, "/products")
		}
	}
	return formError(c, "Tambah Produk", 0, form, err)
}

func formError(c echo.Context, title string, id int64, form productForm, err error) error {
	var ve *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &ve):
		return renderProductForm(c, http.StatusUnprocessableEntity, title, id, form, err)
	case errors.As(err, &nf):
		addFlash(c, nf.Error())
		return c.Redirect(http.StatusSeeOther, "/products")
	}
	return renderError(c, err)
}

func editProductPage(c echo.Context) error {
	id := cast.ToInt64(c.Param("id"))
	p, err := appContext(c).ProductService().Get(id)
	if err != nil {
		return renderError(c, err)
	}
	form := productForm{Name: p.Name, Price: p.Price.String(), Stock: p.Stock}
	return renderProductForm(c, http.StatusOK, "Edit Produk", p.ID, form, nil)
}

func editProductSubmit(c echo.Context) error {
	id := cast.ToInt64(c.Param("id"))
	form, price, err := decodeProductForm(c)
	if err == nil {
		name, stock := form.Name, form.Stock
		var p domain.Product
		p, err = appContext(c).ProductService().Update(id, domain.ProductUpdate{Name: &name, Price: &price, Stock: &stock})
		if err == nil {
			addFlash(c, "Produk \""+p.Name+"\" diperbarui")
			return c.Redirect(http.StatusSeeOther, "/products")
		}
	}
	return formError(c, "Edit Produk", id, form, err)
}

func deleteProductSubmit(c echo.Context) error {
	id := cast.ToInt64(c.Param("id"))
	svc := appContext(c).ProductService()
	p, err := svc.Get(id)
	if err == nil {
		err = svc.Delete(id)
	}
	var nf *domain.NotFoundError
	switch {
	case err == nil:
		addFlash(c, "Produk \""+p.Name+"\" dihapus")
	case errors.As(err, &nf):
		addFlash(c, nf.Error())
	default:
		return renderError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/products")
}

func transactionsPage(c echo.Context) error {
	appCtx := appContext(c)
	txs, err := appCtx.TransactionService().List()
	if err != nil {
		return renderError(c, err)
	}
	report, err := appCtx.ReportService().Today()
	if err != nil {
		return renderError(c, err)
	}
	return c.Render(http.StatusOK, "transactions", page(c, "Transaksi", "transactions", echo.Map{
		"Transactions": txs,
		"Report":       report,
	}))
}

func transactionDetailPage(c echo.Context) error {
	tx, err := appContext(c).TransactionService().Get(c.Param("id"))
	if err != nil {
		return renderError(c, err)
	}
	return c.Render(http.StatusOK, "transaction_detail", page(c, "Transaksi "+tx.ID, "transactions", echo.Map{"Tx": tx}))
}
