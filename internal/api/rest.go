package api

import (
	"net/http"

	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/persistence"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	urlParamId      = "id"
	indentationChar = "  "
)

type (
	Result struct {
		Name    string `json:"name"`
		Message string `json:"message"`
	}

	// ErrorResponse is returned for rejected config requests. Error holds
	// the joined message, Errors lists every violated field.
	ErrorResponse struct {
		Error  string                    `json:"error"`
		Errors []control.ValidationError `json:"errors,omitempty"`
	}
)

func CreateRestService(controller *control.Controller, store *control.Store, pers persistence.Persistence) *echo.Echo {
	echoRest := echo.New()
	echoRest.HideBanner = true

	// Root level middleware
	echoRest.Pre(middleware.AddTrailingSlash())

	echoRest.Use(middleware.Secure())

	echoRest.Use(middleware.Logger())
	echoRest.Use(middleware.Recover())
	echoRest.Use(middleware.CORS())
	echoRest.Use(echoprometheus.NewMiddleware("fanforged"))

	echoRest.GET("/alive/", isAlive)

	registerControlEndpoints(echoRest, controller, store, pers)
	registerSensorEndpoints(echoRest)
	registerFanEndpoints(echoRest)

	return echoRest
}

// returns an empty "ok" answer
func isAlive(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// return a "not found" message
func returnNotFound(c echo.Context, id string) (err error) {
	return c.JSONPretty(http.StatusNotFound, &Result{
		Name:    "Not found",
		Message: "No item with id '" + id + "' found",
	}, indentationChar)
}

// return the error message of an error
func returnError(c echo.Context, e error) (err error) {
	return c.JSONPretty(http.StatusInternalServerError, &Result{
		Name:    "Unknown Error",
		Message: e.Error(),
	}, indentationChar)
}
