package api

import (
	"errors"
	"net/http"

	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/persistence"
	"github.com/fanforge/fanforged/internal/ui"
	"github.com/labstack/echo/v4"
)

func registerControlEndpoints(rest *echo.Echo, controller *control.Controller, store *control.Store, pers persistence.Persistence) {
	group := rest.Group("/api")

	group.GET("/status/", getStatus(controller))
	group.GET("/config/", getConfig(store))
	group.POST("/config/", applyConfig(store, pers))
	group.GET("/curve/preview/", getCurvePreview(store))
}

// getStatus reports the current controller state. temp_c is null until
// the conditioner has accepted a first sample.
func getStatus(controller *control.Controller) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSONPretty(http.StatusOK, controller.Status(), indentationChar)
	}
}

func getConfig(store *control.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		doc := store.Active().Document()
		return c.JSONPretty(http.StatusOK, doc, indentationChar)
	}
}

// applyConfig validates the posted config as a whole and swaps it in
// atomically. A rejected request leaves the active config untouched and
// reports every violated field, not just the first.
func applyConfig(store *control.Store, pers persistence.Persistence) echo.HandlerFunc {
	return func(c echo.Context) error {
		var request control.Request
		if err := c.Bind(&request); err != nil {
			return c.JSONPretty(http.StatusBadRequest, &ErrorResponse{
				Error: "invalid JSON: " + err.Error(),
			}, indentationChar)
		}

		config, err := store.Apply(request)
		if err != nil {
			var violations control.ValidationErrors
			if errors.As(err, &violations) {
				return c.JSONPretty(http.StatusBadRequest, &ErrorResponse{
					Error:  violations.Error(),
					Errors: violations,
				}, indentationChar)
			}
			return returnError(c, err)
		}

		doc := config.Document()
		if pers != nil {
			if err := pers.SaveControlConfig(doc); err != nil {
				ui.Warning("Unable to persist control config: %v", err)
			}
		}

		return c.JSONPretty(http.StatusOK, doc, indentationChar)
	}
}

// getCurvePreview samples the active curve over its temperature domain,
// for plotting by UIs.
func getCurvePreview(store *control.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		config := store.Active()
		preview := struct {
			SmoothingMode string    `json:"smoothing_mode"`
			Values        []float64 `json:"values"`
		}{
			SmoothingMode: string(config.SmoothingMode),
			Values:        config.Curve.Sample(config.SmoothingMode),
		}
		return c.JSONPretty(http.StatusOK, preview, indentationChar)
	}
}
