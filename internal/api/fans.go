package api

import (
	"net/http"

	"github.com/fanforge/fanforged/internal/fans"
	"github.com/labstack/echo/v4"
)

func registerFanEndpoints(rest *echo.Echo) {
	group := rest.Group("/fan")

	group.GET("/", getFans)
	group.GET("/:"+urlParamId+"/", getFan)
}

// returns a list of all currently configured fans
func getFans(c echo.Context) error {
	data := fans.FanMap
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}

func getFan(c echo.Context) error {
	id := c.Param(urlParamId)
	data, exists := fans.FanMap[id]
	if !exists {
		return returnNotFound(c, id)
	}
	return c.JSONPretty(http.StatusOK, data, indentationChar)
}
