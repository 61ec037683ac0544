package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fanforge/fanforged/internal/control"
	"github.com/fanforge/fanforged/internal/filter"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fixedSensor struct {
	value float64
}

func (s fixedSensor) GetValue() (float64, error) {
	return s.value, nil
}

type noopActuator struct{}

func (a noopActuator) SetDutyPercent(pct float64) error {
	return nil
}

func (a noopActuator) GetLastLevel() float64 {
	return 0
}

var (
	testService *echo.Echo
	testStore   *control.Store
)

// the prometheus middleware registers globally, so the service is
// built once for the whole package
func TestMain(m *testing.M) {
	testStore = control.NewStore(control.DefaultConfig())
	controller := control.NewController(
		testStore,
		fixedSensor{value: 30},
		noopActuator{},
		filter.NewDeadbandFilter(filter.DefaultDeadband),
		200*time.Millisecond,
	)
	testService = CreateRestService(controller, testStore, nil)
	os.Exit(m.Run())
}

func TestRest_GetStatus(t *testing.T) {
	// GIVEN
	service := testService
	req := httptest.NewRequest(http.MethodGet, "/api/status/", nil)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)

	var status map[string]interface{}
	err := json.Unmarshal(rec.Body.Bytes(), &status)
	assert.NoError(t, err)
	// no tick has run yet, there is no usable control temperature
	assert.Nil(t, status["temp_c"])
	assert.Equal(t, "auto", status["mode"])
}

func TestRest_GetConfig(t *testing.T) {
	// GIVEN
	service := testService
	req := httptest.NewRequest(http.MethodGet, "/api/config/", nil)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)

	var doc control.ConfigDocument
	err := json.Unmarshal(rec.Body.Bytes(), &doc)
	assert.NoError(t, err)
	assert.Equal(t, "auto", doc.Mode)
	assert.Len(t, doc.Points, 2)
}

func TestRest_ApplyConfig(t *testing.T) {
	// GIVEN
	service, store := testService, testStore
	defer store.Set(control.DefaultConfig())
	body := `{
		"mode": "manual",
		"smoothing_mode": "smooth",
		"points": [{"t": 25, "p": 30}, {"t": 45, "p": 90}],
		"min_pwm": 10,
		"max_pwm": 90,
		"slew_pct_per_sec": 20,
		"failsafe_temp": 75,
		"failsafe_pwm": 100,
		"manual_pwm": 42
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/config/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, control.ModeManual, store.Active().Mode)
	assert.Equal(t, 42.0, store.Active().ManualPwm)
}

func TestRest_ApplyConfig_ReportsAllViolations(t *testing.T) {
	// GIVEN
	service, store := testService, testStore
	before := store.Active()
	body := `{
		"mode": "nonsense",
		"smoothing_mode": "linear",
		"points": [{"t": 25, "p": 30}],
		"min_pwm": 10,
		"max_pwm": 90,
		"slew_pct_per_sec": -5,
		"failsafe_temp": 75,
		"failsafe_pwm": 100
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/config/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var response ErrorResponse
	err := json.Unmarshal(rec.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, len(response.Errors), 3)

	// the active config is untouched
	assert.Equal(t, before, store.Active())
}

func TestRest_ApplyConfig_InvalidJson(t *testing.T) {
	// GIVEN
	service := testService
	req := httptest.NewRequest(http.MethodPost, "/api/config/", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRest_CurvePreview(t *testing.T) {
	// GIVEN
	service := testService
	req := httptest.NewRequest(http.MethodGet, "/api/curve/preview/", nil)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)

	var preview struct {
		SmoothingMode string    `json:"smoothing_mode"`
		Values        []float64 `json:"values"`
	}
	err := json.Unmarshal(rec.Body.Bytes(), &preview)
	assert.NoError(t, err)
	assert.Equal(t, "linear", preview.SmoothingMode)
	assert.NotEmpty(t, preview.Values)
}

func TestRest_Alive(t *testing.T) {
	// GIVEN
	service := testService
	req := httptest.NewRequest(http.MethodGet, "/alive/", nil)
	rec := httptest.NewRecorder()

	// WHEN
	service.ServeHTTP(rec, req)

	// THEN
	assert.Equal(t, http.StatusOK, rec.Code)
}
