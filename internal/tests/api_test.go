// internal/tests/api_test.go
package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rodoaet/aet-backend/internal/config"
	"github.com/rodoaet/aet-backend/internal/database"
	"github.com/rodoaet/aet-backend/internal/i18n"
	"github.com/rodoaet/aet-backend/internal/models"
	"github.com/rodoaet/aet-backend/internal/realtime"
	"github.com/rodoaet/aet-backend/internal/router"
	"github.com/rodoaet/aet-backend/internal/store"
	"github.com/rodoaet/aet-backend/internal/utils"
)

// APITestSuite runs the HTTP surface against a real Postgres database.
// It needs TEST_DATABASE_URL and is skipped otherwise.
type APITestSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	hub    *realtime.Hub

	operator      models.User
	staff         models.User
	operatorToken string
	staffToken    string
}

func (suite *APITestSuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		suite.T().Skip("TEST_DATABASE_URL not set")
	}

	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), database.RunMigrations(db))
	suite.db = db

	cfg := &config.Config{
		Environment: "test",
		JWT: config.JWTConfig{
			SecretKey:      "test-secret",
			AccessTokenTTL: 1,
		},
		Receita: config.ReceitaConfig{
			BaseURL:       "http://127.0.0.1:1", // never reached in these tests
			TimeoutSecs:   1,
			CacheTTLHours: 1,
		},
		Payment: config.PaymentConfig{
			BaseServiceFee: 85.0,
		},
		Frontend: config.FrontendConfig{
			BaseURL: "http://localhost:3000",
		},
	}

	require.NoError(suite.T(), i18n.Initialize("../i18n/locales", "pt_BR"))

	suite.hub = realtime.NewHub()
	go suite.hub.Run()

	suite.router = router.Initialize(db, cfg, suite.hub)

	suite.operator = suite.createUser("Maria Operadora", models.UserTypeOperator)
	suite.staff = suite.createUser("Carlos Analista", models.UserTypeStaff)
	suite.operatorToken = suite.tokenFor(suite.operator)
	suite.staffToken = suite.tokenFor(suite.staff)
}

func (suite *APITestSuite) TearDownSuite() {
	if suite.hub != nil {
		suite.hub.Stop()
	}
	if suite.db != nil {
		suite.db.Exec("DELETE FROM audit_logs")
		suite.db.Exec("DELETE FROM notifications")
		suite.db.Exec("DELETE FROM transactions")
		suite.db.Exec("DELETE FROM license_requests")
		suite.db.Exec("DELETE FROM vehicles")
		suite.db.Exec("DELETE FROM transporters")
		suite.db.Exec("DELETE FROM users")
	}
}

func (suite *APITestSuite) createUser(name string, userType models.UserType) models.User {
	user := models.User{
		Name:     name,
		Email:    fmt.Sprintf("%s@example.com", uuid.New().String()[:8]),
		UserType: userType,
		Status:   models.UserStatusActive,
	}
	require.NoError(suite.T(), suite.db.Create(&user).Error)
	return user
}

func (suite *APITestSuite) tokenFor(user models.User) string {
	token, err := utils.GenerateJWT(user.ID, string(user.UserType), 1)
	require.NoError(suite.T(), err)
	return token
}

func (suite *APITestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (suite *APITestSuite) TestHealthEndpoint() {
	w := suite.request("GET", "/health", "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestAuthenticationRequired() {
	w := suite.request("GET", "/v1/licenses", "", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)

	w = suite.request("GET", "/v1/licenses", "not-a-token", nil)
	assert.Equal(suite.T(), http.StatusUnauthorized, w.Code)
}

func (suite *APITestSuite) TestStaffRoutesRejectOperators() {
	w := suite.request("GET", "/v1/staff/licenses", suite.operatorToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *APITestSuite) TestVerificationUnknownNumber() {
	w := suite.request("GET", "/v1/verify/AET-2026-000000", "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func (suite *APITestSuite) createVehicle(plate string, vt models.VehicleType) uuid.UUID {
	w := suite.request("POST", "/v1/vehicles", suite.operatorToken, map[string]interface{}{
		"plate":       plate,
		"type":        string(vt),
		"axle_count":  3,
		"tare_weight": 9.5,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(suite.T(), w)
	data := body["data"].(map[string]interface{})
	vehicle := data["vehicle"].(map[string]interface{})
	id, err := uuid.Parse(vehicle["id"].(string))
	require.NoError(suite.T(), err)
	return id
}

func (suite *APITestSuite) TestVehicleLifecycle() {
	id := suite.createVehicle("ABC1D23", models.VehicleTypeTruck)

	// Duplicate plate for the same owner is rejected.
	w := suite.request("POST", "/v1/vehicles", suite.operatorToken, map[string]interface{}{
		"plate":       "abc1d23",
		"type":        "truck",
		"axle_count":  3,
		"tare_weight": 9.5,
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// Another user cannot read it.
	w = suite.request("GET", "/v1/vehicles/"+id.String(), suite.staffToken, nil)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)

	w = suite.request("DELETE", "/v1/vehicles/"+id.String(), suite.operatorToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) submitLicenseRequest(states []string) (uuid.UUID, string) {
	tractor := suite.createVehicle(randomPlate(), models.VehicleTypeTractorUnit)
	trailer := suite.createVehicle(randomPlate(), models.VehicleTypeSemiTrailer)

	w := suite.request("POST", "/v1/licenses", suite.operatorToken, map[string]interface{}{
		"type":            string(models.CombinationBitrain7Axles),
		"tractor_unit_id": tractor.String(),
		"first_trailer_id": trailer.String(),
		"length_m":        25.0,
		"width_m":         2.6,
		"height_m":        4.4,
		"gross_weight_t":  57.0,
		"states":          states,
		"submit":          true,
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(suite.T(), w)
	data := body["data"].(map[string]interface{})
	request := data["request"].(map[string]interface{})
	id, err := uuid.Parse(request["id"].(string))
	require.NoError(suite.T(), err)
	return id, request["request_number"].(string)
}

func (suite *APITestSuite) TestLicenseSubmissionAndTransitions() {
	id, number := suite.submitLicenseRequest([]string{"SP", "MG"})

	// The operator sees it with per-state statuses.
	w := suite.request("GET", "/v1/licenses/"+id.String(), suite.operatorToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)

	// Staff walks SP forward.
	w = suite.request("PUT", "/v1/staff/licenses/"+id.String()+"/states/SP", suite.staffToken, map[string]interface{}{
		"status": "registration_in_progress",
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	// Backward transitions are rejected.
	w = suite.request("PUT", "/v1/staff/licenses/"+id.String()+"/states/SP", suite.staffToken, map[string]interface{}{
		"status": "pending_registration",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	// Approval without the required data is rejected with the missing fields.
	w = suite.request("PUT", "/v1/staff/licenses/"+id.String()+"/states/SP", suite.staffToken, map[string]interface{}{
		"status": "approved",
	})
	assert.Equal(suite.T(), http.StatusUnprocessableEntity, w.Code)

	// Approval with complete data succeeds.
	w = suite.request("PUT", "/v1/staff/licenses/"+id.String()+"/states/SP", suite.staffToken, map[string]interface{}{
		"status": "approved",
		"payload": map[string]interface{}{
			"valid_until":  "2027-06-30",
			"aet_number":   "SP-123456",
			"document_url": "https://documents.example.com/sp-aet.pdf",
		},
	})
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	// A state the request does not cover is a bad request.
	w = suite.request("PUT", "/v1/staff/licenses/"+id.String()+"/states/RJ", suite.staffToken, map[string]interface{}{
		"status": "under_review",
	})
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	// Aggregate stays at the weakest state.
	w = suite.request("GET", "/v1/licenses/"+id.String()+"/progress", suite.operatorToken, nil)
	require.Equal(suite.T(), http.StatusOK, w.Code)
	body := decodeBody(suite.T(), w)
	progress := body["data"].(map[string]interface{})
	assert.Equal(suite.T(), "pending_registration", progress["status"])

	// Public verification resolves the submitted request.
	w = suite.request("GET", "/v1/verify/"+number, "", nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code)
}

func (suite *APITestSuite) TestDraftIsPrivate() {
	tractor := suite.createVehicle(randomPlate(), models.VehicleTypeTractorUnit)
	trailer := suite.createVehicle(randomPlate(), models.VehicleTypeSemiTrailer)

	w := suite.request("POST", "/v1/licenses", suite.operatorToken, map[string]interface{}{
		"type":            string(models.CombinationBitrain6Axles),
		"tractor_unit_id": tractor.String(),
		"first_trailer_id": trailer.String(),
		"length_m":        20.0,
		"width_m":         2.6,
		"height_m":        4.4,
		"gross_weight_t":  48.0,
		"states":          []string{"PR"},
	})
	require.Equal(suite.T(), http.StatusCreated, w.Code, w.Body.String())

	body := decodeBody(suite.T(), w)
	data := body["data"].(map[string]interface{})
	request := data["request"].(map[string]interface{})
	id := request["id"].(string)
	number := request["request_number"].(string)

	// Drafts never show up for staff or public verification.
	w = suite.request("GET", "/v1/staff/licenses/"+id, suite.staffToken, nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	w = suite.request("GET", "/v1/verify/"+number, "", nil)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)

	// Staff cannot transition an unsubmitted draft either.
	w = suite.request("PUT", "/v1/staff/licenses/"+id+"/states/PR", suite.staffToken, map[string]interface{}{
		"status": "registration_in_progress",
	})
	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

func (suite *APITestSuite) TestCancelRequest() {
	id, _ := suite.submitLicenseRequest([]string{"SC"})

	w := suite.request("POST", "/v1/licenses/"+id.String()+"/cancel", suite.operatorToken, nil)
	assert.Equal(suite.T(), http.StatusOK, w.Code, w.Body.String())

	// Canceling twice fails: no state left to cancel.
	w = suite.request("POST", "/v1/licenses/"+id.String()+"/cancel", suite.operatorToken, nil)
	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

func (suite *APITestSuite) TestStaleVersionSaveConflicts() {
	id, _ := suite.submitLicenseRequest([]string{"GO"})

	licenseStore := store.NewLicenseStore(suite.db)
	first, err := licenseStore.Load(id)
	require.NoError(suite.T(), err)
	second, err := licenseStore.Load(id)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), models.ApplyStateTransition(first, "GO", models.StatusRegistrationInProgress, models.TransitionPayload{}))
	require.NoError(suite.T(), licenseStore.Save(first))

	// The second snapshot now carries a stale version.
	require.NoError(suite.T(), models.ApplyStateTransition(second, "GO", models.StatusUnderReview, models.TransitionPayload{}))
	err = licenseStore.Save(second)
	assert.ErrorIs(suite.T(), err, store.ErrVersionConflict)
}

// randomPlate builds a unique Mercosul-format plate per call.
func randomPlate() string {
	u := uuid.New()
	letters := "BCDFGHJKLMNP"
	return fmt.Sprintf("%c%c%c%d%c%d%d",
		letters[int(u[0])%len(letters)],
		letters[int(u[1])%len(letters)],
		letters[int(u[2])%len(letters)],
		int(u[3])%10,
		letters[int(u[4])%len(letters)],
		int(u[5])%10,
		int(u[6])%10,
	)
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
