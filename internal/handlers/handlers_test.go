package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/middleware"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/models"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/services"
	"github.com/alberto-conan-ui/ttrpg-longtermgoals/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Campaign{},
		&models.CampaignMember{},
		&models.Part{},
		&models.Session{},
		&models.LoreFragment{},
		&models.LoreFragmentShare{},
		&models.InvestigationTrack{},
		&models.TrackMilestone{},
		&models.PlayerTrackProgress{},
	))

	hub := ws.NewHub()
	authService := services.NewAuthService(db, "test-secret")
	campaignService := services.NewCampaignService(db)
	markerService := services.NewMarkerService(db)
	partService := services.NewPartService(db, markerService)

	authHandler := NewAuthHandler(authService)
	campaignHandler := NewCampaignHandler(campaignService, markerService, partService, hub)
	partHandler := NewPartHandler(partService, hub)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/auth/me", middleware.JWTAuth(authService), authHandler.Me)

	campaigns := api.Group("/campaigns")
	campaigns.Use(middleware.JWTAuth(authService))
	campaigns.POST("", campaignHandler.CreateCampaign)
	campaigns.GET("/:id", campaignHandler.GetCampaign)
	campaigns.PATCH("/:id/marker", campaignHandler.SetMarker)
	campaigns.GET("/:id/parts", campaignHandler.GetPartsTree)
	campaigns.POST("/:id/parts", partHandler.CreatePart)

	parts := api.Group("/parts")
	parts.Use(middleware.JWTAuth(authService))
	parts.POST("/:id/sessions", partHandler.CreateSession)

	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerUser(t *testing.T, r *gin.Engine, username string) string {
	t.Helper()

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestAuthFlow(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.NotContains(t, w.Body.String(), "password")

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRegisterValidation(t *testing.T) {
	r := setupRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "ab",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, http.StatusBadRequest, resp.Error.Status)
}

func TestMarkerEndpoint(t *testing.T) {
	r := setupRouter(t)
	token := registerUser(t, r, "gamemaster")

	w := doJSON(t, r, http.MethodPost, "/api/v1/campaigns", token, gin.H{
		"name": "The Long Night",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var campaign CampaignSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaign))

	w = doJSON(t, r, http.MethodPost, "/api/v1/campaigns/"+campaign.ID+"/parts", token, gin.H{
		"name": "Act One", "sort_order": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var part models.Part
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &part))

	w = doJSON(t, r, http.MethodPost, "/api/v1/parts/"+part.ID+"/sessions", token, gin.H{
		"name": "Session 1", "sort_order": 1,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session models.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "planned", session.Status)

	// Resting on an unplayed session is rejected with the structured error.
	w = doJSON(t, r, http.MethodPatch, "/api/v1/campaigns/"+campaign.ID+"/marker", token, gin.H{
		"session_id": session.ID, "between": true,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "SESSION_NOT_PLAYED", errResp.Error.Code)

	w = doJSON(t, r, http.MethodPatch, "/api/v1/campaigns/"+campaign.ID+"/marker", token, gin.H{
		"session_id": session.ID, "between": false,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.NotNil(t, updated.MarkerSessionID)
	assert.Equal(t, session.ID, *updated.MarkerSessionID)

	// Clearing the marker.
	w = doJSON(t, r, http.MethodPatch, "/api/v1/campaigns/"+campaign.ID+"/marker", token, gin.H{
		"session_id": nil,
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Nil(t, updated.MarkerSessionID)
}

func TestPartsTreeRequiresMembership(t *testing.T) {
	r := setupRouter(t)
	dmToken := registerUser(t, r, "gamemaster")
	outsiderToken := registerUser(t, r, "outsider")

	w := doJSON(t, r, http.MethodPost, "/api/v1/campaigns", dmToken, gin.H{"name": "Private game"})
	require.Equal(t, http.StatusCreated, w.Code)
	var campaign CampaignSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &campaign))

	w = doJSON(t, r, http.MethodGet, "/api/v1/campaigns/"+campaign.ID+"/parts", outsiderToken, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "CAMPAIGN_NOT_FOUND", errResp.Error.Code)
}
