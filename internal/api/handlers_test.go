package api_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipebook/backend/internal/api"
	"github.com/pageza/recipebook/backend/internal/mocks"
	"github.com/pageza/recipebook/backend/internal/model"
	"github.com/pageza/recipebook/backend/internal/service"
	"github.com/pageza/recipebook/backend/internal/testhelpers"
	"github.com/pageza/recipebook/backend/internal/types"
)

func newMockedRouter(t *testing.T, recipes *mocks.MockRecipeService, logs *bytes.Buffer) (*gin.Engine, uuid.UUID) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	auth := new(mocks.MockAuthService)
	auth.On("ValidateToken", "tok").Return(&types.TokenClaims{UserID: userID}, nil)

	router := gin.New()
	api.RegisterRoutes(router, api.Dependencies{
		DB:      testhelpers.SetupTestDatabase(t),
		Auth:    auth,
		Recipes: recipes,
		Logger:  slog.New(slog.NewJSONHandler(logs, nil)),
	})
	return router, userID
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer tok")
	return req
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not found", service.ErrNotFound, http.StatusNotFound, types.ErrKindNotFound},
		{"wrapped not found", errors.Join(errors.New("lookup"), service.ErrNotFound), http.StatusNotFound, types.ErrKindNotFound},
		{"validation", &service.ValidationError{Field: "title", Message: "title is required"}, http.StatusBadRequest, types.ErrKindValidation},
		{"unauthenticated", service.ErrUnauthenticated, http.StatusUnauthorized, types.ErrKindUnauthorized},
		{"rate limited", service.ErrRateLimited, http.StatusTooManyRequests, types.ErrKindRateLimited},
		{"internal", errors.New("pq: connection refused at 10.0.0.5"), http.StatusInternalServerError, types.ErrKindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			recipes := new(mocks.MockRecipeService)
			router, userID := newMockedRouter(t, recipes, &logs)
			id := uuid.New()
			recipes.On("Get", mock.Anything, userID, id).Return(nil, tt.err)

			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, authed(http.MethodGet, "/api/recipes/"+id.String()))

			assert.Equal(t, tt.wantStatus, rr.Code)
			resp := errorKind(t, rr)
			assert.Equal(t, tt.wantKind, resp.Error)
			if tt.wantStatus == http.StatusInternalServerError {
				assert.NotContains(t, rr.Body.String(), "10.0.0.5")
				assert.Contains(t, logs.String(), "10.0.0.5")
			}
			recipes.AssertExpectations(t)
		})
	}
}

func TestListPassesOwner(t *testing.T) {
	var logs bytes.Buffer
	recipes := new(mocks.MockRecipeService)
	router, userID := newMockedRouter(t, recipes, &logs)

	now := time.Now().UTC()
	recipes.On("ListMine", mock.Anything, userID).Return([]*model.Recipe{
		{ID: uuid.New(), UserID: userID, Title: "B", Category: "Other", CreatedAt: now},
		{ID: uuid.New(), UserID: userID, Title: "A", Category: "Other", CreatedAt: now.Add(-time.Hour)},
	}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, authed(http.MethodGet, "/api/recipes"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), userID.String())
	recipes.AssertExpectations(t)
}

func TestCreatePassesFormFields(t *testing.T) {
	var logs bytes.Buffer
	recipes := new(mocks.MockRecipeService)
	router, userID := newMockedRouter(t, recipes, &logs)

	created := &model.Recipe{ID: uuid.New(), UserID: userID, Title: "Waffles", Category: "Breakfast"}
	recipes.On("Create", mock.Anything, userID, mock.MatchedBy(func(in types.RecipeInput) bool {
		return in.Title == "Waffles" && in.Category == "breakfast" && in.Ingredients == "flour" && in.Image == nil
	})).Return(created, nil)

	body, ct := multipartBody(t, map[string]string{"title": "Waffles", "category": "breakfast", "ingredients": "flour"}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/recipes", body)
	req.Header.Set("Authorization", "Bearer tok")
	req.Header.Set("Content-Type", ct)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "/api/recipes/"+created.ID.String(), rr.Header().Get("Location"))
	recipes.AssertExpectations(t)
}

func TestHealthUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testhelpers.SetupTestDatabase(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	router := gin.New()
	router.GET("/health", api.NewHealthHandler(db).HealthCheck)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(context.Background()))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
