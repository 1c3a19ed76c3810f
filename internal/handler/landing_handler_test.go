package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"app/internal/cache"
	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	repo "app/internal/repository"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

type landingRepoStub struct {
	doc model.LandingPageContent
}

func (s *landingRepoStub) FindActive(ctx context.Context) (model.LandingPageContent, error) {
	return s.doc, nil
}

func (s *landingRepoStub) FindByID(ctx context.Context, id int64) (model.LandingPageContent, error) {
	return s.doc, nil
}

func (s *landingRepoStub) List(ctx context.Context) ([]model.LandingPageContent, error) {
	return []model.LandingPageContent{s.doc}, nil
}

func (s *landingRepoStub) Create(ctx context.Context, doc model.LandingPageContent) (model.LandingPageContent, error) {
	return doc, nil
}

func (s *landingRepoStub) ReplaceDocument(ctx context.Context, id int64, sections datatypes.JSON, settings datatypes.JSON) error {
	return nil
}

type auditRepoStub struct{}

func (s *auditRepoStub) Create(ctx context.Context, log model.AuditLog) error { return nil }
func (s *auditRepoStub) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	return nil, nil
}

// 公開側のレスポンスにはキャッシュ5分のヘッダが付く
func TestLandingHandler_GetPublic_SetsCacheControl(t *testing.T) {
	e := echo.New()

	uc := usecase.NewLandingUsecase(
		&landingRepoStub{doc: model.LandingPageContent{
			ID:        1,
			IsActive:  true,
			Sections:  []byte(`[]`),
			Settings:  []byte(`{}`),
			UpdatedAt: time.Now(),
		}},
		&auditRepoStub{},
		validator.NewSectionValidator(),
		cache.NewContentCache(time.Minute),
	)
	h := handler.NewLandingHandler(uc)
	h.RegisterRoutes(e, config.Config{JWTSecret: "test-secret"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/landing", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=300", rec.Header().Get("Cache-Control"))
}
