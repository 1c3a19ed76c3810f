package usecase_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"app/internal/cache"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

func newLandingUsecase(ttl time.Duration) (*usecase.LandingUsecase, *LandingRepoMock, *AuditRepoMock) {
	landingRepo := new(LandingRepoMock)
	auditRepo := new(AuditRepoMock)
	uc := usecase.NewLandingUsecase(landingRepo, auditRepo, validator.NewSectionValidator(), cache.NewContentCache(ttl))
	return uc, landingRepo, auditRepo
}

func sectionsJSON(t *testing.T, sections []model.Section) []byte {
	t.Helper()
	b, err := json.Marshal(sections)
	assert.NoError(t, err)
	return b
}

func TestLandingUsecase_GetContent_NotFound(t *testing.T) {
	uc, landingRepo, _ := newLandingUsecase(5 * time.Minute)

	landingRepo.On("FindActive", mock.Anything).Return(model.LandingPageContent{}, repo.ErrNotFound)

	_, err := uc.GetContent(context.Background())
	assertHTTPStatus(t, err, http.StatusNotFound)
}

// TTL内の2回目はDBに行かない
func TestLandingUsecase_GetContent_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, _ := newLandingUsecase(5 * time.Minute)

	doc := model.LandingPageContent{
		ID:        1,
		IsActive:  true,
		Sections:  sectionsJSON(t, []model.Section{{ID: "s1", Type: model.SectionTypeHero, Enabled: true, Data: map[string]any{"title": "Hi"}}}),
		Settings:  []byte(`{}`),
		UpdatedAt: time.Now(),
	}
	landingRepo.On("FindActive", mock.Anything).Return(doc, nil).Once()

	first, err := uc.GetContent(ctx)
	assert.NoError(t, err)
	second, err := uc.GetContent(ctx)
	assert.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	landingRepo.AssertExpectations(t)
	landingRepo.AssertNumberOfCalls(t, "FindActive", 1)
}

// 検証に落ちたら何も書かない
func TestLandingUsecase_UpdateContent_UnknownSectionType(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	_, err := uc.UpdateContent(ctx, 1, usecase.UpdateLandingInput{
		Sections: []model.Section{{Type: "carousel", Data: map[string]any{}}},
	})
	assertHTTPStatus(t, err, http.StatusBadRequest)

	landingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	landingRepo.AssertNotCalled(t, "ReplaceDocument", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	auditRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLandingUsecase_UpdateContent_ReplacesAndAudits(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	existing := model.LandingPageContent{ID: 3, IsActive: true, Sections: []byte(`[]`), Settings: []byte(`{}`)}
	landingRepo.On("FindActive", mock.Anything).Return(existing, nil)
	landingRepo.On("ReplaceDocument", mock.Anything, int64(3), mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.ActorUserID == 7 && l.Action == model.AuditActionUpdateLanding && l.ResourceID == 3
	})).Return(nil)

	out, err := uc.UpdateContent(ctx, 7, usecase.UpdateLandingInput{
		Sections: []model.Section{{Type: model.SectionTypeHero, Enabled: true, Data: map[string]any{"title": "New"}}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(3), out.ID)
	assert.Len(t, out.Sections, 1)
	// idは採番されている
	assert.NotEmpty(t, out.Sections[0].ID)

	landingRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

// アクティブなドキュメントが無ければ新規作成
func TestLandingUsecase_UpdateContent_CreatesWhenMissing(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	landingRepo.On("FindActive", mock.Anything).Return(model.LandingPageContent{}, repo.ErrNotFound)
	landingRepo.On("Create", mock.Anything, mock.MatchedBy(func(doc model.LandingPageContent) bool {
		return doc.IsActive
	})).Return(model.LandingPageContent{ID: 10, IsActive: true, Sections: []byte(`[]`), Settings: []byte(`{}`)}, nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.UpdateContent(ctx, 7, usecase.UpdateLandingInput{
		Sections: []model.Section{{Type: model.SectionTypeHero, Enabled: true, Data: map[string]any{"title": "New"}}},
	})
	assert.NoError(t, err)
	assert.Equal(t, int64(10), out.ID)

	landingRepo.AssertExpectations(t)
}

// 更新後の公開側取得はキャッシュではなく新しい値を読む
func TestLandingUsecase_UpdateContent_InvalidatesCache(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	old := model.LandingPageContent{ID: 3, IsActive: true, Sections: []byte(`[]`), Settings: []byte(`{}`)}
	landingRepo.On("FindActive", mock.Anything).Return(old, nil)
	landingRepo.On("ReplaceDocument", mock.Anything, int64(3), mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	// キャッシュを温める
	_, err := uc.GetContent(ctx)
	assert.NoError(t, err)

	_, err = uc.UpdateContent(ctx, 7, usecase.UpdateLandingInput{
		Sections: []model.Section{{Type: model.SectionTypeHero, Enabled: true, Data: map[string]any{"title": "New"}}},
	})
	assert.NoError(t, err)

	_, err = uc.GetContent(ctx)
	assert.NoError(t, err)

	// 温め1回 + 更新時1回 + 無効化後の再取得1回
	landingRepo.AssertNumberOfCalls(t, "FindActive", 3)
}

// ブランド設定はfooterのdataとseoタイトルの両方へ反映される
func TestLandingUsecase_SyncBranding_UpdatesFooterAndSEOTitle(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	doc := model.LandingPageContent{
		ID:       3,
		IsActive: true,
		Sections: sectionsJSON(t, []model.Section{
			{ID: "s1", Type: model.SectionTypeFooter, Enabled: true, Data: map[string]any{}},
		}),
		Settings: []byte(`{"branding":{"siteName":"Acme","logoUrl":"/logo.png"},"seo":{"title":"old"}}`),
	}
	landingRepo.On("FindActive", mock.Anything).Return(doc, nil)
	landingRepo.On("ReplaceDocument", mock.Anything, int64(3), mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.SyncBranding(ctx, 7)
	assert.NoError(t, err)

	assert.Equal(t, "Acme", out.Sections[0].Data["brandName"])
	assert.Equal(t, "/logo.png", out.Sections[0].Data["logoUrl"])
	seo, _ := out.Settings["seo"].(map[string]any)
	assert.Equal(t, "Acme", seo["title"])

	landingRepo.AssertExpectations(t)
}

// 全ドキュメント反映は非アクティブな行も書き換える
func TestLandingUsecase_ApplyBrandingToAll(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	footer := sectionsJSON(t, []model.Section{
		{ID: "s1", Type: model.SectionTypeFooter, Enabled: true, Data: map[string]any{}},
	})
	active := model.LandingPageContent{
		ID:       1,
		IsActive: true,
		Sections: footer,
		Settings: []byte(`{"branding":{"siteName":"Acme"}}`),
	}
	draft := model.LandingPageContent{
		ID:       2,
		IsActive: false,
		Sections: footer,
		Settings: []byte(`{}`),
	}

	landingRepo.On("FindActive", mock.Anything).Return(active, nil)
	landingRepo.On("List", mock.Anything).Return([]model.LandingPageContent{active, draft}, nil)

	landingRepo.On("ReplaceDocument", mock.Anything, int64(1), mock.Anything, mock.Anything).Return(nil)
	landingRepo.On("ReplaceDocument", mock.Anything, int64(2), mock.MatchedBy(func(s datatypes.JSON) bool {
		var sections []model.Section
		assert.NoError(t, json.Unmarshal(s, &sections))
		return sections[0].Data["brandName"] == "Acme"
	}), mock.MatchedBy(func(s datatypes.JSON) bool {
		var settings map[string]any
		assert.NoError(t, json.Unmarshal(s, &settings))
		seo, _ := settings["seo"].(map[string]any)
		return seo != nil && seo["title"] == "Acme"
	})).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateLanding && l.ActorUserID == 7
	})).Return(nil)

	out, err := uc.ApplyBrandingToAll(ctx, 7)
	assert.NoError(t, err)
	assert.Equal(t, 2, out.Updated)

	landingRepo.AssertExpectations(t)
	auditRepo.AssertExpectations(t)
}

func TestLandingUsecase_ResetToDefaults(t *testing.T) {
	ctx := context.Background()
	uc, landingRepo, auditRepo := newLandingUsecase(5 * time.Minute)

	landingRepo.On("FindActive", mock.Anything).Return(model.LandingPageContent{ID: 3, IsActive: true}, nil)
	landingRepo.On("ReplaceDocument", mock.Anything, int64(3), mock.Anything, mock.Anything).Return(nil)
	auditRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.ResetToDefaults(ctx, 7)
	assert.NoError(t, err)

	types := make([]string, 0, len(out.Sections))
	for _, s := range out.Sections {
		types = append(types, s.Type)
	}
	assert.Equal(t, []string{
		model.SectionTypeHero,
		model.SectionTypeFeatures,
		model.SectionTypeCTA,
		model.SectionTypeFooter,
	}, types)
}
