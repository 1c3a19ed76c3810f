package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"app/internal/cache"
	"app/internal/domain/model"
	repo "app/internal/repository"
	"app/internal/validator"

	"gorm.io/datatypes"
)

// LandingUsecase はランディングページの取得・更新です。
// 公開側の取得だけ5分TTLのインプロセスキャッシュを通す。
type LandingUsecase struct {
	landingRepo repo.LandingRepository
	auditRepo   repo.AuditLogRepository
	validator   *validator.SectionValidator
	cache       *cache.ContentCache
}

func NewLandingUsecase(
	landingRepo repo.LandingRepository,
	auditRepo repo.AuditLogRepository,
	sectionValidator *validator.SectionValidator,
	contentCache *cache.ContentCache,
) *LandingUsecase {
	return &LandingUsecase{
		landingRepo: landingRepo,
		auditRepo:   auditRepo,
		validator:   sectionValidator,
		cache:       contentCache,
	}
}

type LandingContentOutput struct {
	ID        int64           `json:"id"`
	Sections  []model.Section `json:"sections"`
	Settings  map[string]any  `json:"settings"`
	UpdatedAt string          `json:"updated_at"`
}

type UpdateLandingInput struct {
	Sections []model.Section
	Settings map[string]any
}

// 公開側の取得。キャッシュ→DBの順。
func (u *LandingUsecase) GetContent(ctx context.Context) (LandingContentOutput, error) {
	if doc, ok := u.cache.Get(); ok {
		return toLandingOutput(doc)
	}

	doc, err := u.landingRepo.FindActive(ctx)
	if err == repo.ErrNotFound {
		return LandingContentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	u.cache.Set(doc)
	return toLandingOutput(doc)
}

// 管理側の取得はキャッシュを通さない（編集直後の値を見せる）
func (u *LandingUsecase) GetContentAdmin(ctx context.Context) (LandingContentOutput, error) {
	doc, err := u.landingRepo.FindActive(ctx)
	if err == repo.ErrNotFound {
		return LandingContentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toLandingOutput(doc)
}

// UpdateContent は全セクションを検証してから全置換で保存する。
// 1件でも検証に落ちたら何も書かない。成功したらキャッシュを無効化。
func (u *LandingUsecase) UpdateContent(ctx context.Context, actorUserID int64, in UpdateLandingInput) (LandingContentOutput, error) {
	if actorUserID <= 0 {
		return LandingContentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	pageIDs := validator.CollectPageIDs(in.Sections)
	if err := u.validator.ValidateAll(in.Sections, pageIDs); err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	sectionsJSON, err := json.Marshal(in.Sections)
	if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if in.Settings == nil {
		in.Settings = map[string]any{}
	}
	settingsJSON, err := json.Marshal(in.Settings)
	if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	doc, err := u.landingRepo.FindActive(ctx)
	if err == repo.ErrNotFound {
		// アクティブなドキュメントが無ければ新規作成
		doc, err = u.landingRepo.Create(ctx, model.LandingPageContent{
			IsActive:  true,
			Sections:  datatypes.JSON(sectionsJSON),
			Settings:  datatypes.JSON(settingsJSON),
			UpdatedAt: time.Now(),
		})
		if err != nil {
			return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
	} else if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	} else {
		if err := u.landingRepo.ReplaceDocument(ctx, doc.ID, datatypes.JSON(sectionsJSON), datatypes.JSON(settingsJSON)); err != nil {
			return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		doc.Sections = datatypes.JSON(sectionsJSON)
		doc.Settings = datatypes.JSON(settingsJSON)
		doc.UpdatedAt = time.Now()
	}

	u.cache.Invalidate()

	//監査ログ（UPDATE_LANDING）。beforeは省略してafterだけ残す
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateLanding,
		ResourceType: model.AuditResourceLanding,
		ResourceID:   doc.ID,
		AfterJSON:    string(sectionsJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return toLandingOutput(doc)
}

// ResetToDefaults は最小構成（hero/features/cta/footer）に戻す。
func (u *LandingUsecase) ResetToDefaults(ctx context.Context, actorUserID int64) (LandingContentOutput, error) {
	return u.UpdateContent(ctx, actorUserID, UpdateLandingInput{
		Sections: DefaultSections(),
		Settings: DefaultSettings(),
	})
}

// brandingをfooterセクションのdataとsettings.seo.titleへ反映する
func applyBranding(sections []model.Section, settings map[string]any, branding map[string]any) {
	name, _ := branding["siteName"].(string)
	logo, _ := branding["logoUrl"].(string)

	for i := range sections {
		if sections[i].Type != model.SectionTypeFooter {
			continue
		}
		if sections[i].Data == nil {
			sections[i].Data = map[string]any{}
		}
		if name != "" {
			sections[i].Data["brandName"] = name
		}
		if logo != "" {
			sections[i].Data["logoUrl"] = logo
		}
		if sl, ok := branding["socialLinks"]; ok {
			sections[i].Data["socialLinks"] = sl
		}
	}

	if name != "" {
		seo, _ := settings["seo"].(map[string]any)
		if seo == nil {
			seo = map[string]any{}
		}
		seo["title"] = name
		settings["seo"] = seo
	}
}

// SyncBranding はアクティブなドキュメントのブランド設定を
// footerセクションとseoタイトルへ反映する。
func (u *LandingUsecase) SyncBranding(ctx context.Context, actorUserID int64) (LandingContentOutput, error) {
	if actorUserID <= 0 {
		return LandingContentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	doc, err := u.landingRepo.FindActive(ctx)
	if err == repo.ErrNotFound {
		return LandingContentOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out, err := toLandingOutput(doc)
	if err != nil {
		return LandingContentOutput{}, err
	}

	branding, _ := out.Settings["branding"].(map[string]any)
	if branding == nil {
		return out, nil
	}

	applyBranding(out.Sections, out.Settings, branding)

	return u.UpdateContent(ctx, actorUserID, UpdateLandingInput{
		Sections: out.Sections,
		Settings: out.Settings,
	})
}

type ApplyBrandingOutput struct {
	Updated int `json:"updated"`
}

// ApplyBrandingToAll はアクティブなドキュメントのブランド設定を
// 非アクティブ含む全ドキュメントへ反映する。
func (u *LandingUsecase) ApplyBrandingToAll(ctx context.Context, actorUserID int64) (ApplyBrandingOutput, error) {
	if actorUserID <= 0 {
		return ApplyBrandingOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	active, err := u.landingRepo.FindActive(ctx)
	if err == repo.ErrNotFound {
		return ApplyBrandingOutput{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	activeOut, err := toLandingOutput(active)
	if err != nil {
		return ApplyBrandingOutput{}, err
	}
	branding, _ := activeOut.Settings["branding"].(map[string]any)
	if branding == nil {
		return ApplyBrandingOutput{}, nil
	}

	docs, err := u.landingRepo.List(ctx)
	if err != nil {
		return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated := 0
	for _, doc := range docs {
		out, err := toLandingOutput(doc)
		if err != nil {
			return ApplyBrandingOutput{}, err
		}

		applyBranding(out.Sections, out.Settings, branding)

		sectionsJSON, err := json.Marshal(out.Sections)
		if err != nil {
			return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}
		settingsJSON, err := json.Marshal(out.Settings)
		if err != nil {
			return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
		}

		if err := u.landingRepo.ReplaceDocument(ctx, doc.ID, datatypes.JSON(sectionsJSON), datatypes.JSON(settingsJSON)); err != nil {
			return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		updated++
	}

	u.cache.Invalidate()

	brandingJSON, _ := json.Marshal(branding)
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionUpdateLanding,
		ResourceType: model.AuditResourceLanding,
		ResourceID:   active.ID,
		AfterJSON:    string(brandingJSON),
		CreatedAt:    time.Now(),
	}); err != nil {
		return ApplyBrandingOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return ApplyBrandingOutput{Updated: updated}, nil
}

func toLandingOutput(doc model.LandingPageContent) (LandingContentOutput, error) {
	var sections []model.Section
	if len(doc.Sections) > 0 {
		if err := json.Unmarshal(doc.Sections, &sections); err != nil {
			return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "corrupt document")
		}
	}
	settings := map[string]any{}
	if len(doc.Settings) > 0 {
		if err := json.Unmarshal(doc.Settings, &settings); err != nil {
			return LandingContentOutput{}, NewHTTPError(http.StatusInternalServerError, "corrupt document")
		}
	}

	return LandingContentOutput{
		ID:        doc.ID,
		Sections:  sections,
		Settings:  settings,
		UpdatedAt: doc.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// デフォルトのセクション構成
func DefaultSections() []model.Section {
	return []model.Section{
		{
			Type:    model.SectionTypeHero,
			Enabled: true,
			Order:   0,
			Data: map[string]any{
				"title":    "Welcome",
				"subtitle": "",
			},
		},
		{
			Type:    model.SectionTypeFeatures,
			Enabled: true,
			Order:   1,
			Data: map[string]any{
				"items": []any{},
			},
		},
		{
			Type:    model.SectionTypeCTA,
			Enabled: true,
			Order:   2,
			Data: map[string]any{
				"title": "Get started",
				"links": []any{},
			},
		},
		{
			Type:    model.SectionTypeFooter,
			Enabled: true,
			Order:   3,
			Data:    map[string]any{},
		},
	}
}

// デフォルトのsettings（theme/layout/seo）
func DefaultSettings() map[string]any {
	return map[string]any{
		"theme": map[string]any{
			"primaryColor": "#1a1a2e",
			"mode":         "light",
		},
		"layout": map[string]any{
			"maxWidth": "1200px",
		},
		"seo": map[string]any{
			"title":       "",
			"description": "",
		},
	}
}
