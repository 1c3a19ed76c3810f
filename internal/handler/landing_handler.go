package handler

import (
	"net/http"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ランディングページの公開取得 + 管理編集
type LandingHandler struct {
	uc *usecase.LandingUsecase
}

func NewLandingHandler(uc *usecase.LandingUsecase) *LandingHandler {
	return &LandingHandler{uc: uc}
}

type UpdateLandingRequest struct {
	Sections []model.Section `json:"sections"`
	Settings map[string]any  `json:"settings"`
}

func (h *LandingHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	// 公開側（キャッシュあり）
	e.GET("/landing", h.getPublic)

	g := e.Group("/admin/landing")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))
	g.Use(middleware.PermissionGuard(model.PermLandingView))

	g.GET("", h.getAdmin)

	edit := g.Group("")
	edit.Use(middleware.PermissionGuard(model.PermLandingUpdate))
	edit.PUT("", h.update)
	edit.POST("/reset", h.reset)
	edit.POST("/sync-branding", h.syncBranding)
	edit.POST("/sync-branding/all", h.syncBrandingAll)
}

func (h *LandingHandler) getPublic(c echo.Context) error {
	out, err := h.uc.GetContent(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	// インプロセスキャッシュと同じ5分をクライアント側にも効かせる
	c.Response().Header().Set("Cache-Control", "public, max-age=300")
	return c.JSON(http.StatusOK, out)
}

func (h *LandingHandler) getAdmin(c echo.Context) error {
	out, err := h.uc.GetContentAdmin(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LandingHandler) update(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req UpdateLandingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateContent(c.Request().Context(), userID, usecase.UpdateLandingInput{
		Sections: req.Sections,
		Settings: req.Settings,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LandingHandler) reset(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ResetToDefaults(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LandingHandler) syncBranding(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.SyncBranding(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *LandingHandler) syncBrandingAll(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ApplyBrandingToAll(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
