package handler

import (
	"io"
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// アップロードのHTTP。multipartで受けてメタデータを返す。
type UploadHandler struct {
	uc *usecase.UploadUsecase
}

func NewUploadHandler(uc *usecase.UploadUsecase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

type UpdateVisibilityRequest struct {
	Visibility   string   `json:"visibility"`
	AllowedRoles []string `json:"allowed_roles"`
}

type BulkIDsRequest struct {
	IDs []int64 `json:"ids"`
}

type BulkVisibilityRequest struct {
	IDs          []int64  `json:"ids"`
	Visibility   string   `json:"visibility"`
	AllowedRoles []string `json:"allowed_roles"`
}

func (h *UploadHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	g := e.Group("/uploads")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.TokenVersionGuard(userRepo))

	g.POST("", h.upload)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.GET("/:id/content", h.content)
	g.PATCH("/:id/visibility", h.updateVisibility)
	g.DELETE("/:id", h.delete)
	g.POST("/bulk-delete", h.bulkDelete)
	g.POST("/bulk-visibility", h.bulkVisibility)

	// エディタ用の画像アップロード。常にPUBLICで保存する
	g.POST("/editor-image", h.imageUpload)

	// ランディング編集画面からのセクション画像
	li := e.Group("/landing/section-image")
	li.Use(middleware.AuthJWT(cfg))
	li.Use(middleware.TokenVersionGuard(userRepo))
	li.Use(middleware.PermissionGuard(model.PermLandingUpdate))
	li.POST("", h.imageUpload)
}

// MIME/サイズ上限の検証はusecase側で共通に効く
func (h *UploadHandler) imageUpload(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}

	out, err := h.uc.Upload(c.Request().Context(), actor, usecase.UploadInput{
		Filename:   fh.Filename,
		MimeType:   fh.Header.Get("Content-Type"),
		Data:       data,
		Visibility: model.VisibilityPublic,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func actorOf(c echo.Context) (usecase.Actor, bool) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return usecase.Actor{}, false
	}
	return usecase.Actor{UserID: userID, Role: getRoleFromContext(c)}, true
}

func toRoles(ss []string) []model.Role {
	roles := make([]model.Role, 0, len(ss))
	for _, s := range ss {
		roles = append(roles, model.Role(s))
	}
	return roles
}

func (h *UploadHandler) upload(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
	}

	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}

	out, err := h.uc.Upload(c.Request().Context(), actor, usecase.UploadInput{
		Filename:     fh.Filename,
		MimeType:     fh.Header.Get("Content-Type"),
		Data:         data,
		Visibility:   model.UploadVisibility(c.FormValue("visibility")),
		AllowedRoles: toRoles(c.Request().Form["allowed_roles"]),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *UploadHandler) list(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}
	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	var uploaderID *int64
	if v := c.QueryParam("uploader_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid uploader_id"})
		}
		uploaderID = &id
	}

	out, err := h.uc.List(c.Request().Context(), actor, usecase.UploadListInput{
		Page:       page,
		Limit:      limit,
		Visibility: c.QueryParam("visibility"),
		UploaderID: uploaderID,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) get(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) content(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	up, data, err := h.uc.Content(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.Blob(http.StatusOK, up.MimeType, data)
}

func (h *UploadHandler) updateVisibility(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req UpdateVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateVisibility(c.Request().Context(), actor, id, usecase.UpdateVisibilityInput{
		Visibility:   model.UploadVisibility(req.Visibility),
		AllowedRoles: toRoles(req.AllowedRoles),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) delete(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.Delete(c.Request().Context(), actor, id)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) bulkDelete(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req BulkIDsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.BulkDelete(c.Request().Context(), actor, req.IDs)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *UploadHandler) bulkVisibility(c echo.Context) error {
	actor, ok := actorOf(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req BulkVisibilityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.BulkUpdateVisibility(c.Request().Context(), actor, req.IDs, usecase.UpdateVisibilityInput{
		Visibility:   model.UploadVisibility(req.Visibility),
		AllowedRoles: toRoles(req.AllowedRoles),
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
