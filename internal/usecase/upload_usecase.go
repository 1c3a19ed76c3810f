package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"app/internal/domain/model"
	repo "app/internal/repository"

	"gorm.io/datatypes"
)

// 実ファイルの保存先。メタデータとは分けて差し替えられるようにする。
type FileStore interface {
	Save(ctx context.Context, filename string, data []byte) (storedPath string, err error)
	Open(ctx context.Context, storedPath string) ([]byte, error)
	Remove(ctx context.Context, storedPath string) error
}

// 操作主体。ハンドラーがJWTから組み立てる。
type Actor struct {
	UserID int64
	Role   model.Role
}

// UploadUsecase はアップロードのメタデータ管理とアクセス制御です。
type UploadUsecase struct {
	uploadRepo repo.UploadRepository
	auditRepo  repo.AuditLogRepository
	store      FileStore
	maxBytes   int64
}

func NewUploadUsecase(
	uploadRepo repo.UploadRepository,
	auditRepo repo.AuditLogRepository,
	store FileStore,
	maxBytes int64,
) *UploadUsecase {
	return &UploadUsecase{
		uploadRepo: uploadRepo,
		auditRepo:  auditRepo,
		store:      store,
		maxBytes:   maxBytes,
	}
}

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

type UploadInput struct {
	Filename     string
	MimeType     string
	Data         []byte
	Visibility   model.UploadVisibility
	AllowedRoles []model.Role
}

func (u *UploadUsecase) Upload(ctx context.Context, actor Actor, in UploadInput) (model.Upload, error) {
	if actor.UserID <= 0 {
		return model.Upload{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !model.RoleHasPermission(actor.Role, model.PermMediaUpload) {
		return model.Upload{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}
	if strings.TrimSpace(in.Filename) == "" {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "filename required")
	}
	if !allowedMimeTypes[in.MimeType] {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "unsupported file type")
	}
	if int64(len(in.Data)) > u.maxBytes {
		return model.Upload{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	if len(in.Data) == 0 {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "empty file")
	}

	switch in.Visibility {
	case "":
		in.Visibility = model.VisibilityPublic
	case model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityRoleBased:
	default:
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "invalid visibility")
	}

	if in.Visibility == model.VisibilityRoleBased && len(in.AllowedRoles) == 0 {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "allowed_roles required for ROLE_BASED")
	}

	storedPath, err := u.store.Save(ctx, in.Filename, in.Data)
	if err != nil {
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "storage error")
	}

	rolesJSON, err := json.Marshal(in.AllowedRoles)
	if err != nil {
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	up, err := u.uploadRepo.Create(ctx, model.Upload{
		Filename:     in.Filename,
		StoredPath:   storedPath,
		MimeType:     in.MimeType,
		SizeBytes:    int64(len(in.Data)),
		Visibility:   in.Visibility,
		UploaderID:   actor.UserID,
		AllowedRoles: datatypes.JSON(rolesJSON),
	})
	if err != nil {
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return up, nil
}

type UploadListInput struct {
	Page       int
	Limit      int
	Visibility string
	UploaderID *int64
}

type UploadListOutput struct {
	Items []model.Upload `json:"items"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

// 一覧。media:view:all持ち（ADMINなど）は全件、他は
// 「PUBLIC or 自分のもの or ロール一致のROLE_BASED」だけ。
func (u *UploadUsecase) List(ctx context.Context, actor Actor, in UploadListInput) (UploadListOutput, error) {
	if actor.UserID <= 0 {
		return UploadListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.Page < 1 {
		return UploadListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return UploadListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	f := repo.UploadListFilter{
		Page:         in.Page,
		Limit:        in.Limit,
		UploaderID:   in.UploaderID,
		ViewerID:     actor.UserID,
		ViewerRole:   actor.Role,
		Unrestricted: model.RoleHasPermission(actor.Role, model.PermMediaViewAll),
	}
	if in.Visibility != "" {
		v := model.UploadVisibility(in.Visibility)
		switch v {
		case model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityRoleBased:
			f.Visibility = &v
		default:
			return UploadListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid visibility")
		}
	}

	items, total, err := u.uploadRepo.List(ctx, f)
	if err != nil {
		return UploadListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return UploadListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// Get はメタデータとアクセス可否を見た上で返す。見えないものは404。
func (u *UploadUsecase) Get(ctx context.Context, actor Actor, id int64) (model.Upload, error) {
	if id <= 0 {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	up, err := u.uploadRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Upload{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if !u.canAccess(actor, up) {
		return model.Upload{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return up, nil
}

// ファイル本体の取得
func (u *UploadUsecase) Content(ctx context.Context, actor Actor, id int64) (model.Upload, []byte, error) {
	up, err := u.Get(ctx, actor, id)
	if err != nil {
		return model.Upload{}, nil, err
	}

	data, err := u.store.Open(ctx, up.StoredPath)
	if err != nil {
		return model.Upload{}, nil, NewHTTPError(http.StatusInternalServerError, "storage error")
	}
	return up, data, nil
}

type UpdateVisibilityInput struct {
	Visibility   model.UploadVisibility
	AllowedRoles []model.Role
}

func (u *UploadUsecase) UpdateVisibility(ctx context.Context, actor Actor, id int64, in UpdateVisibilityInput) (model.Upload, error) {
	up, err := u.Get(ctx, actor, id)
	if err != nil {
		return model.Upload{}, err
	}
	if !u.canEdit(actor, up) {
		return model.Upload{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	switch in.Visibility {
	case model.VisibilityPublic, model.VisibilityPrivate, model.VisibilityRoleBased:
	default:
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "invalid visibility")
	}
	if in.Visibility == model.VisibilityRoleBased && len(in.AllowedRoles) == 0 {
		return model.Upload{}, NewHTTPError(http.StatusBadRequest, "allowed_roles required for ROLE_BASED")
	}

	rolesJSON, err := json.Marshal(in.AllowedRoles)
	if err != nil {
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	up.Visibility = in.Visibility
	up.AllowedRoles = datatypes.JSON(rolesJSON)

	if err := u.uploadRepo.Update(ctx, up); err != nil {
		if err == repo.ErrNotFound {
			return model.Upload{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Upload{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return up, nil
}

type DeleteUploadOutput struct {
	Deleted bool   `json:"deleted"`
	Warning string `json:"warning,omitempty"`
}

// ソフトデリート。使用中（usage_count>0）でも消せるが警告を返す。
func (u *UploadUsecase) Delete(ctx context.Context, actor Actor, id int64) (DeleteUploadOutput, error) {
	up, err := u.Get(ctx, actor, id)
	if err != nil {
		return DeleteUploadOutput{}, err
	}
	if !u.canDelete(actor, up) {
		return DeleteUploadOutput{}, NewHTTPError(http.StatusForbidden, "forbidden")
	}

	if err := u.uploadRepo.SoftDelete(ctx, id, actor.UserID, time.Now()); err != nil {
		if err == repo.ErrNotFound {
			return DeleteUploadOutput{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return DeleteUploadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//監査ログ（DELETE_UPLOAD）
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actor.UserID,
		Action:       model.AuditActionDeleteUpload,
		ResourceType: model.AuditResourceUpload,
		ResourceID:   id,
		BeforeJSON:   `{"filename":"` + up.Filename + `"}`,
		CreatedAt:    time.Now(),
	}); err != nil {
		return DeleteUploadOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := DeleteUploadOutput{Deleted: true}
	if up.UsageCount > 0 {
		out.Warning = "file is still referenced; references were not removed"
	}
	return out, nil
}

type BulkResult struct {
	Affected int64   `json:"affected"`
	Skipped  []int64 `json:"skipped,omitempty"`
}

// まとめて削除。権限がないものはスキップして件数を返す。
func (u *UploadUsecase) BulkDelete(ctx context.Context, actor Actor, ids []int64) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, NewHTTPError(http.StatusBadRequest, "ids required")
	}

	var result BulkResult
	for _, id := range ids {
		if _, err := u.Delete(ctx, actor, id); err != nil {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Affected++
	}
	return result, nil
}

func (u *UploadUsecase) BulkUpdateVisibility(ctx context.Context, actor Actor, ids []int64, in UpdateVisibilityInput) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, NewHTTPError(http.StatusBadRequest, "ids required")
	}

	var result BulkResult
	for _, id := range ids {
		if _, err := u.UpdateVisibility(ctx, actor, id, in); err != nil {
			result.Skipped = append(result.Skipped, id)
			continue
		}
		result.Affected++
	}
	return result, nil
}

// 閲覧可否。ADMIN、PUBLIC、所有者、ロール一致のROLE_BASED。
func (u *UploadUsecase) canAccess(actor Actor, up model.Upload) bool {
	if actor.Role == model.RoleAdmin {
		return true
	}
	if up.Visibility == model.VisibilityPublic {
		return true
	}
	if up.UploaderID == actor.UserID {
		return true
	}
	if up.Visibility == model.VisibilityRoleBased {
		var roles []model.Role
		if err := json.Unmarshal(up.AllowedRoles, &roles); err != nil {
			return false
		}
		for _, r := range roles {
			if r == actor.Role {
				return true
			}
		}
	}
	return false
}

// 編集・削除はADMINか所有者のみ
func (u *UploadUsecase) canEdit(actor Actor, up model.Upload) bool {
	return actor.Role == model.RoleAdmin || up.UploaderID == actor.UserID
}

// 削除もADMINか所有者。media:deleteを持つロールは他人の分も消せる
func (u *UploadUsecase) canDelete(actor Actor, up model.Upload) bool {
	if actor.Role == model.RoleAdmin || up.UploaderID == actor.UserID {
		return true
	}
	return model.RoleHasPermission(actor.Role, model.PermMediaDelete)
}
