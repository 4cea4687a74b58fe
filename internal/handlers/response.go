package handlers

import (
	"errors"
	"net/http"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/utils"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/gin-gonic/gin"
)

// errStatus 将服务层 sentinel 错误映射为 HTTP 状态码与业务码
func errStatus(err error) (int, int) {
	switch {
	case errors.Is(err, xerr.ErrUnsupportedFileType):
		return http.StatusBadRequest, xerr.UnsupportedFileTypeCode
	case errors.Is(err, xerr.ErrEmptyFile):
		return http.StatusBadRequest, xerr.EmptyFileCode
	case errors.Is(err, xerr.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, xerr.FileTooLargeCode
	case errors.Is(err, xerr.ErrSignatureMismatch):
		return http.StatusBadRequest, xerr.SignatureMismatchCode
	case errors.Is(err, xerr.ErrSizeMismatch):
		return http.StatusBadRequest, xerr.SizeMismatchCode
	case errors.Is(err, xerr.ErrNoFilesSpecified):
		return http.StatusBadRequest, xerr.NoFilesSpecifiedCode
	case errors.Is(err, xerr.ErrInvalidCredentials):
		return http.StatusUnauthorized, xerr.InvalidCredentialsCode
	case errors.Is(err, xerr.ErrTokenInvalid):
		return http.StatusUnauthorized, xerr.TokenInvalidCode
	case errors.Is(err, xerr.ErrUnauthorized):
		return http.StatusUnauthorized, xerr.UnauthorizedCode
	case errors.Is(err, xerr.ErrAdminRequired):
		return http.StatusForbidden, xerr.AdminRequiredCode
	case errors.Is(err, xerr.ErrUserNotFound):
		return http.StatusNotFound, xerr.UserNotFoundCode
	case errors.Is(err, xerr.ErrFileNotFound):
		return http.StatusNotFound, xerr.FileNotFoundCode
	case errors.Is(err, xerr.ErrFileNotInRecycleBin):
		return http.StatusNotFound, xerr.FileNotInRecycleBinCode
	case errors.Is(err, xerr.ErrUserAlreadyExists):
		return http.StatusConflict, xerr.UserAlreadyExistsCode
	case errors.Is(err, xerr.ErrEmailAlreadyExists):
		return http.StatusConflict, xerr.EmailAlreadyExistsCode
	case errors.Is(err, xerr.ErrFileAlreadyDeleted):
		return http.StatusConflict, xerr.FileAlreadyDeletedCode
	case errors.Is(err, xerr.ErrDuplicateSequenceConflict):
		return http.StatusConflict, xerr.DuplicateSequenceConflictCode
	case errors.Is(err, xerr.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, xerr.StorageErrorCode
	case errors.Is(err, xerr.ErrStorageError):
		return http.StatusInternalServerError, xerr.StorageErrorCode
	case errors.Is(err, xerr.ErrIngestFailed):
		return http.StatusInternalServerError, xerr.IngestFailedCode
	case errors.Is(err, xerr.ErrDatabaseError):
		return http.StatusInternalServerError, xerr.DatabaseErrorCode
	case errors.Is(err, xerr.ErrSearchError):
		return http.StatusInternalServerError, xerr.SearchErrorCode
	default:
		return http.StatusInternalServerError, xerr.InternalServerErrorCode
	}
}

// respondError 按映射好的状态码返回错误响应
func respondError(c *gin.Context, err error) {
	status, code := errStatus(err)
	xerr.Error(c, status, code, err.Error())
}

// requireUserID 从上下文取认证用户 ID
// 缺失说明中间件配置有误,GetUserIDFromContext 已经中止了请求
func requireUserID(c *gin.Context) (uint64, bool) {
	return utils.GetUserIDFromContext(c)
}
