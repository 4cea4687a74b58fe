package handlers

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/utils"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/repositories"
	"github.com/3Eeeecho/go-resumevault/internal/services/ingest"
	"github.com/3Eeeecho/go-resumevault/internal/services/vault"
	"github.com/gin-gonic/gin"
)

// BulkDeleteRequest 批量软删除请求体
type BulkDeleteRequest struct {
	FileIDs []uint64 `json:"file_ids" binding:"required"`
}

// @Summary 上传简历
// @Description 上传一份简历文件,重复内容自动分配去重序号
// @Tags 简历文件
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "简历文件"
// @Success 200 {object} xerr.Response "上传成功"
// @Failure 400 {object} xerr.Response "文件校验失败"
// @Failure 409 {object} xerr.Response "去重冲突"
// @Router /api/v1/resumes/upload [post]
func UploadResume(ingestService ingest.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, fmt.Sprintf("Failed to get file from form: %v", err))
			return
		}

		// 入库流水线需要多次读取内容(校验、哈希、落库、提取),落到临时文件
		tempFile, err := os.CreateTemp("", "resume-upload-*.tmp")
		if err != nil {
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to create temporary file")
			return
		}
		//defer 先进后出，先执行close再remove
		defer os.Remove(tempFile.Name())
		defer tempFile.Close()

		fileStream, err := fileHeader.Open()
		if err != nil {
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to open uploaded file stream")
			return
		}
		defer fileStream.Close()

		if _, err := io.Copy(tempFile, fileStream); err != nil {
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to buffer uploaded file")
			return
		}
		if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
			xerr.Error(c, http.StatusInternalServerError, xerr.InternalServerErrorCode, "Failed to rewind uploaded file")
			return
		}

		file, warnings, err := ingestService.Ingest(c.Request.Context(), userID, fileHeader.Filename, tempFile, fileHeader.Size)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "Resume uploaded successfully", gin.H{
			"file":     file,
			"warnings": warnings,
		})
	}
}

// @Summary 简历列表
// @Description 分页列出当前用户的简历,支持排序与全文检索
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Param page query int false "页码,默认 1"
// @Param page_size query int false "每页条数,默认 20,最大 100"
// @Param sort_by query string false "created_at/updated_at/file_name/size"
// @Param order query string false "asc/desc"
// @Param search query string false "检索关键词"
// @Param include_deleted query bool false "是否包含回收站记录"
// @Success 200 {object} xerr.Response "文件列表"
// @Router /api/v1/resumes [get]
func ListResumes(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		q := repositories.ListQuery{
			Page:           parseIntDefault(c.Query("page"), 1),
			PageSize:       parseIntDefault(c.Query("page_size"), 20),
			SortBy:         c.DefaultQuery("sort_by", "created_at"),
			Order:          c.DefaultQuery("order", "desc"),
			Search:         c.Query("search"),
			IncludeDeleted: c.Query("include_deleted") == "true",
		}
		if q.PageSize > 100 {
			q.PageSize = 100
		}

		files, total, err := fileService.List(c.Request.Context(), userID, q)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "Files listed successfully", gin.H{
			"files":     files,
			"total":     total,
			"page":      q.Page,
			"page_size": q.PageSize,
		})
	}
}

// @Summary 简历详情
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件 ID"
// @Success 200 {object} xerr.Response "文件详情"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/resumes/{file_id} [get]
func GetResumeInfo(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		fileID, ok := parseFileID(c)
		if !ok {
			return
		}

		file, err := fileService.GetFileInfo(c.Request.Context(), userID, fileID)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "File info retrieved successfully", gin.H{
			"file":         file,
			"text_preview": file.TextPreview(500),
		})
	}
}

// @Summary 下载简历
// @Tags 简历文件
// @Produce octet-stream
// @Security BearerAuth
// @Param file_id path int true "文件 ID"
// @Success 200 {file} binary "文件内容"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Router /api/v1/resumes/download/{file_id} [get]
func DownloadResume(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		fileID, ok := parseFileID(c)
		if !ok {
			return
		}

		file, reader, err := fileService.Download(c.Request.Context(), userID, fileID)
		if err != nil {
			respondError(c, err)
			return
		}
		defer reader.Close()

		extraHeaders := map[string]string{
			"Content-Disposition": fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(file.FileName)),
		}
		c.DataFromReader(http.StatusOK, int64(file.Size), file.MimeType, reader, extraHeaders)
	}
}

// @Summary 打包下载简历
// @Description 将指定简历打包为 ZIP 下载,ids 为空时打包全部
// @Tags 简历文件
// @Produce octet-stream
// @Security BearerAuth
// @Param ids query string false "逗号分隔的文件 ID 列表"
// @Success 200 {file} binary "ZIP 内容"
// @Router /api/v1/resumes/archive [get]
func DownloadResumeArchive(archiveService vault.ArchiveService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		var fileIDs []uint64
		if raw := c.Query("ids"); raw != "" {
			for _, part := range strings.Split(raw, ",") {
				id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
				if err != nil {
					xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid ids parameter")
					return
				}
				fileIDs = append(fileIDs, id)
			}
		}

		reader, err := archiveService.DownloadArchive(c.Request.Context(), userID, fileIDs)
		if err != nil {
			respondError(c, err)
			return
		}
		defer reader.Close()

		extraHeaders := map[string]string{
			"Content-Disposition": `attachment; filename="resumes.zip"`,
		}
		// 边压缩边产出,长度未知
		c.DataFromReader(http.StatusOK, -1, "application/zip", reader, extraHeaders)
	}
}

// @Summary 删除简历(放入回收站)
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 404 {object} xerr.Response "文件不存在"
// @Failure 409 {object} xerr.Response "文件已在回收站中"
// @Router /api/v1/resumes/{file_id} [delete]
func SoftDeleteResume(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		fileID, ok := parseFileID(c)
		if !ok {
			return
		}

		if err := fileService.SoftDelete(c.Request.Context(), userID, utils.IsAdminFromContext(c), fileID); err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "File moved to recycle bin", nil)
	}
}

// @Summary 批量删除简历
// @Description 逐条处理,部分失败不影响其余条目,逐条返回结果
// @Tags 简历文件
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body BulkDeleteRequest true "文件 ID 列表"
// @Success 200 {object} xerr.Response "逐条结果"
// @Router /api/v1/resumes/bulk-delete [post]
func BulkDeleteResumes(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		var req BulkDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, err.Error())
			return
		}

		results, err := fileService.BulkSoftDelete(c.Request.Context(), userID, utils.IsAdminFromContext(c), req.FileIDs)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "Bulk delete finished", gin.H{"results": results})
	}
}

// @Summary 回收站列表
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "回收站文件列表"
// @Router /api/v1/resumes/recyclebin [get]
func ListRecycleBinResumes(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		files, err := fileService.ListRecycleBin(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "Recycle bin listed successfully", files)
	}
}

// @Summary 恢复简历
// @Description 从回收站恢复,原序号被占用时自动分配新序号
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件 ID"
// @Success 200 {object} xerr.Response "恢复成功"
// @Failure 404 {object} xerr.Response "文件不在回收站中"
// @Router /api/v1/resumes/restore/{file_id} [put]
func RestoreResume(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		fileID, ok := parseFileID(c)
		if !ok {
			return
		}

		file, err := fileService.Restore(c.Request.Context(), userID, utils.IsAdminFromContext(c), fileID)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "File restored successfully", file)
	}
}

// @Summary 永久删除简历
// @Description 管理员专用,先删字节再删记录,不可恢复
// @Tags 简历文件
// @Produce json
// @Security BearerAuth
// @Param file_id path int true "文件 ID"
// @Success 200 {object} xerr.Response "删除成功"
// @Failure 403 {object} xerr.Response "需要管理员权限"
// @Router /api/v1/resumes/permanent/{file_id} [delete]
func PermanentDeleteResume(fileService vault.FileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}
		fileID, ok := parseFileID(c)
		if !ok {
			return
		}

		if err := fileService.PermanentDelete(c.Request.Context(), userID, utils.IsAdminFromContext(c), fileID); err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "File permanently deleted", nil)
	}
}

func parseFileID(c *gin.Context) (uint64, bool) {
	fileID, err := strconv.ParseUint(c.Param("file_id"), 10, 64)
	if err != nil {
		xerr.Error(c, http.StatusBadRequest, xerr.InvalidParamsCode, "Invalid file_id format")
		return 0, false
	}
	return fileID, true
}

func parseIntDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}
