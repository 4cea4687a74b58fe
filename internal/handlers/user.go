package handlers

import (
	"net/http"

	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/services/admin"
	"github.com/gin-gonic/gin"
)

// @Summary 获取当前用户信息
// @Tags 用户
// @Produce json
// @Security BearerAuth
// @Success 200 {object} xerr.Response "用户信息"
// @Failure 404 {object} xerr.Response "用户不存在"
// @Router /api/v1/users/me [get]
func GetUserProfile(userService admin.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c)
		if !ok {
			return
		}

		user, err := userService.GetUserProfile(userID)
		if err != nil {
			respondError(c, err)
			return
		}

		xerr.Success(c, http.StatusOK, "User profile retrieved successfully", user)
	}
}
