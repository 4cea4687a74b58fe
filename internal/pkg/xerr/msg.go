package xerr

import "errors"

var (
	// 通用错误
	ErrSuccess        = errors.New("操作成功")
	ErrInternalServer = errors.New("服务器内部错误")

	// 客户端请求错误
	ErrInvalidParams       = errors.New("无效的请求参数")
	ErrValidationFailed    = errors.New("参数验证失败")
	ErrUnsupportedFileType = errors.New("不支持的简历文件类型")
	ErrEmptyFile           = errors.New("上传文件为空")
	ErrFileTooLarge        = errors.New("上传文件过大，超出限制")
	ErrSignatureMismatch   = errors.New("文件内容签名与扩展名不符")
	ErrSizeMismatch        = errors.New("声明的文件大小与实际内容不符")
	ErrNoFilesSpecified    = errors.New("未指定任何文件")
	ErrFileNameInvalid     = errors.New("文件名包含非法字符")

	// 认证与授权错误
	ErrUnauthorized       = errors.New("用户未授权")
	ErrTokenInvalid       = errors.New("认证 Token 无效或已过期")
	ErrInvalidCredentials = errors.New("用户名或密码不正确")
	ErrUserAlreadyExists  = errors.New("该用户名已被注册")
	ErrEmailAlreadyExists = errors.New("邮箱已被注册")

	// 权限错误
	ErrForbidden        = errors.New("禁止访问")
	ErrAdminRequired    = errors.New("该操作需要管理员权限")
	ErrPermissionDenied = errors.New("您没有操作此资源的权限")

	// 缓存错误
	ErrEmptyCache = errors.New("缓存为空")

	// 资源未找到错误
	ErrUserNotFound        = errors.New("用户不存在")
	ErrFileNotFound        = errors.New("文件不存在")
	ErrFileNotInRecycleBin = errors.New("文件不在回收站中")

	// 业务逻辑冲突
	ErrFileAlreadyDeleted        = errors.New("文件已在回收站中")
	ErrDuplicateSequenceConflict = errors.New("去重序号冲突")

	// 数据库与外部服务错误
	ErrDatabaseError      = errors.New("数据库操作失败")
	ErrStorageError       = errors.New("存储后端操作失败")
	ErrStorageUnavailable = errors.New("存储后端暂时不可用")
	ErrIngestFailed       = errors.New("简历上传入库失败")
	ErrExtractionFailed   = errors.New("简历文本提取失败")
	ErrMirrorFailed       = errors.New("远端文档镜像上传失败")
	ErrSearchError        = errors.New("全文检索服务操作失败")
)
