package xerr

// 定义了统一的业务错误码
const (
	SuccessCode = 20000 // 通用成功码

	// --- 客户端请求错误系列 (400xx) ---
	InvalidParamsCode        = 40000 // 无效的请求参数
	ValidationFailedCode     = 40001 // 参数验证失败
	UnsupportedFileTypeCode  = 40003 // 文件类型不在白名单内
	EmptyFileCode            = 40004 // 空文件
	FileTooLargeCode         = 40005 // 文件过大
	SignatureMismatchCode    = 40006 // 文件签名与扩展名不符
	SizeMismatchCode         = 40007 // 声明大小与实际大小不符
	NoFilesSpecifiedCode     = 40008 // 批量操作未指定任何文件
	FileNameInvalidCode      = 40009 // 文件名无效

	// --- 认证与授权错误系列 (401xx) ---
	UnauthorizedCode       = 40100 // 通用未授权
	TokenInvalidCode       = 40101 // Token 无效或过期
	InvalidCredentialsCode = 40102 // 用户名或密码错误

	// --- 权限错误系列 (403xx) ---
	ForbiddenCode        = 40300 // 通用无权限
	AdminRequiredCode    = 40301 // 需要管理员权限
	PermissionDeniedCode = 40302 // 权限不足 (细分)

	// --- 资源未找到错误系列 (404xx) ---
	NotFoundCode            = 40400 // 通用资源未找到
	UserNotFoundCode        = 40401 // 用户不存在
	FileNotFoundCode        = 40402 // 文件不存在
	FileNotInRecycleBinCode = 40403 // 文件不在回收站中

	// --- 业务逻辑冲突系列 (409xx) ---
	UserAlreadyExistsCode         = 40900 // 用户名已存在
	EmailAlreadyExistsCode        = 40901 // 邮箱已存在
	FileAlreadyDeletedCode        = 40902 // 文件已在回收站中
	DuplicateSequenceConflictCode = 40903 // 去重序号冲突（并发上传）

	// --- 服务器内部错误系列 (500xx) ---
	InternalServerErrorCode = 50000 // 服务器内部通用错误
	DatabaseErrorCode       = 50001 // 数据库操作失败
	StorageErrorCode        = 50002 // 存储后端操作失败
	IngestFailedCode        = 50003 // 上传入库流程失败
	ExtractionFailedCode    = 50004 // 文本提取失败
	MirrorFailedCode        = 50005 // 远端镜像上传失败
	SearchErrorCode         = 50006 // 全文检索服务失败
)
