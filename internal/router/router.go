package router

import (
	"net/http"

	_ "github.com/3Eeeecho/go-resumevault/docs"
	"github.com/3Eeeecho/go-resumevault/internal/config"
	"github.com/3Eeeecho/go-resumevault/internal/handlers"
	"github.com/3Eeeecho/go-resumevault/internal/middlewares"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/cache"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/storage"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/validator"
	"github.com/3Eeeecho/go-resumevault/internal/pkg/xerr"
	"github.com/3Eeeecho/go-resumevault/internal/repositories"
	"github.com/3Eeeecho/go-resumevault/internal/services/admin"
	"github.com/3Eeeecho/go-resumevault/internal/services/ingest"
	"github.com/3Eeeecho/go-resumevault/internal/services/search"
	"github.com/3Eeeecho/go-resumevault/internal/services/vault"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// RouterConfig 包含初始化路由所需的所有依赖
type RouterConfig struct {
	db          *gorm.DB
	redisClient *redis.Client
	store       storage.ObjectStorage
	esClient    *elasticsearch.Client // 可为 nil(未启用全文检索)
	cfg         *config.Config
}

func NewRouterConfig(db *gorm.DB, redisClient *redis.Client, store storage.ObjectStorage, esClient *elasticsearch.Client, cfg *config.Config) *RouterConfig {
	return &RouterConfig{
		db:          db,
		redisClient: redisClient,
		store:       store,
		esClient:    esClient,
		cfg:         cfg,
	}
}

func InitRouter(routerCfg *RouterConfig) *gin.Engine {
	if routerCfg.cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default() // 使用默认的 Gin 引擎，包含 Logger 和 Recovery 中间件

	// Health Check 路由
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 组装依赖,一套服务实例全路由共享
	cacheService := cache.NewRedisCache(routerCfg.redisClient)
	fileRepo := repositories.NewCachedFileRepository(
		repositories.NewDBFileRepository(routerCfg.db), cacheService)
	userRepo := repositories.NewUserRepository(routerCfg.db)

	var indexer *search.Indexer
	if routerCfg.esClient != nil {
		indexer = search.NewIndexer(routerCfg.esClient)
	}

	authService := admin.NewAuthService(userRepo, routerCfg.cfg)
	userService := admin.NewUserService(userRepo)

	resolver := ingest.NewResolver(fileRepo)
	v := validator.New(routerCfg.cfg.Upload.MaxFileSize)
	var textIndexer ingest.TextIndexer
	var textSearcher vault.TextSearcher
	if indexer != nil {
		textIndexer = indexer
		textSearcher = indexer
	}
	ingestService := ingest.NewService(
		fileRepo, resolver, v, routerCfg.store,
		ingest.NewBasicExtractor(), ingest.NewDisabledMirror(), textIndexer, routerCfg.cfg)

	fileService := vault.NewFileService(fileRepo, routerCfg.store, textSearcher)
	archiveService := vault.NewArchiveService(fileService)

	v1 := router.Group("/api/v1")
	{
		// 认证相关路由 (无需认证)
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", handlers.Register(authService))
			authGroup.POST("/login", handlers.Login(authService))
		}

		// 需要认证的路由组
		authenticated := v1.Group("/")
		authenticated.Use(middlewares.AuthMiddleware(routerCfg.cfg))

		// 用户相关路由
		userGroup := authenticated.Group("/users")
		{
			userGroup.GET("/me", handlers.GetUserProfile(userService))
		}

		// 简历文件相关路由
		resumeGroup := authenticated.Group("/resumes")
		{
			resumeGroup.POST("/upload", handlers.UploadResume(ingestService))
			resumeGroup.GET("/", handlers.ListResumes(fileService))
			resumeGroup.GET("/:file_id", handlers.GetResumeInfo(fileService))
			resumeGroup.GET("/download/:file_id", handlers.DownloadResume(fileService))
			resumeGroup.GET("/archive", handlers.DownloadResumeArchive(archiveService))
			resumeGroup.DELETE("/:file_id", handlers.SoftDeleteResume(fileService))
			resumeGroup.POST("/bulk-delete", handlers.BulkDeleteResumes(fileService))
			resumeGroup.GET("/recyclebin", handlers.ListRecycleBinResumes(fileService))
			resumeGroup.PUT("/restore/:file_id", handlers.RestoreResume(fileService))

			// 管理员专用
			resumeGroup.DELETE("/permanent/:file_id",
				middlewares.AdminMiddleware(), handlers.PermanentDeleteResume(fileService))
		}
	}

	router.NoRoute(func(c *gin.Context) {
		xerr.Error(c, http.StatusNotFound, xerr.NotFoundCode, "Route not found")
	})

	return router
}
