package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
	AliyunOSS     AliyunOSSConfig     `mapstructure:"aliyun_oss"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Mirror        MirrorConfig        `mapstructure:"mirror"`
	Log           LogConfig           `mapstructure:"log"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // development / production
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// MinIOConfig MinIO配置
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

type AliyunOSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"` // 例如: oss-cn-hangzhou.aliyuncs.com
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey          string        `mapstructure:"secret_key"`
	ExpiresIn          time.Duration `mapstructure:"expires_in"`
	RefreshExpireHours time.Duration `mapstructure:"refresh_expire_hours"`
	Issuer             string        `mapstructure:"issuer"`
}

// StorageConfig 存储后端选择，部署期一次性决定，不支持按文件切换
type StorageConfig struct {
	Type          string `mapstructure:"type"` // local / minio / aliyun_oss
	LocalBasePath string `mapstructure:"local_base_path"`
}

// UploadConfig 简历上传相关限制与重试策略
type UploadConfig struct {
	MaxFileSize     int64         `mapstructure:"max_file_size"`     // 单位字节
	PutRetries      int           `mapstructure:"put_retries"`       // 存储写入重试次数
	PutRetryBackoff time.Duration `mapstructure:"put_retry_backoff"` // 重试间隔基数
	ResolveRetries  int           `mapstructure:"resolve_retries"`   // 去重序号冲突重试次数
}

// MirrorConfig 远端文档镜像（如在线文档服务）配置
type MirrorConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Enabled   bool     `mapstructure:"enabled"`
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")               // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")                 // 配置文件类型
	viper.AddConfigPath(".")                    // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")            // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/go-resumevault/") // 生产环境常见路径

	// 读取环境变量，例如 GO_RESUME_VAULT_SERVER_PORT 对应 server.port
	viper.SetEnvPrefix("GO_RESUME_VAULT")
	viper.AutomaticEnv()

	// 替换环境变量中的点为下划线，确保 MYSQL_DSN 能映射到 mysql.dsn
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	// 上传与重试相关默认值
	viper.SetDefault("server.env", "development")
	viper.SetDefault("storage.type", "local")
	viper.SetDefault("storage.local_base_path", "./uploads/data")
	viper.SetDefault("upload.max_file_size", 20<<20) // 20MB
	viper.SetDefault("upload.put_retries", 3)
	viper.SetDefault("upload.put_retry_backoff", 200*time.Millisecond)
	viper.SetDefault("upload.resolve_retries", 3)
	viper.SetDefault("mirror.enabled", false)
	viper.SetDefault("elasticsearch.enabled", false)

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到，但这不是致命错误，可以依赖环境变量或默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
			return nil, err
		} else {
			// 其他读取错误，例如配置文件格式错误
			log.Fatalf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
