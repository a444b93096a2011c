/*
 * @Description: 统一配置管理 (go-ini 读取文件 + 环境变量覆盖，统一交给 viper 管理)
 * @Author: 安知鱼
 * @Date: 2026-03-02 11:03:27
 * @LastEditTime: 2026-03-19 09:44:50
 * @LastEditors: 安知鱼
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultFilePath 是默认的配置文件位置
const DefaultFilePath = "data/conf.ini"

const envPrefix = "ANHEYU"

const (
	KeyServerPort  = "System.Port"
	KeyServerDebug = "System.Debug"

	KeyDBType     = "Database.Type"
	KeyDBHost     = "Database.Host"
	KeyDBPort     = "Database.Port"
	KeyDBUser     = "Database.User"
	KeyDBPassword = "Database.Password"
	KeyDBName     = "Database.Name"
	KeyDBDebug    = "Database.Debug"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyJWTSecret = "JWT.Secret"
	KeyIDSeed    = "IDSeed.Seed"

	KeyArchiveRetentionDays = "Archive.RetentionDays"
	KeyArchiveExportBucket  = "Archive.ExportBucket"
	KeyArchiveExportPrefix  = "Archive.ExportPrefix"
	KeyArchiveRateLimit     = "Archive.RateLimitPerMinute"
	KeyArchiveExportDir     = "Archive.ExportDir"

	KeyAWSRegion          = "AWS.Region"
	KeyAWSAccessKeyID     = "AWS.AccessKeyID"
	KeyAWSSecretAccessKey = "AWS.SecretAccessKey"
	KeyAWSEndpoint        = "AWS.Endpoint"

	KeyCognitoUserPoolID = "Cognito.UserPoolID"
)

// 定义所有已知的配置键，只有这些键会被环境变量覆盖
var allKeys = []string{
	KeyServerPort, KeyServerDebug,
	KeyDBType, KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName, KeyDBDebug,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyJWTSecret, KeyIDSeed,
	KeyArchiveRetentionDays, KeyArchiveExportBucket, KeyArchiveExportPrefix, KeyArchiveRateLimit, KeyArchiveExportDir,
	KeyAWSRegion, KeyAWSAccessKeyID, KeyAWSSecretAccessKey, KeyAWSEndpoint,
	KeyCognitoUserPoolID,
}

type Config struct {
	vp *viper.Viper
}

// NewConfig 从默认路径加载配置
func NewConfig() (*Config, error) {
	return Load(DefaultFilePath)
}

// Load 手动加载配置：先读 ini 文件作为默认值，再用环境变量覆盖。
func Load(filePath string) (*Config, error) {
	vp := viper.New()

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
		log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
		if err := createDefaultConfigFile(filePath); err != nil {
			log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
		} else {
			log.Printf("✅ 已创建默认配置文件: %s", filePath)
			iniCfg, err = ini.Load(filePath)
			if err != nil {
				log.Printf("警告: 重新加载配置文件失败: %v", err)
			}
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == ini.DefaultSection {
					viperKey = key.Name()
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Printf("从 %s 文件加载了默认配置。", filePath)
	}

	// --- 步骤 1.5: 加载 .env，已存在的环境变量不会被覆盖 ---
	for _, envPath := range []string{filepath.Join(filepath.Dir(filePath), ".env"), ".env"} {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf("已从 %s 加载环境变量。", envPath)
			break
		}
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	for _, key := range allKeys {
		// 例如 ANHEYU_DATABASE_HOST
		envVarName := fmt.Sprintf("%s_%s", envPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	defaultConfig := `[System]
Port = 8091
Debug = false

[Database]
Type = sqlite
Name = anheyu_archive.db
Debug = false

# Redis 配置（可选）
# 留空 Addr 时，归档操作的用户锁将退化为进程内锁
[Redis]
Addr =
Password =
DB = 0

[JWT]
Secret =

[Archive]
# 归档文章保留天数，<= 0 表示永久保留
RetentionDays = 0
# 归档用户快照导出的 S3 存储桶，留空则不导出
ExportBucket =
ExportPrefix = archived-users
# 未配置存储桶时，快照写入该本地目录，两者都留空则不导出
ExportDir =
# 每个管理员每分钟可发起的归档/恢复次数，<= 0 表示不限制
RateLimitPerMinute = 30

[AWS]
Region = us-east-1
AccessKeyID =
SecretAccessKey =
Endpoint =

# 留空 UserPoolID 时，身份服务调用只记录日志
[Cognito]
UserPoolID =
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
