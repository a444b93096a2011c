/*
 * @Description: 从应用配置构建 aws-sdk-go-v2 的公共配置
 * @Author: 安知鱼
 * @Date: 2026-03-08 19:00:00
 * @LastEditTime: 2026-03-19 18:30:00
 * @LastEditors: 安知鱼
 */
package awsconf

import (
	"context"
	"fmt"

	appconfig "github.com/anzhiyu-c/anheyu-archive/pkg/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const defaultRegion = "us-east-1"

// Settings 是 S3 与 Cognito 客户端共用的连接参数
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // 自定义 endpoint，例如 MinIO 或 LocalStack
}

// FromConfig 从应用配置中读取 AWS 段
func FromConfig(cfg *appconfig.Config) Settings {
	return Settings{
		Region:          cfg.GetString(appconfig.KeyAWSRegion),
		AccessKeyID:     cfg.GetString(appconfig.KeyAWSAccessKeyID),
		SecretAccessKey: cfg.GetString(appconfig.KeyAWSSecretAccessKey),
		Endpoint:        cfg.GetString(appconfig.KeyAWSEndpoint),
	}
}

// Load 加载 AWS 配置。未提供 AccessKey 时走 SDK 默认的凭证链。
func Load(ctx context.Context, s Settings) (aws.Config, error) {
	region := s.Region
	if region == "" {
		region = defaultRegion
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))
	if s.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.AccessKeyID,
			s.SecretAccessKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("创建AWS配置失败: %w", err)
	}
	return cfg, nil
}
