/*
 * @Description: AWS Cognito 身份服务实现（使用aws-sdk-go-v2）
 * @Author: 安知鱼
 * @Date: 2026-03-08 21:40:19
 * @LastEditTime: 2026-03-19 18:31:52
 * @LastEditors: 安知鱼
 */
package identity

import (
	"context"
	"fmt"
	"log"

	"github.com/anzhiyu-c/anheyu-archive/internal/infra/awsconf"
	"github.com/anzhiyu-c/anheyu-archive/pkg/service/identity"

	"github.com/aws/aws-sdk-go-v2/aws"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
)

// cognitoAPI 是 CognitoProvider 用到的客户端方法子集
type cognitoAPI interface {
	AdminDisableUser(ctx context.Context, params *cip.AdminDisableUserInput, optFns ...func(*cip.Options)) (*cip.AdminDisableUserOutput, error)
	AdminEnableUser(ctx context.Context, params *cip.AdminEnableUserInput, optFns ...func(*cip.Options)) (*cip.AdminEnableUserOutput, error)
}

// CognitoProvider 通过 Admin API 停用或启用用户池中的账号，用户名即邮箱。
type CognitoProvider struct {
	client     cognitoAPI
	userPoolID string
}

// NewCognitoProvider 根据 AWS 配置创建 Cognito 客户端
func NewCognitoProvider(ctx context.Context, settings awsconf.Settings, userPoolID string) (*CognitoProvider, error) {
	if userPoolID == "" {
		return nil, fmt.Errorf("Cognito 用户池 ID 不能为空")
	}
	cfg, err := awsconf.Load(ctx, settings)
	if err != nil {
		return nil, err
	}
	client := cip.NewFromConfig(cfg, func(o *cip.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
		}
	})
	log.Printf("[Cognito] 成功创建客户端 - 区域: %s, 用户池: %s", cfg.Region, userPoolID)
	return &CognitoProvider{client: client, userPoolID: userPoolID}, nil
}

// NewProvider 配置了用户池时使用 Cognito，否则退化为只记录日志的实现
func NewProvider(ctx context.Context, settings awsconf.Settings, userPoolID string) identity.Provider {
	if userPoolID == "" {
		log.Println("🔄 未配置 Cognito 用户池，身份服务调用将只记录日志")
		return identity.NewNoopProvider()
	}
	p, err := NewCognitoProvider(ctx, settings, userPoolID)
	if err != nil {
		log.Printf("⚠️  初始化 Cognito 失败: %v，身份服务调用将只记录日志", err)
		return identity.NewNoopProvider()
	}
	return p
}

func (p *CognitoProvider) DisableUser(ctx context.Context, email string) error {
	_, err := p.client.AdminDisableUser(ctx, &cip.AdminDisableUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return fmt.Errorf("Cognito 停用用户 %s 失败: %w", email, err)
	}
	return nil
}

func (p *CognitoProvider) EnableUser(ctx context.Context, email string) error {
	_, err := p.client.AdminEnableUser(ctx, &cip.AdminEnableUserInput{
		UserPoolId: aws.String(p.userPoolID),
		Username:   aws.String(email),
	})
	if err != nil {
		return fmt.Errorf("Cognito 启用用户 %s 失败: %w", email, err)
	}
	return nil
}

func (p *CognitoProvider) Name() string { return "cognito" }
