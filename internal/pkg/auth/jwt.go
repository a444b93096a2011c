/*
 * @Description:
 * @Author: 安知鱼
 * @Date: 2026-03-14 10:05:37
 * @LastEditTime: 2026-03-19 22:14:08
 * @LastEditors: 安知鱼
 */
package auth

import (
	"fmt"
	"time"

	"github.com/anzhiyu-c/anheyu-archive/pkg/domain/model"
	"github.com/anzhiyu-c/anheyu-archive/pkg/idgen"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer         = "anheyu-archive"
	accessTokenTTL = 15 * time.Minute
)

// GenerateToken 生成一个新的 JWT Access Token
func GenerateToken(userID uint, role model.Role, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", fmt.Errorf("JWT Secret 不能为空")
	}

	publicUserID, err := idgen.GeneratePublicID(userID, idgen.EntityTypeUser)
	if err != nil {
		return "", fmt.Errorf("生成用户公共ID失败: %w", err)
	}

	now := time.Now()
	claims := CustomClaims{
		UserID: publicUserID,
		Role:   string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secretKey)
}

// ParseToken 解析 JWT Token
func ParseToken(tokenStr string, secretKey []byte) (*CustomClaims, error) {
	if len(secretKey) == 0 {
		return nil, fmt.Errorf("JWT Secret 不能为空")
	}

	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("解析token失败: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("无效或过期Token")
	}

	return claims, nil
}

// Actor 把 Claims 转换为领域层的调用者，角色无法识别时返回错误
func (c *CustomClaims) Actor() (model.Actor, error) {
	userID, err := idgen.DecodeTyped(c.UserID, idgen.EntityTypeUser)
	if err != nil {
		return model.Actor{}, fmt.Errorf("用户ID无效: %w", err)
	}
	role, err := model.ParseRole(c.Role)
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{UserID: userID, Role: role}, nil
}

// ActorFromContext 从 gin.Context 中取出 JWTAuth 写入的调用者
func ActorFromContext(c *gin.Context) (model.Actor, error) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return model.Actor{}, fmt.Errorf("上下文中没有认证信息")
	}
	claims, ok := value.(*CustomClaims)
	if !ok {
		return model.Actor{}, fmt.Errorf("认证信息格式不正确")
	}
	return claims.Actor()
}
