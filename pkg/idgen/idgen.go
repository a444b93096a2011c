/*
 * @Description: 公共 ID 编解码（基于 sqids）
 * @Author: 安知鱼
 * @Date: 2026-03-02 10:12:40
 * @LastEditTime: 2026-03-18 21:05:11
 * @LastEditors: 安知鱼
 */
package idgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"sync"

	"github.com/sqids/sqids-go"
)

// DefaultAlphabet 是默认的字母表
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EntityType 定义了不同实体在生成公共 ID 时的类型标识。
const (
	EntityTypeUser            uint64 = 1 // 用户
	EntityTypePost            uint64 = 2 // 文章
	EntityTypeComment         uint64 = 3 // 评论
	EntityTypeTag             uint64 = 4 // 标签
	EntityTypeArchivedPost    uint64 = 5 // 归档文章
	EntityTypeArchivedComment uint64 = 6 // 归档评论
	EntityTypeArchivedUser    uint64 = 7 // 归档用户
)

var (
	mu           sync.RWMutex
	sqidsEncoder *sqids.Sqids
)

// GenerateRandomSeed 生成一个随机的 16 字节种子（返回 32 字符的十六进制字符串）
func GenerateRandomSeed() (string, error) {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("生成随机种子失败: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// shuffleAlphabet 使用种子确定性地打乱字母表
func shuffleAlphabet(seed string) string {
	var seedInt int64
	for i, c := range seed {
		seedInt += int64(c) * int64(i+1)
	}

	r := mrand.New(mrand.NewSource(seedInt))
	alphabet := []rune(DefaultAlphabet)
	r.Shuffle(len(alphabet), func(i, j int) {
		alphabet[i], alphabet[j] = alphabet[j], alphabet[i]
	})
	return string(alphabet)
}

// InitSqidsEncoder 使用默认字母表初始化编码器
func InitSqidsEncoder() error {
	return InitSqidsEncoderWithSeed("")
}

// InitSqidsEncoderWithSeed 使用种子初始化 Sqids 编码器。
// 如果 seed 为空字符串，则使用默认字母表。
func InitSqidsEncoderWithSeed(seed string) error {
	alphabet := DefaultAlphabet
	if seed != "" {
		alphabet = shuffleAlphabet(seed)
	}

	s, err := sqids.New(sqids.Options{
		MinLength: 6,
		Alphabet:  alphabet,
	})
	if err != nil {
		return fmt.Errorf("初始化 Sqids 编码器失败: %w", err)
	}

	mu.Lock()
	sqidsEncoder = s
	mu.Unlock()
	return nil
}

func encoder() (*sqids.Sqids, error) {
	mu.RLock()
	defer mu.RUnlock()
	if sqidsEncoder == nil {
		return nil, fmt.Errorf("Sqids 编码器未初始化")
	}
	return sqidsEncoder, nil
}

// GeneratePublicID 将数据库 ID 与实体类型一起编码为公共 ID。
func GeneratePublicID(dbID uint, entityType uint64) (string, error) {
	enc, err := encoder()
	if err != nil {
		return "", err
	}
	id, err := enc.Encode([]uint64{uint64(dbID), entityType})
	if err != nil {
		return "", fmt.Errorf("编码公共ID失败: %w", err)
	}
	return id, nil
}

// MustPublicID 用于响应组装，编码失败时返回空字符串。
func MustPublicID(dbID uint, entityType uint64) string {
	if dbID == 0 {
		return ""
	}
	id, err := GeneratePublicID(dbID, entityType)
	if err != nil {
		return ""
	}
	return id
}

// DecodePublicID 解码公共 ID
func DecodePublicID(publicID string) (dbID uint, entityType uint64, err error) {
	enc, err := encoder()
	if err != nil {
		return 0, 0, err
	}

	numbers := enc.Decode(publicID)
	if len(numbers) != 2 {
		return 0, 0, fmt.Errorf("无法从公共ID解码出预期数量的数字(期望2个，得到%d个)", len(numbers))
	}
	// 同一组数字可以被多个字符串解码出来，只接受规范形式
	if canonical, err := enc.Encode(numbers); err != nil || canonical != publicID {
		return 0, 0, fmt.Errorf("公共ID '%s' 不是规范形式", publicID)
	}
	return uint(numbers[0]), numbers[1], nil
}

// DecodeTyped 解码公共 ID 并校验实体类型。
func DecodeTyped(publicID string, expected uint64) (uint, error) {
	dbID, entityType, err := DecodePublicID(publicID)
	if err != nil {
		return 0, err
	}
	if entityType != expected {
		return 0, fmt.Errorf("公共ID '%s' 的实体类型不匹配(期望%d，得到%d)", publicID, expected, entityType)
	}
	return dbID, nil
}

// DecodePublicIDBatch 批量解码同一类型的公共 ID
func DecodePublicIDBatch(publicIDs []string, expected uint64) ([]uint, error) {
	if publicIDs == nil {
		return nil, nil
	}
	dbIDs := make([]uint, len(publicIDs))
	for i, publicID := range publicIDs {
		dbID, err := DecodeTyped(publicID, expected)
		if err != nil {
			return nil, fmt.Errorf("解码公共ID '%s' 失败: %w", publicID, err)
		}
		dbIDs[i] = dbID
	}
	return dbIDs, nil
}
