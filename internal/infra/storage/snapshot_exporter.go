/*
 * @Description: 将归档用户快照以 JSON 导出到 S3（使用aws-sdk-go-v2）
 * @Author: 安知鱼
 * @Date: 2026-03-09 10:20:00
 * @LastEditTime: 2026-03-20 18:30:00
 * @LastEditors: 安知鱼
 */
package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/anzhiyu-c/anheyu-archive/internal/infra/awsconf"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3PutAPI 是导出用到的 S3 客户端方法子集
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3SnapshotExporter 把快照写到 <prefix>/<name>.json
type S3SnapshotExporter struct {
	client s3PutAPI
	bucket string
	prefix string
}

// NewS3SnapshotExporter 创建 S3 客户端。bucket 为空时返回 nil，调用方据此跳过导出。
func NewS3SnapshotExporter(ctx context.Context, settings awsconf.Settings, bucket, prefix string) (*S3SnapshotExporter, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := awsconf.Load(ctx, settings)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true // 对于自定义endpoint通常需要path-style
		}
	})
	log.Printf("[AWS S3] 快照导出已启用 - 存储桶: %s, 前缀: %s", bucket, prefix)
	return &S3SnapshotExporter{client: client, bucket: bucket, prefix: prefix}, nil
}

// ObjectKey 构建对象键，确保不以斜杠开头
func (e *S3SnapshotExporter) ObjectKey(name string) string {
	prefix := strings.Trim(e.prefix, "/")
	if prefix == "" {
		return name + ".json"
	}
	return prefix + "/" + name + ".json"
}

// Export 上传一份快照，返回对象键
func (e *S3SnapshotExporter) Export(ctx context.Context, name string, body []byte) (string, error) {
	key := e.ObjectKey(name)
	sum := sha256.Sum256(body)

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:         aws.String(e.bucket),
		Key:            aws.String(key),
		Body:           bytes.NewReader(body),
		ContentLength:  aws.Int64(int64(len(body))),
		ContentType:    aws.String("application/json"),
		ChecksumSHA256: aws.String(base64.StdEncoding.EncodeToString(sum[:])),
	})
	if err != nil {
		return "", fmt.Errorf("上传快照到AWS S3失败: %w", err)
	}
	log.Printf("[AWS S3] 快照上传成功: bucket=%s, objectKey=%s", e.bucket, key)
	return key, nil
}
