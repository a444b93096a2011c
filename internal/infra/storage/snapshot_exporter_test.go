package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/anzhiyu-c/anheyu-archive/internal/infra/awsconf"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, f.err
}

func TestS3SnapshotExporterObjectKey(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		want   string
	}{
		{"无前缀", "", "abc123.json"},
		{"普通前缀", "archived-users", "archived-users/abc123.json"},
		{"前后斜杠", "/backup/users/", "backup/users/abc123.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &S3SnapshotExporter{prefix: tt.prefix}
			assert.Equal(t, tt.want, e.ObjectKey("abc123"))
		})
	}
}

func TestS3SnapshotExporterExport(t *testing.T) {
	fake := &fakeS3{}
	e := &S3SnapshotExporter{client: fake, bucket: "snapshots", prefix: "archived-users"}

	key, err := e.Export(context.Background(), "u1", []byte(`{"version":1}`))
	require.NoError(t, err)
	assert.Equal(t, "archived-users/u1.json", key)
	assert.Equal(t, "snapshots", aws.ToString(fake.input.Bucket))
	assert.Equal(t, "application/json", aws.ToString(fake.input.ContentType))
	assert.Equal(t, int64(13), aws.ToInt64(fake.input.ContentLength))
	assert.Equal(t, `{"version":1}`, string(fake.body))

	fake.err = errors.New("AccessDenied")
	_, err = e.Export(context.Background(), "u1", []byte(`{}`))
	assert.ErrorIs(t, err, fake.err)
}

func TestNewS3SnapshotExporterDisabledWithoutBucket(t *testing.T) {
	e, err := NewS3SnapshotExporter(context.Background(), awsconf.Settings{}, "", "x")
	require.NoError(t, err)
	assert.Nil(t, e)
}
