package fsxs3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Abraxas-365/expomail/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of *s3.Client used here.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3FileSystem implements fsx.FileReader over a bucket prefix.
type S3FileSystem struct {
	client S3API
	bucket string
	prefix string
}

// NewS3FileSystem reads objects under bucket/prefix. prefix may be empty.
func NewS3FileSystem(client S3API, bucket, prefix string) *S3FileSystem {
	return &S3FileSystem{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (fs *S3FileSystem) ReadFile(ctx context.Context, p string) ([]byte, error) {
	out, err := fs.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(fs.bucket),
		Key:    aws.String(fs.key(p)),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", fsx.ErrNotFound, p)
		}
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// List returns objects and common prefixes directly under p, in the
// lexicographic order S3 returns them.
func (fs *S3FileSystem) List(ctx context.Context, p string) ([]fsx.FileInfo, error) {
	dir := fs.key(p)
	if dir != "" {
		dir += "/"
	}

	var (
		infos []fsx.FileInfo
		token *string
	)
	for {
		out, err := fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(fs.bucket),
			Prefix:            aws.String(dir),
			Delimiter:         aws.String("/"),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, cp := range out.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), dir), "/")
			infos = append(infos, fsx.FileInfo{Name: name, IsDir: true})
		}
		for _, obj := range out.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), dir)
			if name == "" {
				continue
			}
			infos = append(infos, fsx.FileInfo{Name: name})
		}

		if !aws.ToBool(out.IsTruncated) {
			break
		}
		token = out.NextContinuationToken
	}
	return infos, nil
}

func (fs *S3FileSystem) key(p string) string {
	p = strings.Trim(path.Clean("/"+p), "/")
	if fs.prefix == "" {
		return p
	}
	if p == "" {
		return fs.prefix
	}
	return fs.prefix + "/" + p
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	return errors.As(err, &noKey)
}
