package fsxs3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/Abraxas-365/expomail/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	objects map[string]string
	keys    []string
	listIn  *s3.ListObjectsV2Input
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.listIn = in
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range f.keys {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(k), Size: aws.Int64(1)})
		}
	}
	return out, nil
}

func TestS3FileSystem_ReadUsesPrefix(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"templates/welcome.html": "<p>hi</p>"}}
	fs := NewS3FileSystem(client, "bucket", "/templates/")

	data, err := fs.ReadFile(context.Background(), "welcome.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hi</p>", string(data))

	_, err = fs.ReadFile(context.Background(), "missing.html")
	assert.True(t, errors.Is(err, fsx.ErrNotFound))
}

func TestS3FileSystem_ListStripsPrefix(t *testing.T) {
	client := &fakeS3{keys: []string{"templates/a.html", "templates/b.html"}}
	fs := NewS3FileSystem(client, "bucket", "templates")

	infos, err := fs.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a.html", infos[0].Name)
	assert.Equal(t, "b.html", infos[1].Name)
	assert.Equal(t, "templates/", aws.ToString(client.listIn.Prefix))
}

func TestS3FileSystem_ListReportsCommonPrefixesAsDirs(t *testing.T) {
	client := &prefixS3{}
	fs := NewS3FileSystem(client, "bucket", "templates")

	infos, err := fs.List(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, fsx.FileInfo{Name: "partials", IsDir: true}, infos[0])
	assert.Equal(t, fsx.FileInfo{Name: "welcome.html"}, infos[1])
}

type prefixS3 struct{ fakeS3 }

func (p *prefixS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	return &s3.ListObjectsV2Output{
		IsTruncated:    aws.Bool(false),
		CommonPrefixes: []types.CommonPrefix{{Prefix: aws.String("templates/partials/")}},
		Contents:       []types.Object{{Key: aws.String("templates/welcome.html")}},
	}, nil
}
