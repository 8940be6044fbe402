package s3

import (
	"context"
	"io"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kbukum/tomoflow/errors"
)

type fakeClient struct {
	objects map[string]string
	pages   int
}

func newFake() *fakeClient { return &fakeClient{objects: map[string]string{}} }

func (f *fakeClient) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = string(b)
	return &awss3.PutObjectOutput{}, nil
}

func (f *fakeClient) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &awss3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(v))}, nil
}

func (f *fakeClient) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	delete(f.objects, aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeClient) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &awss3.HeadObjectOutput{}, nil
}

// ListObjectsV2 returns one object per page to exercise pagination.
func (f *fakeClient) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	f.pages++
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	start := 0
	if in.ContinuationToken != nil {
		for i, k := range keys {
			if k == aws.ToString(in.ContinuationToken) {
				start = i
			}
		}
	}
	if start >= len(keys) {
		return &awss3.ListObjectsV2Output{}, nil
	}
	now := time.Now()
	out := &awss3.ListObjectsV2Output{
		Contents: []types.Object{{Key: aws.String(keys[start]), Size: aws.Int64(int64(len(f.objects[keys[start]]))), LastModified: &now}},
	}
	if start+1 < len(keys) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[start+1])
	}
	return out, nil
}

func TestPrefixedKeys(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewWithClient(fake, "bucket", "runs/")

	if err := s.Upload(ctx, "/out/a.tfb", strings.NewReader("x")); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, ok := fake.objects["runs/out/a.tfb"]; !ok {
		t.Fatalf("objects = %v, want key runs/out/a.tfb", fake.objects)
	}

	rc, err := s.Download(ctx, "out/a.tfb")
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "x" {
		t.Errorf("content = %q", b)
	}
}

func TestMissingObject(t *testing.T) {
	ctx := context.Background()
	s := NewWithClient(newFake(), "bucket", "")
	if _, err := s.Download(ctx, "nope"); !errors.IsNotFound(err) {
		t.Errorf("Download error = %v, want not found", err)
	}
	ok, err := s.Exists(ctx, "nope")
	if err != nil || ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewWithClient(fake, "bucket", "p/")
	for _, k := range []string{"d/1", "d/2", "d/3", "e/1"} {
		_ = s.Upload(ctx, k, strings.NewReader(k))
	}
	files, err := s.List(ctx, "d/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("List = %+v, want 3 files", files)
	}
	if files[0].Path != "d/1" || files[2].Path != "d/3" {
		t.Errorf("paths = %v %v", files[0].Path, files[2].Path)
	}
	if fake.pages != 3 {
		t.Errorf("pages = %d, want 3", fake.pages)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	fake := newFake()
	s := NewWithClient(fake, "bucket", "")
	_ = s.Upload(ctx, "k", strings.NewReader("v"))
	if err := s.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(fake.objects) != 0 {
		t.Errorf("objects = %v", fake.objects)
	}
}
