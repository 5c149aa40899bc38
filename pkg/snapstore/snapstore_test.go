package snapstore_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapshot"
	"github.com/Sumatoshi-tech/sizeimpact/pkg/snapstore"
)

type fakeS3 struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	err          error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("not found")}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	f.objects[key] = data
	f.contentTypes[key] = aws.ToString(in.ContentType)

	return &s3.PutObjectOutput{}, nil
}

func TestParseS3URL(t *testing.T) {
	t.Parallel()

	bucket, key, err := snapstore.ParseS3URL("s3://builds/main/filesize-snapshot.json")
	require.NoError(t, err)
	assert.Equal(t, "builds", bucket)
	assert.Equal(t, "main/filesize-snapshot.json", key)

	for _, bad := range []string{"s3://", "s3://bucket", "s3://bucket/", "s3:///key", "https://x/y"} {
		_, _, err := snapstore.ParseS3URL(bad)
		require.ErrorIs(t, err, snapstore.ErrInvalidLocation, bad)
	}
}

func TestFileStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	location := filepath.Join(t.TempDir(), "nested", "snap.json")

	store, err := snapstore.Open(ctx, location, snapstore.Options{})
	require.NoError(t, err)
	assert.Equal(t, location, store.Location())

	_, err = store.Read(ctx)
	require.ErrorIs(t, err, snapstore.ErrNotFound)

	require.NoError(t, store.Write(ctx, []byte(`{}`)))

	data, err := store.Read(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(data))

	info, err := os.Stat(location)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestOpen_EmptyPath(t *testing.T) {
	t.Parallel()

	_, err := snapstore.Open(context.Background(), " ", snapstore.Options{})
	require.ErrorIs(t, err, snapstore.ErrInvalidLocation)
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fake := newFakeS3()

	store, err := snapstore.Open(ctx, "s3://builds/pr-1/snap.yaml", snapstore.Options{S3Client: fake})
	require.NoError(t, err)
	assert.Equal(t, "s3://builds/pr-1/snap.yaml", store.Location())

	_, err = store.Read(ctx)
	require.ErrorIs(t, err, snapstore.ErrNotFound)

	require.NoError(t, store.Write(ctx, []byte("dist: {}\n")))
	assert.Equal(t, "application/yaml", fake.contentTypes["builds/pr-1/snap.yaml"])

	data, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dist: {}\n", string(data))
}

func TestS3Store_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	boom := errors.New("access denied")
	fake := newFakeS3()
	fake.err = boom

	store := snapstore.NewS3Store(fake, "builds", "snap.json")

	_, err := store.Read(ctx)
	require.ErrorIs(t, err, boom)
	require.NotErrorIs(t, err, snapstore.ErrNotFound)

	require.ErrorIs(t, store.Write(ctx, []byte("{}")), boom)
}

func TestSnapshotRoundTripThroughStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := snapstore.NewS3Store(newFakeS3(), "builds", "snap.json")

	snap := snapshot.Snapshot{"dist": {Report: map[string]snapshot.SizeRecord{"a.js": snapshot.NewSizeRecord(3, "h")}}}

	require.NoError(t, snapshot.Save(ctx, store, snap, snapshot.FormatJSON))

	loaded, err := snapshot.Load(ctx, store, snapshot.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}
