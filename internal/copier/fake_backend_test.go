package copier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/artemis/object-migrate/internal/cmn"
)

type fakeObject struct {
	meta cmn.ObjectMeta
	body []byte
}

// fakeClient is a single-bucket in-memory backend.StorageClient, enough
// to drive every CopyOnce branch without a real endpoint.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]fakeObject // key -> object
	putErr  error
	getErr  error
	throttleUntil int // number of PutObject calls that fail with ErrThrottled before succeeding
	calls   int
}

func newFakeClient() *fakeClient {
	return &fakeClient{objects: make(map[string]fakeObject)}
}

func (c *fakeClient) seed(key string, meta cmn.ObjectMeta, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.objects[key] = fakeObject{meta: meta, body: body}
}

func (c *fakeClient) HeadObject(ctx context.Context, bucket, key string) (cmn.ObjectMeta, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	if !ok {
		return cmn.ObjectMeta{}, cmn.ErrNotFound
	}
	return obj.meta, nil
}

func (c *fakeClient) GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (c *fakeClient) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.throttleUntil {
		return cmn.ErrThrottled
	}
	if c.putErr != nil {
		return c.putErr
	}
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	c.objects[key] = fakeObject{meta: cmn.ObjectMeta{ETag: "etag-" + key, Size: int64(len(buf))}, body: buf}
	return nil
}

func (c *fakeClient) DeleteObject(ctx context.Context, bucket, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.objects[key]; !ok {
		return cmn.ErrNotFound
	}
	delete(c.objects, key)
	return nil
}

func (c *fakeClient) EnsureBucket(ctx context.Context, bucket string) error { return nil }

var errBoom = errors.New("boom")
