package queue

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"

	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cmn"
)

type fakeObject struct {
	meta cmn.ObjectMeta
	body []byte
}

// fakeClient is a minimal backend.StorageClient used to drive the Copy
// and Cleanup engines from the queue package's own tests, without
// reaching into copier's unexported test doubles.
type fakeClient struct {
	mu      sync.Mutex
	objects map[string]fakeObject
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
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.objects[key]
	if !ok {
		return nil, cmn.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.body)), nil
}

func (c *fakeClient) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64) error {
	buf, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
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

var _ backend.StorageClient = (*fakeClient)(nil)

// erroringClient wraps a fakeClient and fails DeleteObject with a non
// not-found error, for exercising the cleanup-phase failure path.
type erroringClient struct {
	*fakeClient
}

func (c *erroringClient) DeleteObject(ctx context.Context, bucket, key string) error {
	return errDeleteFailed
}

var errDeleteFailed = errors.New("delete failed")

// fakeFactory satisfies both copier.Factory and cleanup.Factory.
type fakeFactory struct {
	clients     map[string]backend.StorageClient
	descriptors map[string]cmn.EndpointDescriptor
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		clients:     make(map[string]backend.StorageClient),
		descriptors: make(map[string]cmn.EndpointDescriptor),
	}
}

func (f *fakeFactory) add(name string, desc cmn.EndpointDescriptor, c backend.StorageClient) {
	f.descriptors[name] = desc
	f.clients[name] = c
}

func (f *fakeFactory) Client(ctx context.Context, name string) (backend.StorageClient, cmn.EndpointDescriptor, error) {
	c, ok := f.clients[name]
	if !ok {
		return nil, cmn.EndpointDescriptor{}, cmn.WrapEndpoint(cmn.ErrUnknownEndpoint, name)
	}
	return c, f.descriptors[name], nil
}

func (f *fakeFactory) EnsureBucket(ctx context.Context, name string) error { return nil }

// fakeObserver counts Tick calls instead of exercising the real observer.
type fakeObserver struct {
	ticks int
}

func (o *fakeObserver) Tick(ctx context.Context) { o.ticks++ }

// fakeMetrics records every IncJob/SetQueueGauge call for assertions.
type fakeMetrics struct {
	mu      sync.Mutex
	jobs    []string
	gauges  map[string]float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{gauges: make(map[string]float64)}
}

func (m *fakeMetrics) IncJob(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.jobs = append(m.jobs, result)
}

func (m *fakeMetrics) SetQueueGauge(status string, n float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gauges[status] = n
}
