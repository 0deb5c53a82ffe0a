package copier

import (
	"context"

	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cmn"
)

type fakeFactory struct {
	clients     map[string]backend.StorageClient
	descriptors map[string]cmn.EndpointDescriptor
	ensureErr   error
	clientErr   map[string]error
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		clients:     make(map[string]backend.StorageClient),
		descriptors: make(map[string]cmn.EndpointDescriptor),
		clientErr:   make(map[string]error),
	}
}

func (f *fakeFactory) add(name string, desc cmn.EndpointDescriptor, c backend.StorageClient) {
	f.descriptors[name] = desc
	f.clients[name] = c
}

func (f *fakeFactory) Client(ctx context.Context, name string) (backend.StorageClient, cmn.EndpointDescriptor, error) {
	if err, ok := f.clientErr[name]; ok {
		return nil, cmn.EndpointDescriptor{}, err
	}
	c, ok := f.clients[name]
	if !ok {
		return nil, cmn.EndpointDescriptor{}, cmn.WrapEndpoint(cmn.ErrUnknownEndpoint, name)
	}
	return c, f.descriptors[name], nil
}

func (f *fakeFactory) EnsureBucket(ctx context.Context, name string) error { return f.ensureErr }
