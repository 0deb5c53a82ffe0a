package backend

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/OneOfOne/xxhash"
	cuckoo "github.com/seiflotfy/cuckoofilter"

	"github.com/artemis/object-migrate/internal/cmn"
)

// FailureGate is the subset of policy.Gate the factory needs: the endpoint
// chaos-failure set. Declared locally rather than taking a policy.Gate, so
// the factory depends on exactly the one capability it needs; policy.Gate
// satisfies it.
type FailureGate interface {
	IsEndpointFailed(name string) bool
}

// Factory resolves logical endpoint names to (StorageClient, bucket)
// pairs, caching clients per name the way a single xact-owned instance
// would (spec §9: "recast as a factory object owned by the processor,
// disposed with it" — not a package-level global).
type Factory struct {
	mu        sync.RWMutex
	clients   map[string]StorageClient
	endpoints map[string]cmn.EndpointDescriptor
	gate      FailureGate

	knownBucketsMu sync.Mutex
	knownBuckets   *cuckoo.Filter
}

// NewFactory builds a Factory over the given endpoint descriptors, keyed
// by name. gate may be nil, in which case chaos endpoint-failure injection
// is treated as always-off.
func NewFactory(endpoints []cmn.EndpointDescriptor, gate FailureGate) *Factory {
	byName := make(map[string]cmn.EndpointDescriptor, len(endpoints))
	for _, ep := range endpoints {
		byName[ep.Name] = ep
	}
	return &Factory{
		clients:      make(map[string]StorageClient),
		endpoints:    byName,
		gate:         gate,
		knownBuckets: cuckoo.NewFilter(1024),
	}
}

// Descriptor returns the endpoint descriptor registered under name.
func (f *Factory) Descriptor(name string) (cmn.EndpointDescriptor, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	ep, ok := f.endpoints[name]
	if !ok {
		return cmn.EndpointDescriptor{}, cmn.WrapEndpoint(cmn.ErrUnknownEndpoint, name)
	}
	return ep, nil
}

// Client resolves name to a cached StorageClient, building one on first
// use. It consults the failure gate first: a chaos-failed endpoint never
// resolves a client, the way a genuinely down endpoint wouldn't.
func (f *Factory) Client(ctx context.Context, name string) (StorageClient, cmn.EndpointDescriptor, error) {
	if f.gate != nil && f.gate.IsEndpointFailed(name) {
		return nil, cmn.EndpointDescriptor{}, cmn.WrapEndpoint(cmn.ErrEndpointChaosFailed, name)
	}

	f.mu.RLock()
	if c, ok := f.clients[name]; ok {
		ep := f.endpoints[name]
		f.mu.RUnlock()
		return c, ep, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.clients[name]; ok {
		return c, f.endpoints[name], nil
	}
	ep, ok := f.endpoints[name]
	if !ok {
		return nil, cmn.EndpointDescriptor{}, cmn.WrapEndpoint(cmn.ErrUnknownEndpoint, name)
	}
	c, err := f.build(ctx, ep)
	if err != nil {
		return nil, cmn.EndpointDescriptor{}, err
	}
	f.clients[name] = c
	return c, ep, nil
}

func (f *Factory) build(ctx context.Context, ep cmn.EndpointDescriptor) (StorageClient, error) {
	switch ep.Kind {
	case KindS3:
		return newS3Client(ctx, ep)
	case KindAzure:
		return newAzureClient(ep)
	case KindGCS:
		return newGCSClient(ctx, ep)
	case KindHDFS:
		return newHDFSClient(ep)
	default:
		return nil, cmn.WrapEndpoint(fmt.Errorf("%w: %q", cmn.ErrUnknownEndpointKind, ep.Kind), ep.Name)
	}
}

// EnsureBucket makes sure the bucket behind the named endpoint exists,
// idempotently (spec §4.A). A cuckoo-filter existence cache skips the
// round trip once a (endpoint,bucket) pair has been confirmed. The client
// call runs only when the filter reports the pair as not seen: a pair the
// filter reports as present (recorded earlier, or a filter false positive)
// returns nil without contacting the endpoint, so a bucket deleted after
// it was recorded, or one matched by a false positive, is not created here.
func (f *Factory) EnsureBucket(ctx context.Context, name string) error {
	client, ep, err := f.Client(ctx, name)
	if err != nil {
		return err
	}
	cacheKey := bucketCacheKey(name, ep.Bucket)

	f.knownBucketsMu.Lock()
	seen := f.knownBuckets.Lookup(cacheKey)
	f.knownBucketsMu.Unlock()
	if seen {
		return nil
	}

	if err := client.EnsureBucket(ctx, ep.Bucket); err != nil {
		return cmn.WrapEndpoint(err, name)
	}

	f.knownBucketsMu.Lock()
	f.knownBuckets.Insert(cacheKey)
	f.knownBucketsMu.Unlock()
	return nil
}

// bucketCacheKey hashes an (endpoint, bucket) pair to a fixed 8-byte key
// for the cuckoo filter, rather than inserting the raw concatenated
// string on every lookup.
func bucketCacheKey(name, bucket string) []byte {
	sum := xxhash.ChecksumString64(name + "/" + bucket)
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, sum)
	return key
}

// Close releases factory-owned resources. Provider SDK clients in this
// module are stateless over HTTP and need no explicit close, but the hook
// exists so a future provider (or a test fake) with real resources to
// release has somewhere to put it.
func (f *Factory) Close() error { return nil }
