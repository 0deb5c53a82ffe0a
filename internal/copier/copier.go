// Package copier implements the Copy Engine (component D, spec §4.D):
// precondition checks, growing-file detection, and retry-with-backoff
// whole-object copy between two endpoints.
package copier

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/policy"
	"github.com/artemis/object-migrate/internal/probe"
	"github.com/artemis/object-migrate/internal/version"
)

// OutcomeKind discriminates the copy_once result union from spec §4.D.
type OutcomeKind string

const (
	Copied         OutcomeKind = "copied"
	Noop           OutcomeKind = "noop"
	MissingSource  OutcomeKind = "missing_source"
	Skipped        OutcomeKind = "skipped"
	Blocked        OutcomeKind = "blocked"
	Failed         OutcomeKind = "failed"
)

// Outcome is the discriminated result of CopyOnce.
type Outcome struct {
	Kind         OutcomeKind
	Size         int64
	VersionToken string
	Reason       string // populated for Skipped/Blocked/Failed
	Err          error  // populated for Failed, when the reason is an underlying error
}

// now is a seam so tests can control "current time" for the growing-file
// guard without sleeping real seconds.
var now = func() time.Time { return time.Now().UTC() }

// sleep is a seam so tests can run the retry/backoff/chaos-latency paths
// without actually waiting.
var sleep = time.Sleep

// bufPool recycles whole-object copy buffers across concurrent workers
// (spec §5: "copy reads the entire object body into memory before
// writing"), bounding allocation churn the way a long-running daemon
// should.
var bufPool = sync.Pool{New: func() any { return new(bytes.Buffer) }}

// Factory is the subset of backend.Factory the copy engine needs.
type Factory interface {
	Client(ctx context.Context, name string) (backend.StorageClient, cmn.EndpointDescriptor, error)
	EnsureBucket(ctx context.Context, name string) error
}

// Engine runs CopyOnce against a given Factory and Gate.
type Engine struct {
	Factory Factory
	Gate    policy.Gate
}

// NewEngine builds a copier.Engine.
func NewEngine(f Factory, g policy.Gate) *Engine {
	return &Engine{Factory: f, Gate: g}
}

// CopyOnce runs the ten-step algorithm of spec §4.D against the endpoint
// named src and dst, for object key.
func (e *Engine) CopyOnce(ctx context.Context, key, src, dst string) Outcome {
	// step 1: encryption gate. We need the destination descriptor before
	// touching the network, so resolve it (without forcing a client build
	// failure to be fatal here — an unknown dst is reported as a normal
	// Failed outcome, same as any other precondition failure).
	_, dstDesc, err := e.Factory.Client(ctx, dst)
	if err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}
	if e.Gate.EncryptionEnforced() && !dstDesc.IsEncrypted {
		return Outcome{Kind: Blocked, Reason: "destination_not_encrypted"}
	}

	// step 2: chaos latency.
	if lat := e.Gate.LatencyMS(); lat > 0 {
		sleep(time.Duration(lat) * time.Millisecond)
	}

	// step 3: bucket existence.
	if err := e.Factory.EnsureBucket(ctx, src); err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}
	if err := e.Factory.EnsureBucket(ctx, dst); err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}

	srcClient, srcDesc, err := e.Factory.Client(ctx, src)
	if err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}
	dstClient, _, err := e.Factory.Client(ctx, dst)
	if err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}

	// step 4: HEAD both sides.
	sm, err := probe.Head(ctx, srcClient, srcDesc.Bucket, key)
	if err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}
	dm, err := probe.Head(ctx, dstClient, dstDesc.Bucket, key)
	if err != nil {
		return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
	}

	// step 5: idempotence short-circuit.
	if sm != nil && dm != nil && sm.SameContent(*dm) {
		return Outcome{Kind: Noop}
	}

	// step 6: missing source handling.
	if sm == nil {
		if dm != nil {
			return Outcome{Kind: Noop}
		}
		return Outcome{Kind: MissingSource}
	}

	// step 7: empty source guard.
	if sm.Size == 0 {
		return Outcome{Kind: Skipped, Reason: "empty_source"}
	}

	// step 8: growing-file guard. Compare in the same timezone frame (both
	// normalized to UTC) per spec §9's clock-skew caveat.
	if now().Sub(sm.LastModified.UTC()) < cmn.GrowingFileWindow {
		return Outcome{Kind: Skipped, Reason: "file_growing"}
	}

	// step 9: copy with retry.
	return e.copyWithRetry(ctx, key, srcClient, srcDesc.Bucket, dstClient, dstDesc.Bucket, sm.Size)
}

func (e *Engine) copyWithRetry(ctx context.Context, key string, srcClient backend.StorageClient, srcBucket string, dstClient backend.StorageClient, dstBucket string, size int64) Outcome {
	backoff := 1 * time.Second
	var lastErr error
	for attempt := 0; attempt <= cmn.MaxCopyRetries; attempt++ {
		body, err := srcClient.GetObject(ctx, srcBucket, key)
		if err == nil {
			buf := bufPool.Get().(*bytes.Buffer)
			buf.Reset()
			_, copyErr := io.Copy(buf, body)
			_ = body.Close()
			if copyErr == nil {
				err = dstClient.PutObject(ctx, dstBucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
			} else {
				err = copyErr
			}
			bufPool.Put(buf)
		}

		if err == nil {
			return Outcome{Kind: Copied, Size: size, VersionToken: version.New(key)}
		}

		lastErr = err
		if !errors.Is(err, cmn.ErrThrottled) {
			return Outcome{Kind: Failed, Reason: err.Error(), Err: err}
		}
		if attempt < cmn.MaxCopyRetries {
			sleep(backoff)
			backoff *= 2
			continue
		}
	}
	return Outcome{Kind: Failed, Reason: "max_retries_exceeded", Err: lastErr}
}
