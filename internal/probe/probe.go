// Package probe implements the Metadata Probe (component C, spec §4.C):
// HEAD an object and report its metadata, or report it absent.
package probe

import (
	"context"
	"errors"

	"github.com/artemis/object-migrate/internal/backend"
	"github.com/artemis/object-migrate/internal/cmn"
)

// Head HEADs key in bucket through client. A not-found response (spec
// §4.C: 404 / NoSuchKey / NotFound, translated by the backend layer into
// cmn.ErrNotFound) is reported as (nil, nil) rather than an error — callers
// branch on the returned pointer, not on err, to tell "absent" from
// "failed to check".
func Head(ctx context.Context, client backend.StorageClient, bucket, key string) (*cmn.ObjectMeta, error) {
	meta, err := client.HeadObject(ctx, bucket, key)
	if err != nil {
		if errors.Is(err, cmn.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}
