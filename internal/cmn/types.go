// Package cmn holds the types, configuration, and error vocabulary shared
// by every other package in this module, the way AIStore's own cmn package
// anchors its cluster-wide types.
package cmn

import "time"

// Status is one of the five legal MigrationTask lifecycle states.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
	StatusCleanup Status = "cleanup"
)

// AllStatuses lists the five known statuses in a stable order, used
// wherever a zero-filled view over all of them is required (observer
// gauges, CountByStatus).
var AllStatuses = [...]Status{StatusQueued, StatusRunning, StatusDone, StatusFailed, StatusCleanup}

// MaxAttempts is the number of attempts (inclusive) a task may accrue
// before the store deletes the row outright.
const MaxAttempts = 5

// MaxCopyRetries is the number of additional tries (on top of the first)
// the copy engine makes when an attempt fails with a throttling error.
const MaxCopyRetries = 3

// GrowingFileWindow is how recently an object may have been modified
// before the copy engine treats it as still being written.
const GrowingFileWindow = 5 * time.Second

// BacklogThreshold is the queued-task count above which the observer
// raises the migration_backlog alert.
const BacklogThreshold = 20

// Phase records which of §4.G's two dispatch branches a running task
// belongs to — the task's status becomes "running" on claim either way,
// so Phase is what the processor and a failed requeue consult to tell
// a copy-phase row from a cleanup-phase one.
type Phase string

const (
	PhaseCopy    Phase = "copy"
	PhaseCleanup Phase = "cleanup"
)

// MigrationTask is the persisted task row described in spec §3.
type MigrationTask struct {
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Src       string    `json:"src"`
	Dst       string    `json:"dst"`
	Status    Status    `json:"status"`
	Phase     Phase     `json:"phase"`
	Attempts  int       `json:"attempts"`
	Error     string    `json:"error"`
	CreatedAt time.Time `json:"created_at"`
	ClaimedAt time.Time `json:"claimed_at,omitempty"`
}

// FileMeta is the partial view of the file-metadata row this module reads
// and writes: the version token minted on a successful copy.
type FileMeta struct {
	Key          string `json:"key"`
	VersionToken string `json:"version_token"`
}

// ObjectMeta is the transient, provider-reported view of an object used to
// drive the idempotence predicate and the growing-file guard.
type ObjectMeta struct {
	ETag         string
	Size         int64
	LastModified time.Time
}

// SameContent is the idempotence predicate from spec §3/GLOSSARY:
// (source.etag == dest.etag) AND (source.size == dest.size).
func (m ObjectMeta) SameContent(other ObjectMeta) bool {
	return m.ETag == other.ETag && m.Size == other.Size
}

// EndpointDescriptor is the config-resident description of one logical
// storage endpoint.
type EndpointDescriptor struct {
	Name          string `json:"name"`
	Kind          string `json:"kind"` // s3 | azblob | gcs | hdfs
	Bucket        string `json:"bucket"`
	IsEncrypted   bool   `json:"is_encrypted"`
	Endpoint      string `json:"endpoint,omitempty"`    // custom/S3-compatible endpoint URL
	Region        string `json:"region,omitempty"`
	AccessKey     string `json:"access_key,omitempty"`
	SecretKey     string `json:"secret_key,omitempty"`
	Container     string `json:"container,omitempty"`    // not read: the azblob client uses Bucket as the container name
	NameNode      string `json:"namenode,omitempty"`     // hdfs
}
