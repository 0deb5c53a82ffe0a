package copier

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/policy"
)

var _ = Describe("CopyOnce", func() {
	var (
		src, dst *fakeClient
		factory  *fakeFactory
		gate     policy.Gate
		engine   *Engine
		fixedNow time.Time
	)

	BeforeEach(func() {
		src = newFakeClient()
		dst = newFakeClient()
		factory = newFakeFactory()
		factory.add("src", cmn.EndpointDescriptor{Name: "src", Bucket: "bucket"}, src)
		factory.add("dst", cmn.EndpointDescriptor{Name: "dst", Bucket: "bucket", IsEncrypted: true}, dst)
		gate = policy.NewMemGate()
		engine = NewEngine(factory, gate)

		fixedNow = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		now = func() time.Time { return fixedNow }
		sleep = func(time.Duration) {}
	})

	AfterEach(func() {
		now = func() time.Time { return time.Now().UTC() }
		sleep = time.Sleep
	})

	It("copies a fresh object and mints a version token", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Copied))
		Expect(outcome.Size).To(BeEquivalentTo(4))
		Expect(outcome.VersionToken).To(HaveLen(32))
	})

	It("is a noop when destination already has the same etag and size", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))
		dst.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Noop))
	})

	It("reports missing_source when neither side has the object", func() {
		outcome := engine.CopyOnce(context.Background(), "ghost", "src", "dst")
		Expect(outcome.Kind).To(Equal(MissingSource))
	})

	It("treats an already-deleted source with a surviving destination as noop", func() {
		dst.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4}, []byte("data"))
		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")
		Expect(outcome.Kind).To(Equal(Noop))
	})

	It("skips an empty source object", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 0, LastModified: fixedNow.Add(-time.Hour)}, nil)
		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")
		Expect(outcome.Kind).To(Equal(Skipped))
		Expect(outcome.Reason).To(Equal("empty_source"))
	})

	It("skips an object that looks like it's still being written", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Second)}, []byte("data"))
		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")
		Expect(outcome.Kind).To(Equal(Skipped))
		Expect(outcome.Reason).To(Equal("file_growing"))
	})

	It("blocks a copy to an unencrypted destination when encryption is enforced", func() {
		factory.add("dst", cmn.EndpointDescriptor{Name: "dst", Bucket: "bucket", IsEncrypted: false}, dst)
		gate.SetEncryptionEnforced(true)
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Blocked))
		Expect(outcome.Reason).To(Equal("destination_not_encrypted"))
	})

	It("retries a throttled PUT and eventually succeeds", func() {
		dst.throttleUntil = 2
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Copied))
		Expect(dst.calls).To(Equal(3))
	})

	It("fails without consuming retries on a non-throttle error", func() {
		dst.putErr = errBoom
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Failed))
		Expect(dst.calls).To(Equal(1))
	})

	It("fails after exhausting retries against a permanently throttled destination", func() {
		dst.throttleUntil = 99
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		outcome := engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(outcome.Kind).To(Equal(Failed))
		Expect(outcome.Reason).To(Equal("max_retries_exceeded"))
		Expect(dst.calls).To(Equal(cmn.MaxCopyRetries + 1))
	})

	It("sleeps for the configured chaos latency before touching any I/O", func() {
		gate.SetLatencyMS(50)
		var slept time.Duration
		sleep = func(d time.Duration) { slept = d }
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: fixedNow.Add(-time.Hour)}, []byte("data"))

		engine.CopyOnce(context.Background(), "k1", "src", "dst")

		Expect(slept).To(Equal(50 * time.Millisecond))
	})
})
