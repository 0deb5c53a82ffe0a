package queue

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/artemis/object-migrate/internal/cleanup"
	"github.com/artemis/object-migrate/internal/cmn"
	"github.com/artemis/object-migrate/internal/copier"
	"github.com/artemis/object-migrate/internal/policy"
	"github.com/artemis/object-migrate/internal/store"
)

var _ = Describe("ProcessOnce", func() {
	var (
		tasks     *store.MemTaskStore
		filemetas *store.MemFileMetaStore
		factory   *fakeFactory
		src, dst  *fakeClient
		proc      *Processor
		obs       *fakeObserver
		msink     *fakeMetrics
	)

	BeforeEach(func() {
		tasks = store.NewMemTaskStore()
		filemetas = store.NewMemFileMetaStore()
		factory = newFakeFactory()
		src = newFakeClient()
		dst = newFakeClient()
		factory.add("src", cmn.EndpointDescriptor{Name: "src", Bucket: "b"}, src)
		factory.add("dst", cmn.EndpointDescriptor{Name: "dst", Bucket: "b", IsEncrypted: true}, dst)

		gate := policy.NewMemGate()
		cp := copier.NewEngine(factory, gate)
		cl := cleanup.NewEngine(factory)
		obs = &fakeObserver{}
		msink = newFakeMetrics()
		proc = NewProcessor(tasks, filemetas, cp, cl, msink, obs)
	})

	It("returns false and still ticks the observer when the queue is empty", func() {
		did, err := proc.ProcessOnce(context.Background())
		Expect(err).NotTo(HaveOccurred())
		Expect(did).To(BeFalse())
		Expect(obs.ticks).To(Equal(1))
	})

	It("completes a copy task, writes the version token, and ticks the observer", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4, LastModified: time.Now().Add(-time.Hour)}, []byte("data"))
		_ = filemetas.SetVersionToken("k1", "")
		tasks.Put(&cmn.MigrationTask{ID: "t1", Key: "k1", Src: "src", Dst: "dst", Status: cmn.StatusQueued, CreatedAt: time.Now()})

		did, err := proc.ProcessOnce(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(did).To(BeTrue())
		Expect(obs.ticks).To(Equal(1))
		Expect(msink.jobs).To(ContainElement("copied"))

		counts, _ := tasks.CountByStatus()
		Expect(counts[cmn.StatusDone]).To(Equal(1))

		fm, err := filemetas.Get("k1")
		Expect(err).NotTo(HaveOccurred())
		Expect(fm.VersionToken).NotTo(BeEmpty())
	})

	It("requeues a missing-source copy task with attempts incremented", func() {
		tasks.Put(&cmn.MigrationTask{ID: "t1", Key: "ghost", Src: "src", Dst: "dst", Status: cmn.StatusQueued, CreatedAt: time.Now()})

		did, err := proc.ProcessOnce(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(did).To(BeTrue())
		Expect(msink.jobs).To(ContainElement("missing_source"))

		counts, _ := tasks.CountByStatus()
		Expect(counts[cmn.StatusQueued]).To(Equal(1))
	})

	It("deletes a task once attempts reach MaxAttempts", func() {
		tasks.Put(&cmn.MigrationTask{ID: "t1", Key: "ghost", Src: "src", Dst: "dst", Status: cmn.StatusQueued, Attempts: cmn.MaxAttempts - 1, CreatedAt: time.Now()})

		_, err := proc.ProcessOnce(context.Background())
		Expect(err).NotTo(HaveOccurred())

		counts, _ := tasks.CountByStatus()
		total := 0
		for _, n := range counts {
			total += n
		}
		Expect(total).To(Equal(0))
	})

	It("dispatches a cleanup-phase task to the cleanup engine and marks it done", func() {
		src.seed("k1", cmn.ObjectMeta{ETag: "e1", Size: 4}, []byte("data"))
		tasks.Put(&cmn.MigrationTask{ID: "t1", Key: "k1", Src: "src", Status: cmn.StatusCleanup, CreatedAt: time.Now()})

		did, err := proc.ProcessOnce(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(did).To(BeTrue())
		Expect(msink.jobs).To(ContainElement("deleted"))

		counts, _ := tasks.CountByStatus()
		Expect(counts[cmn.StatusDone]).To(Equal(1))
	})

	It("requeues a failed cleanup attempt back to cleanup, not queued", func() {
		factory.clients["src"] = &erroringClient{fakeClient: src}
		tasks.Put(&cmn.MigrationTask{ID: "t1", Key: "k1", Src: "src", Status: cmn.StatusCleanup, CreatedAt: time.Now()})

		_, err := proc.ProcessOnce(context.Background())
		Expect(err).NotTo(HaveOccurred())

		counts, _ := tasks.CountByStatus()
		Expect(counts[cmn.StatusCleanup]).To(Equal(1))
	})
})
