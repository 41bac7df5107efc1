package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/okian/appraisal/internal/adapters/mq/queue"
	"github.com/okian/appraisal/internal/adapters/mq/worker"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	jobs chan queue.Job
	once sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{jobs: make(chan queue.Job, 10)}
}

func (mq *mockQueue) Dequeue(context.Context) <-chan queue.Job { return mq.jobs }

func (mq *mockQueue) Close() error {
	mq.once.Do(func() { close(mq.jobs) })
	return nil
}

type mockRecomputer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	done  chan struct{}
}

func newMockRecomputer(expect int) *mockRecomputer {
	return &mockRecomputer{fail: map[string]error{}, done: make(chan struct{}, expect)}
}

func (m *mockRecomputer) Recompute(_ context.Context, periodID, subjectID string) error {
	m.mu.Lock()
	m.calls = append(m.calls, periodID+"/"+subjectID)
	err := m.fail[subjectID]
	m.mu.Unlock()
	m.done <- struct{}{}
	return err
}

func (m *mockRecomputer) wait(n int) bool {
	for i := 0; i < n; i++ {
		select {
		case <-m.done:
		case <-time.After(2 * time.Second):
			return false
		}
	}
	return true
}

func (m *mockRecomputer) called() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		q := newMockQueue()
		r := newMockRecomputer(4)
		w := worker.NewInMemoryWorker(q, r, worker.WithName("w-test"))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When jobs arrive", func() {
			q.jobs <- queue.NewJob("2025", "emp-1", "submission")
			q.jobs <- queue.NewJob("2025", "emp-2", "submission")

			convey.Convey("Then each subject is recomputed", func() {
				convey.So(r.wait(2), convey.ShouldBeTrue)
				convey.So(r.called(), convey.ShouldResemble, []string{"2025/emp-1", "2025/emp-2"})
			})
		})

		convey.Convey("When a recompute fails", func() {
			r.fail["emp-bad"] = errors.New("boom")
			q.jobs <- queue.NewJob("2025", "emp-bad", "submission")
			q.jobs <- queue.NewJob("2025", "emp-ok", "submission")

			convey.Convey("Then the worker keeps going", func() {
				convey.So(r.wait(2), convey.ShouldBeTrue)
				convey.So(r.called(), convey.ShouldContain, "2025/emp-ok")
			})
		})

		convey.Convey("When the worker is shut down", func() {
			err := w.Shutdown(context.Background())

			convey.Convey("Then it stops cleanly and a second shutdown is harmless", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(w.Shutdown(context.Background()), convey.ShouldBeNil)
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool over a real queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(50))
		r := newMockRecomputer(20)
		r.fail["emp-3"] = errors.New("boom")
		p := worker.NewPool(3, q, r)
		p.Start(context.Background())

		convey.So(p.Size(), convey.ShouldEqual, 3)

		convey.Convey("When jobs are enqueued and the pool is shut down", func() {
			for _, id := range []string{"emp-1", "emp-2", "emp-3", "emp-4"} {
				convey.So(q.Enqueue(context.Background(), queue.NewJob("2025", id, "test")), convey.ShouldBeNil)
			}
			convey.So(r.wait(4), convey.ShouldBeTrue)
			err := p.Shutdown(context.Background())

			convey.Convey("Then the queue is closed and outcomes are counted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
				convey.So(p.Processed(), convey.ShouldEqual, 3)
				convey.So(p.Failed(), convey.ShouldEqual, 1)
			})
		})
	})

	convey.Convey("Given a pool that never started", t, func() {
		p := worker.NewPool(0, newMockQueue(), newMockRecomputer(1))

		convey.Convey("Then it defaults to one worker per CPU and shuts down at once", func() {
			convey.So(p.Size(), convey.ShouldBeGreaterThan, 0)
			convey.So(p.Shutdown(context.Background()), convey.ShouldBeNil)
		})
	})
}
