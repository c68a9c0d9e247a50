package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/angelmondragon/farmconnect-backend/pkg/logger"
	"github.com/angelmondragon/farmconnect-backend/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeLock struct {
	held     bool
	acquires int
	releases int
	err      error
}

func (f *fakeLock) Acquire(context.Context) (bool, error) {
	f.acquires++
	if f.err != nil {
		return false, f.err
	}
	if f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLock) Release(context.Context) error {
	f.releases++
	f.held = false
	return nil
}

type testJob struct {
	name     string
	affected int64
	err      error
	runs     atomic.Int64
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) (Result, error) {
	t.runs.Add(1)
	return Result{Affected: t.affected}, t.err
}

func newTestService(t *testing.T, lock Lock, reg prometheus.Registerer, jobs ...Job) *Service {
	t.Helper()
	registry, err := NewRegistry(jobs...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	service, err := NewService(ServiceParams{
		Logger:   logger.Nop(),
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(reg),
	})
	if err != nil {
		t.Fatalf("construct service: %v", err)
	}
	return service
}

func TestServiceRunOnceRunsAllJobsEvenOnFailure(t *testing.T) {
	success := &testJob{name: "success", affected: 4}
	failure := &testJob{name: "fail", err: errors.New("boom")}
	lock := &fakeLock{}
	service := newTestService(t, lock, nil, success, failure)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if success.runs.Load() != 1 {
		t.Fatalf("expected success job to run once, ran %d", success.runs.Load())
	}
	if failure.runs.Load() != 1 {
		t.Fatalf("expected failure job to run once, ran %d", failure.runs.Load())
	}
	if lock.releases != 1 || lock.held {
		t.Fatalf("expected lock released once, got %d (held=%v)", lock.releases, lock.held)
	}
}

func TestServiceRunOnceSkipsWhenLockHeld(t *testing.T) {
	job := &testJob{name: "sweep"}
	lock := &fakeLock{held: true}
	service := newTestService(t, lock, nil, job)

	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}
	if job.runs.Load() != 0 {
		t.Fatalf("expected job skipped, ran %d", job.runs.Load())
	}
	if lock.releases != 0 {
		t.Fatalf("expected no release, got %d", lock.releases)
	}
}

func TestServiceRunOnceReturnsLockErrors(t *testing.T) {
	service := newTestService(t, &fakeLock{err: errors.New("redis down")}, nil, &testJob{name: "sweep"})
	if err := service.RunOnce(context.Background()); err == nil {
		t.Fatal("expected lock error")
	}
}

func TestServiceRecordsJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	service := newTestService(t, &fakeLock{}, reg,
		&testJob{name: "cart-expiry", affected: 5},
		&testJob{name: "broken", err: errors.New("boom")},
	)
	if err := service.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	values := map[string]float64{}
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() != "job" {
					continue
				}
				if counter := metric.GetCounter(); counter != nil {
					values[family.GetName()+"/"+label.GetValue()] = counter.GetValue()
				}
			}
		}
	}
	if values["farmconnect_cron_job_success_total/cart-expiry"] != 1 {
		t.Fatalf("expected one success for cart-expiry, got %v", values)
	}
	if values["farmconnect_cron_job_failure_total/broken"] != 1 {
		t.Fatalf("expected one failure for broken, got %v", values)
	}
}

func TestServiceRunStopsOnCancel(t *testing.T) {
	job := &testJob{name: "sweep"}
	service := newTestService(t, &fakeLock{}, nil, job)
	service.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- service.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for job.runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("expected immediate cycle")
		default:
			time.Sleep(5 * time.Millisecond)
		}
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
}
