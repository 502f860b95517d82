package main

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/clinicware/clinic-booking/internal/apiclient"
	"github.com/clinicware/clinic-booking/internal/booking"
	"github.com/clinicware/clinic-booking/internal/clinic"
	"github.com/clinicware/clinic-booking/internal/config"
	"github.com/clinicware/clinic-booking/internal/listing"
	"github.com/clinicware/clinic-booking/internal/logger"
	"github.com/clinicware/clinic-booking/internal/store"
)

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	DeleteRatio float64
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)

	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p95
}

type Metrics struct {
	Book   OperationMetrics
	Delete OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	zl, err := logger.New(baseCfg.LogLevel, baseCfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg := SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 10),
		DeleteRatio: getFloat("SIM_DELETE_RATIO", 0.2),
	}

	log.Printf("config: duration=%s workers=%d delete_ratio=%.2f",
		cfg.Duration, cfg.Workers, cfg.DeleteRatio)

	client := apiclient.New(cfg.APIBaseURL)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	patients, err := client.Patients(ctx)
	if err != nil {
		cancel()
		log.Fatalf("load patients: %v", err)
	}
	practitioners, err := client.Practitioners(ctx)
	cancel()
	if err != nil {
		log.Fatalf("load practitioners: %v", err)
	}
	if len(patients) == 0 || len(practitioners) == 0 {
		log.Fatal("no patients or practitioners; run cmd/seed first")
	}

	log.Printf("loaded: %d patients, %d practitioners", len(patients), len(practitioners))

	var metrics Metrics
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			runWorker(cfg, client, zl, patients, practitioners, &metrics, deadline)
		}(i)
	}
	wg.Wait()

	printReport(&metrics)
}

// runWorker drives the real client-side booking workflow end to end:
// practitioner, day, slot and patient selection, then submission. A fraction
// of successfully created appointments is deleted again through the list
// presenter.
func runWorker(cfg SimConfig, client *apiclient.Client, zl *zap.Logger, patients []clinic.Patient, practitioners []clinic.Practitioner, metrics *Metrics, deadline time.Time) {
	st := store.New()
	silent := booking.NotifierFunc(func(string) {})
	wf := booking.NewWorkflow(client, client, st, silent, zl)
	presenter := listing.NewPresenter(client, st, listingNotifier{}, zl)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		created, conflict, latency := bookOnce(ctx, wf, rng, patients, practitioners)
		cancel()

		metrics.Book.Record(latency, created != nil, conflict)

		if created != nil && rng.Float64() < cfg.DeleteRatio {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			start := time.Now()
			err := presenter.Delete(ctx, created.ID)
			cancel()
			metrics.Delete.Record(time.Since(start), err == nil, false)
		}
	}
}

func bookOnce(ctx context.Context, wf *booking.Workflow, rng *rand.Rand, patients []clinic.Patient, practitioners []clinic.Practitioner) (*clinic.Appointment, bool, time.Duration) {
	start := time.Now()

	practitioner := practitioners[rng.Intn(len(practitioners))]
	if err := wf.ChoosePractitioner(ctx, practitioner.ID); err != nil {
		return nil, false, time.Since(start)
	}

	days := wf.Days()
	if len(days) == 0 {
		wf.Cancel()
		return nil, false, time.Since(start)
	}
	_ = wf.ChooseDay(days[rng.Intn(len(days))])

	slots := wf.Slots()
	if len(slots) == 0 {
		wf.Cancel()
		return nil, false, time.Since(start)
	}
	_ = wf.ChooseSlot(slots[rng.Intn(len(slots))].ID)

	wf.ChoosePatient(patients[rng.Intn(len(patients))].ID)

	appt, err := wf.Submit(ctx)
	if err != nil {
		wf.Cancel()
		var apiErr *apiclient.APIError
		conflict := errors.As(err, &apiErr) && apiErr.Status == 409
		return nil, conflict, time.Since(start)
	}

	return appt, false, time.Since(start)
}

func printReport(metrics *Metrics) {
	report := func(name string, om *OperationMetrics) {
		avg, min, max, p95 := om.Stats()
		log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s min=%s max=%s p95=%s",
			name, om.Total, om.Success, om.Conflict, om.Error, avg, min, max, p95)
	}
	report("book", &metrics.Book)
	report("delete", &metrics.Delete)
}

type listingNotifier struct{}

func (listingNotifier) Notify(string) {}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
