package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/joho/godotenv"

	"github.com/hackgods/clinic-journey-scheduling/internal/api"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
	"github.com/hackgods/clinic-journey-scheduling/internal/slots"
)

// SimConfig drives a contention run against a live api-server: many workers race for
// a small set of open slots so the double-booking guard is exercised.
type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	HotSlots     int
	BookingRatio float64
	JWTSecret    string
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
	switch {
	case success:
		atomic.AddInt64(&om.Success, 1)
	case conflict:
		atomic.AddInt64(&om.Conflict, 1)
	default:
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	om.mu.Unlock()

	if len(latencies) == 0 {
		return 0, 0, 0
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))
	p50 = latencies[len(latencies)*50/100]
	p95 = latencies[min(len(latencies)*95/100, len(latencies)-1)]
	return avg, p50, p95
}

type Simulator struct {
	config     SimConfig
	client     *http.Client
	logger     *logging.Logger
	hot        []slots.Slot
	staffToken string

	booking OperationMetrics
	board   OperationMetrics
	// booked counts successes per slot key; more than one means a double booking.
	booked sync.Map
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(getEnv("LOG_LEVEL", "info")).With("service", "simulate")

	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 20),
		HotSlots:     getInt("SIM_HOT_SLOTS", 10),
		BookingRatio: getFloat("SIM_BOOKING_RATIO", 0.8),
		JWTSecret:    os.Getenv("ADMIN_JWT_SECRET"),
	}
	if cfg.Workers <= 0 || cfg.Duration <= 0 {
		logger.Error("SIM_WORKERS and SIM_DURATION must be > 0")
		os.Exit(1)
	}

	sim := &Simulator{config: cfg, client: &http.Client{Timeout: 10 * time.Second}, logger: logger}
	if cfg.JWTSecret != "" {
		tok, err := api.SignToken(cfg.JWTSecret, "simulator", professional.RoleCoordinator, time.Hour)
		if err != nil {
			logger.Error("sign token", "error", err.Error())
			os.Exit(1)
		}
		sim.staffToken = tok
	}

	if err := sim.loadSlots(context.Background()); err != nil {
		logger.Error("load slots", "error", err.Error())
		os.Exit(1)
	}
	logger.Info("starting simulation",
		"duration", cfg.Duration.String(),
		"workers", cfg.Workers,
		"hot_slots", len(sim.hot),
	)

	sim.Run()
	sim.PrintReport()
}

func (s *Simulator) loadSlots(ctx context.Context) error {
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/public/slots", nil)
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET /public/slots: status %d", resp.StatusCode)
	}
	var body api.SlotsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return err
	}
	open := body.Slots
	if len(open) == 0 {
		return fmt.Errorf("no open slots, run cmd/seed first")
	}
	if len(open) > s.config.HotSlots {
		open = open[:s.config.HotSlots]
	}
	s.hot = open
	return nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}
	wg.Wait()
	s.logger.Info("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))
	faker := gofakeit.New(0)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if s.staffToken == "" || rng.Float64() < s.config.BookingRatio {
			s.doBooking(ctx, rng, faker)
		} else {
			s.doBoard(ctx)
		}
	}
}

func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand, faker *gofakeit.Faker) {
	slot := s.hot[rng.Intn(len(s.hot))]
	body, _ := json.Marshal(api.BookSlotRequest{
		TaxID: faker.Numerify("###########"),
		Name:  faker.Name(),
		Phone: faker.Phone(),
		Slot: api.SlotRefRequest{
			ProfessionalID: slot.ProfessionalID,
			Date:           slot.Date,
			StartTime:      slot.StartTime,
		},
	})

	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, s.config.APIBaseURL+"/public/bookings", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			s.booking.Record(latency, false, false)
		}
		return
	}
	defer resp.Body.Close()

	success := resp.StatusCode == http.StatusCreated
	if success {
		key := slot.Key()
		n, _ := s.booked.LoadOrStore(key, new(int64))
		atomic.AddInt64(n.(*int64), 1)
	}
	s.booking.Record(latency, success, resp.StatusCode == http.StatusConflict)
}

func (s *Simulator) doBoard(ctx context.Context) {
	start := time.Now()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, s.config.APIBaseURL+"/kanban", nil)
	req.Header.Set("Authorization", "Bearer "+s.staffToken)
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			s.board.Record(latency, false, false)
		}
		return
	}
	resp.Body.Close()
	s.board.Record(latency, resp.StatusCode == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Printf("Hot slots: %d\n\n", len(s.hot))

	printOperationReport("Public booking", &s.booking)
	printOperationReport("Kanban read", &s.board)

	doubles := 0
	s.booked.Range(func(key, value any) bool {
		if atomic.LoadInt64(value.(*int64)) > 1 {
			doubles++
			fmt.Printf("  DOUBLE BOOKED: %+v\n", key)
		}
		return true
	})
	fmt.Printf("Double bookings: %d\n", doubles)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}
	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)
	avg, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s p50=%s p95=%s\n\n",
		avg.Round(time.Millisecond), p50.Round(time.Millisecond), p95.Round(time.Millisecond))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
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
