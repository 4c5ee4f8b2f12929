package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careconnect/scheduling/internal/config"
	"github.com/careconnect/scheduling/internal/db"
)

// simulate hammers one doctor's day with concurrent availability queries
// and booking attempts, then audits the ledger: under any load, confirmed
// reservations for a doctor must never overlap.

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	PatientLimit int
	Date         string
	PostgresDSN  string
}

type DataPool struct {
	DoctorID uuid.UUID
	Patients []uuid.UUID
	Slots    []slotRef
	mu       sync.RWMutex
}

type slotRef struct {
	Start string
	End   string
}

func (dp *DataPool) SetSlots(slots []slotRef) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.Slots = slots
}

func (dp *DataPool) RandomSlot() (slotRef, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.Slots) == 0 {
		return slotRef{}, false
	}
	return dp.Slots[rand.Intn(len(dp.Slots))], true
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

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
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

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p50 = latencies[p50Idx]

	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	p95 = latencies[p95Idx]

	return avg, min, max, p50, p95
}

type Simulator struct {
	config       SimConfig
	pool         *DataPool
	client       *http.Client
	booking      OperationMetrics
	availability OperationMetrics
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadSimConfig()

	log.Printf("config: duration=%s workers=%d date=%s", cfg.Duration, cfg.Workers, cfg.Date)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}

	log.Printf("target doctor=%s patients=%d", dataPool.DoctorID, len(dataPool.Patients))

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	if err := sim.refreshSlots(); err != nil {
		log.Fatalf("fetch availability: %v", err)
	}

	sim.Run()
	sim.PrintReport()

	if err := auditNoOverlap(context.Background(), pgPool, dataPool.DoctorID); err != nil {
		log.Fatalf("AUDIT FAILED: %v", err)
	}
	log.Println("audit passed: no overlapping confirmed reservations")
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 500),
		Date:         getEnv("SIM_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
		PostgresDSN:  baseCfg.PostgresDSN,
	}
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{}

	err := pool.QueryRow(ctx, `
		SELECT d.id
		FROM doctors d
		JOIN doctor_schedules s ON s.doctor_id = d.id
		WHERE s.is_available
		LIMIT 1
	`).Scan(&dataPool.DoctorID)
	if err != nil {
		return nil, fmt.Errorf("pick doctor: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT id FROM patients LIMIT $1
	`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients seeded")
	}

	return dataPool, nil
}

type availabilityResponse struct {
	AvailableSlots []struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
		Label string    `json:"label"`
	} `json:"available_slots"`
	WorkingHours string `json:"working_hours"`
}

// refreshSlots pulls current availability and converts the slot labels
// back to the clock-time strings the booking endpoint expects.
func (s *Simulator) refreshSlots() error {
	start := time.Now()
	url := fmt.Sprintf("%s/doctors/%s/availability?date=%s", s.config.APIBaseURL, s.pool.DoctorID, s.config.Date)

	resp, err := s.client.Get(url)
	if err != nil {
		s.availability.Record(time.Since(start), false, false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.availability.Record(time.Since(start), false, false)
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("availability returned %d: %s", resp.StatusCode, body)
	}

	var out availabilityResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		s.availability.Record(time.Since(start), false, false)
		return err
	}
	s.availability.Record(time.Since(start), true, false)

	slots := make([]slotRef, 0, len(out.AvailableSlots))
	for _, sl := range out.AvailableSlots {
		slots = append(slots, slotRef{
			Start: sl.Start.Format("03:04 PM"),
			End:   sl.End.Format("03:04 PM"),
		})
	}
	s.pool.SetSlots(slots)
	return nil
}

func (s *Simulator) Run() {
	deadline := time.Now().Add(s.config.Duration)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) {
				if rand.Float64() < 0.2 {
					_ = s.refreshSlots()
					continue
				}
				s.tryBook()
			}
		}()
	}
	wg.Wait()
}

func (s *Simulator) tryBook() {
	slot, ok := s.pool.RandomSlot()
	if !ok {
		time.Sleep(100 * time.Millisecond)
		return
	}
	patient := s.pool.Patients[rand.Intn(len(s.pool.Patients))]

	payload, _ := json.Marshal(map[string]string{
		"doctor_id":  s.pool.DoctorID.String(),
		"patient_id": patient.String(),
		"date":       s.config.Date,
		"start_time": slot.Start,
		"end_time":   slot.End,
		"reason":     "load test booking",
	})

	start := time.Now()
	resp, err := s.client.Post(s.config.APIBaseURL+"/bookings", "application/json", bytes.NewReader(payload))
	latency := time.Since(start)
	if err != nil {
		s.booking.Record(latency, false, false)
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		s.booking.Record(latency, true, false)
	case http.StatusConflict:
		s.booking.Record(latency, false, true)
	default:
		s.booking.Record(latency, false, false)
	}
}

func (s *Simulator) PrintReport() {
	printMetric := func(name string, om *OperationMetrics) {
		avg, min, max, p50, p95 := om.Stats()
		log.Printf("%s: total=%d success=%d conflict=%d error=%d avg=%s min=%s max=%s p50=%s p95=%s",
			name, om.Total, om.Success, om.Conflict, om.Error, avg, min, max, p50, p95)
	}
	printMetric("booking", &s.booking)
	printMetric("availability", &s.availability)
}

// auditNoOverlap is the ground truth check: any pair of confirmed
// reservations for the doctor with intersecting half-open intervals is a
// double booking.
func auditNoOverlap(ctx context.Context, pool *pgxpool.Pool, doctorID uuid.UUID) error {
	var overlapping int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM reservations a
		JOIN reservations b
		  ON a.doctor_id = b.doctor_id
		 AND a.id < b.id
		 AND a.starts_at < b.ends_at
		 AND b.starts_at < a.ends_at
		WHERE a.doctor_id = $1
		  AND a.status = 'confirmed'
		  AND b.status = 'confirmed'
	`, doctorID).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("overlap query: %w", err)
	}
	if overlapping > 0 {
		return fmt.Errorf("%d overlapping confirmed reservation pairs", overlapping)
	}
	return nil
}

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

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
