package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careconnect/scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedDoctors(context.Background(), pool, 50); err != nil {
		log.Fatalf("seed doctors: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d doctors with weekly schedules", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}
	granularities := []int{15, 20, 30, 60}

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())
		specialty := specialties[gofakeit.Number(0, len(specialties)-1)]
		email := gofakeit.Email()
		slotMinutes := granularities[gofakeit.Number(0, len(granularities)-1)]

		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, name, specialty, email, calendar_id, slot_minutes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULL, $5, now(), now())
		`, id, name, specialty, email, slotMinutes)
		if err != nil {
			return fmt.Errorf("insert doctor: %w", err)
		}

		if err := seedSchedule(ctx, pool, id); err != nil {
			return fmt.Errorf("seed schedule for %s: %w", id, err)
		}
	}

	return nil
}

// seedSchedule gives each doctor a Monday-Saturday window. Mornings start
// between 8 and 10, days run 6 to 9 hours, Sundays stay off.
func seedSchedule(ctx context.Context, pool *pgxpool.Pool, doctorID uuid.UUID) error {
	for weekday := 0; weekday < 7; weekday++ {
		isAvailable := weekday != 0 && gofakeit.Number(1, 10) > 1

		startMinute := gofakeit.Number(8, 10) * 60
		endMinute := startMinute + gofakeit.Number(6, 9)*60

		_, err := pool.Exec(ctx, `
			INSERT INTO doctor_schedules (doctor_id, weekday, is_available, start_minute, end_minute)
			VALUES ($1, $2, $3, $4, $5)
		`, doctorID, weekday, isAvailable, startMinute, endMinute)
		if err != nil {
			return err
		}
	}
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	for i := 0; i < count; i++ {
		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, name, email, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, uuid.New(), gofakeit.Name(), gofakeit.Email())
		if err != nil {
			return fmt.Errorf("insert patient: %w", err)
		}
	}

	return nil
}
