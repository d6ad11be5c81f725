package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/hackgods/clinic-journey-scheduling/internal/availability"
	"github.com/hackgods/clinic-journey-scheduling/internal/cases"
	"github.com/hackgods/clinic-journey-scheduling/internal/db"
	"github.com/hackgods/clinic-journey-scheduling/internal/logging"
	"github.com/hackgods/clinic-journey-scheduling/internal/professional"
)

const seedActor = "seed"

// Early statuses only: later ones need engagements that a fake record would not keep consistent.
var seedStatuses = []cases.Status{
	cases.StatusInscricaoDocumentos,
	cases.StatusTriagemAgendada,
	cases.StatusEncaminharParaPlantao,
	cases.StatusEncaminharParaPB,
}

var buckets = []string{
	"manha-semana_08:00", "manha-semana_09:00", "manha-semana_10:00",
	"tarde-semana_14:00", "tarde-semana_15:00", "noite-semana_19:00",
	"manha-fimdesemana_09:00", "manha-fimdesemana_10:00",
}

func main() {
	_ = godotenv.Load()
	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", "seed")
	logger.Info("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Error("POSTGRES_DSN is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn, db.PoolOptions{})
	if err != nil {
		logger.Error("connect postgres", "error", err.Error())
		os.Exit(1)
	}
	defer pool.Close()

	faker := gofakeit.New(0)
	s := &seeder{
		faker:         faker,
		professionals: professional.NewService(professional.NewPgRepository(pool), nil, logger),
		windows:       availability.NewPgRepository(pool),
		cases:         cases.NewPgRepository(pool),
		logger:        logger,
	}

	bg := context.Background()
	profs, err := s.seedProfessionals(bg, envInt("SEED_PROFESSIONALS", 12))
	if err != nil {
		logger.Error("seed professionals", "error", err.Error())
		os.Exit(1)
	}
	if err := s.seedWindows(bg, profs); err != nil {
		logger.Error("seed availability", "error", err.Error())
		os.Exit(1)
	}
	if err := s.seedCases(bg, envInt("SEED_CASES", 60)); err != nil {
		logger.Error("seed cases", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("seed complete")
}

type seeder struct {
	faker         *gofakeit.Faker
	professionals *professional.Service
	windows       *availability.PgRepository
	cases         *cases.PgRepository
	logger        *logging.Logger
}

func (s *seeder) seedProfessionals(ctx context.Context, count int) ([]professional.Professional, error) {
	s.logger.Info("seeding professionals", "count", count)

	roles := []professional.Role{professional.RolePsychologist, professional.RolePsychologist, professional.RoleIntern}
	out := make([]professional.Professional, 0, count)
	for i := 0; i < count; i++ {
		role := roles[s.faker.Number(0, len(roles)-1)]
		if i == 0 {
			role = professional.RoleCoordinator
		}
		res, err := s.professionals.Create(ctx, seedActor, professional.CreateRequest{
			FullName:             s.faker.Name(),
			Email:                s.faker.Email(),
			Role:                 role,
			AcceptsPublicBooking: s.faker.Bool(),
		})
		if err != nil {
			// Fake names collide now and then; the next iteration gets a fresh one.
			s.logger.Warn("skipping professional", "error", err.Error())
			continue
		}
		out = append(out, *res.Professional)
	}
	s.logger.Info("professionals seeded", "count", len(out))
	return out, nil
}

func (s *seeder) seedWindows(ctx context.Context, profs []professional.Professional) error {
	modalities := []availability.Modality{availability.ModalityOnline, availability.ModalityPresencial, availability.ModalityBoth}
	for _, p := range profs {
		n := s.faker.Number(1, 3)
		windows := make([]availability.Window, 0, n)
		for i := 0; i < n; i++ {
			startHour := s.faker.Number(8, 18)
			length := s.faker.Number(1, 4) * 30
			start := startHour * 60
			windows = append(windows, availability.Window{
				ID:             uuid.New(),
				ProfessionalID: p.ID,
				Weekdays:       s.weekdays(),
				StartTime:      availability.FormatClock(start),
				EndTime:        availability.FormatClock(start + length),
				Modality:       modalities[s.faker.Number(0, len(modalities)-1)],
				Status:         availability.StatusAvailable,
			})
		}
		if err := s.windows.Replace(ctx, p.ID, windows); err != nil {
			return err
		}
	}
	s.logger.Info("availability seeded", "professionals", len(profs))
	return nil
}

func (s *seeder) weekdays() []time.Weekday {
	seen := map[time.Weekday]bool{}
	var out []time.Weekday
	for i := s.faker.Number(1, 3); i > 0; i-- {
		d := time.Weekday(s.faker.Number(1, 6))
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

func (s *seeder) seedCases(ctx context.Context, count int) error {
	s.logger.Info("seeding cases", "count", count)

	now := time.Now()
	for i := 0; i < count; i++ {
		status := seedStatuses[s.faker.Number(0, len(seedStatuses)-1)]
		rec := cases.CaseRecord{
			ID: uuid.New(),
			Patient: cases.Identity{
				FullName:  s.faker.Name(),
				BirthDate: s.faker.DateRange(now.AddDate(-70, 0, 0), now.AddDate(-6, 0, 0)).Format("2006-01-02"),
				TaxID:     s.faker.Numerify("###########"),
				Phone:     s.faker.Phone(),
				Email:     s.faker.Email(),
			},
			Status:        status,
			Source:        seedActor,
			LastUpdate:    now.Add(-time.Duration(s.faker.Number(0, 72*60)) * time.Minute),
			LastUpdatedBy: seedActor,
		}
		if status == cases.StatusEncaminharParaPB {
			rec.Demand = &cases.Demand{
				Modality: string(availability.ModalityBoth),
				Buckets:  []string{buckets[s.faker.Number(0, len(buckets)-1)], buckets[s.faker.Number(0, len(buckets)-1)]},
			}
		}
		if _, err := s.cases.Create(ctx, rec); err != nil {
			return err
		}
	}
	s.logger.Info("cases seeded", "count", count)
	return nil
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
