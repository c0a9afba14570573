package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/josealejferFB/krizo-backend/internal/config"
	"github.com/josealejferFB/krizo-backend/internal/db"
	"github.com/josealejferFB/krizo-backend/internal/logger"
	"github.com/josealejferFB/krizo-backend/internal/repository"
	"github.com/josealejferFB/krizo-backend/internal/service"
	"github.com/josealejferFB/krizo-backend/pkg/workflow"
)

type seedWorker struct {
	UID     string
	Name    string
	Phone   string
	Zone    string
	Service []string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()
	lg := logger.New("krizo-seed", "info")

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	repo := repository.NewWorkerRepository(gdb)
	svc := service.NewWorkerService(repo, nil, lg)

	canSeed, err := shouldSeed(ctx, repo)
	if err != nil {
		return err
	}
	if !canSeed {
		lg.Info("workers already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	workers := buildSeedWorkers()
	for _, w := range workers {
		if _, err := svc.ConfigureServices(ctx, w.UID, service.WorkerProfile{
			DisplayName: w.Name,
			Phone:       w.Phone,
			Zone:        w.Zone,
			Services:    w.Service,
		}); err != nil {
			return fmt.Errorf("seed worker %q: %w", w.UID, err)
		}
	}
	lg.Info("seeded workers", logger.Int("count", len(workers)))
	return nil
}

func buildSeedWorkers() []seedWorker {
	zones := []string{"Chacao", "Altamira", "Los Palos Grandes", "El Hatillo", "Baruta", "La Candelaria"}
	names := map[workflow.ServiceType][]string{
		workflow.ServiceMechanic: {"Taller El Rápido", "Mecánica Los Andes", "AutoServicio Pérez"},
		workflow.ServiceCrane:    {"Grúas 24h Caracas", "Remolques del Este"},
		workflow.ServiceParts:    {"Repuestos La Guaira", "Baterías Duncan Centro"},
	}
	order := []workflow.ServiceType{workflow.ServiceMechanic, workflow.ServiceCrane, workflow.ServiceParts}

	var out []seedWorker
	i := 0
	for _, st := range order {
		for _, n := range names[st] {
			services := []string{string(st)}
			if st == workflow.ServiceMechanic && i%2 == 0 {
				services = append(services, string(workflow.ServiceParts))
			}
			out = append(out, seedWorker{
				UID:     fmt.Sprintf("seed-worker-%02d", i+1),
				Name:    n,
				Phone:   fmt.Sprintf("+58 412 555 %04d", 1000+i),
				Zone:    zones[i%len(zones)],
				Service: services,
			})
			i++
		}
	}
	return out
}

func shouldSeed(ctx context.Context, repo repository.WorkerRepository) (bool, error) {
	total := 0
	for _, st := range []workflow.ServiceType{workflow.ServiceMechanic, workflow.ServiceCrane, workflow.ServiceParts} {
		list, err := repo.List(ctx, st)
		if err != nil {
			return false, fmt.Errorf("count workers: %w", err)
		}
		total += len(list)
	}
	if total == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}
