// Command seed populates a development database with fake catalog data:
// a handful of datasets, endpoints, and services, pairwise links between
// them, and a few affinity triples for exercising the linked-entities
// query.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/sci-ndp/ndp-affinities/config"
	"github.com/sci-ndp/ndp-affinities/pkg/database"
	"github.com/sci-ndp/ndp-affinities/pkg/models"
	"github.com/sci-ndp/ndp-affinities/pkg/repositories"
)

var endpointKinds = []string{"http", "s3", "grpc", "ftp", "globus"}

var serviceTypes = []string{"compute", "index", "transform", "visualization"}

func main() {
	count := flag.Int("count", 10, "number of datasets to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	zapLogger, _ := zap.NewDevelopment()
	logger := zapadapter.NewZapEctoLogger(zapLogger, nil)

	if err := seed(cfg, logger, *count); err != nil {
		logger.WithError(err).Error("Seeding failed")
		os.Exit(1)
	}
}

func seed(cfg *config.Config, logger ectologger.Logger, count int) error {
	ctx := context.Background()

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseUserName,
		cfg.DatabasePassword, cfg.DatabaseName, cfg.DatabaseSSLMode,
	)

	sqlxDB, err := sqlx.Connect(cfg.DatabaseDriver, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer sqlxDB.Close()

	db := database.NewDatabaseInstance(sqlxDB, logger)

	datasetRepo := repositories.NewDatasetRepository(db, logger)
	endpointRepo := repositories.NewEndpointRepository(db, logger)
	serviceRepo := repositories.NewServiceRepository(db, logger)
	datasetEndpointRepo := repositories.NewDatasetEndpointRepository(db, logger)
	datasetServiceRepo := repositories.NewDatasetServiceRepository(db, logger)
	serviceEndpointRepo := repositories.NewServiceEndpointRepository(db, logger)
	affinityRepo := repositories.NewAffinityRepository(db, logger)

	for i := 0; i < count; i++ {
		title := gofakeit.Sentence(4)
		sourceEP := gofakeit.DomainName()

		dataset, err := datasetRepo.Create(ctx, &models.Dataset{
			Title:    &title,
			SourceEP: &sourceEP,
			Metadata: map[string]any{
				"organization": gofakeit.Company(),
				"format":       gofakeit.FileExtension(),
				"records":      gofakeit.Number(100, 1000000),
			},
		})
		if err != nil {
			return err
		}

		url := gofakeit.URL()
		endpoint, err := endpointRepo.Create(ctx, &models.Endpoint{
			Kind:     gofakeit.RandomString(endpointKinds),
			URL:      &url,
			SourceEP: &sourceEP,
		})
		if err != nil {
			return err
		}

		svcType := gofakeit.RandomString(serviceTypes)
		openAPIURL := gofakeit.URL() + "/openapi.json"
		version := gofakeit.AppVersion()
		service, err := serviceRepo.Create(ctx, &models.Service{
			Type:       &svcType,
			OpenAPIURL: &openAPIURL,
			Version:    &version,
		})
		if err != nil {
			return err
		}

		role := "primary"
		if _, err := datasetEndpointRepo.Upsert(ctx, &models.DatasetEndpoint{
			DatasetUID:  dataset.UID,
			EndpointUID: endpoint.UID,
			Role:        &role,
		}); err != nil {
			return err
		}

		if _, err := datasetServiceRepo.Upsert(ctx, &models.DatasetService{
			DatasetUID: dataset.UID,
			ServiceUID: service.UID,
		}); err != nil {
			return err
		}

		if _, err := serviceEndpointRepo.Upsert(ctx, &models.ServiceEndpoint{
			ServiceUID:  service.UID,
			EndpointUID: endpoint.UID,
		}); err != nil {
			return err
		}

		// Every third dataset also gets an affinity triple spanning its
		// endpoint and service.
		if i%3 == 0 {
			if _, err := affinityRepo.Create(ctx, &models.AffinityTriple{
				DatasetUID:   &dataset.UID,
				EndpointUIDs: []uuid.UUID{endpoint.UID},
				ServiceUIDs:  []uuid.UUID{service.UID},
				Attrs: map[string]any{
					"weight": gofakeit.Float64Range(0, 1),
				},
			}); err != nil {
				return err
			}
		}

		logger.WithFields(map[string]any{
			"dataset_uid":  dataset.UID,
			"endpoint_uid": endpoint.UID,
			"service_uid":  service.UID,
		}).Info("Seeded catalog entry")
	}

	return nil
}
