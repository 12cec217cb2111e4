package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"time"

	"markwave-backend/internal/config"
	"markwave-backend/internal/graph"
	"markwave-backend/internal/model"
	"markwave-backend/internal/repository/graphdb"
	"markwave-backend/internal/util"
)

// Seeds the product catalogue from a JSON file. Safe to re-run, products
// are upserted by id.
func main() {
	var file string
	flag.StringVar(&file, "file", "products.json", "path to the products JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		util.Init("development", "info", "console")
		util.Fatal("Failed to load configuration", util.ErrorField(err))
	}
	util.Init(cfg.Environment, cfg.Logging.Level, cfg.Logging.Format)
	defer util.Sync()

	products, err := loadProducts(file)
	if err != nil {
		util.Fatal("Failed to load products file", util.String("file", file), util.ErrorField(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	graphClient, err := graph.NewNeo4jClient(ctx, graph.Options{
		URI:      cfg.Neo4j.URI,
		Username: cfg.Neo4j.Username,
		Password: cfg.Neo4j.Password,
		Database: cfg.Neo4j.Database,
		MaxPool:  cfg.Neo4j.MaxPool,
	})
	if err != nil {
		util.Fatal("Failed to connect to graph store", util.ErrorField(err))
	}
	defer graphClient.Close(context.Background())

	repo := graphdb.NewProductRepository(graphClient)

	if err := repo.EnsureConstraint(ctx); err != nil {
		util.Fatal("Failed to ensure product id constraint", util.ErrorField(err))
	}

	upserted, err := repo.UpsertBatch(ctx, products)
	if err != nil {
		util.Fatal("Failed to upsert products", util.ErrorField(err))
	}

	util.Info("Product catalogue seeded",
		util.String("file", file),
		util.Int("upserted", upserted))
}

func loadProducts(path string) ([]model.Product, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	return products, nil
}
