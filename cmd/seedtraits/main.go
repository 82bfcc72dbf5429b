package main

import (
	"context"
	"log"

	"circlerate/internal/config"
	"circlerate/internal/db"
	"circlerate/internal/domain"
	"circlerate/internal/repository"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Catálogo inicial de rasgos. Las posiciones fijan el orden de
// presentación y el desempate del ranking.
var seedTraits = []domain.Trait{
	{ID: "polite", PositiveName: "Polite", NegativeName: "Rude", Description: "Shows courtesy and respect when dealing with others.", Position: 1},
	{ID: "generous", PositiveName: "Generous", NegativeName: "Stingy", Description: "Shares time, help and resources willingly.", Position: 2},
	{ID: "honest", PositiveName: "Honest", NegativeName: "Dishonest", Description: "Tells the truth and keeps their word.", Position: 3},
	{ID: "humble", PositiveName: "Humble", NegativeName: "Arrogant", Description: "Keeps a modest view of their own importance.", Position: 4},
	{ID: "patient", PositiveName: "Patient", NegativeName: "Impatient", Description: "Stays calm under delays and difficulties.", Position: 5},
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	traitRepo := repository.NewPgTraitRepository(pool)
	for _, trait := range seedTraits {
		if err := traitRepo.Upsert(ctx, trait); err != nil {
			logger.Fatal("seed trait failed", zap.String("trait_id", trait.ID), zap.Error(err))
		}
		logger.Info("trait seeded", zap.String("trait_id", trait.ID), zap.Int("position", trait.Position))
	}

	logger.Info("trait catalog seeded", zap.Int("count", len(seedTraits)))
}
