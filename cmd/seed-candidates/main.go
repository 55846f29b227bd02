package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/invigo/invigo-backend/internal/config"
	"github.com/invigo/invigo-backend/internal/database"
	"github.com/invigo/invigo-backend/internal/logger"
	"github.com/invigo/invigo-backend/internal/model"
	"github.com/invigo/invigo-backend/internal/repository"
)

func main() {
	var (
		count    int
		prefix   string
		password string
	)
	flag.IntVar(&count, "count", 50, "Number of candidate accounts to create")
	flag.StringVar(&prefix, "prefix", "candidate", "Username prefix")
	flag.StringVar(&password, "password", "changeme123", "Shared initial password")
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	userRepo := repository.NewUserRepository(pool)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	fmt.Printf("=== Seeding %d Candidates ===\n", count)

	successCount := 0
	for i := 1; i <= count; i++ {
		candidate := &model.User{
			Username:     fmt.Sprintf("%s%03d", prefix, i),
			PasswordHash: string(hash),
			Role:         model.RoleCandidate,
			IsActive:     true,
		}

		if err := userRepo.Create(ctx, candidate); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) {
				fmt.Printf("Skipping %s: already exists\n", candidate.Username)
				continue
			}
			fmt.Printf("Error creating %s: %v\n", candidate.Username, err)
			continue
		}

		successCount++
		if successCount%10 == 0 {
			fmt.Printf("Created %d candidates...\n", successCount)
		}
	}

	fmt.Printf("\nSeed completed! Successfully added %d/%d candidates.\n", successCount, count)
}
