package main

import (
	"fmt"
	"log"
	"time"

	"counsel-chat/auth"
	"counsel-chat/domain"
	"counsel-chat/internal"
	"counsel-chat/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Seeds a local database with identity records and prints a signed token for
// each of them, so a terminal client can join a room right away.
func main() {
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		log.Fatalf("Config error: %v", err)
	}

	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	identities := repositories.NewIdentityRepository(db)

	participants := []domain.Participant{
		{ID: "stu-101", DisplayName: "Maya L.", Role: domain.RoleStudent},
		{ID: "stu-102", DisplayName: "Tom B.", Role: domain.RoleStudent},
		{ID: "psy-201", DisplayName: "Dr. Amari", Role: domain.RolePsychologist},
	}

	fmt.Println("Seeding identity records...")
	for _, p := range participants {
		if err := identities.SaveParticipant(p); err != nil {
			log.Fatalf("Failed to save %s: %v", p.ID, err)
		}

		token, err := auth.GenerateToken(config.JWTSecret, p.ID, p.DisplayName,
			[]string{string(p.Role)}, 24*time.Hour)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", p.ID, err)
		}
		fmt.Printf("\n%s (%s)\n  CHAT_TOKEN=%s\n", p.DisplayName, p.Role, token)
	}

	fmt.Println("\nDone. Export one of the tokens above and start the client.")
}
