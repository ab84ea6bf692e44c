// Package main provides a tool to seed the database with test sync data.
//
// It creates test accounts and fills the progress ledger with realistic
// snapshots spread over the past two weeks, which is handy for exercising
// the dashboard without a fleet of real devices.
//
// Usage:
//
//	DB_PATH=~/PageSync/pagesync.db go run ./cmd/seed
//	DB_PATH=~/PageSync/pagesync.db go run ./cmd/seed --users=3 --books=8
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/pagesync/pagesync-server/internal/auth"
	"github.com/pagesync/pagesync-server/internal/domain"
	"github.com/pagesync/pagesync-server/internal/id"
	"github.com/pagesync/pagesync-server/internal/store/sqlite"
)

var (
	numUsers = flag.Int("users", 2, "Number of test accounts to create")
	numBooks = flag.Int("books", 5, "Number of documents to spread snapshots across")
	days     = flag.Int("days", 14, "How many days of history to generate")
)

// seedBooks supplies plausible metadata for generated documents.
var seedBooks = []struct {
	title   string
	authors string
}{
	{"The Left Hand of Darkness", "Ursula K. Le Guin"},
	{"Snow Crash", "Neal Stephenson"},
	{"A Wizard of Earthsea", "Ursula K. Le Guin"},
	{"The Dispossessed", "Ursula K. Le Guin"},
	{"Neuromancer", "William Gibson"},
	{"Hyperion", "Dan Simmons"},
	{"The Diamond Age", "Neal Stephenson"},
	{"Consider Phlebas", "Iain M. Banks"},
}

var seedDevices = []string{"Kobo Libra", "Kindle PW", "Boox Note", "Phone"}

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/PageSync/pagesync.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	s, err := sqlite.Open(dbPath, nil)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	users := createTestUsers(ctx, s)
	if len(users) == 0 {
		log.Fatal("No test accounts available")
	}

	if *numBooks > len(seedBooks) {
		*numBooks = len(seedBooks)
	}

	now := time.Now()
	created := 0

	for _, user := range users {
		// Each account reads a random subset of the documents.
		for b := 0; b < *numBooks; b++ {
			if rng.Float32() > 0.7 {
				continue
			}
			book := seedBooks[b]
			docHash := fmt.Sprintf("seed-%04x", b)
			device := seedDevices[rng.Intn(len(seedDevices))]

			// A monotone read-through: percentage climbs day by day.
			pct := rng.Float64() * 0.2
			for day := *days - 1; day >= 0; day-- {
				if day > 0 && rng.Float32() > 0.6 {
					continue
				}
				pct += rng.Float64() * (1 - pct) * 0.25
				at := now.AddDate(0, 0, -day).Add(-time.Duration(rng.Intn(8)) * time.Hour)

				snap := &domain.ProgressSnapshot{
					ID:           id.MustGenerate("snap"),
					UserID:       user.ID,
					DocumentHash: docHash,
					Progress:     fmt.Sprintf("/body/DocFragment[%d]", 1+int(pct*40)),
					Timestamp:    at.UnixMilli(),
					Device:       device,
					Source:       domain.SourceDevice,
					Percentage:   pct,
					Metadata: domain.Metadata{
						Title:   book.title,
						Authors: book.authors,
					},
					CreatedAt: at,
				}

				if err := s.AppendSnapshot(ctx, snap); err != nil {
					log.Printf("Failed to append snapshot: %v", err)
					continue
				}
				created++
			}
		}
	}

	fmt.Printf("\nSeeding complete: %d snapshots created\n", created)
}

// testUsernames name the generated accounts.
var testUsernames = []string{"alex", "jordan", "sam", "casey", "riley"}

// createTestUsers creates test accounts, skipping any that already exist,
// and returns the accounts available for seeding.
func createTestUsers(ctx context.Context, s *sqlite.Store) []*domain.User {
	fmt.Println("\n=== Creating Test Accounts ===")

	hash, err := auth.HashPassword("testpass123")
	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		return nil
	}

	count := *numUsers
	if count > len(testUsernames) {
		count = len(testUsernames)
	}

	var users []*domain.User
	for i := 0; i < count; i++ {
		username := testUsernames[i]

		if existing, err := s.GetUserByUsername(ctx, username); err == nil {
			fmt.Printf("  Account %s already exists, reusing\n", username)
			users = append(users, existing)
			continue
		}

		user := &domain.User{
			ID:           id.MustGenerate("user"),
			Username:     username,
			PasswordHash: hash,
			CreatedAt:    time.Now(),
		}

		if err := s.CreateUser(ctx, user); err != nil {
			log.Printf("  Failed to create account %s: %v", username, err)
			continue
		}

		fmt.Printf("  Created account: %s (password: testpass123)\n", username)
		users = append(users, user)
	}

	fmt.Println("=== Test Accounts Ready ===")
	return users
}
