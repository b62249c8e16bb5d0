// Command seed-matches generates a synthetic SQLite match database for
// local runs and benchmarks. Output is deterministic for a given seed.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS entities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	default_role TEXT
);
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	match_date TEXT NOT NULL,
	match_type TEXT NOT NULL,
	winner TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS participants (
	match_id TEXT NOT NULL,
	entity_id TEXT NOT NULL,
	side TEXT NOT NULL,
	role TEXT
);
`

var roles = []string{"Flex", "Support", "Farmer"}

func main() {
	var (
		dbPath  = flag.String("db", "squadrons_stats.db", "output SQLite database path")
		matches = flag.Int("matches", 200, "matches to generate per category")
		players = flag.Int("players", 40, "individual players to create")
		teams   = flag.Int("teams", 8, "teams to create")
		seed    = flag.Int64("seed", 42, "random seed")
		sideLen = flag.Int("side", 5, "players per side in pickup/ranked matches")
	)
	flag.Parse()

	if err := run(*dbPath, *matches, *players, *teams, *sideLen, *seed); err != nil {
		fmt.Fprintln(os.Stderr, "seed-matches:", err)
		os.Exit(1)
	}
}

func run(dbPath string, matches, players, teams, sideLen int, seed int64) error {
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic fixtures
	// uuid ids stay deterministic too
	uuid.SetRand(rng)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	playerIDs, err := insertEntities(db, players, "Pilot", func(i int) string {
		return roles[i%len(roles)]
	})
	if err != nil {
		return err
	}
	teamIDs, err := insertEntities(db, teams, "Squadron", func(int) string { return "" })
	if err != nil {
		return err
	}

	base := time.Date(2024, time.January, 1, 20, 0, 0, 0, time.UTC)

	if err := insertTeamMatches(db, rng, teamIDs, matches, base); err != nil {
		return err
	}
	for _, category := range []string{"pickup", "ranked"} {
		if err := insertPlayerMatches(db, rng, playerIDs, category, matches, sideLen, base); err != nil {
			return err
		}
	}

	fmt.Printf("seeded %s: %d teams, %d players, %d matches per category\n",
		dbPath, teams, players, matches)
	return nil
}

func insertEntities(db *sql.DB, n int, prefix string, role func(int) string) ([]string, error) {
	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = uuid.New().String()
		name := fmt.Sprintf("%s-%02d", prefix, i+1)
		if _, err := db.Exec(
			`INSERT INTO entities (id, name, default_role) VALUES (?, ?, ?)`,
			ids[i], name, role(i),
		); err != nil {
			return nil, fmt.Errorf("insert entity %s: %w", name, err)
		}
	}
	return ids, nil
}

func insertTeamMatches(db *sql.DB, rng *rand.Rand, teamIDs []string, n int, base time.Time) error {
	for i := 0; i < n; i++ {
		a := rng.Intn(len(teamIDs))
		b := rng.Intn(len(teamIDs) - 1)
		if b >= a {
			b++
		}
		winner := "side_a"
		if rng.Intn(2) == 1 {
			winner = "side_b"
		}
		matchID := uuid.New().String()
		ts := base.Add(time.Duration(i) * time.Hour).Format(time.RFC3339)

		if _, err := db.Exec(
			`INSERT INTO matches (id, match_date, match_type, winner) VALUES (?, ?, 'team', ?)`,
			matchID, ts, winner,
		); err != nil {
			return fmt.Errorf("insert team match: %w", err)
		}
		sides := []struct{ side, id string }{
			{"side_a", teamIDs[a]},
			{"side_b", teamIDs[b]},
		}
		for _, p := range sides {
			if _, err := db.Exec(
				`INSERT INTO participants (match_id, entity_id, side, role) VALUES (?, ?, ?, NULL)`,
				matchID, p.id, p.side,
			); err != nil {
				return fmt.Errorf("insert team participant: %w", err)
			}
		}
	}
	return nil
}

func insertPlayerMatches(db *sql.DB, rng *rand.Rand, playerIDs []string, category string, n, sideLen int, base time.Time) error {
	for i := 0; i < n; i++ {
		picks := rng.Perm(len(playerIDs))[:sideLen*2]
		winner := "side_a"
		if rng.Intn(2) == 1 {
			winner = "side_b"
		}
		matchID := uuid.New().String()
		ts := base.Add(time.Duration(i)*time.Hour + 30*time.Minute).Format(time.RFC3339)

		if _, err := db.Exec(
			`INSERT INTO matches (id, match_date, match_type, winner) VALUES (?, ?, ?, ?)`,
			matchID, ts, category, winner,
		); err != nil {
			return fmt.Errorf("insert %s match: %w", category, err)
		}
		for j, pick := range picks {
			side := "side_a"
			if j >= sideLen {
				side = "side_b"
			}
			role := roles[rng.Intn(len(roles))]
			if _, err := db.Exec(
				`INSERT INTO participants (match_id, entity_id, side, role) VALUES (?, ?, ?, ?)`,
				matchID, playerIDs[pick], side, role,
			); err != nil {
				return fmt.Errorf("insert %s participant: %w", category, err)
			}
		}
	}
	return nil
}
