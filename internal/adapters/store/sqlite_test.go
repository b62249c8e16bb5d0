package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	store "github.com/mavrel/laddergen/internal/adapters/store"
	"github.com/mavrel/laddergen/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const testSchema = `
CREATE TABLE entities (id TEXT PRIMARY KEY, name TEXT NOT NULL, default_role TEXT);
CREATE TABLE matches (id TEXT PRIMARY KEY, match_date TEXT NOT NULL, match_type TEXT NOT NULL, winner TEXT NOT NULL);
CREATE TABLE participants (match_id TEXT NOT NULL, entity_id TEXT NOT NULL, side TEXT NOT NULL, role TEXT);
`

func seedDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stats.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		testSchema,
		`INSERT INTO entities VALUES ('p1', 'Pilot One', 'Flex')`,
		`INSERT INTO entities VALUES ('p2', 'Pilot Two', NULL)`,
		`INSERT INTO matches VALUES ('m1', '2024-03-01T20:00:00Z', 'pickup', 'side_a')`,
		`INSERT INTO matches VALUES ('m2', 'not-a-date', 'pickup', 'side_b')`,
		`INSERT INTO participants VALUES ('m1', 'p1', 'side_a', 'Flex')`,
		`INSERT INTO participants VALUES ('m1', 'p2', 'side_b', NULL)`,
		`INSERT INTO participants VALUES ('m2', 'p1', 'side_a', NULL)`,
		`INSERT INTO participants VALUES ('m2', 'p2', 'side_b', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed db: %v", err)
		}
	}
	return path
}

func TestSQLiteStore(t *testing.T) {
	Convey("Given a seeded collaborator database", t, func() {
		path := seedDB(t)

		st, err := store.OpenSQLite(path)
		So(err, ShouldBeNil)
		defer st.Close()

		Convey("When loading matches", func() {
			matches, err := st.Matches(context.Background())
			So(err, ShouldBeNil)

			Convey("Then records come back with both sides attached", func() {
				So(len(matches), ShouldEqual, 2)
				m1 := matches[0]
				So(m1.ID, ShouldEqual, "m1")
				So(m1.Category, ShouldEqual, model.CategoryPickup)
				So(m1.Winner, ShouldEqual, model.SideA)
				So(m1.SideA, ShouldResemble, []model.Member{{EntityID: "p1", Role: "Flex"}})
				So(m1.SideB, ShouldResemble, []model.Member{{EntityID: "p2"}})
				So(m1.Timestamp.IsZero(), ShouldBeFalse)
			})

			Convey("Then an unparseable timestamp loads as zero time for the engine to skip", func() {
				So(matches[1].ID, ShouldEqual, "m2")
				So(matches[1].Timestamp.IsZero(), ShouldBeTrue)
			})
		})

		Convey("When loading entities", func() {
			ents, err := st.Entities(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the directory carries names and optional default roles", func() {
				So(ents, ShouldResemble, []model.Entity{
					{ID: "p1", Name: "Pilot One", DefaultRole: "Flex"},
					{ID: "p2", Name: "Pilot Two"},
				})
			})
		})
	})

	Convey("Given a database missing the expected tables", t, func() {
		path := filepath.Join(t.TempDir(), "empty.db")
		db, err := sql.Open("sqlite", path)
		So(err, ShouldBeNil)
		So(db.Ping(), ShouldBeNil)
		So(db.Close(), ShouldBeNil)

		st, err := store.OpenSQLite(path)
		So(err, ShouldBeNil)
		defer st.Close()

		Convey("When loading matches", func() {
			_, err := st.Matches(context.Background())

			Convey("Then the structural failure is fatal", func() {
				So(err, ShouldWrap, store.ErrReadStore)
			})
		})
	})

	Convey("Given an empty path", t, func() {
		Convey("When opening", func() {
			_, err := store.OpenSQLite("  ")

			Convey("Then the open fails", func() {
				So(err, ShouldWrap, store.ErrOpenStore)
			})
		})
	})
}

func TestMemoryStore(t *testing.T) {
	Convey("Given records held in memory", t, func() {
		matches := []model.Match{{ID: "m1", Category: model.CategoryTeam}}
		ents := []model.Entity{{ID: "t1", Name: "Team One"}}
		st := store.NewMemoryStore(matches, ents)

		Convey("When reading through the Store interface", func() {
			gotMatches, err := st.Matches(context.Background())
			So(err, ShouldBeNil)
			gotEnts, err := st.Entities(context.Background())
			So(err, ShouldBeNil)

			Convey("Then the records round-trip unchanged", func() {
				So(gotMatches, ShouldResemble, matches)
				So(gotEnts, ShouldResemble, ents)
				So(st.Close(), ShouldBeNil)
			})
		})
	})
}
