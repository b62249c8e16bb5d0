package replay_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/mavrel/laddergen/internal/domain/model"
	rating "github.com/mavrel/laddergen/internal/domain/rating"
	replay "github.com/mavrel/laddergen/internal/domain/replay"
	"github.com/mavrel/laddergen/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	_ = logger.Init()
	os.Exit(m.Run())
}

func directory(ids ...string) map[string]model.Entity {
	d := make(map[string]model.Entity, len(ids))
	for _, id := range ids {
		d[id] = model.Entity{ID: id, Name: "Name " + id}
	}
	return d
}

func members(ids ...string) []model.Member {
	ms := make([]model.Member, len(ids))
	for i, id := range ids {
		ms[i] = model.Member{EntityID: id}
	}
	return ms
}

func at(hour int) time.Time {
	return time.Date(2024, time.March, 1, hour, 0, 0, 0, time.UTC)
}

func pickupMatch(id string, ts time.Time, sideA, sideB []model.Member, winner model.SideID) model.Match {
	return model.Match{
		ID:        id,
		Timestamp: ts,
		Category:  model.CategoryPickup,
		SideA:     sideA,
		SideB:     sideB,
		Winner:    winner,
	}
}

func TestEngine_Replay(t *testing.T) {
	Convey("Given a pickup history of two 2v2 matches", t, func() {
		engine := replay.New()
		dir := directory("p1", "p2", "p3", "p4")
		matches := []model.Match{
			pickupMatch("m1", at(10), members("p1", "p2"), members("p3", "p4"), model.SideA),
			pickupMatch("m2", at(11), members("p1", "p3"), members("p2", "p4"), model.SideB),
		}

		Convey("When replaying", func() {
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then first-seen entities start at the initial rating", func() {
				update := res.History[0]
				So(update.SideARating, ShouldEqual, rating.DefaultInitialRating)
				So(update.SideBRating, ShouldEqual, rating.DefaultInitialRating)
				So(update.SideA[0].OldRating, ShouldEqual, rating.DefaultInitialRating)
			})

			Convey("Then every member of a side receives the identical delta", func() {
				update := res.History[0]
				So(update.SideA[0].Delta, ShouldAlmostEqual, 16.0, 1e-9)
				So(update.SideA[1].Delta, ShouldAlmostEqual, update.SideA[0].Delta, 1e-12)
				So(update.SideB[0].Delta, ShouldAlmostEqual, -16.0, 1e-9)
				So(update.SideB[1].Delta, ShouldAlmostEqual, update.SideB[0].Delta, 1e-12)
			})

			Convey("Then the winner's delta is the negative of the loser's", func() {
				update := res.History[0]
				So(update.SideA[0].Delta, ShouldAlmostEqual, -update.SideB[0].Delta, 1e-12)
			})

			Convey("Then side ratings are the mean of member ratings at match time", func() {
				// After m1: p1=p2=1016, p3=p4=984; m2 pairs them across.
				update := res.History[1]
				So(update.SideARating, ShouldAlmostEqual, 1000.0, 1e-9)
				So(update.SideBRating, ShouldAlmostEqual, 1000.0, 1e-9)
			})

			Convey("Then standings track played, won and lost", func() {
				So(res.Standings["p1"], ShouldResemble, replay.Standing{Played: 2, Won: 1, Lost: 1})
				So(res.Standings["p4"], ShouldResemble, replay.Standing{Played: 2, Won: 1, Lost: 1})
			})

			Convey("Then one event exists per match participant", func() {
				So(len(res.Events()), ShouldEqual, 8)
			})
		})
	})
}

func TestEngine_Ordering(t *testing.T) {
	Convey("Given matches arriving out of order", t, func() {
		engine := replay.New()
		dir := directory("p1", "p2")
		oneVsOne := func(id string, ts time.Time, winner model.SideID) model.Match {
			return pickupMatch(id, ts, members("p1"), members("p2"), winner)
		}

		Convey("When timestamps differ", func() {
			matches := []model.Match{
				oneVsOne("late", at(12), model.SideA),
				oneVsOne("early", at(8), model.SideB),
			}
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then replay runs in ascending timestamp order", func() {
				So(res.History[0].MatchID, ShouldEqual, "early")
				So(res.History[1].MatchID, ShouldEqual, "late")
			})
		})

		Convey("When timestamps are identical", func() {
			matches := []model.Match{
				oneVsOne("5", at(9), model.SideA),
				oneVsOne("3", at(9), model.SideB),
			}
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then ties break by ascending match id", func() {
				So(res.History[0].MatchID, ShouldEqual, "3")
				So(res.History[1].MatchID, ShouldEqual, "5")
			})
		})
	})
}

func TestEngine_Determinism(t *testing.T) {
	Convey("Given one fixed history", t, func() {
		dir := directory("p1", "p2", "p3", "p4")
		matches := []model.Match{
			pickupMatch("m3", at(9), members("p1", "p4"), members("p2", "p3"), model.SideB),
			pickupMatch("m1", at(9), members("p1", "p2"), members("p3", "p4"), model.SideA),
			pickupMatch("m2", at(10), members("p3", "p1"), members("p4", "p2"), model.SideA),
		}

		Convey("When replaying it twice", func() {
			first, err1 := replay.New().Replay(context.Background(), matches, dir, model.CategoryPickup)
			second, err2 := replay.New().Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err1, ShouldBeNil)
			So(err2, ShouldBeNil)

			Convey("Then both runs are identical", func() {
				So(second, ShouldResemble, first)
			})
		})
	})
}

func TestEngine_Filtering(t *testing.T) {
	Convey("Given a mixed-category history", t, func() {
		engine := replay.New()
		dir := directory("t1", "t2", "p1", "p2")
		matches := []model.Match{
			{
				ID: "team-1", Timestamp: at(9), Category: model.CategoryTeam,
				SideA: members("t1"), SideB: members("t2"), Winner: model.SideA,
			},
			pickupMatch("pickup-1", at(10), members("p1"), members("p2"), model.SideA),
		}

		Convey("When replaying the pickup category", func() {
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then team matches are ignored entirely", func() {
				So(len(res.History), ShouldEqual, 1)
				So(res.History[0].MatchID, ShouldEqual, "pickup-1")
				So(res.Ratings, ShouldNotContainKey, "t1")
				So(res.Warnings, ShouldBeEmpty)
			})
		})

		Convey("When replaying a category with no matches at all", func() {
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryRanked)
			So(err, ShouldBeNil)

			Convey("Then the result is empty, not an error", func() {
				So(res.History, ShouldBeEmpty)
				So(res.Ratings, ShouldBeEmpty)
				So(res.Warnings, ShouldBeEmpty)
			})
		})

		Convey("When requesting an unknown category", func() {
			_, err := engine.Replay(context.Background(), matches, dir, model.Category("scrim"))

			Convey("Then the run is rejected", func() {
				So(err, ShouldWrap, replay.ErrInvalidCategory)
			})
		})
	})
}

func TestEngine_SkipDontCrash(t *testing.T) {
	Convey("Given nine valid matches and one with an empty side", t, func() {
		engine := replay.New()
		dir := directory("p1", "p2")
		var matches []model.Match
		for i := 0; i < 9; i++ {
			matches = append(matches, pickupMatch(
				"ok-"+string(rune('a'+i)), at(8+i),
				members("p1"), members("p2"), model.SideA,
			))
		}
		matches = append(matches, pickupMatch("broken", at(20), nil, members("p2"), model.SideA))

		Convey("When replaying", func() {
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then the nine valid matches are rated and one warning is recorded", func() {
				So(len(res.History), ShouldEqual, 9)
				So(len(res.Warnings), ShouldEqual, 1)
				So(res.Warnings[0].MatchID, ShouldEqual, "broken")
				So(res.Warnings[0].Reason, ShouldEqual, replay.ReasonEmptySide)
			})
		})
	})

	Convey("Given matches with other per-record defects", t, func() {
		engine := replay.New()
		dir := directory("p1", "p2")

		Convey("When a timestamp is unparseable (zero)", func() {
			matches := []model.Match{
				pickupMatch("no-ts", time.Time{}, members("p1"), members("p2"), model.SideA),
			}
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then the match is skipped with a timestamp warning", func() {
				So(res.History, ShouldBeEmpty)
				So(res.Warnings[0].Reason, ShouldEqual, replay.ReasonInvalidTimestamp)
			})
		})

		Convey("When a participant cannot be resolved", func() {
			matches := []model.Match{
				pickupMatch("ghost", at(9), members("p1"), members("nobody"), model.SideA),
			}
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then the match is skipped with an entity warning", func() {
				So(res.History, ShouldBeEmpty)
				So(res.Warnings[0].Reason, ShouldEqual, replay.ReasonUnknownEntity)
			})
		})

		Convey("When the winner field is invalid", func() {
			matches := []model.Match{
				pickupMatch("draw?", at(9), members("p1"), members("p2"), model.SideID("draw")),
			}
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then the match is skipped with a winner warning", func() {
				So(res.History, ShouldBeEmpty)
				So(res.Warnings[0].Reason, ShouldEqual, replay.ReasonUnknownWinner)
			})
		})
	})
}

func TestEngine_RoleAtPlayTime(t *testing.T) {
	Convey("Given participants with and without roles", t, func() {
		engine := replay.New()
		dir := map[string]model.Entity{
			"p1": {ID: "p1", Name: "One"},
			"p2": {ID: "p2", Name: "Two", DefaultRole: "Support"},
		}
		matches := []model.Match{
			{
				ID: "m1", Timestamp: at(9), Category: model.CategoryPickup,
				SideA:  []model.Member{{EntityID: "p1", Role: "Flex"}},
				SideB:  []model.Member{{EntityID: "p2"}},
				Winner: model.SideA,
			},
			{
				ID: "m2", Timestamp: at(10), Category: model.CategoryPickup,
				SideA:  []model.Member{{EntityID: "p1"}},
				SideB:  []model.Member{{EntityID: "p2"}},
				Winner: model.SideB,
			},
		}

		Convey("When replaying", func() {
			res, err := engine.Replay(context.Background(), matches, dir, model.CategoryPickup)
			So(err, ShouldBeNil)

			Convey("Then the per-match role wins over the directory default", func() {
				So(res.History[0].SideA[0].Role, ShouldEqual, "Flex")
			})

			Convey("Then the directory default fills a missing per-match role", func() {
				So(res.History[0].SideB[0].Role, ShouldEqual, "Support")
			})

			Convey("Then no role at all becomes the none bucket", func() {
				So(res.History[1].SideA[0].Role, ShouldEqual, model.RoleNone)
			})
		})
	})
}
