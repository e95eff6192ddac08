package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func award(category, key string) model.Award {
	return model.Award{
		Category:   category,
		PeriodType: model.PeriodWeek,
		PeriodKey:  key,
		AwardedAt:  time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC),
	}
}

// runStoreConformance exercises the Store contract shared by all backends.
func runStoreConformance(t *testing.T, name string, newStore func(t *testing.T) repository.Store) {
	Convey("Given an empty "+name+" store", t, func() {
		ctx := context.Background()
		store := newStore(t)

		Convey("When a game is created", func() {
			g, err := store.Create(ctx, model.Game{Title: "Hollow Knight", Platform: "pc", Status: "playing"})

			Convey("Then it gets an id, a timestamp, and an empty award list", func() {
				So(err, ShouldBeNil)
				So(g.ID, ShouldNotBeEmpty)
				So(g.AddedAt.IsZero(), ShouldBeFalse)
				So(g.Awards, ShouldBeEmpty)
				So(store.Count(ctx), ShouldEqual, 1)
			})

			Convey("And Get returns the same record", func() {
				So(err, ShouldBeNil)
				got, getErr := store.Get(ctx, g.ID)
				So(getErr, ShouldBeNil)
				So(got.Title, ShouldEqual, "Hollow Knight")
				So(got.Platform, ShouldEqual, "pc")
				So(got.Queued(), ShouldBeFalse)
			})
		})

		Convey("When a game is created with an explicit id", func() {
			g, err := store.Create(ctx, model.Game{ID: "fixed", Title: "Celeste"})

			Convey("Then the id is honored", func() {
				So(err, ShouldBeNil)
				So(g.ID, ShouldEqual, "fixed")
			})

			Convey("And a duplicate id is rejected", func() {
				So(err, ShouldBeNil)
				_, dupErr := store.Create(ctx, model.Game{ID: "fixed", Title: "Other"})
				So(dupErr, ShouldNotBeNil)
			})
		})

		Convey("When a game has no title", func() {
			_, err := store.Create(ctx, model.Game{Title: "   "})

			Convey("Then ErrInvalidGame is returned", func() {
				So(errors.Is(err, repository.ErrInvalidGame), ShouldBeTrue)
			})
		})

		Convey("When awards are replaced via patch", func() {
			g, _ := store.Create(ctx, model.Game{Title: "Hades"})
			updated, err := store.Update(ctx, g.ID, repository.ReplaceAwards([]model.Award{award("game_of_week", "2024-W01")}))

			Convey("Then the stored list is the new one", func() {
				So(err, ShouldBeNil)
				So(len(updated.Awards), ShouldEqual, 1)
				So(updated.Awards[0].Category, ShouldEqual, "game_of_week")
			})

			Convey("And replacing with empty clears it", func() {
				So(err, ShouldBeNil)
				cleared, clearErr := store.Update(ctx, g.ID, repository.ReplaceAwards(nil))
				So(clearErr, ShouldBeNil)
				So(cleared.Awards, ShouldBeEmpty)
			})
		})

		Convey("When the queue position is patched", func() {
			g, _ := store.Create(ctx, model.Game{Title: "Hades"})

			Convey("Then setting it queues the game", func() {
				updated, err := store.Update(ctx, g.ID, repository.SetQueuePosition(2))
				So(err, ShouldBeNil)
				So(updated.Queued(), ShouldBeTrue)
				So(*updated.QueuePosition, ShouldEqual, 2)
			})

			Convey("And clearing it removes the game from the queue", func() {
				_, _ = store.Update(ctx, g.ID, repository.SetQueuePosition(2))
				updated, err := store.Update(ctx, g.ID, repository.ClearQueuePosition())
				So(err, ShouldBeNil)
				So(updated.Queued(), ShouldBeFalse)
			})

			Convey("And an empty patch leaves the record untouched", func() {
				_, _ = store.Update(ctx, g.ID, repository.SetQueuePosition(2))
				updated, err := store.Update(ctx, g.ID, repository.Patch{})
				So(err, ShouldBeNil)
				So(*updated.QueuePosition, ShouldEqual, 2)
			})

			Convey("And patching one field does not disturb the other", func() {
				_, _ = store.Update(ctx, g.ID, repository.SetQueuePosition(2))
				updated, err := store.Update(ctx, g.ID, repository.ReplaceAwards([]model.Award{award("game_of_week", "2024-W01")}))
				So(err, ShouldBeNil)
				So(*updated.QueuePosition, ShouldEqual, 2)
				So(len(updated.Awards), ShouldEqual, 1)
			})
		})

		Convey("When several games exist", func() {
			early := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
			late := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
			_, _ = store.Create(ctx, model.Game{ID: "b", Title: "Second", AddedAt: late})
			_, _ = store.Create(ctx, model.Game{ID: "a", Title: "First", AddedAt: early})

			Convey("Then GetAll orders by added_at then id", func() {
				games, err := store.GetAll(ctx)
				So(err, ShouldBeNil)
				So(len(games), ShouldEqual, 2)
				So(games[0].ID, ShouldEqual, "a")
				So(games[1].ID, ShouldEqual, "b")
			})
		})

		Convey("When a game is deleted", func() {
			g, _ := store.Create(ctx, model.Game{Title: "Hades"})
			err := store.Delete(ctx, g.ID)

			Convey("Then it is gone", func() {
				So(err, ShouldBeNil)
				So(store.Count(ctx), ShouldEqual, 0)
				_, getErr := store.Get(ctx, g.ID)
				So(errors.Is(getErr, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When operating on an unknown id", func() {
			Convey("Then Get returns ErrNotFound", func() {
				_, err := store.Get(ctx, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And Update returns ErrNotFound", func() {
				_, err := store.Update(ctx, "missing", repository.SetQueuePosition(1))
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})

			Convey("And Delete returns ErrNotFound", func() {
				err := store.Delete(ctx, "missing")
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}
