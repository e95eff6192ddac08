package queue_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pressplay/backlog/internal/adapters/repository"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/internal/domain/queue"
	"github.com/pressplay/backlog/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// positions reads the (id -> position) map of queued games from the store.
func positions(t *testing.T, store repository.Store) map[string]int {
	t.Helper()
	games, err := store.GetAll(context.Background())
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	out := make(map[string]int)
	for _, g := range games {
		if g.Queued() {
			out[g.ID] = *g.QueuePosition
		}
	}
	return out
}

// seed creates the titled games and queues them in order from position 1.
func seed(t *testing.T, store repository.Store, m *queue.Manager, ids ...string) {
	t.Helper()
	ctx := context.Background()
	for _, id := range ids {
		if _, err := store.Create(ctx, model.Game{ID: id, Title: "game " + id}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
		if err := m.Add(ctx, id); err != nil {
			t.Fatalf("queue %s: %v", id, err)
		}
	}
}

func TestManager_Add(t *testing.T) {
	Convey("Given a collection with a few games", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		m := queue.NewManager(store)

		Convey("When the first game is queued", func() {
			_, _ = store.Create(ctx, model.Game{ID: "a", Title: "game a"})
			err := m.Add(ctx, "a")

			Convey("Then it takes the base position", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1})
			})
		})

		Convey("When games are queued one after another", func() {
			seed(t, store, m, "a", "b", "c")

			Convey("Then positions form a dense run from the base", func() {
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3})
			})
		})

		Convey("When an already-queued game is added again", func() {
			seed(t, store, m, "a")
			err := m.Add(ctx, "a")

			Convey("Then ErrAlreadyQueued is returned and nothing moves", func() {
				So(errors.Is(err, queue.ErrAlreadyQueued), ShouldBeTrue)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1})
			})
		})

		Convey("When the game does not exist", func() {
			err := m.Add(ctx, "missing")

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})

		Convey("When a custom base position is configured", func() {
			m0 := queue.NewManager(store, queue.WithBasePosition(0))
			_, _ = store.Create(ctx, model.Game{ID: "a", Title: "game a"})
			_, _ = store.Create(ctx, model.Game{ID: "b", Title: "game b"})
			So(m0.Add(ctx, "a"), ShouldBeNil)
			So(m0.Add(ctx, "b"), ShouldBeNil)

			Convey("Then the run starts at that base", func() {
				So(positions(t, store), ShouldResemble, map[string]int{"a": 0, "b": 1})
			})
		})
	})
}

func TestManager_Remove(t *testing.T) {
	Convey("Given a queue of four games", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		m := queue.NewManager(store)
		seed(t, store, m, "a", "b", "c", "d")

		Convey("When a middle game is removed", func() {
			err := m.Remove(ctx, "b")

			Convey("Then later games shift down and density holds", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "c": 2, "d": 3})
			})
		})

		Convey("When the head is removed", func() {
			err := m.Remove(ctx, "a")

			Convey("Then everything shifts down by one", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"b": 1, "c": 2, "d": 3})
			})
		})

		Convey("When the tail is removed", func() {
			err := m.Remove(ctx, "d")

			Convey("Then nothing else moves", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3})
			})
		})

		Convey("When an unqueued game is removed", func() {
			_, _ = store.Create(ctx, model.Game{ID: "x", Title: "game x"})
			err := m.Remove(ctx, "x")

			Convey("Then the call is a no-op", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3, "d": 4})
			})
		})

		Convey("When the game does not exist", func() {
			err := m.Remove(ctx, "missing")

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestManager_Reorder(t *testing.T) {
	Convey("Given a queue a=1 b=2 c=3 d=4", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		m := queue.NewManager(store)
		seed(t, store, m, "a", "b", "c", "d")

		Convey("When the tail moves toward the front", func() {
			err := m.Reorder(ctx, "d", 2)

			Convey("Then the displaced games shift up", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "d": 2, "b": 3, "c": 4})
			})
		})

		Convey("When the head moves toward the back", func() {
			err := m.Reorder(ctx, "a", 3)

			Convey("Then the displaced games shift down", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"b": 1, "c": 2, "a": 3, "d": 4})
			})
		})

		Convey("When a game moves to its own position", func() {
			err := m.Reorder(ctx, "b", 2)

			Convey("Then the call is a no-op", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3, "d": 4})
			})
		})

		Convey("When the target position is out of range", func() {
			Convey("Then below the base is rejected", func() {
				So(errors.Is(m.Reorder(ctx, "b", 0), queue.ErrInvalidPosition), ShouldBeTrue)
			})

			Convey("And past the tail is rejected", func() {
				So(errors.Is(m.Reorder(ctx, "b", 5), queue.ErrInvalidPosition), ShouldBeTrue)
			})

			Convey("And nothing moves either way", func() {
				_ = m.Reorder(ctx, "b", 0)
				_ = m.Reorder(ctx, "b", 5)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3, "d": 4})
			})
		})

		Convey("When the game is not queued", func() {
			_, _ = store.Create(ctx, model.Game{ID: "x", Title: "game x"})
			err := m.Reorder(ctx, "x", 1)

			Convey("Then ErrNotQueued is returned", func() {
				So(errors.Is(err, queue.ErrNotQueued), ShouldBeTrue)
			})
		})

		Convey("When the game does not exist", func() {
			err := m.Reorder(ctx, "missing", 1)

			Convey("Then a not-found error is returned", func() {
				So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			})
		})
	})
}

func TestManager_Repair(t *testing.T) {
	Convey("Given a queue whose density was broken by a partial failure", t, func() {
		ctx := context.Background()
		store := repository.NewMemoryStore()
		m := queue.NewManager(store)
		for _, id := range []string{"a", "b", "c"} {
			_, _ = store.Create(ctx, model.Game{ID: id, Title: "game " + id})
		}

		Convey("When positions have a gap", func() {
			_, _ = store.Update(ctx, "a", repository.SetQueuePosition(1))
			_, _ = store.Update(ctx, "b", repository.SetQueuePosition(3))
			_, _ = store.Update(ctx, "c", repository.SetQueuePosition(5))
			err := m.Repair(ctx)

			Convey("Then positions are rewritten densely in order", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2, "c": 3})
			})
		})

		Convey("When two games share a position", func() {
			_, _ = store.Update(ctx, "a", repository.SetQueuePosition(2))
			_, _ = store.Update(ctx, "b", repository.SetQueuePosition(2))
			err := m.Repair(ctx)

			Convey("Then the tie breaks by id and density holds", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"a": 1, "b": 2})
			})
		})

		Convey("When the queue is already dense", func() {
			seed(t, store, m, "d")
			err := m.Repair(ctx)

			Convey("Then nothing changes", func() {
				So(err, ShouldBeNil)
				So(positions(t, store), ShouldResemble, map[string]int{"d": 1})
			})
		})
	})
}

func TestProjections(t *testing.T) {
	Convey("Given a snapshot with queued and unqueued games", t, func() {
		one, three := 1, 3
		games := []model.Game{
			{ID: "a", QueuePosition: &three},
			{ID: "b"},
			{ID: "c", QueuePosition: &one},
		}

		Convey("Then Queued sorts by position", func() {
			q := queue.Queued(games)
			So(len(q), ShouldEqual, 2)
			So(q[0].ID, ShouldEqual, "c")
			So(q[1].ID, ShouldEqual, "a")
		})

		Convey("And Available keeps the rest in snapshot order", func() {
			avail := queue.Available(games)
			So(len(avail), ShouldEqual, 1)
			So(avail[0].ID, ShouldEqual, "b")
		})

		Convey("And IsQueued checks a single game", func() {
			So(queue.IsQueued(games, "a"), ShouldBeTrue)
			So(queue.IsQueued(games, "b"), ShouldBeFalse)
			So(queue.IsQueued(games, "missing"), ShouldBeFalse)
		})
	})
}
