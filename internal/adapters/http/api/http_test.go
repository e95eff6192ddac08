package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pressplay/backlog/internal/adapters/http/api"
	"github.com/pressplay/backlog/internal/adapters/repository"
	service "github.com/pressplay/backlog/internal/app"
	"github.com/pressplay/backlog/internal/domain/model"
	"github.com/pressplay/backlog/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

// newTestServer starts the full stack: API routes over the real service
// backed by an in-memory store.
func newTestServer(t *testing.T) (*httptest.Server, *service.Service) {
	t.Helper()
	ctx := context.Background()

	svc := service.New(service.WithStore(repository.NewMemoryStore()))
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	t.Cleanup(svc.Stop)

	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, svc
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func createGame(t *testing.T, base, title string) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, base+"/games", map[string]string{"title": title})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game %q: status %d", title, resp.StatusCode)
	}
	id, _ := body["id"].(string)
	if id == "" {
		t.Fatalf("create game %q: missing id in response", title)
	}
	return id
}

func TestGamesEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, _ := newTestServer(t)

		Convey("When a game is created", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/games", map[string]string{
				"title":    "Hollow Knight",
				"platform": "pc",
				"status":   "playing",
			})

			Convey("Then it is returned with an id", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
				So(body["title"], ShouldEqual, "Hollow Knight")
			})

			Convey("And it appears in the listing", func() {
				listResp, err := http.Get(srv.URL + "/games")
				So(err, ShouldBeNil)
				defer listResp.Body.Close()
				var games []model.Game
				So(json.NewDecoder(listResp.Body).Decode(&games), ShouldBeNil)
				So(len(games), ShouldEqual, 1)
				So(games[0].Title, ShouldEqual, "Hollow Knight")
			})

			Convey("And it can be deleted", func() {
				id, _ := body["id"].(string)
				delResp, _ := doJSON(t, http.MethodDelete, srv.URL+"/games/"+id, nil)
				So(delResp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the title is missing", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/games", map[string]string{"platform": "pc"})

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When deleting an unknown game", func() {
			resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/games/missing", nil)

			Convey("Then 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestPicksEndpoints(t *testing.T) {
	Convey("Given a server with two games", t, func() {
		srv, _ := newTestServer(t)
		idA := createGame(t, srv.URL, "Hollow Knight")
		idB := createGame(t, srv.URL, "Outer Wilds")

		pick := func(requestID, gameID, previousID string) (*http.Response, map[string]any) {
			return doJSON(t, http.MethodPost, srv.URL+"/picks", map[string]string{
				"request_id":  requestID,
				"category":    "game_of_week",
				"period_type": "week",
				"period_key":  "2024-W01",
				"game_id":     gameID,
				"previous_id": previousID,
			})
		}

		Convey("When a winner is assigned", func() {
			resp, body := pick("req-1", idA, "")

			Convey("Then the pick is acknowledged", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(body["status"], ShouldEqual, "assigned")
			})

			Convey("And the board lists it", func() {
				listResp, err := http.Get(srv.URL + "/picks")
				So(err, ShouldBeNil)
				defer listResp.Body.Close()
				var picks []map[string]string
				So(json.NewDecoder(listResp.Body).Decode(&picks), ShouldBeNil)
				So(len(picks), ShouldEqual, 1)
				So(picks[0]["game_id"], ShouldEqual, idA)
			})

			Convey("And retrying the same request id is a duplicate", func() {
				retryResp, retryBody := pick("req-1", idA, "")
				So(retryResp.StatusCode, ShouldEqual, http.StatusOK)
				So(retryBody["status"], ShouldEqual, "duplicate")
				So(retryBody["duplicate"], ShouldEqual, true)
			})

			Convey("And moving the award strips the old holder", func() {
				moveResp, _ := pick("req-2", idB, idA)
				So(moveResp.StatusCode, ShouldEqual, http.StatusOK)

				listResp, err := http.Get(srv.URL + "/picks")
				So(err, ShouldBeNil)
				defer listResp.Body.Close()
				var picks []map[string]string
				So(json.NewDecoder(listResp.Body).Decode(&picks), ShouldBeNil)
				So(len(picks), ShouldEqual, 1)
				So(picks[0]["game_id"], ShouldEqual, idB)
			})

			Convey("And clearing removes the pick", func() {
				clearResp, clearBody := doJSON(t, http.MethodDelete, srv.URL+"/picks", map[string]string{
					"category":    "game_of_week",
					"period_type": "week",
					"period_key":  "2024-W01",
					"game_id":     idA,
				})
				So(clearResp.StatusCode, ShouldEqual, http.StatusOK)
				So(clearBody["status"], ShouldEqual, "cleared")

				listResp, err := http.Get(srv.URL + "/picks")
				So(err, ShouldBeNil)
				defer listResp.Body.Close()
				var picks []map[string]string
				So(json.NewDecoder(listResp.Body).Decode(&picks), ShouldBeNil)
				So(picks, ShouldBeEmpty)
			})
		})

		Convey("When the pick body is invalid", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/picks", map[string]string{
				"category":    "game_of_week",
				"period_type": "fortnight",
				"period_key":  "2024-W01",
				"game_id":     idA,
			})

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the picked game does not exist", func() {
			resp, _ := pick("req-x", "missing", "")

			Convey("Then 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})

			Convey("And the request id can be retried after the failure", func() {
				retryResp, _ := pick("req-x", idA, "")
				So(retryResp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})
	})
}

func TestQueueEndpoints(t *testing.T) {
	Convey("Given a server with three games", t, func() {
		srv, _ := newTestServer(t)
		idA := createGame(t, srv.URL, "Hollow Knight")
		idB := createGame(t, srv.URL, "Outer Wilds")
		idC := createGame(t, srv.URL, "Hades")

		enqueue := func(id string) *http.Response {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/queue", map[string]string{"game_id": id})
			return resp
		}

		readQueue := func() (queued, available []model.Game) {
			resp, err := http.Get(srv.URL + "/queue")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			var body struct {
				Queued    []model.Game `json:"queued"`
				Available []model.Game `json:"available"`
			}
			So(json.NewDecoder(resp.Body).Decode(&body), ShouldBeNil)
			return body.Queued, body.Available
		}

		Convey("When games are queued", func() {
			So(enqueue(idA).StatusCode, ShouldEqual, http.StatusOK)
			So(enqueue(idB).StatusCode, ShouldEqual, http.StatusOK)

			Convey("Then the queue view splits queued and available", func() {
				queued, available := readQueue()
				So(len(queued), ShouldEqual, 2)
				So(queued[0].ID, ShouldEqual, idA)
				So(queued[1].ID, ShouldEqual, idB)
				So(len(available), ShouldEqual, 1)
				So(available[0].ID, ShouldEqual, idC)
			})

			Convey("And re-queueing a queued game conflicts", func() {
				So(enqueue(idA).StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("And removal closes the gap", func() {
				So(enqueue(idC).StatusCode, ShouldEqual, http.StatusOK)
				delResp, _ := doJSON(t, http.MethodDelete, srv.URL+"/queue/"+idA, nil)
				So(delResp.StatusCode, ShouldEqual, http.StatusOK)

				queued, _ := readQueue()
				So(len(queued), ShouldEqual, 2)
				So(queued[0].ID, ShouldEqual, idB)
				So(*queued[0].QueuePosition, ShouldEqual, 1)
				So(queued[1].ID, ShouldEqual, idC)
				So(*queued[1].QueuePosition, ShouldEqual, 2)
			})

			Convey("And reorder moves a game", func() {
				So(enqueue(idC).StatusCode, ShouldEqual, http.StatusOK)
				patchResp, _ := doJSON(t, http.MethodPatch, srv.URL+"/queue/"+idC, map[string]int{"position": 1})
				So(patchResp.StatusCode, ShouldEqual, http.StatusOK)

				queued, _ := readQueue()
				So(queued[0].ID, ShouldEqual, idC)
				So(queued[1].ID, ShouldEqual, idA)
				So(queued[2].ID, ShouldEqual, idB)
			})

			Convey("And an out-of-range reorder is rejected", func() {
				patchResp, _ := doJSON(t, http.MethodPatch, srv.URL+"/queue/"+idA, map[string]int{"position": 9})
				So(patchResp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})

			Convey("And repair succeeds on a healthy queue", func() {
				repairResp, _ := doJSON(t, http.MethodPost, srv.URL+"/queue/repair", nil)
				So(repairResp.StatusCode, ShouldEqual, http.StatusOK)

				queued, _ := readQueue()
				So(*queued[0].QueuePosition, ShouldEqual, 1)
				So(*queued[1].QueuePosition, ShouldEqual, 2)
			})
		})

		Convey("When queueing an unknown game", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/queue", map[string]string{"game_id": "missing"})

			Convey("Then 404 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestJournalEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, _ := newTestServer(t)

		addEntry := func(date string, mood int, note string) (*http.Response, map[string]any) {
			return doJSON(t, http.MethodPost, srv.URL+"/journal", map[string]any{
				"date": date,
				"mood": mood,
				"note": note,
			})
		}

		Convey("When entries are added", func() {
			resp, body := addEntry("2024-01-03", 4, "good day")

			Convey("Then the entry is created", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["id"], ShouldNotBeEmpty)
				So(body["mood"], ShouldEqual, 4.0)
			})

			Convey("And stats aggregate the period", func() {
				_, _ = addEntry("2024-01-04", 2, "tired")
				statsResp, statsBody := doJSON(t, http.MethodGet,
					srv.URL+"/journal/stats?period_type=week&period_key=2024-W01", nil)
				So(statsResp.StatusCode, ShouldEqual, http.StatusOK)
				So(statsBody["entries"], ShouldEqual, 2.0)
				So(statsBody["average_mood"], ShouldEqual, 3.0)
			})

			Convey("And the entry can be deleted", func() {
				id, _ := body["id"].(string)
				delResp, _ := doJSON(t, http.MethodDelete, srv.URL+"/journal/"+id, nil)
				So(delResp.StatusCode, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the mood is out of range", func() {
			resp, _ := addEntry("2024-01-03", 9, "")

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the date is malformed", func() {
			resp, _ := addEntry("03/01/2024", 3, "")

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a recap is requested without a generator", func() {
			_, _ = addEntry("2024-01-03", 4, "good day")
			resp, _ := doJSON(t, http.MethodGet,
				srv.URL+"/journal/recap?period_type=week&period_key=2024-W01", nil)

			Convey("Then the service reports unavailability", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
			})
		})

		Convey("When stats are requested with bad period params", func() {
			resp, _ := doJSON(t, http.MethodGet, srv.URL+"/journal/stats?period_type=fortnight&period_key=x", nil)

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestTimelogEndpoints(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, _ := newTestServer(t)

		Convey("When a session starts", func() {
			resp, body := doJSON(t, http.MethodPost, srv.URL+"/timelog/start", map[string]string{"activity": "guitar"})

			Convey("Then the session is created", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(body["activity"], ShouldEqual, "guitar")
			})

			Convey("And a second start conflicts", func() {
				conflictResp, _ := doJSON(t, http.MethodPost, srv.URL+"/timelog/start", map[string]string{"activity": "reading"})
				So(conflictResp.StatusCode, ShouldEqual, http.StatusConflict)
			})

			Convey("And stopping ends it", func() {
				stopResp, stopBody := doJSON(t, http.MethodPost, srv.URL+"/timelog/stop", nil)
				So(stopResp.StatusCode, ShouldEqual, http.StatusOK)
				So(stopBody["ended_at"], ShouldNotBeNil)
			})

			Convey("And the summary reports the activity", func() {
				_, _ = doJSON(t, http.MethodPost, srv.URL+"/timelog/stop", nil)
				summaryResp, summaryBody := doJSON(t, http.MethodGet, srv.URL+"/timelog/summary", nil)
				So(summaryResp.StatusCode, ShouldEqual, http.StatusOK)
				_, ok := summaryBody["guitar"]
				So(ok, ShouldBeTrue)
			})
		})

		Convey("When stopping with nothing running", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/timelog/stop", nil)

			Convey("Then 409 is returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
			})
		})

		Convey("When the activity is blank", func() {
			resp, _ := doJSON(t, http.MethodPost, srv.URL+"/timelog/start", map[string]string{"activity": "  "})

			Convey("Then the request is rejected", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a running server", t, func() {
		srv, _ := newTestServer(t)

		Convey("Then the health endpoint responds", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("And the stats endpoint reports service state", func() {
			resp, body := doJSON(t, http.MethodGet, srv.URL+"/stats", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(body["started"], ShouldEqual, true)
		})
	})
}
