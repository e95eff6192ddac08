// Command seed populates a running backlog server with demo data: a small
// game collection, a play queue, and a weekly winner pick.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"
)

type game struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

var demoGames = []map[string]string{
	{"title": "Hollow Knight", "platform": "pc", "status": "playing"},
	{"title": "Outer Wilds", "platform": "pc", "status": "backlog"},
	{"title": "Hades", "platform": "switch", "status": "backlog"},
	{"title": "Disco Elysium", "platform": "pc", "status": "finished"},
	{"title": "Celeste", "platform": "switch", "status": "backlog"},
}

func main() {
	addr := flag.String("addr", "http://localhost:9080", "backlog server base URL")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	var created []game
	for _, g := range demoGames {
		var out game
		if err := post(client, *addr+"/games", g, &out); err != nil {
			fail("create game %q: %v", g["title"], err)
		}
		created = append(created, out)
		fmt.Printf("created %s (%s)\n", out.Title, out.ID)
	}

	// Queue the first three games.
	for _, g := range created[:3] {
		if err := post(client, *addr+"/queue", map[string]string{"game_id": g.ID}, nil); err != nil {
			fail("queue %q: %v", g.Title, err)
		}
		fmt.Printf("queued %s\n", g.Title)
	}

	// Pick a winner for the current week.
	year, week := time.Now().ISOWeek()
	pick := map[string]any{
		"request_id":  fmt.Sprintf("seed-%d", time.Now().UnixNano()),
		"category":    "game_of_week",
		"label":       "Game of the Week",
		"period_type": "week",
		"period_key":  fmt.Sprintf("%04d-W%02d", year, week),
		"game_id":     created[0].ID,
	}
	if err := post(client, *addr+"/picks", pick, nil); err != nil {
		fail("assign pick: %v", err)
	}
	fmt.Printf("picked %s as game of the week\n", created[0].Title)
}

func post(client *http.Client, url string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
