package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"
)

// Smoke test against a running fundra-api: sign up a throwaway intern, log a
// donation and a referral, then verify the stats and leaderboard reflect them.
func main() {
	base := os.Getenv("FUNDRA_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	client := &http.Client{Timeout: 5 * time.Second}
	suffix := rand.New(rand.NewSource(time.Now().UnixNano())).Int()
	email := fmt.Sprintf("smoke-%d@example.com", suffix)

	var signup struct {
		Intern struct {
			ID           string `json:"id"`
			ReferralCode string `json:"referralCode"`
		} `json:"intern"`
	}
	post(client, base+"/api/auth/signup", map[string]any{
		"firstName": "Smoke",
		"lastName":  "Test",
		"email":     email,
		"password":  "smoke-pass",
	}, http.StatusCreated, &signup)
	if signup.Intern.ReferralCode != "SMOKE2025" {
		log.Fatalf("unexpected referral code %q", signup.Intern.ReferralCode)
	}
	id := signup.Intern.ID

	post(client, base+"/api/intern/"+id+"/donations", map[string]any{
		"amount": 420,
		"source": "Smoke run",
	}, http.StatusCreated, nil)

	post(client, base+"/api/intern/"+id+"/referrals", map[string]any{
		"referredEmail": fmt.Sprintf("friend-%d@example.com", suffix),
		"referredName":  "Smoke Friend",
	}, http.StatusCreated, nil)

	var stats struct {
		TotalRaised   int64 `json:"totalRaised"`
		ReferralCount int   `json:"referralCount"`
		DonationCount int   `json:"donationCount"`
	}
	get(client, base+"/api/intern/"+id+"/stats", &stats)
	if stats.TotalRaised != 420 || stats.ReferralCount != 1 || stats.DonationCount != 1 {
		log.Fatalf("unexpected stats: %+v", stats)
	}

	var board []struct {
		ID   string `json:"id"`
		Rank int    `json:"rank"`
	}
	get(client, base+"/api/leaderboard", &board)
	found := false
	for _, entry := range board {
		if entry.ID == id {
			found = true
			if entry.Rank < 1 {
				log.Fatalf("bad rank %d for %s", entry.Rank, id)
			}
		}
	}
	if !found {
		log.Fatalf("intern %s missing from leaderboard", id)
	}

	fmt.Printf("✅ fundra-api smoke test passed: intern=%s\n", id)
}

func post(client *http.Client, url string, body map[string]any, wantStatus int, out any) {
	payload, _ := json.Marshal(body)
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		log.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		log.Fatalf("POST %s: status %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			log.Fatalf("decode %s: %v", url, err)
		}
	}
}

func get(client *http.Client, url string, out any) {
	resp, err := client.Get(url)
	if err != nil {
		log.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("GET %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		log.Fatalf("decode %s: %v", url, err)
	}
}
