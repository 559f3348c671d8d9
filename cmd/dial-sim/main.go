// dial-sim drives the voice webhooks the way Twilio would, for local
// smoke testing without a real call. It starts a call, sends each
// command-line argument as one recognized utterance, and prints the TwiML
// returned for every turn.
//
// Usage:
//
//	go run ./cmd/dial-sim "I'd like to book Studio A on Friday" "Yes, confirmed"
package main

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
)

func main() {
	base := os.Getenv("VOICEDESK_URL")
	if base == "" {
		base = "http://localhost:8080"
	}
	caller := os.Getenv("VOICEDESK_CALLER")
	if caller == "" {
		caller = "+15550001234"
	}

	post(base+"/voice", url.Values{
		"From":    {caller},
		"CallSid": {"CAsim0001"},
	})

	for _, utterance := range os.Args[1:] {
		post(base+"/voice/respond", url.Values{
			"From":         {caller},
			"CallSid":      {"CAsim0001"},
			"SpeechResult": {utterance},
		})
	}
}

func post(endpoint string, form url.Values) {
	resp, err := http.PostForm(endpoint, form)
	if err != nil {
		log.Fatalf("POST %s failed: %v", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("Failed to read response from %s: %v", endpoint, err)
	}
	fmt.Printf("--- %s (%s)\n%s\n", endpoint, resp.Status, body)
}
