package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL = "http://localhost:8080"
)

var baseURL = defaultBaseURL

func main() {
	if u := os.Getenv("CARDGRAPH_URL"); u != "" {
		baseURL = u
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting Integration Test...")

	groupID := fmt.Sprintf("smoke-board-%d", time.Now().Unix())
	now := time.Now().UTC()

	fmt.Println("1. Saving cards...")
	cards := []map[string]interface{}{
		{"id": groupID + "-q1", "title": "Why do users abandon checkout?", "tags": []string{"checkout", "ux"}, "type": "questions", "created_at": now},
		{"id": groupID + "-i1", "title": "Users abandon checkout when shipping costs appear late", "tags": []string{"checkout", "ux", "pricing"}, "type": "insights", "created_at": now.Add(time.Minute)},
		{"id": groupID + "-o1", "title": "Participant compared shipping costs with a competitor", "tags": []string{"pricing"}, "type": "observations", "created_at": now.Add(2 * time.Minute)},
		{"id": groupID + "-a1", "title": "Show shipping costs on the product page", "tags": []string{"pricing", "checkout"}, "type": "actions", "created_at": now.Add(3 * time.Minute)},
		{"id": groupID + "-o2", "title": "Onboarding email went to spam", "tags": []string{"email"}, "type": "observations", "created_at": now.Add(4 * time.Minute)},
		{"id": groupID + "-o3", "title": "Onboarding email links were broken", "tags": []string{"email"}, "type": "observations", "created_at": now.Add(5 * time.Minute)},
		{"id": groupID + "-o4", "title": "Search results felt irrelevant", "tags": []string{"search"}, "type": "observations", "created_at": now.Add(6 * time.Minute)},
		{"id": groupID + "-o5", "title": "Filters reset after search", "tags": []string{"search"}, "type": "observations", "created_at": now.Add(7 * time.Minute)},
		{"id": groupID + "-o6", "title": "Dark mode was requested twice", "tags": []string{"theme"}, "type": "observations", "created_at": now.Add(8 * time.Minute)},
		{"id": groupID + "-o7", "title": "Invoices are hard to find", "tags": []string{"billing"}, "type": "observations", "created_at": now.Add(9 * time.Minute)},
	}
	mustSend("save cards", "POST", "/groups/"+groupID+"/items", map[string]interface{}{"items": cards}, http.StatusCreated)

	fmt.Println("2. Inferring relationships...")
	var report struct {
		Persisted []struct {
			ID       string `json:"id"`
			SourceID string `json:"source_id"`
			TargetID string `json:"target_id"`
		} `json:"persisted"`
		Notice string `json:"notice"`
	}
	decode(mustSend("infer", "POST", "/groups/"+groupID+"/infer", nil, http.StatusOK), &report)
	if len(report.Persisted) == 0 {
		fmt.Printf("FAILED: infer persisted nothing (notice %q)\n", report.Notice)
		os.Exit(1)
	}
	fmt.Printf("PASSED: infer persisted %d relationships\n", len(report.Persisted))

	fmt.Println("3. Adding a manual duplicate...")
	first := report.Persisted[0]
	mustSend("manual relationship", "POST", "/groups/"+groupID+"/relationships", map[string]interface{}{
		"source_id": first.TargetID,
		"target_id": first.SourceID,
		"strength":  0.8,
		"note":      "smoke test",
	}, http.StatusCreated)

	fmt.Println("4. Deduplicating...")
	var dedup struct {
		Confirmed []string `json:"confirmed"`
	}
	decode(mustSend("dedupe", "POST", "/groups/"+groupID+"/dedupe", nil, http.StatusOK), &dedup)
	if len(dedup.Confirmed) != 1 || dedup.Confirmed[0] != first.ID {
		fmt.Printf("FAILED: expected %s to be deduplicated, got %v\n", first.ID, dedup.Confirmed)
		os.Exit(1)
	}
	fmt.Println("PASSED: dedupe kept the manual relationship")

	fmt.Println("5. Bulk deleting the board...")
	var bulk struct {
		Requested int `json:"requested"`
		Confirmed int `json:"confirmed"`
	}
	decode(mustSend("bulk delete", "POST", "/relationships/bulk-delete", map[string]interface{}{"group_id": groupID}, http.StatusOK), &bulk)
	if bulk.Requested != bulk.Confirmed {
		fmt.Printf("FAILED: bulk delete confirmed %d of %d\n", bulk.Confirmed, bulk.Requested)
		os.Exit(1)
	}
	fmt.Printf("PASSED: bulk delete removed %d relationships\n", bulk.Confirmed)
}

func mustSend(name, method, endpoint string, payload interface{}, wantStatus int) []byte {
	body, ok := sendRequest(method, endpoint, payload, wantStatus)
	if !ok {
		fmt.Printf("FAILED: %s\n", name)
		os.Exit(1)
	}
	fmt.Printf("PASSED: %s\n", name)
	return body
}

func decode(body []byte, v interface{}) {
	if err := json.Unmarshal(body, v); err != nil {
		fmt.Printf("FAILED: decoding response: %v\n", err)
		os.Exit(1)
	}
}

func sendRequest(method, endpoint string, payload interface{}, wantStatus int) ([]byte, bool) {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return nil, false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return nil, false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != wantStatus {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return nil, false
	}

	fmt.Printf("Response: %s\n", string(respBody))
	return respBody, true
}
