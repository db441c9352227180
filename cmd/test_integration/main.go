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

func main() {
	baseURL := os.Getenv("EVENTGOV_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test against", baseURL)

	docID := fmt.Sprintf("smoke-%d", time.Now().Unix())
	logs := []map[string]string{
		{
			"doc_id":  docID,
			"author":  "smoke",
			"date":    time.Now().Format("2006-01-02"),
			"content": "上午走访XX市第一中学，与教务主任沟通智慧课堂方案，对方表示需校长审批，下周再约。",
		},
	}

	steps := []struct {
		name     string
		method   string
		endpoint string
		payload  interface{}
	}{
		{"Ingest log", "POST", "/logs", logs},
		{"Run batch", "POST", "/batch", map[string]int{"limit": 1}},
		{"Read events", "GET", "/events?doc_id=" + docID, nil},
		{"Run governance", "POST", "/governance", nil},
		{"Read taxonomy", "GET", "/taxonomy?status=stable", nil},
		{"Read status", "GET", "/status", nil},
	}

	for i, step := range steps {
		fmt.Printf("%d. %s...\n", i+1, step.name)
		if !sendRequest(baseURL, step.method, step.endpoint, step.payload) {
			fmt.Printf("FAILED: %s\n", step.name)
			os.Exit(1)
		}
		fmt.Printf("PASSED: %s\n", step.name)
	}
}

func sendRequest(baseURL, method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("  %s\n", truncate(string(respBody), 300))
	return true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
