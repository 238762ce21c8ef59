// Command clonectl submits a clone job to a running siteclone API and
// prints where the result landed.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

type cloneResponse struct {
	JobID       string `json:"job_id"`
	SourceURL   string `json:"source_url"`
	OriginalDir string `json:"original_dir"`
	CompletedAt string `json:"completed_at"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		apiURL  = flag.String("api", "http://localhost:8080", "base URL of the siteclone API")
		target  = flag.String("url", "", "website URL to clone")
		timeout = flag.Duration("timeout", 5*time.Minute, "how long to wait for the clone")
	)
	flag.Parse()

	if *target == "" {
		fmt.Fprintln(os.Stderr, "usage: clonectl -url https://example.com [-api http://localhost:8080]")
		os.Exit(2)
	}

	body, err := json.Marshal(map[string]string{"url": *target})
	if err != nil {
		fmt.Fprintf(os.Stderr, "clonectl: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: *timeout}
	endpoint := strings.TrimRight(*apiURL, "/") + "/websites"
	resp, err := client.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "clonectl: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "clonectl: reading response: %v\n", err)
		os.Exit(1)
	}

	var out cloneResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		fmt.Fprintf(os.Stderr, "clonectl: unexpected response (%d): %s\n", resp.StatusCode, payload)
		os.Exit(1)
	}

	if resp.StatusCode != http.StatusOK {
		if out.Error != nil {
			fmt.Fprintf(os.Stderr, "clonectl: %s: %s\n", out.Error.Code, out.Error.Message)
		} else {
			fmt.Fprintf(os.Stderr, "clonectl: request failed (%d)\n", resp.StatusCode)
		}
		os.Exit(1)
	}

	fmt.Printf("job      %s\n", out.JobID)
	fmt.Printf("source   %s\n", out.SourceURL)
	fmt.Printf("clone    %s\n", out.OriginalDir)
	fmt.Printf("serve    %s/static/%s\n", strings.TrimRight(*apiURL, "/"), out.OriginalDir)
	if out.CompletedAt != "" {
		fmt.Printf("finished %s\n", out.CompletedAt)
	}
}
