package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/medihort/medihort-ai/pkg/healthcheck"
	"github.com/spf13/cobra"
)

var (
	healthURL        string
	healthTimeout    time.Duration
	healthRetries    int
	healthRetryDelay time.Duration
	healthJSON       bool
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "check a health endpoint",
	Long: `Query the health endpoint of the platform API or the web front-end. The command
fails unless the reported status is healthy, which makes it usable as a container
health check.`,
	Example: `  $ medihortctl health --url http://localhost:3000/health
  $ medihortctl health --url http://localhost:8080/health/ready --retry 3`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().StringVar(&healthURL, "url", "http://localhost:3000/health", "health endpoint URL")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 10*time.Second, "request timeout")
	healthCmd.Flags().IntVar(&healthRetries, "retry", 0, "retries on failure")
	healthCmd.Flags().DurationVar(&healthRetryDelay, "retry-delay", time.Second, "delay between retries")
	healthCmd.Flags().BoolVar(&healthJSON, "json", false, "print the raw response")

	rootCmd.AddCommand(healthCmd)
}

type healthReport struct {
	Status  healthcheck.Status `json:"status"`
	Version string             `json:"version"`
	Checks  []struct {
		Name    string             `json:"name"`
		Status  healthcheck.Status `json:"status"`
		Message string             `json:"message"`
	} `json:"checks"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	client := &http.Client{Timeout: healthTimeout}
	out := cmd.OutOrStdout()

	var lastErr error
	for attempt := 0; attempt <= healthRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(healthRetryDelay)
		}

		body, err := fetchHealth(client, healthURL)
		if err != nil {
			lastErr = err
			continue
		}

		if healthJSON {
			fmt.Fprintln(out, string(body))
		}

		var report healthReport
		if err := json.Unmarshal(body, &report); err != nil {
			return fmt.Errorf("decode health response: %w", err)
		}

		if !healthJSON {
			fmt.Fprintf(out, "%s %s\n", report.Status, report.Version)
			for _, c := range report.Checks {
				fmt.Fprintf(out, "  %-10s %-9s %s\n", c.Name, c.Status, c.Message)
			}
		}

		if report.Status != healthcheck.StatusHealthy {
			lastErr = fmt.Errorf("service is %s", report.Status)
			continue
		}
		return nil
	}
	return lastErr
}

// fetchHealth returns the body of the endpoint. A 503 still carries a report.
func fetchHealth(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusServiceUnavailable {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return body, nil
}
