package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

// newHealthcheckCmd adds a lightweight liveness probe intended for use
// from a container HEALTHCHECK directive: it hits the daemon's own
// /health endpoint and maps the result to a process exit code.
func newHealthcheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "Check the running daemon's health endpoint and exit non-zero if unhealthy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := mustCLIContext(cmd.Context())
			return runHealthcheck(cc.Cfg.HealthCheckPort)
		},
	}
}

func runHealthcheck(port int) error {
	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("healthcheck: requesting %s: %w", url, err)
	}
	defer resp.Body.Close()

	var body struct {
		Status string `json:"status"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("healthcheck: decoding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || body.Status != "healthy" {
		return fmt.Errorf("healthcheck: daemon reported status %q (http %d)", body.Status, resp.StatusCode)
	}

	fmt.Println("healthy")
	return nil
}
