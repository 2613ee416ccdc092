package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const (
	TEST_SERVER_TIMEOUT   = 30 * time.Second
	TEST_WEBHOOK_TIMEOUT  = 30 * time.Second
	TEST_REQUEST_TIMEOUT  = 5 * time.Second
	TEST_USER             = "e2e-user"
	TEST_HABIT_NAME       = "Read"
	TEST_SECOND_HABIT     = "Stretch"
	TEST_BACKUP_FILE_GLOB = "growth-*.db"
)

func TestEndToEndWorkflow(t *testing.T) {
	// 1. Setup Environment
	cliPath := growthBinary(t)

	tempDir := t.TempDir()
	t.Logf("Running test in temp dir: %s", tempDir)

	webhook, received := startWebhook(t)

	configPath := filepath.Join(tempDir, "config.toml")
	config := fmt.Sprintf(`disable_keyring = true
log_dir = %q

[storage]
provider = "sqlite"
sqlite_path = %q
`, filepath.Join(tempDir, "logs"), filepath.Join(tempDir, "data", "growth.db"))
	if err := os.WriteFile(configPath, []byte(config), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	env := isolatedEnv(tempDir)
	env = append(env, "GROWTH_SLACK_WEBHOOK_URL="+webhook)
	env = append(env, "GROWTH_USER_ID="+TEST_USER)

	run := func(args ...string) string {
		return runCmd(t, cliPath, env, append([]string{"--config", configPath}, args...)...)
	}

	// 2. Initialize storage and seed habits from the CLI
	t.Log("Initializing storage...")
	run("init")
	run("habit", "add", TEST_HABIT_NAME, "--frequency", "daily", "--remind", "--reminder-time", "07:30")
	run("habit", "add", TEST_SECOND_HABIT, "--frequency", "daily")
	run("habit", "log", TEST_SECOND_HABIT)

	if out := run("habit", "list"); !strings.Contains(out, TEST_HABIT_NAME) || !strings.Contains(out, TEST_SECOND_HABIT) {
		t.Fatalf("habit list missing habits:\n%s", out)
	}
	if out := run("contributions"); !strings.Contains(out, "1 contributions in") {
		t.Errorf("unexpected contributions output:\n%s", out)
	}

	// 3. Reminder through the webhook
	t.Log("Sending reminder...")
	out := run("remind")
	if !strings.Contains(out, "1 incomplete of 2 due") {
		t.Errorf("unexpected remind output:\n%s", out)
	}

	select {
	case text := <-received:
		if !strings.Contains(text, TEST_HABIT_NAME) {
			t.Errorf("webhook text missing habit name: %q", text)
		}
		t.Log("Verified reminder delivery")
	case <-time.After(TEST_WEBHOOK_TIMEOUT):
		t.Fatal("Timed out waiting for webhook request")
	}

	// 4. Backups
	run("backup", "create")
	matches, _ := filepath.Glob(filepath.Join(tempDir, "data", "backups", TEST_BACKUP_FILE_GLOB))
	if len(matches) != 1 {
		t.Errorf("expected one backup file, got %v", matches)
	}

	// 5. REST API against the same database
	addr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveCmd := exec.CommandContext(ctx, cliPath, "--config", configPath, "serve", "--addr", addr)
	serveCmd.Env = env
	var stderrBuf bytes.Buffer
	serveCmd.Stderr = &stderrBuf
	if err := serveCmd.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	defer func() {
		cancel()
		if err := serveCmd.Wait(); err != nil {
			t.Logf("Server process exited with error: %v", err)
		}
		if t.Failed() {
			t.Logf("Server Stderr: %s", stderrBuf.String())
		}
	}()

	base := "http://" + addr
	waitForHTTP(t, base+"/health", TEST_SERVER_TIMEOUT)
	t.Log("Server is ready")

	var health map[string]string
	getJSON(t, base+"/health", http.StatusOK, &health)
	if health["status"] != "healthy" {
		t.Errorf("unexpected health body %v", health)
	}

	var habits []map[string]any
	getJSON(t, base+"/api/v1/habits?user_id="+TEST_USER, http.StatusOK, &habits)
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits over the API, got %d", len(habits))
	}

	var contributions map[string]any
	getJSON(t, base+"/api/v1/habits/contributions?user_id="+TEST_USER, http.StatusOK, &contributions)
	if total, _ := contributions["total_contributions"].(float64); total != 1 {
		t.Errorf("expected 1 contribution over the API, got %v", contributions["total_contributions"])
	}

	var missing map[string]string
	getJSON(t, base+"/api/v1/habits/contributions?user_id=nobody", http.StatusNotFound, &missing)
	if missing["detail"] != "No habits found for user" {
		t.Errorf("unexpected detail %q", missing["detail"])
	}
}

// growthBinary locates the built CLI, honoring GROWTH_BIN_DIR
func growthBinary(t *testing.T) string {
	t.Helper()
	binDir := os.Getenv("GROWTH_BIN_DIR")
	if binDir == "" {
		binDir = filepath.Join("..", "..", "bin")
	}
	binDir, _ = filepath.Abs(binDir)
	t.Logf("Using bin dir: %s", binDir)

	cliPath := filepath.Join(binDir, "growth")
	if _, err := os.Stat(cliPath); os.IsNotExist(err) {
		t.Skipf("CLI binary not found at %s. Please build it first.", cliPath)
	}
	return cliPath
}

// isolatedEnv points HOME at dir and drops inherited GROWTH_* settings
func isolatedEnv(dir string) []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "HOME=") || strings.HasPrefix(e, "GROWTH_") {
			continue
		}
		env = append(env, e)
	}
	return append(env, "HOME="+dir)
}

func startWebhook(t *testing.T) (string, <-chan string) {
	t.Helper()
	received := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		received <- payload.Text
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv.URL, received
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func runCmd(t *testing.T, path string, env []string, args ...string) string {
	t.Helper()
	cmd := exec.Command(path, args...)
	cmd.Env = env
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("Command %s %v failed: %v\nOutput: %s", path, args, err, out)
	}
	return string(out)
}

func waitForHTTP(t *testing.T, url string, timeout time.Duration) {
	t.Helper()
	client := &http.Client{Timeout: TEST_REQUEST_TIMEOUT}
	start := time.Now()
	for {
		if res, err := client.Get(url); err == nil {
			res.Body.Close()
			if res.StatusCode == http.StatusOK {
				return
			}
		}
		if time.Since(start) > timeout {
			t.Fatalf("Timed out waiting for %s", url)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func getJSON(t *testing.T, url string, wantStatus int, target any) {
	t.Helper()
	client := &http.Client{Timeout: TEST_REQUEST_TIMEOUT}
	res, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s failed: %v", url, err)
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d: %s", url, wantStatus, res.StatusCode, body)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("GET %s: invalid JSON %q: %v", url, body, err)
	}
}
