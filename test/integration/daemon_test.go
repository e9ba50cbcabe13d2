package integration

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/cuemby/minder/pkg/client"
	"github.com/cuemby/minder/pkg/protocol"
	"github.com/cuemby/minder/test/framework"
)

// TestDaemonSystemInfo runs the full stack: TCP auth, dispatch, live
// gopsutil collection, bbolt boot history, one JSON response
func TestDaemonSystemInfo(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	d := framework.StartDaemon(t, nil)

	resp, err := d.Client().GetSystemInfo(context.Background())
	if err != nil {
		t.Fatalf("GetSystemInfo: %v", err)
	}
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}

	data, ok := resp.Data.(map[string]any)
	if !ok {
		t.Fatalf("data is %T, want object", resp.Data)
	}

	if hostname, _ := data["hostname"].(string); hostname == "" {
		t.Error("hostname is empty")
	}

	uptime, _ := data["uptime_string"].(string)
	if !regexp.MustCompile(`^\d+h \d+m$`).MatchString(uptime) {
		t.Errorf("uptime_string = %q, want <hours>h <minutes>m", uptime)
	}

	pctText, _ := data["uptime_percentage_last_7_days"].(string)
	pct, err := strconv.ParseFloat(strings.TrimSuffix(pctText, "%"), 64)
	if err != nil || pct < 0 || pct > 100 {
		t.Errorf("uptime_percentage_last_7_days = %q, want 0-100%%", pctText)
	}

	ram, ok := data["ram_usage"].(map[string]any)
	if !ok {
		t.Fatalf("ram_usage is %T, want object", data["ram_usage"])
	}
	total, _ := strconv.ParseFloat(ram["total_gb"].(string), 64)
	available, _ := strconv.ParseFloat(ram["available_gb"].(string), 64)
	if available > total {
		t.Errorf("available RAM %.2f exceeds total %.2f", available, total)
	}

	if count, _ := data["cpu_count"].(float64); count < 1 {
		t.Errorf("cpu_count = %v, want >= 1", data["cpu_count"])
	}
}

func TestDaemonUpdateRunsRealProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	d := framework.StartDaemon(t, &framework.Options{
		UpdateCommand: []string{"sh", "-c", "echo line1; echo line2"},
	})

	resp, err := d.Client().Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}
	if resp.Output != "line1\nline2\n" {
		t.Errorf("output = %q, want both lines", resp.Output)
	}
}

func TestDaemonUpdateFailureCarriesDiagnostics(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	d := framework.StartDaemon(t, &framework.Options{
		UpdateCommand: []string{"sh", "-c", "echo broken >&2; exit 3"},
	})

	resp, err := d.Client().Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.Status != protocol.StatusError {
		t.Fatalf("status = %q, want error", resp.Status)
	}
	if resp.ReturnCode == nil || *resp.ReturnCode != 3 {
		t.Errorf("return_code = %v, want 3", resp.ReturnCode)
	}
	if !strings.Contains(resp.Error, "broken") {
		t.Errorf("error = %q, want captured stderr", resp.Error)
	}
}

func TestDaemonRejectsWrongSecret(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	d := framework.StartDaemon(t, nil)

	c := client.NewClient(&client.Config{
		Addr:    d.Addr(),
		Secret:  "not-the-secret",
		Timeout: 5 * time.Second,
	})

	_, err := c.GetSystemInfo(context.Background())
	if !errors.Is(err, client.ErrAuthFailed) {
		t.Fatalf("err = %v, want ErrAuthFailed", err)
	}
}

// TestDaemonRebootIssuesCommand verifies the optimistic flow end to end:
// the acknowledgement arrives first, the command runs after the grace
// period
func TestDaemonRebootIssuesCommand(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	marker := filepath.Join(t.TempDir(), "rebooted")
	d := framework.StartDaemon(t, &framework.Options{
		RebootCommand: []string{"touch", marker},
	})

	resp, err := d.Client().Reboot(context.Background())
	if err != nil {
		t.Fatalf("Reboot: %v", err)
	}
	if resp.Status != protocol.StatusSuccess {
		t.Fatalf("status = %q, message = %q", resp.Status, resp.Message)
	}
	if resp.Message != protocol.MsgRebootIssued {
		t.Errorf("message = %q", resp.Message)
	}

	// The command fires after the one second grace period
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(marker); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("reboot command never ran")
		}
		time.Sleep(50 * time.Millisecond)
	}
}
