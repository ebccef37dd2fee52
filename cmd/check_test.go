package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func runCheckWith(t *testing.T, configPath string) (string, error) {
	t.Helper()

	originalPath := checkConfigPath
	originalQuiet := checkQuiet
	defer func() {
		checkConfigPath = originalPath
		checkQuiet = originalQuiet
	}()
	checkConfigPath = configPath
	checkQuiet = false

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	err := runCheck(cmd, nil)
	return buf.String(), err
}

func TestCheckValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stratum.yaml")
	content := `
stratum:
  name: check-test
http:
  port: 5601
plugins:
  dir: ` + filepath.Join(dir, "plugins") + `
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCheckWith(t, configPath)
	if err != nil {
		t.Fatalf("Expected check to pass, got error: %v", err)
	}
	if !strings.Contains(output, "OK:") {
		t.Errorf("Expected success line in output, got:\n%s", output)
	}
	if !strings.Contains(output, "http") {
		t.Errorf("Expected namespace table to list 'http', got:\n%s", output)
	}
}

func TestCheckInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "stratum.yaml")
	content := `
http:
  port: -5
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCheckWith(t, configPath)
	if err == nil {
		t.Fatal("Expected check to fail for an invalid port")
	}
	if !strings.Contains(err.Error(), "configuration is invalid") {
		t.Errorf("Expected validation error, got: %v", err)
	}
	if !strings.Contains(output, "port") {
		t.Errorf("Expected problem table to name the field, got:\n%s", output)
	}
}

func TestCheckReportsPlugins(t *testing.T) {
	dir := t.TempDir()
	pluginsDir := filepath.Join(dir, "plugins")
	pluginDir := filepath.Join(pluginsDir, "example")
	if err := os.MkdirAll(pluginDir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := "id: example\nversion: 1.0.0\n"
	if err := os.WriteFile(filepath.Join(pluginDir, "plugin.yaml"), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	configPath := filepath.Join(dir, "stratum.yaml")
	content := "plugins:\n  dir: " + pluginsDir + "\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := runCheckWith(t, configPath)
	if err != nil {
		t.Fatalf("Expected check to pass, got error: %v", err)
	}
	if !strings.Contains(output, "example") {
		t.Errorf("Expected plugin table to list 'example', got:\n%s", output)
	}
	if !strings.Contains(output, "1 plugin manifests are valid") {
		t.Errorf("Expected manifest count in success line, got:\n%s", output)
	}
}
