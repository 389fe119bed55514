package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	tempDir, err := ioutil.TempDir("", "config-test")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	if err := ioutil.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return tempDir
}

func TestLoadControllerConfig(t *testing.T) {
	configContent := `
robot_id: "mecanum-01"
logging:
  level: "debug"
server:
  http_port: 9090
link:
  transport: "websocket"
  path: "/ws/control"
  family: "colon"
auth:
  token: "s3cret"
heartbeat:
  timeout_ms: 5000
drive:
  rotation_speed: 200
arm:
  max_step: 4
zeromq:
  enabled: true
  publish_bind_address: "tcp://*:6000"
`
	dir := writeConfig(t, ControllerConfigFile, configContent)

	cfg, err := LoadControllerConfig(dir)
	if err != nil {
		t.Fatalf("LoadControllerConfig failed: %v", err)
	}

	if cfg.RobotID != "mecanum-01" {
		t.Errorf("Expected robot_id mecanum-01, got %s", cfg.RobotID)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected http_port 9090, got %d", cfg.Server.HTTPPort)
	}
	if cfg.Link.Family != FamilyColon {
		t.Errorf("Expected family colon, got %s", cfg.Link.Family)
	}
	if cfg.Heartbeat.TimeoutMs != 5000 {
		t.Errorf("Expected timeout_ms 5000, got %d", cfg.Heartbeat.TimeoutMs)
	}
	if cfg.Drive.RotationSpeed != 200 {
		t.Errorf("Expected rotation_speed 200, got %d", cfg.Drive.RotationSpeed)
	}
	// Fields absent from the file keep their defaults
	if cfg.Drive.OutputRange != 100 {
		t.Errorf("Expected default output_range 100, got %d", cfg.Drive.OutputRange)
	}
	if cfg.Control.TickMs != 50 {
		t.Errorf("Expected default tick_ms 50, got %d", cfg.Control.TickMs)
	}
	if len(cfg.Arm.Joints) != 5 || cfg.Arm.MaxStep != 4 {
		t.Errorf("Unexpected arm config: %+v", cfg.Arm)
	}
	if !cfg.ZeroMQ.Enabled || cfg.ZeroMQ.PublishBindAddress != "tcp://*:6000" {
		t.Errorf("Unexpected zeromq config: %+v", cfg.ZeroMQ)
	}
}

func TestLoadControllerConfigMissingRequired(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "no secret",
			content: "link:\n  transport: websocket\n",
			wantErr: "missing required field in controller config: auth.token",
		},
		{
			name:    "serial without device",
			content: "auth:\n  token: x\nlink:\n  transport: serial\n",
			wantErr: "missing required field in controller config: link.serial_device",
		},
		{
			name:    "unknown family",
			content: "auth:\n  token: x\nlink:\n  family: binary\n",
			wantErr: "invalid value for link.family",
		},
		{
			name:    "wrong joint count",
			content: "auth:\n  token: x\narm:\n  joints:\n    - {name: base, min: 0, max: 180, home: 90}\n",
			wantErr: "expected 5 joints, got 1",
		},
		{
			name:    "bad polarity",
			content: "auth:\n  token: x\ndrive:\n  angle_polarity: [1, 1, 1]\n",
			wantErr: "expected 4 entries, got 3",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			os.Unsetenv("ROBOLINK_TOKEN")
			dir := writeConfig(t, ControllerConfigFile, tc.content)
			_, err := LoadControllerConfig(dir)
			if err == nil {
				t.Fatalf("Expected error containing %q, got nil", tc.wantErr)
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadControllerConfigEnvOverrides(t *testing.T) {
	dir := writeConfig(t, ControllerConfigFile, "link:\n  transport: websocket\n")
	t.Setenv("ROBOLINK_TOKEN", "from-env")
	t.Setenv("PORT", "7070")

	cfg, err := LoadControllerConfig(dir)
	if err != nil {
		t.Fatalf("LoadControllerConfig failed: %v", err)
	}
	if cfg.Auth.Token != "from-env" {
		t.Errorf("Expected token from env, got %q", cfg.Auth.Token)
	}
	if cfg.Server.HTTPPort != 7070 {
		t.Errorf("Expected port 7070, got %d", cfg.Server.HTTPPort)
	}
}

func TestLoadControllerConfigMissingFile(t *testing.T) {
	_, err := LoadControllerConfig(filepath.Join(os.TempDir(), "does-not-exist-robolink"))
	if err == nil || !strings.Contains(err.Error(), "error reading config file") {
		t.Fatalf("Expected read error, got %v", err)
	}
}

func TestLoadOperatorConfig(t *testing.T) {
	configContent := `
link:
  url: "ws://10.0.0.5:8080/ws/control"
auth:
  token: "s3cret"
dispatch:
  mode: "dual"
  drive_input: "angle"
  stop_grace_ticks: 3
`
	dir := writeConfig(t, OperatorConfigFile, configContent)
	os.Unsetenv("ROBOLINK_TOKEN")

	cfg, err := LoadOperatorConfig(dir)
	if err != nil {
		t.Fatalf("LoadOperatorConfig failed: %v", err)
	}
	if cfg.Dispatch.Mode != ModeDual || cfg.Dispatch.DriveInput != DriveInputAngle {
		t.Errorf("Unexpected dispatch config: %+v", cfg.Dispatch)
	}
	if cfg.Dispatch.StopGraceTicks != 3 {
		t.Errorf("Expected stop_grace_ticks 3, got %d", cfg.Dispatch.StopGraceTicks)
	}
	if cfg.Dispatch.TickMs != 50 || cfg.Link.Family != FamilySpace {
		t.Errorf("Defaults not applied: tick=%d family=%s", cfg.Dispatch.TickMs, cfg.Link.Family)
	}
}

func TestLoadOperatorConfigMissingURL(t *testing.T) {
	dir := writeConfig(t, OperatorConfigFile, "auth:\n  token: x\n")
	_, err := LoadOperatorConfig(dir)
	if err == nil || !strings.Contains(err.Error(), "missing required field in operator config: link.url") {
		t.Fatalf("Expected missing url error, got %v", err)
	}
}

func TestMarshalRedactsSecrets(t *testing.T) {
	cfg := DefaultControllerConfig()
	cfg.Auth.Token = "s3cret"

	data, err := Marshal(&cfg)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if strings.Contains(string(data), "s3cret") {
		t.Errorf("secret leaked into rendered config:\n%s", data)
	}
	if !strings.Contains(string(data), "robot_id: robolink") {
		t.Errorf("rendered config missing robot_id:\n%s", data)
	}
	if cfg.Auth.Token != "s3cret" {
		t.Errorf("Marshal mutated the caller's config")
	}
}
