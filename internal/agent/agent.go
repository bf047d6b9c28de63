// Package agent locates and describes the on-disk tunnel agent binaries.
package agent

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"portkeeper/internal/models"
)

var binaryNames = map[models.ProviderType]string{
	models.ProviderBore:       "bore",
	models.ProviderCloudflare: "cloudflared",
	models.ProviderNgrok:      "ngrok",
	models.ProviderPlayit:     "playit",
}

// BinaryName returns the agent executable name for a provider,
// with .exe appended on Windows.
func BinaryName(provider models.ProviderType) string {
	name := binaryNames[provider]
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	return name
}

// BinaryPath resolves the agent executable: the managed bin directory
// wins, PATH is the fallback. Empty when the agent is not installed.
func BinaryPath(dir string, provider models.ProviderType) string {
	name := BinaryName(provider)
	managed := filepath.Join(dir, name)
	if info, err := os.Stat(managed); err == nil && !info.IsDir() {
		return managed
	}
	if found, err := exec.LookPath(name); err == nil {
		return found
	}
	return ""
}

// Inspect builds the diagnostics snapshot for one provider's agent.
func Inspect(dir string, provider models.ProviderType) models.AgentInfo {
	info := models.AgentInfo{Provider: provider}
	path := BinaryPath(dir, provider)
	if path == "" {
		return info
	}
	info.Path = path
	info.Installed = true
	info.Version = probeVersion(path)
	return info
}

// InspectAll reports every known provider agent in a stable order.
func InspectAll(dir string) []models.AgentInfo {
	providers := []models.ProviderType{
		models.ProviderBore,
		models.ProviderCloudflare,
		models.ProviderNgrok,
		models.ProviderPlayit,
	}
	infos := make([]models.AgentInfo, 0, len(providers))
	for _, p := range providers {
		infos = append(infos, Inspect(dir, p))
	}
	return infos
}

// probeVersion runs `<agent> version` and keeps the first output line.
// Failures are not fatal; the snapshot just lacks a version.
func probeVersion(path string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil || len(out) == 0 {
		return ""
	}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}
