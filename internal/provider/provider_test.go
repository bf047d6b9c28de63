package provider

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"portkeeper/internal/agent"
	"portkeeper/internal/health"
	"portkeeper/internal/models"
	"portkeeper/internal/proc"
)

// fakeSpawner scripts agent output and records lifecycle calls.
type fakeSpawner struct {
	mu         sync.Mutex
	stdout     string
	stderr     string
	spawnErr   error
	commands   []string
	args       [][]string
	terminated []int
	nextPid    int
}

func (f *fakeSpawner) Spawn(command string, args []string, workDir string) (*proc.Process, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return nil, f.spawnErr
	}
	f.commands = append(f.commands, command)
	f.args = append(f.args, args)
	if f.nextPid == 0 {
		f.nextPid = 101
	}
	return &proc.Process{
		Pid:    f.nextPid,
		Stdout: strings.NewReader(f.stdout),
		Stderr: strings.NewReader(f.stderr),
	}, nil
}

func (f *fakeSpawner) Terminate(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.terminated = append(f.terminated, pid)
	return nil
}

func (f *fakeSpawner) lastArgs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.args) == 0 {
		return nil
	}
	return f.args[len(f.args)-1]
}

func (f *fakeSpawner) terminatedPids() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.terminated...)
}

// fakeSink records every published transition.
type fakeSink struct {
	mu       sync.Mutex
	statuses []models.TunnelStatus
	urls     []string
}

func (s *fakeSink) PublishStatus(instanceID string, provider models.ProviderType, status models.TunnelStatus) {
	s.mu.Lock()
	s.statuses = append(s.statuses, status)
	s.mu.Unlock()
}

func (s *fakeSink) PublishURL(instanceID string, url string) {
	s.mu.Lock()
	s.urls = append(s.urls, url)
	s.mu.Unlock()
}

func (s *fakeSink) hasKind(kind models.StatusKind) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.statuses {
		if st.Kind == kind {
			return true
		}
	}
	return false
}

func (s *fakeSink) findKind(kind models.StatusKind) (models.TunnelStatus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range s.statuses {
		if st.Kind == kind {
			return st, true
		}
	}
	return models.TunnelStatus{}, false
}

func (s *fakeSink) urlEvents() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.urls...)
}

type staticSelector struct {
	server string
	ok     bool
}

func (s staticSelector) SelectFirstAvailable(servers []string, timeout time.Duration, maxRetries int) (string, bool) {
	return s.server, s.ok
}

// scriptedProber drives the real failover policy in the bore scenario test.
type scriptedProber struct {
	mu        sync.Mutex
	reachable map[string]bool
	attempts  map[string]int
}

func (p *scriptedProber) Probe(server string, timeout time.Duration) models.HealthCheckResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts[server]++
	if p.reachable[server] {
		latency := int64(2)
		return models.HealthCheckResult{Server: server, Reachable: true, LatencyMs: &latency}
	}
	return models.HealthCheckResult{Server: server, Error: "connection to " + server + " timed out after 1s"}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// installFakeAgent drops an executable stub so BinaryPath resolves.
func installFakeAgent(t *testing.T, dir string, provider models.ProviderType) {
	t.Helper()
	path := filepath.Join(dir, agent.BinaryName(provider))
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
}

func testDeps(t *testing.T, sp Spawner, sel Selector) Deps {
	return Deps{
		Spawner:       sp,
		Selector:      sel,
		AgentDir:      t.TempDir(),
		HealthTimeout: time.Second,
		HealthRetries: 2,
	}
}

func TestForTypeDispatch(t *testing.T) {
	deps := testDeps(t, &fakeSpawner{}, staticSelector{})
	cases := map[models.ProviderType]string{
		models.ProviderBore:       "bore",
		models.ProviderCloudflare: "cloudflare",
		models.ProviderNgrok:      "ngrok",
		models.ProviderPlayit:     "playit",
	}
	for provider, name := range cases {
		a, err := ForType(provider, deps)
		if err != nil {
			t.Fatalf("%s: %v", provider, err)
		}
		if a.Name() != name {
			t.Errorf("%s: want name %q, got %q", provider, name, a.Name())
		}
	}
	if _, err := ForType("teleport", deps); err == nil {
		t.Error("unknown provider must not dispatch")
	}
}

func TestNgrokRequiresAuth(t *testing.T) {
	sp := &fakeSpawner{}
	deps := testDeps(t, sp, staticSelector{})
	a, _ := ForType(models.ProviderNgrok, deps)

	if !a.RequiresAuth() {
		t.Fatal("ngrok must require auth")
	}
	cfg := &models.TunnelConfig{InstanceID: "inst-1", Provider: models.ProviderNgrok, Port: 25565}
	if a.IsConfigured(cfg) {
		t.Error("empty secret must not count as configured")
	}

	_, err := a.Start(cfg, &fakeSink{})
	var authErr *models.AuthRequiredError
	if !errors.As(err, &authErr) {
		t.Fatalf("expected AuthRequiredError, got %v", err)
	}
	if authErr.Provider != models.ProviderNgrok {
		t.Errorf("error must carry the provider, got %s", authErr.Provider)
	}
	if len(sp.commands) != 0 {
		t.Error("no process may be spawned without credentials")
	}
}

func TestBoreFailsOverToHealthyServer(t *testing.T) {
	prober := &scriptedProber{
		reachable: map[string]bool{"bad.example": false, "bore.pub": true},
		attempts:  map[string]int{},
	}
	checker := health.NewCheckerWithProber(prober)
	checker.RetryDelay = time.Millisecond

	sp := &fakeSpawner{stdout: "INFO bore_cli::client: listening at bore.pub:34567\n"}
	deps := testDeps(t, sp, checker)
	installFakeAgent(t, deps.AgentDir, models.ProviderBore)

	a, _ := ForType(models.ProviderBore, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{
		InstanceID:       "inst-1",
		Provider:         models.ProviderBore,
		Port:             25565,
		CandidateServers: []string{"bad.example", "bore.pub"},
	}

	tun, err := a.Start(cfg, sink)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if prober.attempts["bad.example"] != 2 {
		t.Errorf("bad.example must be retried exactly twice, got %d", prober.attempts["bad.example"])
	}

	args := sp.lastArgs()
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--to bore.pub") {
		t.Errorf("agent must target the healthy relay, got args %q", joined)
	}
	if !strings.Contains(joined, "local 25565") {
		t.Errorf("agent must forward the configured port, got args %q", joined)
	}

	waitFor(t, "connected status", func() bool { return sink.hasKind(models.StatusConnected) })
	status, _ := sink.findKind(models.StatusConnected)
	if status.URL != "bore.pub:34567" {
		t.Errorf("want public endpoint bore.pub:34567, got %q", status.URL)
	}
	waitFor(t, "url event", func() bool { return len(sink.urlEvents()) == 1 })
	waitFor(t, "handle status", func() bool { return tun.Status().Kind == models.StatusConnected })
}

func TestBoreNoReachableServer(t *testing.T) {
	sp := &fakeSpawner{}
	deps := testDeps(t, sp, staticSelector{ok: false})
	installFakeAgent(t, deps.AgentDir, models.ProviderBore)

	a, _ := ForType(models.ProviderBore, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{InstanceID: "inst-1", Provider: models.ProviderBore, Port: 25565}

	if _, err := a.Start(cfg, sink); err == nil {
		t.Fatal("expected failure when every relay is down")
	}
	if !sink.hasKind(models.StatusError) {
		t.Error("exhausted server list must surface as an Error status")
	}
	if len(sp.commands) != 0 {
		t.Error("no agent may be spawned without a relay")
	}
}

func TestBoreDefaultServerList(t *testing.T) {
	want := []string{"bore.pub", "bore.digital"}
	if len(DefaultBoreServers) != len(want) {
		t.Fatalf("unexpected default list %v", DefaultBoreServers)
	}
	for i, s := range want {
		if DefaultBoreServers[i] != s {
			t.Errorf("default server %d: want %s, got %s", i, s, DefaultBoreServers[i])
		}
	}
}

func TestCloudflareParsesQuickTunnelURL(t *testing.T) {
	sp := &fakeSpawner{
		stderr: "2026-01-01T00:00:00Z INF +--------------------+\n" +
			"2026-01-01T00:00:01Z INF |  https://lucky-crab-example.trycloudflare.com  |\n",
	}
	deps := testDeps(t, sp, staticSelector{})
	installFakeAgent(t, deps.AgentDir, models.ProviderCloudflare)

	a, _ := ForType(models.ProviderCloudflare, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{InstanceID: "inst-2", Provider: models.ProviderCloudflare, Port: 25565}

	if _, err := a.Start(cfg, sink); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "connected status", func() bool { return sink.hasKind(models.StatusConnected) })
	status, _ := sink.findKind(models.StatusConnected)
	if status.URL != "https://lucky-crab-example.trycloudflare.com" {
		t.Errorf("unexpected URL %q", status.URL)
	}

	args := strings.Join(sp.lastArgs(), " ")
	if !strings.Contains(args, "tcp://localhost:25565") {
		t.Errorf("quick tunnel must target the local port, got %q", args)
	}
}

func TestNgrokParsesTunnelURL(t *testing.T) {
	sp := &fakeSpawner{
		stdout: `{"lvl":"info","msg":"starting web service"}` + "\n" +
			`{"lvl":"info","msg":"started tunnel","url":"tcp://0.tcp.ngrok.io:14213"}` + "\n",
	}
	deps := testDeps(t, sp, staticSelector{})
	installFakeAgent(t, deps.AgentDir, models.ProviderNgrok)

	a, _ := ForType(models.ProviderNgrok, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{InstanceID: "inst-3", Provider: models.ProviderNgrok, Port: 25565, Secret: "tok"}

	if _, err := a.Start(cfg, sink); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "connected status", func() bool { return sink.hasKind(models.StatusConnected) })
	status, _ := sink.findKind(models.StatusConnected)
	if status.URL != "tcp://0.tcp.ngrok.io:14213" {
		t.Errorf("unexpected URL %q", status.URL)
	}
}

func TestNgrokMalformedOutputKeepsProcessAlive(t *testing.T) {
	sp := &fakeSpawner{stdout: "not json at all\n"}
	deps := testDeps(t, sp, staticSelector{})
	installFakeAgent(t, deps.AgentDir, models.ProviderNgrok)

	a, _ := ForType(models.ProviderNgrok, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{InstanceID: "inst-3", Provider: models.ProviderNgrok, Port: 25565, Secret: "tok"}

	if _, err := a.Start(cfg, sink); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "error status", func() bool { return sink.hasKind(models.StatusError) })
	status, _ := sink.findKind(models.StatusError)
	if !strings.Contains(status.Message, "unexpected output") {
		t.Errorf("protocol error must explain itself, got %q", status.Message)
	}
	if len(sp.terminatedPids()) != 0 {
		t.Error("a parse error must not kill the agent process")
	}
}

func TestPlayitClaimFlow(t *testing.T) {
	sp := &fakeSpawner{
		stdout: "visit https://playit.gg/claim/8hnsxb2 to set up\n" +
			"tunnel running: craft.ply.gg:23544\n",
	}
	deps := testDeps(t, sp, staticSelector{})
	installFakeAgent(t, deps.AgentDir, models.ProviderPlayit)

	a, _ := ForType(models.ProviderPlayit, deps)
	sink := &fakeSink{}
	cfg := &models.TunnelConfig{InstanceID: "inst-4", Provider: models.ProviderPlayit, Port: 25565}

	if _, err := a.Start(cfg, sink); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	waitFor(t, "claim status", func() bool { return sink.hasKind(models.StatusWaitingForClaim) })
	claim, _ := sink.findKind(models.StatusWaitingForClaim)
	if claim.ClaimURL != "https://playit.gg/claim/8hnsxb2" {
		t.Errorf("unexpected claim URL %q", claim.ClaimURL)
	}

	waitFor(t, "connected status", func() bool { return sink.hasKind(models.StatusConnected) })
	status, _ := sink.findKind(models.StatusConnected)
	if status.URL != "craft.ply.gg:23544" {
		t.Errorf("unexpected address %q", status.URL)
	}
}

func TestStopBeforePidIsNothingToTerminate(t *testing.T) {
	sp := &fakeSpawner{}
	a, _ := ForType(models.ProviderBore, testDeps(t, sp, staticSelector{}))

	if err := a.Stop(nil); err != nil {
		t.Errorf("stop with no handle must be a no-op, got %v", err)
	}
	if err := a.Stop(&models.RunningTunnel{InstanceID: "inst-5"}); err != nil {
		t.Errorf("stop before a pid exists must be a no-op, got %v", err)
	}
	if len(sp.terminatedPids()) != 0 {
		t.Error("nothing may be terminated without a pid")
	}
}

func TestStopTerminatesAgent(t *testing.T) {
	sp := &fakeSpawner{}
	a, _ := ForType(models.ProviderCloudflare, testDeps(t, sp, staticSelector{}))

	tun := models.NewRunningTunnel("inst-6", models.ProviderCloudflare, 321)
	if err := a.Stop(tun); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	pids := sp.terminatedPids()
	if len(pids) != 1 || pids[0] != 321 {
		t.Errorf("expected pid 321 terminated, got %v", pids)
	}
}

func TestParseBoreListenLine(t *testing.T) {
	cases := []struct {
		line string
		url  string
		ok   bool
	}{
		{"2026-08-29T10:00:00Z INFO bore_cli::client: listening at bore.pub:34567", "bore.pub:34567", true},
		{"listening at bore.digital:1024", "bore.digital:1024", true},
		{"connected to server", "", false},
		{"listening at ", "", false},
	}
	for _, tc := range cases {
		url, ok := parseBoreListenLine(tc.line)
		if ok != tc.ok || url != tc.url {
			t.Errorf("%q: want (%q,%v), got (%q,%v)", tc.line, tc.url, tc.ok, url, ok)
		}
	}
}
