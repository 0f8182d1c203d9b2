package blackbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"testing"
	"time"
)

// findFreePort picks an available TCP port on localhost.
func findFreePort(t *testing.T) (int, func()) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	cleanup := func() { _ = ln.Close() }
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port, cleanup
}

func projectRootFromThisFile(t *testing.T) string {
	t.Helper()
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("runtime.Caller failed")
	}
	// this file: <root>/tests/blackbox/blackbox_test.go
	bbDir := filepath.Dir(thisFile)
	root := filepath.Dir(filepath.Dir(bbDir))
	return root
}

func buildBinary(t *testing.T) string {
	t.Helper()
	root := projectRootFromThisFile(t)
	outDir := t.TempDir()
	binPath := filepath.Join(outDir, "settingsd")
	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/settingsd")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("go build failed: %v\n%s", err, string(out))
	}
	return binPath
}

func createSeedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	seed := map[string]string{
		"garden.display.yaml": "theme: light\ncompact: false\n",
		"groups.display.json": `{"theme": "dark"}`,
	}
	for name, body := range seed {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write seed %s: %v", name, err)
		}
	}
	return dir
}

type serverProc struct {
	cmd  *exec.Cmd
	base string // http base URL, e.g. http://127.0.0.1:18080
}

func startServer(t *testing.T, bin string, port int, extra ...string) *serverProc {
	t.Helper()
	addr := fmt.Sprintf(":%d", port)
	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	args := append([]string{"--addr", addr}, extra...)
	cmd := exec.Command(bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	// Wait for healthz
	deadline := time.Now().Add(5 * time.Second)
	for {
		resp, err := http.Get(base + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}
		if time.Now().After(deadline) {
			_ = cmd.Process.Kill()
			t.Fatalf("server did not become healthy in time")
		}
		time.Sleep(50 * time.Millisecond)
	}
	sp := &serverProc{cmd: cmd, base: base}
	t.Cleanup(func() { _ = cmd.Process.Kill() })
	return sp
}

// stopServer shuts the process down gracefully so the database closes
// cleanly before a restart.
func stopServer(t *testing.T, sp *serverProc) {
	t.Helper()
	if err := sp.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		t.Fatalf("signal server: %v", err)
	}
	done := make(chan struct{})
	go func() { _ = sp.cmd.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		_ = sp.cmd.Process.Kill()
		t.Fatalf("server did not exit after SIGTERM")
	}
}

func doReq(t *testing.T, method, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rd)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	b, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, b
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	return doReq(t, http.MethodGet, url, nil)
}

func TestBlackbox_Flow(t *testing.T) {
	bin := buildBinary(t)
	seedDir := createSeedDir(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port, "--seed-dir", seedDir)

	// /healthz
	resp, body := get(t, sp.base+"/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/healthz %d %s", resp.StatusCode, string(body))
	}

	// seeded desks visible
	resp, body = get(t, sp.base+"/v1/desks")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/v1/desks %d %s", resp.StatusCode, string(body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("/v1/desks content-type=%s", ct)
	}
	var desksResp struct {
		Desks []string `json:"desks"`
	}
	if err := json.Unmarshal(body, &desksResp); err != nil {
		t.Fatalf("/v1/desks json: %v body=%s", err, string(body))
	}
	if len(desksResp.Desks) != 2 {
		t.Fatalf("expected 2 seeded desks, got %v", desksResp.Desks)
	}

	// merged view prefers the desk entry over the garden default
	resp, body = get(t, sp.base+"/v1/desks/groups/merged")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/merged %d %s", resp.StatusCode, string(body))
	}
	var mergedResp struct {
		Buckets map[string]map[string]struct {
			Kind string `json:"kind"`
			Text string `json:"text"`
			Flag bool   `json:"flag"`
		} `json:"buckets"`
	}
	if err := json.Unmarshal(body, &mergedResp); err != nil {
		t.Fatalf("/merged json: %v body=%s", err, string(body))
	}
	if mergedResp.Buckets["display"]["theme"].Text != "dark" {
		t.Fatalf("merged theme = %+v", mergedResp.Buckets["display"]["theme"])
	}
	if mergedResp.Buckets["display"]["compact"].Kind != "flag" {
		t.Fatalf("merged lost garden entry: %+v", mergedResp.Buckets["display"])
	}

	// write some entries and page through them
	for _, k := range []string{"alpha", "beta", "gamma"} {
		resp, body = doReq(t, http.MethodPut, sp.base+"/v1/desks/groups/buckets/links/entries/"+k, []byte(`{"kind":"text","text":"`+k+`"}`))
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("put %s: %d %s", k, resp.StatusCode, string(body))
		}
	}
	resp, body = get(t, sp.base+"/v1/desks/groups/buckets/links/entries?after=alpha&limit=1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/entries %d %s", resp.StatusCode, string(body))
	}
	var entriesResp struct {
		Entries []struct {
			Key string `json:"key"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(body, &entriesResp); err != nil {
		t.Fatalf("/entries json: %v body=%s", err, string(body))
	}
	if len(entriesResp.Entries) != 1 || entriesResp.Entries[0].Key != "beta" {
		t.Fatalf("page after alpha = %+v", entriesResp.Entries)
	}

	// await resolves once a matching mutation lands
	awaitDone := make(chan int, 1)
	go func() {
		resp, _ := doReq(t, http.MethodPost, sp.base+"/v1/await", []byte(`{"path":"/groups/links","event":"del-entry","key":"beta"}`))
		awaitDone <- resp.StatusCode
	}()
	// give the watcher time to register
	waitDeadline := time.Now().Add(2 * time.Second)
	for {
		resp, body = get(t, sp.base+"/v1/status")
		var st struct {
			Watchers int `json:"watchers"`
		}
		_ = json.Unmarshal(body, &st)
		if st.Watchers >= 1 {
			break
		}
		if time.Now().After(waitDeadline) {
			t.Fatalf("watcher never registered; status=%s", string(body))
		}
		time.Sleep(25 * time.Millisecond)
	}
	resp, body = doReq(t, http.MethodDelete, sp.base+"/v1/desks/groups/buckets/links/entries/beta", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("del beta: %d %s", resp.StatusCode, string(body))
	}
	select {
	case code := <-awaitDone:
		if code != http.StatusOK {
			t.Fatalf("await returned %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("await did not resolve")
	}
}

func TestBlackbox_Persistence(t *testing.T) {
	bin := buildBinary(t)
	dataDir := t.TempDir()
	port, release := findFreePort(t)
	release()

	sp := startServer(t, bin, port, "--data-dir", dataDir)
	resp, body := doReq(t, http.MethodPut, sp.base+"/v1/desks/groups/buckets/display/entries/theme", []byte(`{"kind":"text","text":"dark"}`))
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put: %d %s", resp.StatusCode, string(body))
	}
	stopServer(t, sp)

	sp = startServer(t, bin, port, "--data-dir", dataDir)
	resp, body = get(t, sp.base+"/v1/desks/groups/buckets/display/entries/theme")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get after restart: %d %s", resp.StatusCode, string(body))
	}
	var v struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		t.Fatalf("json: %v body=%s", err, string(body))
	}
	if v.Text != "dark" {
		t.Fatalf("value lost across restart: %s", string(body))
	}
}

func TestBlackbox_NotFound(t *testing.T) {
	bin := buildBinary(t)
	port, release := findFreePort(t)
	release()
	sp := startServer(t, bin, port)

	resp, body := get(t, sp.base+"/v1/desks/missing/buckets/none")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d, body=%s", resp.StatusCode, string(body))
	}
}
