//go:build !ci

package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	dockerImage           = "chromedp/headless-shell:stable"
	chromeContainerPrefix = "chrome-e2e-pageforge-"
)

// setupDockerChrome starts a headless Chrome container and returns a
// chromedp context bound to it. The test is skipped without Docker.
func setupDockerChrome(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	if _, err := exec.Command("docker", "version").CombinedOutput(); err != nil {
		t.Skip("Docker not available, skipping E2E test")
	}

	port, err := freePort()
	if err != nil {
		t.Fatalf("Failed to allocate Chrome port: %v", err)
	}
	if err := startDockerChrome(t, port); err != nil {
		t.Fatalf("Failed to start Docker Chrome: %v", err)
	}

	allocCtx, allocCancel := chromedp.NewRemoteAllocator(context.Background(), fmt.Sprintf("http://localhost:%d", port))
	ctx, ctxCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(t.Logf))
	ctx, timeoutCancel := context.WithTimeout(ctx, timeout)

	t.Cleanup(func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
		_, _ = exec.Command("docker", "rm", "-f", containerName(port)).CombinedOutput()
	})
	return ctx
}

func containerName(port int) string {
	return fmt.Sprintf("%s%d", chromeContainerPrefix, port)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func startDockerChrome(t *testing.T, port int) error {
	t.Helper()
	name := containerName(port)
	_, _ = exec.Command("docker", "rm", "-f", name).CombinedOutput()

	if _, err := exec.Command("docker", "image", "inspect", dockerImage).CombinedOutput(); err != nil {
		t.Log("Pulling chromedp/headless-shell Docker image...")
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		if output, err := exec.CommandContext(ctx, "docker", "pull", dockerImage).CombinedOutput(); err != nil {
			return fmt.Errorf("pull %s: %w\n%s", dockerImage, err, output)
		}
	}

	// On Linux the container shares the host network; elsewhere the debug
	// port is mapped to the image's default 9222.
	args := []string{"run", "-d", "--rm", "--memory", "512m", "--cpus", "0.5", "--name", name}
	if runtime.GOOS == "linux" {
		args = append(args, "--network", "host", dockerImage, fmt.Sprintf("--remote-debugging-port=%d", port))
	} else {
		args = append(args, "-p", fmt.Sprintf("%d:9222", port), dockerImage)
	}
	if _, err := exec.Command("docker", args...).Output(); err != nil {
		return fmt.Errorf("failed to start Chrome Docker container: %w", err)
	}

	client := &http.Client{Timeout: 2 * time.Second}
	url := fmt.Sprintf("http://localhost:%d/json/version", port)
	var lastErr error
	for i := 0; i < 120; i++ {
		resp, err := client.Get(url)
		if err == nil {
			resp.Body.Close()
			return nil
		}
		lastErr = err
		time.Sleep(500 * time.Millisecond)
	}
	_, _ = exec.Command("docker", "rm", "-f", name).CombinedOutput()
	return fmt.Errorf("Chrome failed to start within 60 seconds: %w", lastErr)
}

// chromeURL rewrites an httptest URL so the container can reach it.
func chromeURL(u string) string {
	host := "localhost"
	if runtime.GOOS != "linux" {
		host = "host.docker.internal"
	}
	u = strings.Replace(u, "127.0.0.1", host, 1)
	return strings.Replace(u, "[::1]", host, 1)
}
