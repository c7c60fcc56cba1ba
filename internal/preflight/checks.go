package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

const checkTimeout = 5 * time.Second

// CheckTMDB verifies TMDB connectivity and the API key with a single request
// to the configuration endpoint.
func CheckTMDB(ctx context.Context, baseURL, apiKey string) Result {
	const name = "TMDB"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key (set tmdb.api_key or TMDB_API_KEY)"}
	}

	endpoint := base + "/configuration?" + url.Values{"api_key": {strings.TrimSpace(apiKey)}}.Encode()
	status, err := probe(ctx, endpoint, nil)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	switch status {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	case http.StatusTooManyRequests:
		return Result{Name: name, Detail: "rate limited; try again shortly"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", status)}
	}
}

// CheckTVMaze verifies TVmaze connectivity. TVmaze needs no key but rejects
// requests without a user agent.
func CheckTVMaze(ctx context.Context, baseURL, userAgent string) Result {
	const name = "TVmaze"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	if strings.TrimSpace(userAgent) == "" {
		return Result{Name: name, Detail: "missing user agent"}
	}

	status, err := probe(ctx, base+"/shows/1", http.Header{"User-Agent": {strings.TrimSpace(userAgent)}})
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	switch status {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case http.StatusTooManyRequests:
		return Result{Name: name, Detail: "rate limited; try again shortly"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", status)}
	}
}

func probe(ctx context.Context, endpoint string, header http.Header) (int, error) {
	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}
	for key, values := range header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	client := &http.Client{Timeout: checkTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	return fmt.Sprintf("unreachable (%v)", err)
}
