package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

// maxFetchBytes caps remote documents; feature tables are small.
const maxFetchBytes = 4 << 20

var ErrorURLNotFound = errors.New("URL not found")

// IsURL reports whether s is an http(s) URL rather than a local path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func getResp(ctx context.Context, url, token string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP Get request: %w", err)
	}
	req.Header.Set("User-Agent", clientAgent)

	resp, err := GetOAuthClient(ctx, token).Do(req) //nolint:gosec // URL is operator configured
	if err != nil {
		return nil, fmt.Errorf("error executing HTTP Get request: %w", err)
	}
	PrintHTTPResponse(resp)

	if resp.StatusCode == http.StatusNotFound {
		resp.Body.Close()
		return nil, ErrorURLNotFound
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("error downloading (status: %d - %s): %s", resp.StatusCode, resp.Status, url)
	}
	return resp, nil
}

// Fetch returns the body of url, up to maxFetchBytes. A non-empty token is
// sent as a bearer credential.
func Fetch(ctx context.Context, url, token string) ([]byte, error) {
	resp, err := getResp(ctx, url, token)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("error reading content: %w", err)
	}
	if len(b) > maxFetchBytes {
		return nil, fmt.Errorf("content of %s exceeds %d bytes", url, maxFetchBytes)
	}
	return b, nil
}

// Download saves the body of url to filepath.
func Download(ctx context.Context, url, token, filepath string) (retErr error) {
	resp, err := getResp(ctx, url, token)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(filepath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	if _, err = io.Copy(out, io.LimitReader(resp.Body, maxFetchBytes)); err != nil {
		return fmt.Errorf("error saving downloaded content to file: %w", err)
	}
	return nil
}
