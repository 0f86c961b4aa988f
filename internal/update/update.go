// Package update compares the installed build against a published version
// descriptor.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"hotelcare/internal/prefs"
)

// SkipWindow is how long a skipped version stays silent.
const SkipWindow = 24 * time.Hour

// Preference keys used to remember a skipped version.
const (
	KeySkippedVersion = "update.skippedVersion"
	KeySkippedAt      = "update.skippedAt"
)

// ErrInvalidDescriptor is returned for descriptors missing a version code or name.
var ErrInvalidDescriptor = errors.New("update: invalid version descriptor")

// Descriptor describes one published build.
type Descriptor struct {
	VersionCode int      `json:"versionCode"`
	Version     string   `json:"version"`
	Notes       []string `json:"notes,omitempty"`
	URL         string   `json:"url,omitempty"`
}

// UnmarshalJSON also accepts the versionName and apkUrl keys, and a single
// string for notes.
func (d *Descriptor) UnmarshalJSON(data []byte) error {
	var raw struct {
		VersionCode json.Number     `json:"versionCode"`
		Version     string          `json:"version"`
		VersionName string          `json:"versionName"`
		Notes       json.RawMessage `json:"notes"`
		URL         string          `json:"url"`
		APKURL      string          `json:"apkUrl"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	code, err := strconv.Atoi(raw.VersionCode.String())
	if err != nil {
		return fmt.Errorf("%w: versionCode %q", ErrInvalidDescriptor, raw.VersionCode)
	}
	out := Descriptor{VersionCode: code, Version: raw.Version, URL: raw.URL}
	if out.Version == "" {
		out.Version = raw.VersionName
	}
	if out.URL == "" {
		out.URL = raw.APKURL
	}
	if len(raw.Notes) > 0 && string(raw.Notes) != "null" {
		if err := json.Unmarshal(raw.Notes, &out.Notes); err != nil {
			var one string
			if json.Unmarshal(raw.Notes, &one) != nil {
				return fmt.Errorf("%w: notes", ErrInvalidDescriptor)
			}
			out.Notes = []string{one}
		}
	}
	*d = out
	return nil
}

// Validate reports whether d carries a version code and a version name.
func (d Descriptor) Validate() error {
	if d.VersionCode <= 0 || d.Version == "" {
		return ErrInvalidDescriptor
	}
	return nil
}

// ParseDescriptor decodes and validates a descriptor.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		if errors.Is(err, ErrInvalidDescriptor) {
			return Descriptor{}, err
		}
		return Descriptor{}, fmt.Errorf("%w: %v", ErrInvalidDescriptor, err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// LoadFile reads a descriptor from disk.
func LoadFile(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, err
	}
	return ParseDescriptor(data)
}

// Checker looks for a newer build. Local is consulted when LocalPath is empty.
type Checker struct {
	RemoteURL string
	LocalPath string
	Local     Descriptor
	Client    *http.Client
	Prefs     prefs.Store
	Now       func() time.Time
}

func (c *Checker) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Checker) client() *http.Client {
	if c.Client != nil {
		return c.Client
	}
	return http.DefaultClient
}

// Check returns the remote descriptor when it is newer than the installed
// build and was not skipped within SkipWindow. It returns nil otherwise.
func (c *Checker) Check(ctx context.Context) (*Descriptor, error) {
	local := c.Local
	if c.LocalPath != "" {
		var err error
		if local, err = LoadFile(c.LocalPath); err != nil {
			return nil, fmt.Errorf("load local descriptor: %w", err)
		}
	}
	remote, err := c.fetch(ctx)
	if err != nil {
		return nil, err
	}
	if remote.VersionCode <= local.VersionCode {
		return nil, nil
	}
	skipped, err := c.skipped(ctx, remote.Version)
	if err != nil {
		return nil, err
	}
	if skipped {
		return nil, nil
	}
	return &remote, nil
}

func (c *Checker) fetch(ctx context.Context) (Descriptor, error) {
	u, err := url.Parse(c.RemoteURL)
	if err != nil || c.RemoteURL == "" {
		return Descriptor{}, fmt.Errorf("update: invalid remote url %q", c.RemoteURL)
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(c.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Descriptor{}, err
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := c.client().Do(req)
	if err != nil {
		return Descriptor{}, fmt.Errorf("fetch descriptor: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Descriptor{}, fmt.Errorf("fetch descriptor: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Descriptor{}, fmt.Errorf("read descriptor: %w", err)
	}
	return ParseDescriptor(body)
}

func (c *Checker) skipped(ctx context.Context, version string) (bool, error) {
	if c.Prefs == nil {
		return false, nil
	}
	v, ok, err := c.Prefs.Get(ctx, KeySkippedVersion)
	if err != nil || !ok || v != version {
		return false, err
	}
	at, ok, err := c.Prefs.Get(ctx, KeySkippedAt)
	if err != nil || !ok {
		return false, err
	}
	ms, err := strconv.ParseInt(at, 10, 64)
	if err != nil {
		return false, nil
	}
	return c.now().Sub(time.UnixMilli(ms)) < SkipWindow, nil
}

// Skip silences version for SkipWindow.
func (c *Checker) Skip(ctx context.Context, version string) error {
	if c.Prefs == nil {
		return errors.New("update: no preference store")
	}
	if err := c.Prefs.Set(ctx, KeySkippedVersion, version); err != nil {
		return err
	}
	return c.Prefs.Set(ctx, KeySkippedAt, strconv.FormatInt(c.now().UnixMilli(), 10))
}
