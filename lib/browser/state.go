package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// Cookie is the serialized form of one authentication cookie. The file
// on disk is a JSON array of these.
type Cookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expires"`
	HTTPOnly bool    `json:"http_only"`
	Secure   bool    `json:"secure"`
	SameSite string  `json:"same_site"`
}

// SnapshotState overwrites the state file with the browser's current
// cookies. Only call this after a confirmed login; the file must always
// hold the last known-good authenticated state.
func (s *Session) SnapshotState() error {
	if s.cfg.StatePath == "" {
		return nil
	}

	var cookies []*network.Cookie
	err := s.run(shortOpTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return fmt.Errorf("failed to read cookies: %w", err)
	}

	snapshot := make([]Cookie, len(cookies))
	for i, c := range cookies {
		snapshot[i] = Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: c.SameSite.String(),
		}
	}
	return writeStateFile(s.cfg.StatePath, snapshot)
}

func (s *Session) restoreState() error {
	snapshot, err := readStateFile(s.cfg.StatePath)
	if err != nil {
		return err
	}

	params := make([]*network.CookieParam, len(snapshot))
	for i, c := range snapshot {
		p := &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		}
		if c.SameSite != "" {
			p.SameSite = network.CookieSameSite(c.SameSite)
		}
		if c.Expires > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
			p.Expires = &expires
		}
		params[i] = p
	}

	return s.run(shortOpTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies(params).Do(ctx)
	}))
}

func writeStateFile(path string, cookies []Cookie) error {
	blob, err := json.MarshalIndent(cookies, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0600)
}

func readStateFile(path string) ([]Cookie, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cookies []Cookie
	if err := json.Unmarshal(blob, &cookies); err != nil {
		return nil, fmt.Errorf("corrupt session state: %w", err)
	}
	return cookies, nil
}
