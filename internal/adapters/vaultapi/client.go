// Package vaultapi provides a minimal Vault HTTP API client for baseline
// and alias fetching
package vaultapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"vaultaudit/internal/platform/config"
	perr "vaultaudit/internal/platform/errors"
	"vaultaudit/internal/platform/logger"
)

const (
	addrDefault    = "http://127.0.0.1:8200"
	defaultTimeout = 30 * time.Second
)

// Options configures the Client
type Options struct {
	Addr    string
	Token   string
	Timeout time.Duration

	// Insecure skips TLS certificate verification
	Insecure bool
}

// OptionsFromConfig builds Options from the standard VAULT_ env surface.
// VAULT_TOKEN wins over VAULT_TOKEN_FILE; a missing token surfaces later as
// an Unauthorized error from the server, not here.
func OptionsFromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("VAULT_")
	o := Options{
		Addr:     c.MayString("ADDR", addrDefault),
		Token:    c.MayString("TOKEN", ""),
		Timeout:  c.MayDuration("CLIENT_TIMEOUT", defaultTimeout),
		Insecure: c.MayBool("SKIP_VERIFY", false),
	}
	if o.Token == "" {
		if path := c.MayString("TOKEN_FILE", ""); path != "" {
			if b, err := os.ReadFile(path); err == nil {
				o.Token = strings.TrimSpace(string(b))
			} else {
				logger.Get().Warn().Err(err).Str("path", path).Msg("vaultapi: token file unreadable")
			}
		}
	}
	return o
}

// Client is a minimal Vault identity API client
type Client struct {
	http *http.Client
	opts Options
	log  logger.Logger
}

// NewClient creates a Client with sane defaults
func NewClient(o Options) *Client {
	if o.Addr == "" {
		o.Addr = addrDefault
	}
	o.Addr = strings.TrimRight(o.Addr, "/")
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	hc := &http.Client{Timeout: o.Timeout}
	if o.Insecure {
		hc.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
	return &Client{http: hc, opts: o, log: *logger.Named("vaultapi")}
}

// Addr returns the normalized Vault address
func (c *Client) Addr() string { return c.opts.Addr }

// Alias is one identity alias attached to an entity
type Alias struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MountAccessor string `json:"mount_accessor"`
	MountPath     string `json:"mount_path"`
	MountType     string `json:"mount_type"`
}

// Entity is one Vault identity entity with its aliases
type Entity struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Disabled bool    `json:"disabled"`
	Aliases  []Alias `json:"aliases"`
}

// AliasName returns the first alias name, or ""
func (e Entity) AliasName() string {
	if len(e.Aliases) > 0 {
		return e.Aliases[0].Name
	}
	return ""
}

type listWire struct {
	Keys    []string                   `json:"keys"`
	KeyInfo map[string]json.RawMessage `json:"key_info"`
}

type keyInfoWire struct {
	Name    string      `json:"name"`
	Aliases []aliasWire `json:"aliases"`
}

type aliasWire struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	MountAccessor string `json:"mount_accessor"`
	MountPath     string `json:"mount_path"`
	MountType     string `json:"mount_type"`
}

type entityWire struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Disabled bool        `json:"disabled"`
	Aliases  []aliasWire `json:"aliases"`
}

// ListEntities fetches every identity entity id with names and aliases.
// The list endpoint's key_info carries names for recent Vault versions;
// entities missing from key_info fall back to a per-entity read.
func (c *Client) ListEntities(ctx context.Context) ([]Entity, error) {
	var list listWire
	if err := c.getJSON(ctx, "/v1/identity/entity/id?list=true", &list); err != nil {
		return nil, err
	}
	sort.Strings(list.Keys)

	out := make([]Entity, 0, len(list.Keys))
	for i, id := range list.Keys {
		if raw, ok := list.KeyInfo[id]; ok {
			var ki keyInfoWire
			if err := json.Unmarshal(raw, &ki); err == nil && ki.Name != "" {
				out = append(out, Entity{ID: id, Name: ki.Name, Aliases: toAliases(ki.Aliases)})
				continue
			}
		}
		e, err := c.GetEntity(ctx, id)
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeNotFound) {
				// deleted between list and read
				continue
			}
			return nil, err
		}
		out = append(out, e)

		if n := i + 1; n%100 == 0 {
			c.log.Info().Int("fetched", n).Int("total", len(list.Keys)).Msg("entity detail progress")
		}
	}
	return out, nil
}

// GetEntity fetches one entity's details by id
func (c *Client) GetEntity(ctx context.Context, id string) (Entity, error) {
	var w entityWire
	if err := c.getJSON(ctx, "/v1/identity/entity/id/"+id, &w); err != nil {
		return Entity{}, err
	}
	return Entity{ID: w.ID, Name: w.Name, Disabled: w.Disabled, Aliases: toAliases(w.Aliases)}, nil
}

func toAliases(ws []aliasWire) []Alias {
	if len(ws) == 0 {
		return nil
	}
	out := make([]Alias, len(ws))
	for i, a := range ws {
		out[i] = Alias(a)
	}
	return out
}

// getJSON issues an authenticated GET and decodes the "data" envelope
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.Addr+path, nil)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnknown, "vaultapi new request")
	}
	req.Header.Set("X-Vault-Token", c.opts.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnavailable, "vaultapi GET %s", path)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return statusErr(resp.StatusCode, path, string(body))
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "vaultapi decode %s", path)
	}
	if len(envelope.Data) == 0 {
		return perr.Newf(perr.ErrorCodeNotFound, "vaultapi: no data in response from %s", path)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "vaultapi decode %s", path)
	}
	return nil
}

func statusErr(status int, path, body string) error {
	msg := fmt.Sprintf("vaultapi GET %s: status %d", path, status)
	if body != "" {
		msg += ": " + strings.TrimSpace(body)
	}
	switch {
	case status == http.StatusNotFound:
		return perr.New(perr.ErrorCodeNotFound, msg)
	case status == http.StatusForbidden || status == http.StatusUnauthorized:
		return perr.New(perr.ErrorCodeUnauthorized, msg)
	case status >= 500:
		return perr.New(perr.ErrorCodeUnavailable, msg)
	}
	return perr.New(perr.ErrorCodeUnknown, msg)
}
