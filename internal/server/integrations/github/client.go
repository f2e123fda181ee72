// Package github is a small GitHub REST client covering what credential
// validation and schema discovery need.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/netx"
	"github.com/dmitrijs2005/xconnect/internal/server/models"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const maxPerPage = 100

// Client talks to the GitHub API with a caller-supplied token.
type Client struct {
	baseURL string
	http    *netx.Client
}

// NewClient returns a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL string, hc *netx.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) newRequest(ctx context.Context, cred *models.Credential, path string, q url.Values) (*http.Request, error) {
	target := c.baseURL + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build github request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	return req, nil
}

type repoDTO struct {
	FullName   string `json:"full_name"`
	Private    bool   `json:"private"`
	Visibility string `json:"visibility"`
}

// ListRepos returns up to limit repositories of the authenticated user,
// most recently updated first.
func (c *Client) ListRepos(ctx context.Context, cred *models.Credential, limit int) ([]models.Repo, error) {
	if limit <= 0 || limit > maxPerPage {
		limit = maxPerPage
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(limit))
	q.Set("sort", "updated")

	req, err := c.newRequest(ctx, cred, "/user/repos", q)
	if err != nil {
		return nil, err
	}
	var dtos []repoDTO
	if err := c.http.DoJSON(req, &dtos); err != nil {
		return nil, fmt.Errorf("github list repos: %w", err)
	}

	repos := make([]models.Repo, 0, len(dtos))
	for _, d := range dtos {
		vis := d.Visibility
		if vis == "" {
			vis = "public"
			if d.Private {
				vis = "private"
			}
		}
		repos = append(repos, models.Repo{FullName: d.FullName, Visibility: vis})
	}
	return repos, nil
}

// ValidFullName reports whether name has the owner/repo shape.
func ValidFullName(name string) bool {
	owner, repo, ok := strings.Cut(name, "/")
	return ok && owner != "" && repo != "" && !strings.ContainsAny(repo, "/?#") && !strings.ContainsAny(owner, "?#")
}

// GetRepoFields describes the top-level attributes of a repository in the
// order GitHub returns them. Types are inferred from the JSON values.
func (c *Client) GetRepoFields(ctx context.Context, cred *models.Credential, fullName string) ([]models.FieldDescriptor, error) {
	fullName = strings.TrimRight(strings.TrimSpace(fullName), "/")
	if !ValidFullName(fullName) {
		return nil, fmt.Errorf("%w: repository must be owner/repo", common.ErrorValidation)
	}
	owner, repo, _ := strings.Cut(fullName, "/")

	req, err := c.newRequest(ctx, cred, "/repos/"+url.PathEscape(owner)+"/"+url.PathEscape(repo), nil)
	if err != nil {
		return nil, err
	}
	var raw json.RawMessage
	if err := c.http.DoJSON(req, &raw); err != nil {
		return nil, fmt.Errorf("github get repo: %w", err)
	}
	fields, err := describeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: github repo payload: %v", common.ErrorInternal, err)
	}
	return fields, nil
}

// describeObject walks the top-level keys of a JSON object without losing
// their order.
func describeObject(raw []byte) ([]models.FieldDescriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object")
	}

	var fields []models.FieldDescriptor
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		typ, known := repoFieldTypes[name]
		if !known {
			typ = inferType(v)
		}
		fields = append(fields, models.FieldDescriptor{Name: name, DeclaredType: typ})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return fields, nil
}

// repoFieldTypes pins the type of documented repository keys so that a
// null value (no description, never pushed) does not degrade them to unknown.
var repoFieldTypes = map[string]models.FieldType{
	"id":                models.TypeNumber,
	"size":              models.TypeNumber,
	"stargazers_count":  models.TypeNumber,
	"watchers_count":    models.TypeNumber,
	"forks_count":       models.TypeNumber,
	"open_issues_count": models.TypeNumber,
	"name":              models.TypeString,
	"full_name":         models.TypeString,
	"description":       models.TypeString,
	"homepage":          models.TypeString,
	"language":          models.TypeString,
	"html_url":          models.TypeString,
	"default_branch":    models.TypeString,
	"visibility":        models.TypeString,
	"mirror_url":        models.TypeString,
	"private":           models.TypeBoolean,
	"fork":              models.TypeBoolean,
	"archived":          models.TypeBoolean,
	"disabled":          models.TypeBoolean,
	"created_at":        models.TypeDate,
	"updated_at":        models.TypeDate,
	"pushed_at":         models.TypeDate,
	"owner":             models.TypeReference,
	"license":           models.TypeReference,
	"organization":      models.TypeReference,
	"parent":            models.TypeReference,
	"source":            models.TypeReference,
}

func inferType(v json.RawMessage) models.FieldType {
	v = bytes.TrimSpace(v)
	if len(v) == 0 {
		return models.TypeUnknown
	}
	switch v[0] {
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			if _, err := time.Parse(time.RFC3339, s); err == nil {
				return models.TypeDate
			}
		}
		return models.TypeString
	case '{':
		return models.TypeReference
	case 't', 'f':
		return models.TypeBoolean
	case 'n':
		return models.TypeUnknown
	case '[':
		return models.TypeUnknown
	default:
		return models.TypeNumber
	}
}
