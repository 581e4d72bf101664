// Package catalog loads the static list of projects and their default lock flags.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/portfolio-gate/internal/domain"
)

//go:embed projects.json
var embedded []byte

// Catalog is immutable after construction.
type Catalog struct {
	projects []domain.Project
	byID     map[string]int
}

func New(projects []domain.Project) (*Catalog, error) {
	c := &Catalog{projects: projects, byID: make(map[string]int, len(projects))}
	for i, p := range projects {
		if p.ID == "" {
			return nil, fmt.Errorf("project %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate project id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func Parse(r io.Reader) (*Catalog, error) {
	var projects []domain.Project
	if err := json.NewDecoder(r).Decode(&projects); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(projects)
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(bytes.NewReader(embedded))
	if err != nil {
		panic("embedded catalog: " + err.Error())
	}
	return c
}

// Downloader fetches an object by key. *s3infra.Store satisfies it.
type Downloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// Load resolves source, which is "embedded", a local file path or s3://bucket/key.
// openBucket is only called for s3 sources.
func Load(ctx context.Context, source string, openBucket func(bucket string) Downloader) (*Catalog, error) {
	switch {
	case source == "" || source == "embedded":
		return Default(), nil
	case strings.HasPrefix(source, "s3://"):
		bucket, key, ok := strings.Cut(strings.TrimPrefix(source, "s3://"), "/")
		if !ok || bucket == "" || key == "" {
			return nil, fmt.Errorf("catalog source %q must look like s3://bucket/key", source)
		}
		rc, err := openBucket(bucket).Download(ctx, key)
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return Parse(rc)
	default:
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		return Parse(f)
	}
}

// All returns the projects in catalog order.
func (c *Catalog) All() []domain.Project {
	out := make([]domain.Project, len(c.projects))
	copy(out, c.projects)
	return out
}

func (c *Catalog) Get(id string) (domain.Project, bool) {
	i, ok := c.byID[id]
	if !ok {
		return domain.Project{}, false
	}
	return c.projects[i], true
}
