// Package sitemap provides a plugin that writes sitemap.xml once the site is
// generated and advertises it in robots.txt. Register it with a blank import:
//
//	_ "github.com/ferro-labs/pressplug/internal/plugins/sitemap"
package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ferro-labs/pressplug/internal/logging"
	"github.com/ferro-labs/pressplug/plugin"
)

// ID is the catalog identifier of the plugin.
const ID = "@press/plugin-sitemap"

func init() {
	plugin.MustRegister(ID, plugin.Factory(New))
}

// Sitemap renders the sitemap of a generated site.
type Sitemap struct {
	hostname   string
	base       string
	outDir     string
	changefreq string
	exclude    map[string]struct{}
}

// New is the plugin factory. A missing hostname is a configuration error.
func New(options any, ctx *plugin.Context) (*plugin.Descriptor, error) {
	s := &Sitemap{
		base:   ctx.GetString(plugin.KeyBase),
		outDir: ctx.GetString(plugin.KeyOutDir),
	}
	config, _ := options.(map[string]interface{})
	if err := s.Init(config); err != nil {
		return nil, err
	}
	return &plugin.Descriptor{
		Name:      "sitemap",
		Generated: s.Generated,
		OutFiles: map[string]any{
			"robots.txt": "Sitemap: " + s.url("sitemap.xml") + "\n",
		},
	}, nil
}

// Init configures the plugin from the provided options map.
func (s *Sitemap) Init(config map[string]interface{}) error {
	hostname, _ := config["hostname"].(string)
	if hostname == "" {
		return fmt.Errorf("sitemap: hostname option is required")
	}
	s.hostname = strings.TrimRight(hostname, "/")
	if s.base == "" {
		s.base = "/"
	}

	s.changefreq = "daily"
	if v, ok := config["changefreq"].(string); ok && v != "" {
		s.changefreq = v
	}

	s.exclude = make(map[string]struct{})
	switch list := config["exclude"].(type) {
	case []interface{}:
		for _, p := range list {
			if str, ok := p.(string); ok {
				s.exclude[str] = struct{}{}
			}
		}
	case []string:
		for _, p := range list {
			s.exclude[p] = struct{}{}
		}
	}
	return nil
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
}

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

// Render returns the sitemap document for pagePaths, sorted and without
// excluded paths.
func (s *Sitemap) Render(pagePaths []string) ([]byte, error) {
	paths := make([]string, 0, len(pagePaths))
	for _, p := range pagePaths {
		if _, skip := s.exclude[p]; skip {
			continue
		}
		paths = append(paths, p)
	}
	sort.Strings(paths)

	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, p := range paths {
		set.URLs = append(set.URLs, urlEntry{Loc: s.url(p), ChangeFreq: s.changefreq})
	}
	body, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("sitemap: encode: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// Generated is the generated-hook callback: it writes sitemap.xml into the
// output directory.
func (s *Sitemap) Generated(ctx context.Context, pagePaths []string) error {
	doc, err := s.Render(pagePaths)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.outDir, 0o755); err != nil { //nolint:gosec
		return fmt.Errorf("sitemap: create %s: %w", s.outDir, err)
	}
	target := filepath.Join(s.outDir, "sitemap.xml")
	if err := os.WriteFile(target, doc, 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("sitemap: write %s: %w", target, err)
	}
	logging.FromContext(ctx).Info("sitemap written", "path", target, "pages", len(pagePaths))
	return nil
}

// url joins p onto the hostname and base, keeping a trailing slash.
func (s *Sitemap) url(p string) string {
	joined := path.Join(s.base, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(joined, "/") {
		joined += "/"
	}
	return s.hostname + joined
}
