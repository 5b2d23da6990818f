package sitemap

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ferro-labs/pressplug/plugin"
)

func TestSitemap_InitRequiresHostname(t *testing.T) {
	s := &Sitemap{}
	if err := s.Init(map[string]interface{}{}); err == nil {
		t.Fatal("expected error without hostname")
	}
}

func TestSitemap_Init(t *testing.T) {
	s := &Sitemap{}
	err := s.Init(map[string]interface{}{
		"hostname":   "https://docs.example.com/",
		"changefreq": "weekly",
		"exclude":    []interface{}{"/404.html", 7},
	})
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if s.hostname != "https://docs.example.com" {
		t.Errorf("hostname %q", s.hostname)
	}
	if s.changefreq != "weekly" {
		t.Errorf("changefreq %q", s.changefreq)
	}
	if _, ok := s.exclude["/404.html"]; !ok || len(s.exclude) != 1 {
		t.Errorf("exclude %v", s.exclude)
	}
}

func TestSitemap_Render(t *testing.T) {
	s := &Sitemap{base: "/docs/"}
	if err := s.Init(map[string]interface{}{
		"hostname": "https://example.com",
		"exclude":  []string{"/404.html"},
	}); err != nil {
		t.Fatal(err)
	}

	doc, err := s.Render([]string{"/guide/", "/404.html", "/"})
	if err != nil {
		t.Fatal(err)
	}
	out := string(doc)
	if !strings.HasPrefix(out, "<?xml") {
		t.Error("missing XML header")
	}
	if strings.Contains(out, "404") {
		t.Error("excluded path rendered")
	}
	first := strings.Index(out, "<loc>https://example.com/docs/</loc>")
	second := strings.Index(out, "<loc>https://example.com/docs/guide/</loc>")
	if first < 0 || second < 0 || first > second {
		t.Errorf("unexpected document:\n%s", out)
	}
}

func TestSitemap_RegistrationAndGeneratedHook(t *testing.T) {
	outDir := t.TempDir()
	r := plugin.NewRegistry(plugin.WithContext(plugin.NewContext(map[string]any{
		plugin.KeyOutDir: outDir,
		plugin.KeyBase:   "/",
	})))

	_, err := r.UseByConfigs([]any{[]any{"sitemap", map[string]interface{}{"hostname": "https://example.com"}}})
	if err != nil {
		t.Fatal(err)
	}

	files := r.Values()[plugin.OptionOutFiles].(map[string]any)
	if files["robots.txt"] != "Sitemap: https://example.com/sitemap.xml\n" {
		t.Errorf("robots.txt = %q", files["robots.txt"])
	}

	if err := r.Hook(plugin.HookGenerated).Invoke(context.Background(), []string{"/", "/about/"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(outDir, "sitemap.xml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "https://example.com/about/") {
		t.Errorf("unexpected sitemap:\n%s", data)
	}
}

func TestSitemap_GeneratedCreatesOutDir(t *testing.T) {
	outDir := filepath.Join(t.TempDir(), ".press", "dist")
	r := plugin.NewRegistry(plugin.WithContext(plugin.NewContext(map[string]any{
		plugin.KeyOutDir: outDir,
	})))
	if _, err := r.UseByConfigs([]any{[]any{"sitemap", map[string]interface{}{"hostname": "https://example.com"}}}); err != nil {
		t.Fatal(err)
	}

	if err := r.Hook(plugin.HookGenerated).Invoke(context.Background(), []string{"/"}); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sitemap.xml")); err != nil {
		t.Fatalf("sitemap.xml not written: %v", err)
	}
}

func TestSitemap_MissingHostnameAbortsRegistration(t *testing.T) {
	r := plugin.NewRegistry()
	_, err := r.UseByConfigs([]any{"sitemap"})
	var regErr *plugin.RegistrationError
	if !errors.As(err, &regErr) {
		t.Fatalf("got %v, want *plugin.RegistrationError", err)
	}
	if regErr.Plugin != "sitemap" {
		t.Errorf("got plugin %q", regErr.Plugin)
	}
}
