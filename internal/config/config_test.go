package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(body), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 6 {
		t.Fatalf("PageSize = %d, want 6", cfg.PageSize)
	}
	if cfg.Source != "stories.json" {
		t.Fatalf("Source = %q, want stories.json", cfg.Source)
	}
	if cfg.Pagination != PaginationFixed {
		t.Fatalf("Pagination = %q, want %q", cfg.Pagination, PaginationFixed)
	}
	if !cfg.Collaborators.HasSearchBox() || !cfg.Collaborators.HasPager() {
		t.Fatalf("collaborators should default to present")
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"page_size": 5, "source": "news.json", "pagination": "Escalating"}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5", cfg.PageSize)
	}
	if cfg.Source != "news.json" {
		t.Errorf("Source = %q, want news.json", cfg.Source)
	}
	if cfg.Pagination != PaginationEscalating {
		t.Errorf("Pagination = %q, want %q", cfg.Pagination, PaginationEscalating)
	}
	if cfg.WordsPerMinute != 200 {
		t.Errorf("WordsPerMinute = %d, want 200 (default)", cfg.WordsPerMinute)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{not json}`)

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_CollaboratorsAbsent(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"collaborators": {"search_box": false, "pager": false}}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Collaborators.HasSearchBox() {
		t.Errorf("HasSearchBox() = true, want false")
	}
	if cfg.Collaborators.HasPager() {
		t.Errorf("HasPager() = true, want false")
	}
	if !cfg.Collaborators.HasTagChips() {
		t.Errorf("HasTagChips() = false, want true (unset)")
	}
}

func TestLoad_EscalatingSteps(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"escalating_steps": [5, 0, 15, -1]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.EscalatingSteps) != 2 || cfg.EscalatingSteps[0] != 5 || cfg.EscalatingSteps[1] != 15 {
		t.Errorf("EscalatingSteps = %v, want [5 15]", cfg.EscalatingSteps)
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	writeConfig(t, tmpDir, `{"disabled_tools": ["story_like", "newsletter_subscribe"]}`)

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "story_like" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "story_like")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	siteRoot := t.TempDir()

	writeConfig(t, globalDir, `{"page_size": 10, "disabled_tools": ["story_like"]}`)
	writeConfig(t, filepath.Join(siteRoot, ".storydesk"), `{"page_size": 5, "disabled_tools": ["prefs_theme"]}`)

	cfg, err := LoadWithRepo(globalDir, siteRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.PageSize != 5 {
		t.Errorf("PageSize = %d, want 5 (site override)", cfg.PageSize)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.PageSize != 6 {
		t.Errorf("PageSize = %d, want 6", cfg.PageSize)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	siteRoot := t.TempDir()
	writeConfig(t, filepath.Join(siteRoot, ".storydesk"), `{"source": "blogs.json"}`)

	subdir := filepath.Join(siteRoot, "Nature", "drafts")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if cfg.Source != "blogs.json" {
		t.Errorf("Source = %q, want blogs.json", cfg.Source)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{PageSize: 10, DBMaxOpenConns: 5}
	overlay := &Config{PageSize: 6}

	result := Merge(base, overlay)

	if result.PageSize != 6 {
		t.Errorf("PageSize = %d, want 6 (overlay)", result.PageSize)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
}

func TestMerge_CollaboratorOverride(t *testing.T) {
	no, yes := false, true
	base := &Config{Collaborators: Collaborators{TagChips: &no, Pager: &no}}
	overlay := &Config{Collaborators: Collaborators{Pager: &yes}}

	result := Merge(base, overlay)

	if result.Collaborators.HasTagChips() {
		t.Errorf("HasTagChips() = true, want false (base)")
	}
	if !result.Collaborators.HasPager() {
		t.Errorf("HasPager() = false, want true (overlay)")
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTypes: []string{"prefs", "newsletter"}}
	overlay := &Config{DisabledTypes: []string{" newsletter ", "story"}}

	result := Merge(base, overlay)

	if len(result.DisabledTypes) != 3 {
		t.Fatalf("DisabledTypes = %v, want 3 entries", result.DisabledTypes)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}
