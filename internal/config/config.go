package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Pagination policies.
const (
	PaginationFixed      = "fixed"
	PaginationEscalating = "escalating"
)

// Config holds application configuration.
type Config struct {
	// Source is the data source location: a URL or a path relative to the
	// working directory.
	Source string `json:"source,omitempty"`

	// PageSize is the initial page and the increment for the fixed policy.
	PageSize int `json:"page_size,omitempty"`

	// Pagination selects the increment policy: "fixed" or "escalating".
	Pagination string `json:"pagination,omitempty"`

	// EscalatingSteps are the successive increments for the escalating policy.
	// The first step is the initial page; the last one repeats.
	EscalatingSteps []int `json:"escalating_steps,omitempty"`

	RecentCount    int `json:"recent_count,omitempty"`
	RelatedLimit   int `json:"related_limit,omitempty"`
	WordsPerMinute int `json:"words_per_minute,omitempty"`

	// Collaborators describes which optional page controls are present.
	Collaborators Collaborators `json:"collaborators,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type names to disable entirely.
	// Known types: "stories", "story", "prefs", "newsletter".
	DisabledTypes []string `json:"disabled_types,omitempty"`

	ServeBind string `json:"serve_bind,omitempty"`
	ServePort int    `json:"serve_port,omitempty"`
}

// Collaborators flags the optional filter inputs and controls of a page
// variant. A nil flag means "not configured" and reads as present.
type Collaborators struct {
	SearchBox     *bool `json:"search_box,omitempty"`
	TagChips      *bool `json:"tag_chips,omitempty"`
	CategoryLinks *bool `json:"category_links,omitempty"`
	Pager         *bool `json:"pager,omitempty"`
}

// HasSearchBox reports whether the page has a free-text search box.
func (c Collaborators) HasSearchBox() bool { return enabled(c.SearchBox) }

// HasTagChips reports whether the page has clickable tag chips.
func (c Collaborators) HasTagChips() bool { return enabled(c.TagChips) }

// HasCategoryLinks reports whether the page has category links.
func (c Collaborators) HasCategoryLinks() bool { return enabled(c.CategoryLinks) }

// HasPager reports whether the page has a "load more" control.
func (c Collaborators) HasPager() bool { return enabled(c.Pager) }

func enabled(b *bool) bool {
	return b == nil || *b
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Source:          "stories.json",
		PageSize:        6,
		Pagination:      PaginationFixed,
		EscalatingSteps: []int{10, 20, 30},
		RecentCount:     5,
		RelatedLimit:    3,
		WordsPerMinute:  200,
		LogLevel:        "info",
		ServeBind:       "127.0.0.1",
		ServePort:       8787,
	}
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.storydesk.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.storydesk) and site
// (.storydesk) directories. The site config is found by walking upward from
// startDir. Site config takes precedence for scalar values; string arrays are
// merged (deduplicated). Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .storydesk/config.json. Returns empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".storydesk", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; string arrays are merged and
// deduplicated. EscalatingSteps is replaced wholesale since order matters.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.Source = firstString(overlay.Source, base.Source)
	result.Pagination = firstString(strings.ToLower(overlay.Pagination), base.Pagination)
	result.LogLevel = firstString(strings.ToLower(overlay.LogLevel), base.LogLevel)
	result.ServeBind = firstString(overlay.ServeBind, base.ServeBind)

	result.PageSize = firstInt(overlay.PageSize, base.PageSize)
	result.RecentCount = firstInt(overlay.RecentCount, base.RecentCount)
	result.RelatedLimit = firstInt(overlay.RelatedLimit, base.RelatedLimit)
	result.WordsPerMinute = firstInt(overlay.WordsPerMinute, base.WordsPerMinute)
	result.ServePort = firstInt(overlay.ServePort, base.ServePort)
	result.DBMaxOpenConns = firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	result.EscalatingSteps = base.EscalatingSteps
	if steps := positiveInts(overlay.EscalatingSteps); len(steps) > 0 {
		result.EscalatingSteps = steps
	}

	result.Collaborators = Collaborators{
		SearchBox:     firstBool(overlay.Collaborators.SearchBox, base.Collaborators.SearchBox),
		TagChips:      firstBool(overlay.Collaborators.TagChips, base.Collaborators.TagChips),
		CategoryLinks: firstBool(overlay.Collaborators.CategoryLinks, base.Collaborators.CategoryLinks),
		Pager:         firstBool(overlay.Collaborators.Pager, base.Collaborators.Pager),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if s := strings.TrimSpace(overlay); s != "" {
		return s
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay > 0 {
		return overlay
	}
	return base
}

func firstBool(overlay, base *bool) *bool {
	if overlay != nil {
		return overlay
	}
	return base
}

func positiveInts(in []int) []int {
	out := make([]int, 0, len(in))
	for _, n := range in {
		if n > 0 {
			out = append(out, n)
		}
	}
	return out
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
