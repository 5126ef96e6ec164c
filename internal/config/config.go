package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	// DefaultSessionEnvVar supplies a session id override.
	DefaultSessionEnvVar = "CLAUDE_SESSION_ID"
	// DefaultUnattendedFlag skips the assistant's permission
	// prompts so a resumed session can run unattended.
	DefaultUnattendedFlag = "--dangerously-skip-permissions"
)

// Config holds all application configuration.
type Config struct {
	ClaudeProjectDir string `json:"claude_project_dir"`
	CodexSessionsDir string `json:"codex_sessions_dir"`
	DataDir          string `json:"data_dir"`

	// AssistantCommand is the assistant executable plus any
	// fixed arguments, split with shell quoting rules.
	AssistantCommand string `json:"assistant_command"`
	UnattendedFlag   string `json:"unattended_flag"`
	SessionEnvVar    string `json:"session_env_var"`

	// SearchLines bounds text search to the first N lines of
	// each log; PreviewLines bounds first-message extraction.
	SearchLines       int `json:"search_lines"`
	PreviewLines      int `json:"preview_lines"`
	SearchPreviewLen  int `json:"search_preview_len"`
	ListingPreviewLen int `json:"listing_preview_len"`

	// Multi-directory support (from config.json).
	// When set, these take precedence over the single-dir
	// fields above. Env vars override these with a
	// single-element slice.
	ClaudeProjectDirs []string `json:"claude_project_dirs,omitempty"`
	CodexSessionsDirs []string `json:"codex_sessions_dirs,omitempty"`

	// envSet records the config-file keys an env var already
	// set, so loadFile leaves them alone.
	envSet map[string]bool
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	return Config{
		ClaudeProjectDir:  filepath.Join(home, ".claude", "projects"),
		CodexSessionsDir:  filepath.Join(home, ".codex", "sessions"),
		DataDir:           filepath.Join(home, ".agentresume"),
		AssistantCommand:  "claude",
		UnattendedFlag:    DefaultUnattendedFlag,
		SessionEnvVar:     DefaultSessionEnvVar,
		SearchLines:       20,
		PreviewLines:      10,
		SearchPreviewLen:  200,
		ListingPreviewLen: 100,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env.
// Flags are applied by each command on top of the result.
func Load() (Config, error) {
	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	cfg.loadEnv()

	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		ClaudeProjectDirs []string `json:"claude_project_dirs"`
		CodexSessionsDirs []string `json:"codex_sessions_dirs"`
		AssistantCommand  string   `json:"assistant_command"`
		UnattendedFlag    *string  `json:"unattended_flag"`
		SessionEnvVar     string   `json:"session_env_var"`
		SearchLines       int      `json:"search_lines"`
		PreviewLines      int      `json:"preview_lines"`
		SearchPreviewLen  int      `json:"search_preview_len"`
		ListingPreviewLen int      `json:"listing_preview_len"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	// Only apply config-file values when not already set by
	// env var. loadEnv runs before loadFile, so a non-nil
	// slice here means the env var won.
	if len(file.ClaudeProjectDirs) > 0 && c.ClaudeProjectDirs == nil {
		c.ClaudeProjectDirs = file.ClaudeProjectDirs
	}
	if len(file.CodexSessionsDirs) > 0 && c.CodexSessionsDirs == nil {
		c.CodexSessionsDirs = file.CodexSessionsDirs
	}
	if file.AssistantCommand != "" && !c.envSet["assistant_command"] {
		c.AssistantCommand = file.AssistantCommand
	}
	// An explicit empty string disables the unattended flag.
	if file.UnattendedFlag != nil {
		c.UnattendedFlag = *file.UnattendedFlag
	}
	if file.SessionEnvVar != "" && !c.envSet["session_env_var"] {
		c.SessionEnvVar = file.SessionEnvVar
	}
	if file.SearchLines > 0 && !c.envSet["search_lines"] {
		c.SearchLines = file.SearchLines
	}
	if file.PreviewLines > 0 {
		c.PreviewLines = file.PreviewLines
	}
	if file.SearchPreviewLen > 0 {
		c.SearchPreviewLen = file.SearchPreviewLen
	}
	if file.ListingPreviewLen > 0 {
		c.ListingPreviewLen = file.ListingPreviewLen
	}
	return nil
}

func (c *Config) loadEnv() {
	c.envSet = make(map[string]bool)
	if v := os.Getenv("CLAUDE_PROJECTS_DIR"); v != "" {
		c.ClaudeProjectDir = v
		c.ClaudeProjectDirs = []string{v}
	}
	if v := os.Getenv("CODEX_SESSIONS_DIR"); v != "" {
		c.CodexSessionsDir = v
		c.CodexSessionsDirs = []string{v}
	}
	if v := os.Getenv("AGENTRESUME_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("AGENTRESUME_ASSISTANT"); v != "" {
		c.AssistantCommand = v
		c.envSet["assistant_command"] = true
	}
	if v := os.Getenv("AGENTRESUME_SESSION_ENV"); v != "" {
		c.SessionEnvVar = v
		c.envSet["session_env_var"] = true
	}
	if v := os.Getenv("AGENTRESUME_SEARCH_LINES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.SearchLines = n
			c.envSet["search_lines"] = true
		}
	}
}

// ResolveClaudeDirs returns the effective list of Claude
// project directories. Precedence: env var (single) >
// config file array > default (single).
func (c *Config) ResolveClaudeDirs() []string {
	return c.resolveDirs(c.ClaudeProjectDirs, c.ClaudeProjectDir)
}

// ResolveCodexDirs returns the effective list of rollout
// session roots, with the same precedence as ResolveClaudeDirs.
func (c *Config) ResolveCodexDirs() []string {
	return c.resolveDirs(c.CodexSessionsDirs, c.CodexSessionsDir)
}

func (c *Config) resolveDirs(multi []string, single string) []string {
	if len(multi) > 0 {
		return multi
	}
	if single != "" {
		return []string{single}
	}
	return nil
}
