// Package config loads settings from an optional TOML or YAML file and
// DAILYMEMO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultJournalFolder    = "Daily Journal"
	DefaultDateFormat       = "DD.MM.YYYY"
	DefaultRecordingsFolder = "recordings"
	DefaultTokenBudget      = 200
	DefaultConcurrency      = 3
	DefaultGenerator        = "openai"
	DefaultMaxUploadBytes   = 25 * 1024 * 1024

	maxConcurrency = 16
	envPrefix      = "DAILYMEMO_"
)

type Settings struct {
	VaultDir        string `toml:"vault_dir" yaml:"vault_dir"`
	OpenAIAPIKey    string `toml:"openai_api_key" yaml:"openai_api_key"`
	AnthropicAPIKey string `toml:"anthropic_api_key" yaml:"anthropic_api_key"`
	// UseTestTranscript replaces every backend call with a fixed transcript.
	UseTestTranscript bool `toml:"use_test_transcript" yaml:"use_test_transcript"`

	Journal       JournalConfig       `toml:"journal" yaml:"journal"`
	Transcription TranscriptionConfig `toml:"transcription" yaml:"transcription"`
	Generation    GenerationConfig    `toml:"generation" yaml:"generation"`
	Audio         AudioConfig         `toml:"audio" yaml:"audio"`
}

// JournalConfig holds vault-relative locations and the note naming pattern.
type JournalConfig struct {
	Folder           string `toml:"folder" yaml:"folder"`
	DateFormat       string `toml:"date_format" yaml:"date_format"` // moment-style, e.g. DD.MM.YYYY
	TemplatePath     string `toml:"template_path" yaml:"template_path"`
	RecordingsFolder string `toml:"recordings_folder" yaml:"recordings_folder"`
}

type TranscriptionConfig struct {
	BaseURL        string `toml:"base_url" yaml:"base_url"`
	Model          string `toml:"model" yaml:"model"`
	TokenBudget    int    `toml:"token_budget" yaml:"token_budget"`
	Concurrency    int    `toml:"concurrency" yaml:"concurrency"`
	ReferencesFile string `toml:"references_file" yaml:"references_file"`
}

type GenerationConfig struct {
	Backend string `toml:"backend" yaml:"backend"` // openai or anthropic
	BaseURL string `toml:"base_url" yaml:"base_url"`
	Model   string `toml:"model" yaml:"model"`
}

type AudioConfig struct {
	FFmpegPath     string `toml:"ffmpeg_path" yaml:"ffmpeg_path"`
	MaxUploadBytes int64  `toml:"max_upload_bytes" yaml:"max_upload_bytes"`
}

func Default() *Settings {
	return &Settings{
		VaultDir: ".",
		Journal: JournalConfig{
			Folder:           DefaultJournalFolder,
			DateFormat:       DefaultDateFormat,
			RecordingsFolder: DefaultRecordingsFolder,
		},
		Transcription: TranscriptionConfig{
			TokenBudget: DefaultTokenBudget,
			Concurrency: DefaultConcurrency,
		},
		Generation: GenerationConfig{Backend: DefaultGenerator},
		Audio: AudioConfig{
			FFmpegPath:     "ffmpeg",
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
	}
}

// Load builds Settings from defaults, the config file and the environment,
// in that order. An empty path falls back to the per-user config file,
// which may be absent. An explicit path must exist.
func Load(path string) (*Settings, error) {
	s := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := s.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := s.applyEnvOverrides(); err != nil {
		return nil, err
	}
	s.VaultDir = expandTilde(s.VaultDir)
	s.Transcription.ReferencesFile = expandTilde(s.Transcription.ReferencesFile)

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return s, nil
}

func (s *Settings) decodeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, s)
	case ".toml", "":
		_, err = toml.Decode(string(data), s)
	default:
		return fmt.Errorf("unsupported config file %s: use .toml or .yaml", path)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (s *Settings) applyEnvOverrides() error {
	strs := map[string]*string{
		"VAULT_DIR":         &s.VaultDir,
		"OPENAI_API_KEY":    &s.OpenAIAPIKey,
		"ANTHROPIC_API_KEY": &s.AnthropicAPIKey,
		"JOURNAL_FOLDER":    &s.Journal.Folder,
		"DATE_FORMAT":       &s.Journal.DateFormat,
		"TEMPLATE_PATH":     &s.Journal.TemplatePath,
		"RECORDINGS_FOLDER": &s.Journal.RecordingsFolder,
		"GENERATOR":         &s.Generation.Backend,
		"REFERENCES_FILE":   &s.Transcription.ReferencesFile,
		"FFMPEG_PATH":       &s.Audio.FFmpegPath,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"TOKEN_BUDGET": &s.Transcription.TokenBudget,
		"CONCURRENCY":  &s.Transcription.Concurrency,
	}
	for name, dst := range ints {
		if v := os.Getenv(envPrefix + name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %q is not a number", envPrefix, name, v)
			}
			*dst = n
		}
	}

	if v := os.Getenv(envPrefix + "USE_TEST_TRANSCRIPT"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sUSE_TEST_TRANSCRIPT: %q is not a boolean", envPrefix, v)
		}
		s.UseTestTranscript = b
	}
	return nil
}

// TranscriptionKey is the credential for the transcription backend.
func (s *Settings) TranscriptionKey() string {
	return s.OpenAIAPIKey
}

// GenerationKey is the credential for the selected generator.
func (s *Settings) GenerationKey() string {
	if strings.EqualFold(s.Generation.Backend, "anthropic") {
		return s.AnthropicAPIKey
	}
	return s.OpenAIAPIKey
}

// Validate checks every section. Missing API keys are not a config error;
// they surface as auth errors when a backend is needed.
func (s *Settings) Validate() error {
	if strings.TrimSpace(s.VaultDir) == "" {
		return fmt.Errorf("vault_dir cannot be empty")
	}
	if err := s.Journal.Validate(); err != nil {
		return fmt.Errorf("journal config: %w", err)
	}
	if err := s.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}
	if err := s.Generation.Validate(); err != nil {
		return fmt.Errorf("generation config: %w", err)
	}
	if err := s.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}
	return nil
}

func (j *JournalConfig) Validate() error {
	if strings.TrimSpace(j.Folder) == "" {
		return fmt.Errorf("folder cannot be empty")
	}
	if strings.TrimSpace(j.DateFormat) == "" {
		return fmt.Errorf("date_format cannot be empty")
	}
	if strings.ContainsAny(j.DateFormat, `/\`) {
		return fmt.Errorf("date_format %q must not contain path separators", j.DateFormat)
	}
	if strings.TrimSpace(j.RecordingsFolder) == "" {
		return fmt.Errorf("recordings_folder cannot be empty")
	}
	return nil
}

func (t *TranscriptionConfig) Validate() error {
	if t.TokenBudget < 1 {
		return fmt.Errorf("token_budget must be at least 1, got %d", t.TokenBudget)
	}
	if t.Concurrency < 1 || t.Concurrency > maxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", maxConcurrency, t.Concurrency)
	}
	return nil
}

func (g *GenerationConfig) Validate() error {
	switch strings.ToLower(g.Backend) {
	case "openai", "anthropic":
		return nil
	default:
		return fmt.Errorf("backend must be openai or anthropic, got %q", g.Backend)
	}
}

func (a *AudioConfig) Validate() error {
	if a.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}
	if a.MaxUploadBytes < 1024 {
		return fmt.Errorf("max_upload_bytes must be at least 1024, got %d", a.MaxUploadBytes)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/dailymemo/config.toml, or the same
// under ~/.config.
func DefaultPath() string {
	var dir string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dir = filepath.Join(xdg, "dailymemo")
	} else if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".config", "dailymemo")
	} else {
		return ""
	}
	return filepath.Join(dir, "config.toml")
}

func expandTilde(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
