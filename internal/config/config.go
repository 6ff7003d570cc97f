package config

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
	"github.com/mistweaverco/selfupdate/internal/lib/files"
	"github.com/spf13/viper"
)

const (
	envPrefix = "SELFUPDATE"

	// VersionPlaceholder marks where the version goes in pkg_filename_format.
	VersionPlaceholder = "_VERSION_"

	DefaultAPIURL = "https://api.github.com"

	TypeGitHub = "github"
	TypeHTTP   = "http"
	TypeWebDAV = "webdav"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// DefaultExcludeFolders are never overwritten by an update.
var DefaultExcludeFolders = []string{
	"node_modules",
	"bootstrap/cache",
	"bower",
	"storage/app",
	"storage/framework",
	"storage/logs",
	"storage/self-update",
	"vendor",
}

// RepositoryConfig describes one place releases can be fetched from.
type RepositoryConfig struct {
	Type               string `mapstructure:"type"`
	RepositoryVendor   string `mapstructure:"repository_vendor"`
	RepositoryName     string `mapstructure:"repository_name"`
	RepositoryURL      string `mapstructure:"repository_url"`
	APIURL             string `mapstructure:"api_url"`
	PkgFilenameFormat  string `mapstructure:"pkg_filename_format"`
	DownloadPath       string `mapstructure:"download_path"`
	PrivateAccessToken string `mapstructure:"private_access_token"`
	UseBranch          string `mapstructure:"use_branch"`
	User               string `mapstructure:"user"`
	Password           string `mapstructure:"password"`
}

// Commands are shell command lines run around an update.
type Commands struct {
	PreUpdate  []string `mapstructure:"pre_update"`
	PostUpdate []string `mapstructure:"post_update"`
}

type Config struct {
	Flags ConfigFlags `mapstructure:"-"`

	Default          string                      `mapstructure:"default"`
	VersionInstalled string                      `mapstructure:"version_installed"`
	InstallPath      string                      `mapstructure:"install_path"`
	ExcludeFolders   []string                    `mapstructure:"exclude_folders"`
	LogEvents        bool                        `mapstructure:"log_events"`
	StatePath        string                      `mapstructure:"state_path"`
	Commands         Commands                    `mapstructure:"commands"`
	RepositoryTypes  map[string]RepositoryConfig `mapstructure:"repository_types"`
}

func (c Config) GetConfigFlags() ConfigFlags {
	return c.Flags
}

func NewConfig(cfg Config) Config {
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("default", TypeGitHub)
	v.SetDefault("version_installed", "")
	v.SetDefault("install_path", ".")
	v.SetDefault("exclude_folders", DefaultExcludeFolders)
	v.SetDefault("log_events", false)
	v.SetDefault("state_path", "")
	v.SetDefault("commands.pre_update", []string{})
	v.SetDefault("commands.post_update", []string{})
}

func configDir() string {
	dir, err := files.FS().UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "selfupdate")
}

// Load reads the configuration from path, or from selfupdate.yaml in the
// user config directory or the working directory when path is empty.
// Environment variables prefixed with SELFUPDATE_ override file values.
// A missing default config file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetFs(files.FS().Fs())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("selfupdate")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir())
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills unset repository options.
func (c *Config) ApplyDefaults() {
	if c.InstallPath == "" {
		c.InstallPath = "."
	}
	if c.ExcludeFolders == nil {
		c.ExcludeFolders = append([]string(nil), DefaultExcludeFolders...)
	}
	for name, repo := range c.RepositoryTypes {
		if repo.Type == "" && isBuiltinType(name) {
			repo.Type = name
		}
		repo.Type = strings.ToLower(repo.Type)
		if repo.Type == TypeGitHub && repo.APIURL == "" {
			repo.APIURL = DefaultAPIURL
		}
		if repo.PkgFilenameFormat == "" {
			repo.PkgFilenameFormat = VersionPlaceholder
		}
		if repo.DownloadPath == "" {
			repo.DownloadPath = files.GetDefaultDownloadPath()
		}
		c.RepositoryTypes[name] = repo
	}
}

// isBuiltinType reports whether name is github, http or webdav.
// Sources named after a built-in type may leave the type out.
func isBuiltinType(name string) bool {
	switch strings.ToLower(name) {
	case TypeGitHub, TypeHTTP, TypeWebDAV:
		return true
	}
	return false
}

// Repository returns the configuration of the named source.
func (c *Config) Repository(name string) (RepositoryConfig, bool) {
	repo, ok := c.RepositoryTypes[strings.ToLower(name)]
	return repo, ok
}

// SourceNames returns the configured source names, sorted.
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.RepositoryTypes))
	for name := range c.RepositoryTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	result := &multierror.Error{ErrorFormat: func(errs []error) string {
		msgs := make([]string, len(errs))
		for i, err := range errs {
			msgs[i] = err.Error()
		}
		return strings.Join(msgs, "; ")
	}}

	if c.Default != "" {
		if _, ok := c.Repository(c.Default); !ok {
			result = multierror.Append(result, errors.Newf("default source %q is not configured", c.Default))
		}
	}

	for _, name := range c.SourceNames() {
		if err := c.RepositoryTypes[name].Validate(); err != nil {
			result = multierror.Append(result, errors.Wrapf(err, "source %q", name))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return errors.WithSecondaryError(errors.Wrapf(ErrInvalidConfig, "%s", err), err)
	}
	return nil
}

// Validate checks the options the built-in repository types need.
// Custom types are only required to name themselves.
func (r RepositoryConfig) Validate() error {
	if r.Type == "" {
		return errors.New("type is required")
	}
	if r.PkgFilenameFormat != "" && !strings.Contains(r.PkgFilenameFormat, VersionPlaceholder) {
		return errors.Newf("pkg_filename_format %q must contain %s", r.PkgFilenameFormat, VersionPlaceholder)
	}
	switch r.Type {
	case TypeGitHub:
		if r.RepositoryVendor == "" || r.RepositoryName == "" {
			return errors.New("repository_vendor and repository_name are required")
		}
	case TypeHTTP, TypeWebDAV:
		if r.RepositoryURL == "" {
			return errors.New("repository_url is required")
		}
	}
	return nil
}

// FilenameAffixes splits pkg_filename_format around the version placeholder.
func (r RepositoryConfig) FilenameAffixes() (prepend, appendix string) {
	format := r.PkgFilenameFormat
	if format == "" {
		format = VersionPlaceholder
	}
	before, after, found := strings.Cut(format, VersionPlaceholder)
	if !found {
		return "", ""
	}
	return before, after
}
