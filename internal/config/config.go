// Package config provides Viper-based configuration management for texopt
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Processing modes.
const (
	ModeNormal  = "normal"
	ModeRegular = "regular"
)

// DefaultBlacklist lists path fragments excluded from discovery. Mostly UI
// textures that are displayed at 1:1 scale and must not be touched.
var DefaultBlacklist = []string{
	"icon", "icons", "bookart",
	"menu_", "tx_menu_",
	"cursor", "compass", "target",
	"hud", "splash", "logo", "font", "loading",
}

// DefaultNoMipmapPaths lists folder names and filename patterns whose
// textures are processed without mipmap generation.
var DefaultNoMipmapPaths = []string{
	"birthsigns", "levelup", "splash",
	"scroll.*", "tx_scroll.*",
}

// Settings represents the complete texopt configuration
type Settings struct {
	Mode     string         `mapstructure:"mode"`
	Encoder  EncoderConfig  `mapstructure:"encoder"`
	Resize   ResizeConfig   `mapstructure:"resize"`
	Atlas    AtlasConfig    `mapstructure:"atlas"`
	Normal   NormalConfig   `mapstructure:"normal"`
	Regular  RegularConfig  `mapstructure:"regular"`
	Filter   FilterConfig   `mapstructure:"filter"`
	Parallel ParallelConfig `mapstructure:"parallel"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// EncoderConfig locates and constrains the external encoder binary
type EncoderConfig struct {
	Binary         string `mapstructure:"binary"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ResizeConfig contains dimension planning settings shared by both modes
type ResizeConfig struct {
	ScaleFactor          float64 `mapstructure:"scale_factor"`
	MaxResolution        int     `mapstructure:"max_resolution"`
	MinResolution        int     `mapstructure:"min_resolution"`
	Method               string  `mapstructure:"method"`
	EnforcePowerOfTwo    bool    `mapstructure:"enforce_power_of_two"`
	SmallTextureOverride bool    `mapstructure:"small_texture_override"`
}

// AtlasConfig controls texture-atlas protection
type AtlasConfig struct {
	EnableDownscaling bool `mapstructure:"enable_downscaling"`
	MaxResolution     int  `mapstructure:"max_resolution"`
}

// NormalConfig contains normal-map (_n/_nh) mode settings
type NormalConfig struct {
	NFormat            string `mapstructure:"n_format"`
	NHFormat           string `mapstructure:"nh_format"`
	InvertY            bool   `mapstructure:"invert_y"`
	ReconstructZ       bool   `mapstructure:"reconstruct_z"`
	SmallNThreshold    int    `mapstructure:"small_n_threshold"`
	SmallNHThreshold   int    `mapstructure:"small_nh_threshold"`
	PreserveCompressed bool   `mapstructure:"preserve_compressed"`
	AutoFixMislabel    bool   `mapstructure:"auto_fix_mislabel"`
	OptimizeAlpha      bool   `mapstructure:"optimize_alpha"`
	AllowPassthrough   bool   `mapstructure:"allow_passthrough"`
	CopyPassthrough    bool   `mapstructure:"copy_passthrough"`
	UniformWeighting   bool   `mapstructure:"uniform_weighting"`
	Dithering          bool   `mapstructure:"dithering"`
}

// RegularConfig contains diffuse-texture mode settings
type RegularConfig struct {
	SmallThreshold     int      `mapstructure:"small_threshold"`
	AllowPassthrough   bool     `mapstructure:"allow_passthrough"`
	PreserveCompressed bool     `mapstructure:"preserve_compressed"`
	CopyPassthrough    bool     `mapstructure:"copy_passthrough"`
	OptimizeAlpha      bool     `mapstructure:"optimize_alpha"`
	AlphaThreshold     int      `mapstructure:"alpha_threshold"`
	NoMipmapPaths      []string `mapstructure:"no_mipmap_paths"`
	UniformWeighting   bool     `mapstructure:"uniform_weighting"`
	Dithering          bool     `mapstructure:"dithering"`
}

// FilterConfig contains file discovery filtering settings
type FilterConfig struct {
	Whitelist         []string `mapstructure:"whitelist"`
	Blacklist         []string `mapstructure:"blacklist"`
	CustomBlacklist   []string `mapstructure:"custom_blacklist"`
	ExcludeNormalMaps bool     `mapstructure:"exclude_normal_maps"`
	TGASupport        bool     `mapstructure:"tga_support"`
}

// ParallelConfig contains worker pool settings
type ParallelConfig struct {
	Enabled          bool `mapstructure:"enabled"`
	Jobs             int  `mapstructure:"jobs"`
	AnalyzeThreshold int  `mapstructure:"analyze_threshold"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig contains output formatting settings
type OutputConfig struct {
	Colors   bool `mapstructure:"colors"`
	Progress bool `mapstructure:"progress"`
}

// Load reads configuration from file and environment variables
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName(".texopt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/texopt")
	}

	v.SetEnvPrefix("TEXOPT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is OK, use defaults
	}
	usedFile = v.ConfigFileUsed()

	var cfg Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// usedFile remembers which config file the last Load consumed.
var usedFile string

// FileUsed returns the path of the config file the last Load read, or an
// empty string when only defaults applied.
func FileUsed() string { return usedFile }

// Default returns the built-in settings without touching the filesystem or
// environment.
func Default() *Settings {
	v := viper.New()
	setDefaults(v)
	var cfg Settings
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults configures default values
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeRegular)

	// Encoder defaults
	v.SetDefault("encoder.binary", "texconv")
	v.SetDefault("encoder.timeout_seconds", 300)

	// Resize defaults
	v.SetDefault("resize.scale_factor", 1.0)
	v.SetDefault("resize.max_resolution", 2048)
	v.SetDefault("resize.min_resolution", 256)
	v.SetDefault("resize.method", "CUBIC")
	v.SetDefault("resize.enforce_power_of_two", true)
	v.SetDefault("resize.small_texture_override", true)

	// Atlas defaults
	v.SetDefault("atlas.enable_downscaling", false)
	v.SetDefault("atlas.max_resolution", 4096)

	// Normal-map mode defaults
	v.SetDefault("normal.n_format", "BC5/ATI2")
	v.SetDefault("normal.nh_format", "BC3/DXT5")
	v.SetDefault("normal.invert_y", false)
	v.SetDefault("normal.reconstruct_z", true)
	v.SetDefault("normal.small_n_threshold", 128)
	v.SetDefault("normal.small_nh_threshold", 256)
	v.SetDefault("normal.preserve_compressed", true)
	v.SetDefault("normal.auto_fix_mislabel", true)
	v.SetDefault("normal.optimize_alpha", true)
	v.SetDefault("normal.allow_passthrough", false)
	v.SetDefault("normal.copy_passthrough", false)
	v.SetDefault("normal.uniform_weighting", true)
	v.SetDefault("normal.dithering", false)

	// Regular mode defaults
	v.SetDefault("regular.small_threshold", 128)
	v.SetDefault("regular.allow_passthrough", true)
	v.SetDefault("regular.preserve_compressed", true)
	v.SetDefault("regular.copy_passthrough", false)
	v.SetDefault("regular.optimize_alpha", true)
	v.SetDefault("regular.alpha_threshold", 255)
	v.SetDefault("regular.no_mipmap_paths", DefaultNoMipmapPaths)
	v.SetDefault("regular.uniform_weighting", false)
	v.SetDefault("regular.dithering", false)

	// Filter defaults
	v.SetDefault("filter.whitelist", []string{"textures"})
	v.SetDefault("filter.blacklist", DefaultBlacklist)
	v.SetDefault("filter.custom_blacklist", []string{})
	v.SetDefault("filter.exclude_normal_maps", true)
	v.SetDefault("filter.tga_support", true)

	// Parallel defaults
	v.SetDefault("parallel.enabled", true)
	v.SetDefault("parallel.jobs", 0) // 0 means NumCPU-1
	v.SetDefault("parallel.analyze_threshold", 100)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	// Output defaults
	v.SetDefault("output.colors", true)
	v.SetDefault("output.progress", true)
}

// Validate checks the configuration for errors
func Validate(cfg *Settings) error {
	if cfg.Mode != ModeNormal && cfg.Mode != ModeRegular {
		return fmt.Errorf("invalid mode: %s (must be normal or regular)", cfg.Mode)
	}

	if cfg.Resize.ScaleFactor <= 0 {
		return fmt.Errorf("resize.scale_factor must be positive, got %g", cfg.Resize.ScaleFactor)
	}
	if cfg.Resize.MaxResolution < 1 || cfg.Resize.MinResolution < 1 {
		return fmt.Errorf("resolution limits must be at least 1")
	}

	validMethods := map[string]bool{"FANT": true, "CUBIC": true, "BOX": true, "LINEAR": true}
	if !validMethods[cfg.Resize.Method] {
		return fmt.Errorf("invalid resize method: %s (must be FANT, CUBIC, BOX, or LINEAR)", cfg.Resize.Method)
	}

	if cfg.Regular.AlphaThreshold < 0 || cfg.Regular.AlphaThreshold > 255 {
		return fmt.Errorf("regular.alpha_threshold must be 0-255, got %d", cfg.Regular.AlphaThreshold)
	}

	if cfg.Encoder.TimeoutSeconds < 1 {
		return fmt.Errorf("encoder.timeout_seconds must be at least 1")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", cfg.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s (must be text or json)", cfg.Logging.Format)
	}

	return nil
}

// Export serializes every setting that influences analysis or processing
// results as sorted "key=value" lines. Presentation settings (logging,
// output, worker counts) are excluded: changing them must not invalidate an
// analysis. The export doubles as the fingerprint input and as the
// `config export` file format.
func (c *Settings) Export() []string {
	kv := map[string]string{
		"mode": c.Mode,

		"encoder.binary":          c.Encoder.Binary,
		"encoder.timeout_seconds": strconv.Itoa(c.Encoder.TimeoutSeconds),

		"resize.scale_factor":           strconv.FormatFloat(c.Resize.ScaleFactor, 'g', -1, 64),
		"resize.max_resolution":         strconv.Itoa(c.Resize.MaxResolution),
		"resize.min_resolution":         strconv.Itoa(c.Resize.MinResolution),
		"resize.method":                 c.Resize.Method,
		"resize.enforce_power_of_two":   strconv.FormatBool(c.Resize.EnforcePowerOfTwo),
		"resize.small_texture_override": strconv.FormatBool(c.Resize.SmallTextureOverride),

		"atlas.enable_downscaling": strconv.FormatBool(c.Atlas.EnableDownscaling),
		"atlas.max_resolution":     strconv.Itoa(c.Atlas.MaxResolution),

		"normal.n_format":            c.Normal.NFormat,
		"normal.nh_format":           c.Normal.NHFormat,
		"normal.invert_y":            strconv.FormatBool(c.Normal.InvertY),
		"normal.reconstruct_z":       strconv.FormatBool(c.Normal.ReconstructZ),
		"normal.small_n_threshold":   strconv.Itoa(c.Normal.SmallNThreshold),
		"normal.small_nh_threshold":  strconv.Itoa(c.Normal.SmallNHThreshold),
		"normal.preserve_compressed": strconv.FormatBool(c.Normal.PreserveCompressed),
		"normal.auto_fix_mislabel":   strconv.FormatBool(c.Normal.AutoFixMislabel),
		"normal.optimize_alpha":      strconv.FormatBool(c.Normal.OptimizeAlpha),
		"normal.allow_passthrough":   strconv.FormatBool(c.Normal.AllowPassthrough),
		"normal.copy_passthrough":    strconv.FormatBool(c.Normal.CopyPassthrough),
		"normal.uniform_weighting":   strconv.FormatBool(c.Normal.UniformWeighting),
		"normal.dithering":           strconv.FormatBool(c.Normal.Dithering),

		"regular.small_threshold":     strconv.Itoa(c.Regular.SmallThreshold),
		"regular.allow_passthrough":   strconv.FormatBool(c.Regular.AllowPassthrough),
		"regular.preserve_compressed": strconv.FormatBool(c.Regular.PreserveCompressed),
		"regular.copy_passthrough":    strconv.FormatBool(c.Regular.CopyPassthrough),
		"regular.optimize_alpha":      strconv.FormatBool(c.Regular.OptimizeAlpha),
		"regular.alpha_threshold":     strconv.Itoa(c.Regular.AlphaThreshold),
		"regular.no_mipmap_paths":     strings.Join(c.Regular.NoMipmapPaths, ","),
		"regular.uniform_weighting":   strconv.FormatBool(c.Regular.UniformWeighting),
		"regular.dithering":           strconv.FormatBool(c.Regular.Dithering),

		"filter.whitelist":           strings.Join(c.Filter.Whitelist, ","),
		"filter.blacklist":           strings.Join(c.Filter.Blacklist, ","),
		"filter.custom_blacklist":    strings.Join(c.Filter.CustomBlacklist, ","),
		"filter.exclude_normal_maps": strconv.FormatBool(c.Filter.ExcludeNormalMaps),
		"filter.tga_support":         strconv.FormatBool(c.Filter.TGASupport),
	}

	keys := make([]string, 0, len(kv))
	for k := range kv {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + kv[k]
	}
	return lines
}

// Fingerprint returns a hex sha256 digest of the exported settings. Two
// Settings values fingerprint equal exactly when no result-affecting
// setting differs.
func (c *Settings) Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(c.Export(), "\n")))
	return hex.EncodeToString(sum[:])
}

// EffectiveBlacklist merges the default and user blacklists.
func (c *Settings) EffectiveBlacklist() []string {
	merged := make([]string, 0, len(c.Filter.Blacklist)+len(c.Filter.CustomBlacklist))
	merged = append(merged, c.Filter.Blacklist...)
	merged = append(merged, c.Filter.CustomBlacklist...)
	return merged
}
