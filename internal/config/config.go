// Package config loads the generator's settings from sphinx.toml and the
// SPHINX_* environment, decoding them into the shapes the library packages
// consume.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/turky/sphinx/internal/docgen"
)

// InventorySource names one external documentation index. A plain string in
// the config file is shorthand for the path.
type InventorySource struct {
	Path string `mapstructure:"path"`
}

// GenerateConfig controls markup generation.
type GenerateConfig struct {
	MemberOrder        string            `mapstructure:"member_order"`
	Typehints          string            `mapstructure:"typehints"`
	TypehintsFormat    string            `mapstructure:"typehints_format"`
	DocstringSignature bool              `mapstructure:"docstring_signature"`
	ClassSignature     string            `mapstructure:"class_signature"`
	ClassDocFrom       string            `mapstructure:"class_doc_from"`
	InheritDocstrings  bool              `mapstructure:"inherit_docstrings"`
	MockImports        []string          `mapstructure:"mock_imports"`
	TypeAliases        map[string]string `mapstructure:"type_aliases"`
}

// ResolveConfig controls cross-project reference resolution.
type ResolveConfig struct {
	// DisabledTypes lists "domain:objtype" keys excluded from unqualified
	// lookup; "*" disables all of them.
	DisabledTypes []string `mapstructure:"disabled_reference_types"`
	// ResolveSelf is this project's own inventory name; references to it
	// resolve locally instead of externally.
	ResolveSelf string `mapstructure:"resolve_self"`
	// Inventories maps inventory names to their index files.
	Inventories map[string]InventorySource `mapstructure:"inventories"`
}

// Config is the full configuration surface.
type Config struct {
	// Graph is the object graph file documented names are imported from.
	Graph    string         `mapstructure:"graph"`
	Generate GenerateConfig `mapstructure:"generate"`
	Resolve  ResolveConfig  `mapstructure:"resolve"`
}

// Docgen converts the generation section to the docgen package's settings,
// keeping the package free of a config dependency.
func (c *Config) Docgen() *docgen.Config {
	out := docgen.DefaultConfig()
	out.MemberOrder = c.Generate.MemberOrder
	out.Typehints = c.Generate.Typehints
	out.TypehintsFormat = c.Generate.TypehintsFormat
	out.DocstringSignature = c.Generate.DocstringSignature
	out.ClassSignature = c.Generate.ClassSignature
	out.ClassDocFrom = c.Generate.ClassDocFrom
	out.InheritDocstrings = c.Generate.InheritDocstrings
	out.MockImports = c.Generate.MockImports
	out.TypeAliases = c.Generate.TypeAliases
	return out
}

// InventoryPaths flattens the inventory table into the loader's input.
func (c *Config) InventoryPaths() map[string]string {
	out := make(map[string]string, len(c.Resolve.Inventories))
	for name, src := range c.Resolve.Inventories {
		out[name] = src.Path
	}
	return out
}

func initializeViper() error {
	viper.SetConfigName("sphinx")
	viper.SetConfigType("toml")

	viper.AddConfigPath(".")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		viper.AddConfigPath(filepath.Join(xdg, "sphinx"))
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "sphinx"))
	}

	viper.SetDefault("graph", "objects.json")
	viper.SetDefault("generate.member_order", "alphabetical")
	viper.SetDefault("generate.typehints", "signature")
	viper.SetDefault("generate.typehints_format", "fully-qualified")
	viper.SetDefault("generate.docstring_signature", true)
	viper.SetDefault("generate.class_signature", "mixed")
	viper.SetDefault("generate.class_doc_from", "class")
	viper.SetDefault("generate.inherit_docstrings", true)

	viper.SetEnvPrefix("SPHINX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// stringToInventorySourceHookFunc lets an inventory be declared as a bare
// path string instead of a table.
func stringToInventorySourceHookFunc() mapstructure.DecodeHookFunc {
	return func(f, t reflect.Type, data interface{}) (interface{}, error) {
		if t != reflect.TypeOf(InventorySource{}) {
			return data, nil
		}
		if f.Kind() == reflect.String {
			return InventorySource{Path: data.(string)}, nil
		}
		return data, nil
	}
}

// Load reads sphinx.toml and the environment into a Config.
func Load() (*Config, error) {
	if err := initializeViper(); err != nil {
		return nil, err
	}

	var config Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: stringToInventorySourceHookFunc(),
		Result:     &config,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}
