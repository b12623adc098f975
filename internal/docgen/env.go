package docgen

import (
	"log/slog"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/hooks"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
)

// Typehints display modes.
const (
	TypehintsSignature   = "signature"
	TypehintsNone        = "none"
	TypehintsDescription = "description"
)

// Class signature placement.
const (
	ClassSignatureMixed     = "mixed"
	ClassSignatureSeparated = "separated"
)

// Class body docstring sources.
const (
	ClassDocClass = "class"
	ClassDocInit  = "init"
	ClassDocBoth  = "both"
)

// Config holds the project-wide generation settings.
type Config struct {
	// MemberOrder is the default sort: alphabetical, groupwise or
	// bysource.
	MemberOrder string
	// Typehints selects annotation display: signature, none or
	// description.
	Typehints string
	// TypehintsFormat is fully-qualified or short.
	TypehintsFormat string
	// DocstringSignature enables reading signatures out of docstrings.
	DocstringSignature bool
	// ClassSignature is mixed (signature on the class line) or separated
	// (signature shown on __init__/__new__ instead).
	ClassSignature string
	// ClassDocFrom selects the class body docstring: class, init or both.
	ClassDocFrom string
	// InheritDocstrings lets members inherit ancestor docstrings.
	InheritDocstrings bool
	// MockImports lists module prefixes replaced by placeholders when
	// they cannot be imported.
	MockImports []string
	// TypeAliases rewrites annotations for display.
	TypeAliases map[string]string
	// MetaclassCallBlocklist names metaclass __call__ methods whose
	// signatures are known to be misleading and are never used.
	MetaclassCallBlocklist []string
	// ClassNewBlocklist names __new__ methods that are pass-throughs.
	ClassNewBlocklist []string
}

// DefaultConfig mirrors the stock settings.
func DefaultConfig() *Config {
	return &Config{
		MemberOrder:            "alphabetical",
		Typehints:              TypehintsSignature,
		TypehintsFormat:        "fully-qualified",
		DocstringSignature:     true,
		ClassSignature:         ClassSignatureMixed,
		ClassDocFrom:           ClassDocClass,
		InheritDocstrings:      true,
		MetaclassCallBlocklist: []string{"enum.EnumType.__call__"},
		ClassNewBlocklist:      []string{"typing.Generic.__new__"},
	}
}

// Scope is the ambient module/class context that unqualified directive
// names resolve against. It is an explicit value saved and restored around
// member recursion, never shared mutable state.
type Scope struct {
	Module string
	Class  string
}

// Env is the generation environment shared by a documenter tree: the
// collaborating services, the output collector and the ambient scope.
type Env struct {
	Config    *Config
	Importer  object.Importer
	Analyzers *analyzer.Cache
	Hooks     *hooks.Manager
	Registry  *Registry
	Logger    *slog.Logger

	// Current is the ambient scope for name resolution.
	Current Scope

	// Result collects the generated markup lines.
	Result *markup.Content
	// Dependencies records source files the generated output depends on.
	Dependencies map[string]bool

	TabWidth int
}

// NewEnv assembles an environment with fresh collectors. A nil config,
// registry or hook manager gets a default instance; logger defaults to
// slog.Default().
func NewEnv(cfg *Config, imp object.Importer, analyzers *analyzer.Cache, hookMgr *hooks.Manager, logger *slog.Logger) *Env {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if hookMgr == nil {
		hookMgr = hooks.NewManager()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if analyzers == nil {
		analyzers = analyzer.NewCache(analyzer.NoSourceProvider{})
	}
	return &Env{
		Config:       cfg,
		Importer:     imp,
		Analyzers:    analyzers,
		Hooks:        hookMgr,
		Registry:     StandardRegistry(),
		Logger:       logger,
		Result:       &markup.Content{},
		Dependencies: map[string]bool{},
		TabWidth:     8,
	}
}
