// Package mcp exposes the generator over the Model Context Protocol: a
// documentation tool, a reference-resolution tool, and generated pages as
// readable resources.
package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/config"
	"github.com/turky/sphinx/internal/docgen"
	"github.com/turky/sphinx/internal/hooks"
	"github.com/turky/sphinx/internal/inventory"
	"github.com/turky/sphinx/internal/markdown"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/object"
	"github.com/turky/sphinx/internal/xref"
)

//go:embed instructions.md
var instructions string

type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	graph     *object.Graph
	analyzers *analyzer.Cache
	resolver  *xref.Resolver
	logger    *slog.Logger
}

// NewServer loads the object graph and the configured inventories, then
// wires the MCP tool and resource handlers.
func NewServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}

	graph, err := object.LoadGraphFile(cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("loading object graph: %w", err)
	}

	inventories, err := inventory.LoadAll(ctx, cfg.InventoryPaths())
	if err != nil {
		return nil, fmt.Errorf("loading inventories: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		graph:     graph,
		analyzers: analyzer.NewCache(graph),
		resolver: &xref.Resolver{
			Domains:       xref.StandardRegistry(),
			Inventories:   inventories,
			DisabledTypes: cfg.Resolve.DisabledTypes,
			ResolveSelf:   cfg.Resolve.ResolveSelf,
			Logger:        logger,
		},
		logger: logger,
	}

	mcpServer := server.NewMCPServer(
		"sphinx-gen",
		"0.1.0",
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)
	s.registerTools(mcpServer)
	s.registerResources(mcpServer)
	s.mcpServer = mcpServer
	return s, nil
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("document",
			mcp.WithDescription("Generate reference documentation markup for a dotted name from the loaded object graph. Returns the directive-structured text."),
			mcp.WithString("name",
				mcp.Description("Dotted name to document (e.g. \"mypkg.sub.Klass\"); \"mod::path\" pins the module explicitly"),
				mcp.Required(),
			),
			mcp.WithString("kind",
				mcp.Description("Documenter kind: module, class, exception, function, decorator, method, attribute, property or data (default \"module\")"),
			),
			mcp.WithBoolean("members",
				mcp.Description("Document all members recursively"),
			),
			mcp.WithBoolean("undoc_members",
				mcp.Description("Include members without docstrings"),
			),
		),
		s.handleDocument,
	)

	mcpServer.AddTool(
		mcp.NewTool("resolve_reference",
			mcp.WithDescription("Resolve a cross-project reference against the loaded inventories. Prefix the target with an inventory name (\"numpy:ndarray\") to pin one project."),
			mcp.WithString("target",
				mcp.Description("Reference target"),
				mcp.Required(),
			),
			mcp.WithString("role",
				mcp.Description("Reference role (default \"any\")"),
			),
			mcp.WithString("domain",
				mcp.Description("Domain to search; required unless role is \"any\""),
			),
			mcp.WithString("inventory",
				mcp.Description("Restrict resolution to one loaded inventory"),
			),
		),
		s.handleResolveReference,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			"sphinx://{kind}/{name}",
			"Generated documentation page",
			mcp.WithTemplateDescription("Documentation markup for one object, generated on read."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

// newEnv builds a fresh generation environment. Result content is never
// shared across calls.
func (s *Server) newEnv() *docgen.Env {
	hookMgr := hooks.NewManager()
	hookMgr.Connect(docgen.EventProcessDocstring, markdown.ResolverHook(s.resolver))
	return docgen.NewEnv(s.cfg.Docgen(), s.graph, s.analyzers, hookMgr, s.logger)
}

func (s *Server) generate(kind, name string, opts *docgen.Options) (string, error) {
	env := s.newEnv()
	if _, err := docgen.Document(env, opts, kind, name); err != nil {
		return "", err
	}
	return env.Result.String(), nil
}

func (s *Server) handleDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, _ := args["name"].(string)
	if name == "" {
		return mcp.NewToolResultError("missing required parameter: name"), nil
	}
	kind, _ := args["kind"].(string)
	if kind == "" {
		kind = "module"
	}

	opts := &docgen.Options{}
	if members, ok := args["members"].(bool); ok && members {
		opts.Members = docgen.AllMembers()
	}
	if undoc, ok := args["undoc_members"].(bool); ok {
		opts.UndocMembers = undoc
	}

	text, err := s.generate(kind, name, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("documentation failed: %v", err)), nil
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleResolveReference(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	target, _ := args["target"].(string)
	if target == "" {
		return mcp.NewToolResultError("missing required parameter: target"), nil
	}
	role, _ := args["role"].(string)
	if role == "" {
		role = "any"
	}
	domain, _ := args["domain"].(string)
	invName, _ := args["inventory"].(string)

	ref := &xref.PendingRef{Target: target, RefType: role, Domain: domain}

	var (
		resolved *markup.Reference
		err      error
	)
	if invName != "" {
		resolved, err = s.resolver.ResolveInInventory(invName, ref)
	} else {
		resolved, err = s.resolver.ResolveDetect(ref)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("resolution failed: %v", err)), nil
	}
	if resolved == nil {
		if ref.SelfReferential {
			return mcp.NewToolResultText(fmt.Sprintf("%q resolves within this project", ref.Target)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("no inventory entry for %q", target)), nil
	}
	resultJSON, _ := json.MarshalIndent(resolved, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	trimmed := strings.TrimPrefix(uri, "sphinx://")
	kind, name, ok := strings.Cut(trimmed, "/")
	if !ok || name == "" {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	text, err := s.generate(kind, name, &docgen.Options{Members: docgen.AllMembers()})
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", name, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     text,
		},
	}, nil
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
