package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/turky/sphinx/internal/analyzer"
	"github.com/turky/sphinx/internal/config"
	"github.com/turky/sphinx/internal/docgen"
	"github.com/turky/sphinx/internal/hooks"
	"github.com/turky/sphinx/internal/inventory"
	"github.com/turky/sphinx/internal/markdown"
	"github.com/turky/sphinx/internal/object"
	"github.com/turky/sphinx/internal/xref"
)

var (
	generateKind            string
	generateMembers         []string
	generateAllMembers      bool
	generateUndocMembers    bool
	generateShowInheritance bool
	generateMemberOrder     string
	generateNoIndex         bool
	generateOutput          string
	generateFrontMatter     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Generate documentation for an object from the graph",
	Example: `  sphinx-gen generate mypkg --members
  sphinx-gen generate mypkg.Frobnicator --kind class --members --undoc-members
  sphinx-gen generate mypkg.Frobnicator.run --kind method`,
	Args: cobra.ExactArgs(1),
	Run:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVar(&generateKind, "kind", "module", "object kind (module, class, function, ...)")
	generateCmd.Flags().StringSliceVar(&generateMembers, "members", nil, "document only the named members")
	generateCmd.Flags().BoolVar(&generateAllMembers, "all-members", false, "document every member")
	generateCmd.Flags().BoolVar(&generateUndocMembers, "undoc-members", false, "keep members without a docstring")
	generateCmd.Flags().BoolVar(&generateShowInheritance, "show-inheritance", false, "list base classes")
	generateCmd.Flags().StringVar(&generateMemberOrder, "member-order", "", "member sort order (alphabetical, groupwise, bysource)")
	generateCmd.Flags().BoolVar(&generateNoIndex, "no-index", false, "emit :no-index: on every directive")
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "write to a file instead of stdout")
	generateCmd.Flags().BoolVar(&generateFrontMatter, "front-matter", false, "prepend document metadata")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger()

	env, err := newGenerateEnv(cfg, logger)
	if err != nil {
		log.Fatalf("failed to set up generation: %v", err)
	}

	opts := &docgen.Options{
		UndocMembers:    generateUndocMembers,
		ShowInheritance: generateShowInheritance,
		MemberOrder:     generateMemberOrder,
		NoIndex:         generateNoIndex,
	}
	switch {
	case generateAllMembers:
		opts.Members = docgen.AllMembers()
	case len(generateMembers) > 0:
		opts.Members = docgen.MemberNames(generateMembers...)
	}

	retry, err := docgen.Document(env, opts, generateKind, args[0])
	if err != nil {
		log.Fatalf("generation failed: %v", err)
	}
	if retry {
		log.Fatalf("object %q could not be imported from the graph", args[0])
	}

	out := env.Result.String()
	if generateFrontMatter {
		out = markdown.AddFrontMatter(out, map[string]string{
			"name": args[0],
			"kind": generateKind,
		})
	}

	if generateOutput == "" {
		fmt.Println(out)
		return
	}
	if err := os.WriteFile(generateOutput, []byte(out+"\n"), 0o644); err != nil {
		log.Fatalf("writing output: %v", err)
	}
}

// newGenerateEnv assembles a documentation environment from the configured
// object graph, with docstring links resolved against the configured
// inventories.
func newGenerateEnv(cfg *config.Config, logger *slog.Logger) (*docgen.Env, error) {
	graph, err := object.LoadGraphFile(cfg.Graph)
	if err != nil {
		return nil, fmt.Errorf("loading object graph: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	invs, err := inventory.LoadAll(ctx, cfg.InventoryPaths())
	if err != nil {
		return nil, fmt.Errorf("loading inventories: %w", err)
	}

	resolver := &xref.Resolver{
		Domains:       xref.StandardRegistry(),
		Inventories:   invs,
		DisabledTypes: cfg.Resolve.DisabledTypes,
		ResolveSelf:   cfg.Resolve.ResolveSelf,
		Logger:        logger,
	}

	hookMgr := hooks.NewManager()
	hookMgr.Connect(docgen.EventProcessDocstring, markdown.ResolverHook(resolver))

	return docgen.NewEnv(cfg.Docgen(), graph, analyzer.NewCache(graph), hookMgr, logger), nil
}
