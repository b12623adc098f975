package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/turky/sphinx/internal/inventory"
	"github.com/turky/sphinx/internal/markup"
	"github.com/turky/sphinx/internal/xref"
)

var (
	resolveRole      string
	resolveDomain    string
	resolveInventory string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <target>",
	Short: "Resolve a cross-reference against the configured inventories",
	Example: `  sphinx-gen resolve numpy.ndarray
  sphinx-gen resolve ndarray --inventory numpy
  sphinx-gen resolve comparison --role term --domain std`,
	Args: cobra.ExactArgs(1),
	Run:  runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveRole, "role", "any", "reference role (class, func, term, any, ...)")
	resolveCmd.Flags().StringVar(&resolveDomain, "domain", "", "domain owning the role")
	resolveCmd.Flags().StringVar(&resolveInventory, "inventory", "", "look up in a single named inventory")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	logger := newLogger()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	invs, err := inventory.LoadAll(ctx, cfg.InventoryPaths())
	if err != nil {
		log.Fatalf("loading inventories: %v", err)
	}

	resolver := &xref.Resolver{
		Domains:       xref.StandardRegistry(),
		Inventories:   invs,
		DisabledTypes: cfg.Resolve.DisabledTypes,
		ResolveSelf:   cfg.Resolve.ResolveSelf,
		Logger:        logger,
	}

	ref := &xref.PendingRef{
		Target:  args[0],
		RefType: resolveRole,
		Domain:  resolveDomain,
	}

	var resolved *markup.Reference
	if resolveInventory != "" {
		resolved, err = resolver.ResolveInInventory(resolveInventory, ref)
	} else {
		resolved, err = resolver.ResolveDetect(ref)
	}
	if err != nil {
		log.Fatalf("resolving reference: %v", err)
	}

	if resolved == nil {
		if ref.SelfReferential {
			fmt.Printf("%s resolves within this project\n", ref.Target)
			return
		}
		log.Fatalf("no inventory entry for %q", args[0])
	}

	fmt.Println(resolved.URI)
	if resolved.Title != "" {
		fmt.Println(resolved.Title)
	}
}
