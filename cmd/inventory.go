package cmd

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/turky/sphinx/internal/inventory"
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inspect the configured object inventories",
}

var inventoryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded inventories and their entry counts",
	Args:  cobra.NoArgs,
	Run:   runInventoryList,
}

var inventoryShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print every entry of one loaded inventory",
	Args:  cobra.ExactArgs(1),
	Run:   runInventoryShow,
}

var inventoryDumpCmd = &cobra.Command{
	Use:   "dump <file>",
	Short: "Decode a local inventory file and print its contents",
	Args:  cobra.ExactArgs(1),
	Run:   runInventoryDump,
}

func init() {
	inventoryCmd.AddCommand(inventoryListCmd)
	inventoryCmd.AddCommand(inventoryShowCmd)
	inventoryCmd.AddCommand(inventoryDumpCmd)
	rootCmd.AddCommand(inventoryCmd)
}

func loadInventories() *inventory.Set {
	cfg := loadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	invs, err := inventory.LoadAll(ctx, cfg.InventoryPaths())
	if err != nil {
		log.Fatalf("loading inventories: %v", err)
	}
	return invs
}

func runInventoryList(cmd *cobra.Command, args []string) {
	invs := loadInventories()
	for _, name := range invs.Names() {
		inv, _ := invs.Named(name)
		count := 0
		for _, bucket := range inv {
			count += len(bucket)
		}
		fmt.Printf("%s\t%d entries\n", name, count)
	}
}

func runInventoryShow(cmd *cobra.Command, args []string) {
	invs := loadInventories()
	inv, ok := invs.Named(args[0])
	if !ok {
		log.Fatalf("inventory %q is not configured", args[0])
	}
	printInventory(inv)
}

func runInventoryDump(cmd *cobra.Command, args []string) {
	proj, err := inventory.LoadFile(args[0])
	if err != nil {
		log.Fatalf("reading inventory: %v", err)
	}
	fmt.Printf("# %s %s\n", proj.Name, proj.Version)
	printInventory(proj.Inventory)
}

func printInventory(inv inventory.Inventory) {
	types := make([]string, 0, len(inv))
	for t := range inv {
		types = append(types, t)
	}
	sort.Strings(types)

	for _, t := range types {
		names := make([]string, 0, len(inv[t]))
		for n := range inv[t] {
			names = append(names, n)
		}
		sort.Strings(names)
		for _, n := range names {
			fmt.Printf("%s\t%s\t%s\n", t, n, inv[t][n].URI)
		}
	}
}
