package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rendis/algoscope/internal/catalog"
	"github.com/rendis/algoscope/internal/rules"
	"github.com/rendis/algoscope/internal/store"
)

var (
	importDB   string
	importFrom string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the model card catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Write a catalog into a libSQL database",
	Long: `Validates a catalog file (or the built-in cards) and replaces the contents of
the libSQL database with it. Point serve at the result with --catalog-db.

Example:
  algoscope catalog import --db ./catalog.db --from cards.yaml`,
	Args: cobra.NoArgs,
	RunE: runCatalogImport,
}

var catalogCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the configured catalog against the built-in rules",
	Long: `Loads the configured catalog and reports every inconsistency with the rules:
undeclared reads or writes, feature importance keys that are not inputs, and
published weights that differ from the computation. Exits non-zero on errors.`,
	Args: cobra.NoArgs,
	RunE: runCatalogCheck,
}

func init() {
	catalogImportCmd.Flags().StringVar(&importDB, "db", "", "libSQL database path")
	catalogImportCmd.Flags().StringVar(&importFrom, "from", "", "catalog file to import (default: built-in cards)")
	_ = catalogImportCmd.MarkFlagRequired("db")

	catalogCmd.AddCommand(catalogImportCmd)
	catalogCmd.AddCommand(catalogCheckCmd)
}

func runCatalogImport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	var (
		cat    *catalog.Catalog
		source = "builtin"
		err    error
	)
	if importFrom != "" {
		cat, err = catalog.LoadFile(importFrom)
		source = importFrom
	} else {
		cat, err = catalog.Builtin()
	}
	if err != nil {
		return err
	}

	st, err := store.NewLibSQLStore(importDB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	if err := st.ImportCards(ctx, source, cat.List()); err != nil {
		return err
	}

	imp, err := st.LastImport(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d cards from %s into %s (sha256 %s)\n",
		imp.CardCount, imp.Source, importDB, imp.Checksum)
	return nil
}

func runCatalogCheck(cmd *cobra.Command, _ []string) error {
	cat, _, err := loadCatalog(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	result := catalog.Verify(cat, rules.Builtin())
	if err := printJSON(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	return result.ToError()
}
