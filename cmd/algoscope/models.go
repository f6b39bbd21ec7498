package main

import (
	"github.com/spf13/cobra"

	"github.com/rendis/algoscope/pkg/client"
	"github.com/rendis/algoscope/pkg/schema"
)

var (
	modelsQuery client.ListOptions
	modelsFacet string
)

var modelsCmd = &cobra.Command{
	Use:   "models [id]",
	Short: "List model cards, or show one",
	Long: `Without arguments, lists the cards matching the filters. With an id, prints that card.

Examples:
  algoscope models --agency labor
  algoscope models --where 'card.inputs.exists(f, f.name == "household_size")'
  algoscope models --where '.status == "active"' --lang jq
  algoscope models --facet agencies`,
	Args: cobra.MaximumNArgs(1),
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().StringVar(&modelsQuery.Text, "q", "", "text matched against name, description, agency and service")
	modelsCmd.Flags().StringVar(&modelsQuery.Agency, "agency", "", "agency substring")
	modelsCmd.Flags().StringVar(&modelsQuery.Service, "service", "", "service substring")
	modelsCmd.Flags().StringVar(&modelsQuery.Where, "where", "", "boolean expression over each card (variable: card)")
	modelsCmd.Flags().StringVar(&modelsQuery.Lang, "lang", "", "expression language: cel (default), expr, jq")
	modelsCmd.Flags().StringVar(&modelsFacet, "facet", "", "list distinct values instead: agencies or services")
}

func runModels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	svc, err := newService(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		card, err := svc.GetModel(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, card)
	}

	switch modelsFacet {
	case "":
	case "agencies":
		agencies, err := svc.Agencies(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, agencies)
	case "services":
		services, err := svc.Services(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, services)
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "--facet must be agencies or services, got %q", modelsFacet)
	}

	cards, err := svc.ListModels(ctx, modelsQuery)
	if err != nil {
		return err
	}
	return printJSON(out, cards)
}
