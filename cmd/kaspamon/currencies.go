package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kostyay/kaspamon/internal/config"
	"github.com/kostyay/kaspamon/internal/market"
	"github.com/kostyay/kaspamon/internal/model"
	"github.com/kostyay/kaspamon/internal/output"
)

var currencyFilter string

var currenciesCmd = &cobra.Command{
	Use:   "currencies",
	Short: "List the assets known to the market data provider",
	Long: `List the assets known to the market data provider.

Examples:
  kaspamon currencies
  kaspamon currencies --filter kas
  kaspamon currencies --filter usd --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings(configPath)
		if err != nil {
			return err
		}
		return runCurrencies(cmd.Context(), settings.Market, currencyFilter, jsonOutput, os.Stdout)
	},
}

func init() {
	currenciesCmd.Flags().StringVarP(&currencyFilter, "filter", "f", "", "Only show entries whose id, symbol or name contains this text")
	rootCmd.AddCommand(currenciesCmd)
}

func runCurrencies(ctx context.Context, cfg config.MarketSettings, filter string, asJSON bool, w io.Writer) error {
	client := market.NewClient(cfg, nil)
	list, err := client.ListAvailableCurrencies(ctx)
	if err != nil {
		return fmt.Errorf("failed to list currencies: %w", err)
	}
	list = filterCurrencies(list, filter)

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No matching currencies")
		return err
	}
	return output.RenderCurrencies(w, list)
}

// filterCurrencies keeps entries whose id, symbol or name contains filter,
// case-insensitively. An empty filter keeps everything.
func filterCurrencies(list []model.CurrencyDescriptor, filter string) []model.CurrencyDescriptor {
	filter = strings.ToLower(strings.TrimSpace(filter))
	if filter == "" {
		return list
	}
	out := make([]model.CurrencyDescriptor, 0)
	for _, c := range list {
		if strings.Contains(strings.ToLower(c.ID), filter) ||
			strings.Contains(strings.ToLower(c.Symbol), filter) ||
			strings.Contains(strings.ToLower(c.Name), filter) {
			out = append(out, c)
		}
	}
	return out
}
