// econoscale — Bitcoin vs world economies, one ranked table.
//
// Main CLI entrypoint using the cobra command framework.
package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/econoscale/econoscale/api"
	"github.com/econoscale/econoscale/internal/config"
	"github.com/econoscale/econoscale/internal/refresh"
	"github.com/econoscale/econoscale/internal/snapshot"
	"github.com/econoscale/econoscale/pkg/models"
	"github.com/econoscale/econoscale/pkg/sats"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "econoscale",
	Short: "econoscale — rank Bitcoin, gold and silver against world economies",
	Long: `econoscale fetches a BTC price feed and a per-country GDP feed,
survives upstream outages via proxy relays and persisted snapshots, and
produces one ranked comparison table of crypto, metals and fiat economies.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(rankCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("econoscale %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Rank Command ---

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run one refresh cycle and print the ranked table",
	RunE: func(cmd *cobra.Command, args []string) error {
		top, _ := cmd.Flags().GetInt("top")
		diags, _ := cmd.Flags().GetBool("diagnostics")

		refresher, err := refresh.New(cfg)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Fetch.DomainCeiling())
		defer cancel()

		report, err := refresher.Refresh(ctx)
		if err != nil {
			return err
		}

		printAdvisory(report.Price)
		printAdvisory(report.Gdp)

		entities := report.Entities
		if top > 0 && top < len(entities) {
			entities = entities[:top]
		}

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "RANK\tNAME\tKIND\tECONOMIC SIZE\tUNIT PRICE\tSATS/UNIT")
		for _, e := range entities {
			fmt.Fprintf(w, "%d\t%s (%s)\t%s\t%s\t%s\t%s\n",
				e.Rank, e.Name, e.Code, e.Kind,
				sats.FormatAmount("usd", e.EconomicSize),
				sats.FormatAmount("usd", e.UnitPrice),
				sats.FormatNumber(e.SatsPerUnit))
		}
		if err := w.Flush(); err != nil {
			return err
		}

		if diags && len(report.Diagnostics) > 0 {
			fmt.Println("\nDiagnostics:")
			for _, d := range report.Diagnostics {
				fmt.Println("  -", d)
			}
		}
		return nil
	},
}

func init() {
	rankCmd.Flags().Int("top", 0, "limit output to the first N rows")
	rankCmd.Flags().Bool("diagnostics", false, "print omitted-entity diagnostics")
}

// printAdvisory warns when a domain was served from the snapshot.
func printAdvisory(o refresh.Outcome) {
	if o.State == refresh.StateDegraded {
		fmt.Fprintf(os.Stderr, "warning: %s feed unavailable, serving snapshot from %s ago\n",
			o.Domain, o.Age.Round(time.Minute))
	}
}

// --- Serve Command ---

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := api.NewServer(cfg)
		if err != nil {
			return err
		}
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		fmt.Printf("econoscale API listening on %s\n", addr)
		return srv.ListenAndServe(addr)
	},
}

// --- Snapshot Command ---

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Show persisted snapshot status per feed domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := snapshot.New(&cfg.Snapshot)
		now := time.Now()

		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tPRESENT\tPERIOD\tAGE\tSTALE")
		for _, domain := range []models.Domain{models.DomainPrice, models.DomainGdp} {
			snap, ok := store.Read(domain)
			if !ok {
				fmt.Fprintf(w, "%s\tno\t-\t-\t-\n", domain)
				continue
			}
			fmt.Fprintf(w, "%s\tyes\t%s\t%s\t%v\n",
				domain, snap.Period, snap.Age(now).Round(time.Minute), store.Stale(snap, now))
		}
		return w.Flush()
	},
}
