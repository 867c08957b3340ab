package main

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/config"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/domain/geo"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/platform/logger"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/presentation"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/provider"
	"github.com/Kilat-Pet-Delivery/service-mapsearch/internal/tui"
)

var (
	providerName string
	originLat    float64
	originLon    float64
	guardStale   bool
	logFile      string
	plain        bool
)

var rootCmd = &cobra.Command{
	Use:   "mapview [query]",
	Short: "Search places and get directions on a terminal map",
	Long: `mapview opens an interactive map centred on the configured origin.

Type a query and press Enter to search. Tab and the arrow keys cycle through
the results, d requests directions to the selection, Esc dismisses it and c
selects your current location.

Configuration is read from MAPSEARCH_* environment variables; flags override it.`,
	Args:          cobra.ArbitraryArgs,
	SilenceErrors: true,
	RunE:          runMapView,
}

func init() {
	rootCmd.Flags().StringVar(&providerName, "provider", "", "place and route provider (osm or google)")
	rootCmd.Flags().Float64Var(&originLat, "origin-lat", 0, "origin latitude")
	rootCmd.Flags().Float64Var(&originLon, "origin-lon", 0, "origin longitude")
	rootCmd.Flags().BoolVar(&guardStale, "guard-stale", false, "drop responses older than the latest request")
	rootCmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file (default: discard)")
	rootCmd.Flags().BoolVar(&plain, "plain", false, "render without colours")
}

func runMapView(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.Provider.Name = strings.ToLower(providerName)
	}
	if flags.Changed("guard-stale") {
		cfg.Map.GuardStaleResponses = guardStale
	}
	origin := cfg.Map.Origin
	if flags.Changed("origin-lat") || flags.Changed("origin-lon") {
		if !flags.Changed("origin-lat") || !flags.Changed("origin-lon") {
			return fmt.Errorf("--origin-lat and --origin-lon must be given together")
		}
		origin, err = geo.NewCoordinate(originLat, originLon)
		if err != nil {
			return err
		}
	}

	log := zap.NewNop()
	if logFile != "" {
		log, err = logger.NewFile(cfg.AppEnv, "mapview", logFile)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
	}
	defer func() { _ = log.Sync() }()

	searcher, router, err := provider.New(cfg.Provider)
	if err != nil {
		return err
	}

	styles := presentation.DefaultStyles()
	if plain {
		styles = presentation.PlainStyles()
	}

	model := tui.New(searcher, router, tui.Options{
		Origin:              origin,
		BiasRegion:          geo.NewRegion(origin, cfg.Map.RegionSpanMeters, cfg.Map.RegionSpanMeters),
		GuardStaleResponses: cfg.Map.GuardStaleResponses,
		CallTimeout:         cfg.Map.CallTimeout,
		Styles:              styles,
		InitialQuery:        strings.Join(args, " "),
	}, log)

	log.Info("starting terminal map",
		zap.String("provider", cfg.Provider.Name),
		zap.Stringer("origin", origin),
	)
	_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
