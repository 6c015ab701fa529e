package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// sectorsCmd prints the sector composite table
var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "섹터 composite 테이블 출력 (오버라이드 반영)",
	Long: `Prints the moat / AI-risk composite of every sector.

Stored sector overrides are applied before scoring.

Example:
  go run ./cmd/moat sectors
  go run ./cmd/moat sectors --json`,
	RunE: runSectors,
}

var sectorsJSON bool

func init() {
	rootCmd.AddCommand(sectorsCmd)

	sectorsCmd.Flags().BoolVar(&sectorsJSON, "json", false, "JSON 출력")
}

func runSectors(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	set := a.analyzer.Sectors(ctx)
	if sectorsJSON {
		return PrintJSON(set.Ordered())
	}

	PrintHeader(fmt.Sprintf("Sector composites (%d)", set.Count()))
	PrintTableHeader(sectorColumns, sectorWidths)
	for _, c := range set.Ordered() {
		PrintTableRow(sectorRow(c), sectorWidths)
	}

	overrides := a.analyzer.Overrides(ctx)
	if sectors, tickers := overrides.Count(); sectors+tickers > 0 {
		PrintInfo(fmt.Sprintf("%d sector / %d ticker overrides applied", sectors, tickers))
	}
	return nil
}
