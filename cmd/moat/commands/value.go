package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/backend/internal/analyzer"
	"github.com/wonny/moat/backend/internal/contracts"
)

// valueCmd runs a full valuation of a ticker
var valueCmd = &cobra.Command{
	Use:   "value <TICKER>",
	Short: "티커 밸류에이션 (moat → CAP → justified P/E)",
	Long: `Runs a full valuation of a ticker.

Factors come from the sector table with sector and ticker overrides applied.
Market inputs not given as flags default to beta 1.0 and growth 5%,
or are fetched from FMP/Finviz with --live.

Example:
  go run ./cmd/moat value MSFT --sector "Information Technology"
  go run ./cmd/moat value MSFT --sector "Information Technology" --beta 1.5 --growth 0.08
  go run ./cmd/moat value NVDA --live --risk 1.5 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValue,
}

var (
	valueSector string
	valueBeta   float64
	valueGrowth float64
	valueRisk   float64
	valueLive   bool
	valueJSON   bool
)

func init() {
	rootCmd.AddCommand(valueCmd)

	valueCmd.Flags().StringVar(&valueSector, "sector", "", "섹터 (--live 시 생략 가능)")
	valueCmd.Flags().Float64Var(&valueBeta, "beta", 0, "beta (default 1.0)")
	valueCmd.Flags().Float64Var(&valueGrowth, "growth", 0, "평균 매출 성장률, ratio (default 0.05)")
	valueCmd.Flags().Float64Var(&valueRisk, "risk", 0, "business-model composite risk (>= 0)")
	valueCmd.Flags().BoolVar(&valueLive, "live", false, "누락된 시장 입력을 FMP/Finviz에서 조회")
	valueCmd.Flags().BoolVar(&valueJSON, "json", false, "JSON 출력")
}

func runValue(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	req := valueRequest(cmd, args[0])
	v, err := a.analyzer.Value(ctx, req)
	if err != nil {
		PrintError(err.Error())
		return fmt.Errorf("value %s: %w", args[0], err)
	}

	if valueJSON {
		return PrintJSON(v)
	}
	printValuation(v)
	return nil
}

// valueRequest builds the analyzer request; only flags the user set become explicit inputs
func valueRequest(cmd *cobra.Command, ticker string) analyzer.Request {
	req := analyzer.Request{
		Ticker: ticker,
		Sector: valueSector,
		Live:   valueLive,
	}

	quote := contracts.MarketQuote{}
	if cmd.Flags().Changed("beta") {
		quote.Beta = contracts.Rating(valueBeta)
	}
	if cmd.Flags().Changed("growth") {
		quote.AvgRevGrowth = contracts.Rating(valueGrowth)
	}
	if quote.Beta != nil || quote.AvgRevGrowth != nil {
		req.Quote = &quote
	}

	if cmd.Flags().Changed("risk") {
		req.Risk = &contracts.RiskAdjustment{CompositeRisk: contracts.Rating(valueRisk)}
	}
	return req
}
