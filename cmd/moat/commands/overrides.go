package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/backend/internal/contracts"
)

// overridesCmd groups the override subcommands
var overridesCmd = &cobra.Command{
	Use:   "overrides",
	Short: "PM 오버라이드 조회/수정",
	Long: `Inspects and mutates the stored PM override set.

Overrides are partial factor records layered over the sector table:
base ← sector override ← ticker override.

Example:
  go run ./cmd/moat overrides show
  go run ./cmd/moat overrides set-sector "Information Technology" --sc 5 --ls 1
  go run ./cmd/moat overrides set-ticker NVDA --dme 5
  go run ./cmd/moat overrides clear ticker NVDA
  go run ./cmd/moat overrides clear all`,
}

var overridesShowCmd = &cobra.Command{
	Use:   "show",
	Short: "현재 오버라이드 출력",
	RunE:  runOverridesShow,
}

var overridesSetSectorCmd = &cobra.Command{
	Use:   "set-sector <SECTOR>",
	Short: "섹터 오버라이드 설정 (기존 필드와 병합)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverridesSet(cmd, args[0], false)
	},
}

var overridesSetTickerCmd = &cobra.Command{
	Use:   "set-ticker <TICKER>",
	Short: "티커 오버라이드 설정 (기존 필드와 병합)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOverridesSet(cmd, args[0], true)
	},
}

var overridesClearCmd = &cobra.Command{
	Use:   "clear <sector|ticker|all> [NAME]",
	Short: "오버라이드 삭제",
	Args:  validateClearArgs,
	RunE:  runOverridesClear,
}

var overridesJSON bool

func init() {
	rootCmd.AddCommand(overridesCmd)
	overridesCmd.AddCommand(overridesShowCmd, overridesSetSectorCmd, overridesSetTickerCmd, overridesClearCmd)

	overridesShowCmd.Flags().BoolVar(&overridesJSON, "json", false, "JSON 출력")
	addFactorFlags(overridesSetSectorCmd)
	addFactorFlags(overridesSetTickerCmd)
}

// addFactorFlags registers one float flag per factor key (--sc, --ne, ...)
func addFactorFlags(cmd *cobra.Command) {
	for _, key := range contracts.FactorKeys {
		cmd.Flags().Float64(key, 0, fmt.Sprintf("%s rating [1,5]", strings.ToUpper(key)))
	}
}

// partialFromFlags collects the factor flags the user set
func partialFromFlags(cmd *cobra.Command) (contracts.PartialFactorRecord, error) {
	var p contracts.PartialFactorRecord
	targets := map[string]**float64{
		"sc": &p.SC, "ne": &p.NE, "ia": &p.IA, "ca": &p.CA, "es": &p.ES,
		"ls": &p.LS, "vcd": &p.VCD, "dme": &p.DME, "anc": &p.ANC, "cir": &p.CIR,
	}

	for _, key := range contracts.FactorKeys {
		if !cmd.Flags().Changed(key) {
			continue
		}
		v, err := cmd.Flags().GetFloat64(key)
		if err != nil {
			return p, err
		}
		*targets[key] = contracts.Rating(v)
	}

	if p.IsEmpty() {
		return p, fmt.Errorf("at least one factor flag is required (--%s)", strings.Join(contracts.FactorKeys, ", --"))
	}
	return p, p.Validate()
}

func validateClearArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("requires a scope: sector, ticker or all")
	}
	switch args[0] {
	case "all":
		return cobra.ExactArgs(1)(cmd, args)
	case "sector", "ticker":
		return cobra.ExactArgs(2)(cmd, args)
	default:
		return fmt.Errorf("unknown scope %q (sector|ticker|all)", args[0])
	}
}

func runOverridesShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	set := a.store.Load(ctx)
	if overridesJSON {
		return PrintJSON(set)
	}
	printOverrides(set, a.cfg.Overrides.Backend)
	return nil
}

func runOverridesSet(cmd *cobra.Command, name string, ticker bool) error {
	p, err := partialFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	var set contracts.OverrideSet
	if ticker {
		set, err = a.store.SetTicker(ctx, name, p)
	} else {
		set, err = a.store.SetSector(ctx, name, p)
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess(fmt.Sprintf("Override saved: %s %s", name, formatPartial(p)))
	printOverrides(set, a.cfg.Overrides.Backend)
	return nil
}

func runOverridesClear(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := bootstrap(ctx, bootstrapOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	switch args[0] {
	case "all":
		err = a.store.Reset(ctx)
	case "sector":
		_, err = a.store.ClearSector(ctx, args[1])
	case "ticker":
		_, err = a.store.ClearTicker(ctx, args[1])
	}
	if err != nil {
		PrintError(err.Error())
		return err
	}

	PrintSuccess("Override cleared: " + strings.Join(args, " "))
	return nil
}

// printOverrides prints sectors then tickers, each sorted by name
func printOverrides(set contracts.OverrideSet, backend string) {
	sectors, tickers := set.Count()
	PrintHeader(fmt.Sprintf("Overrides (%s): %d sectors, %d tickers", backend, sectors, tickers))

	if sectors+tickers == 0 {
		PrintInfo("No overrides stored")
		return
	}

	if sectors > 0 {
		fmt.Println("Sectors")
		PrintList(overrideLines(set.Sectors))
	}
	if tickers > 0 {
		fmt.Println("Tickers")
		PrintList(overrideLines(set.Tickers))
	}
}

// overrideLines renders "name: sc=5 ls=1" sorted by name
func overrideLines(m map[string]contracts.PartialFactorRecord) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %s", name, formatPartial(m[name])))
	}
	return lines
}
