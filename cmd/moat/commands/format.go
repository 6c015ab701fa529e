package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/wonny/moat/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintHeader prints a titled block header
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintInfo prints an info message
func PrintInfo(message string) {
	fmt.Printf("ℹ️  %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// PrintJSON writes v as indented JSON to stdout
func PrintJSON(v interface{}) error {
	return writeJSON(os.Stdout, v)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ═══════════════════════════════════════════════════════════
// Domain formatting
// ═══════════════════════════════════════════════════════════

// sectorColumns / sectorWidths describe the sector composite table
var (
	sectorColumns = []string{"SECTOR", "MOAT", "AI", "NET", "TIER", "CAP", "ADJ", "PREM"}
	sectorWidths  = []int{24, 5, 5, 6, 10, 4, 4, 6}
)

// sectorRow renders one composite as table cells
func sectorRow(c contracts.SectorComposite) []string {
	return []string{
		c.Sector,
		fmt.Sprintf("%.2f", c.MoatScore),
		fmt.Sprintf("%.2f", c.AIScore),
		fmt.Sprintf("%.2f", c.NetScore),
		string(c.Tier),
		fmt.Sprintf("%d", c.BaseCAP),
		fmt.Sprintf("%d", c.AdjCAP),
		formatBps(c.AIPremBps),
	}
}

// formatBps renders basis points with sign ("+100bp", "-25bp", "0bp")
func formatBps(bps int) string {
	if bps > 0 {
		return fmt.Sprintf("+%dbp", bps)
	}
	return fmt.Sprintf("%dbp", bps)
}

// formatPercent renders a ratio as percent ("0.12" → "12.00%")
func formatPercent(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

// formatFactors renders a full record in canonical key order
func formatFactors(f contracts.FactorRecord) string {
	fields := f.Fields()
	parts := make([]string, 0, len(contracts.FactorKeys))
	for _, key := range contracts.FactorKeys {
		parts = append(parts, fmt.Sprintf("%s=%g", key, fields[key]))
	}
	return strings.Join(parts, " ")
}

// formatPartial renders only the fields present in an override
func formatPartial(p contracts.PartialFactorRecord) string {
	values := []*float64{p.SC, p.NE, p.IA, p.CA, p.ES, p.LS, p.VCD, p.DME, p.ANC, p.CIR}

	parts := make([]string, 0, len(values))
	for i, v := range values {
		if v != nil {
			parts = append(parts, fmt.Sprintf("%s=%g", contracts.FactorKeys[i], *v))
		}
	}
	if len(parts) == 0 {
		return "(empty)"
	}
	return strings.Join(parts, " ")
}

// printValuation prints a ticker valuation as a key/value block
func printValuation(v contracts.TickerValuation) {
	r := v.Result

	PrintHeader(fmt.Sprintf("%s (%s)", v.Ticker, v.Sector))
	PrintKeyValue("Factors", formatFactors(v.Factors), 12)
	PrintKeyValue("Beta", fmt.Sprintf("%.2f", v.Inputs.Beta), 12)
	PrintKeyValue("Rev growth", formatPercent(v.Inputs.AvgRevGrowth), 12)
	PrintSeparator()
	PrintKeyValue("Moat", fmt.Sprintf("%.2f", r.MoatScore), 12)
	PrintKeyValue("AI risk", fmt.Sprintf("%.2f", r.AIScore), 12)
	PrintKeyValue("BM risk", fmt.Sprintf("%.2f", r.BMRisk), 12)
	PrintKeyValue("Net", fmt.Sprintf("%.2f", r.NetScore), 12)
	PrintKeyValue("Tier", string(r.Tier), 12)
	PrintKeyValue("CAP", fmt.Sprintf("%d → %d years", r.BaseCAP, r.AdjCAP), 12)
	PrintKeyValue("AI premium", formatBps(r.AIPremBps), 12)
	PrintKeyValue("WACC", formatPercent(r.WACC), 12)
	PrintKeyValue("LT growth", formatPercent(r.LTGrowth), 12)
	PrintKeyValue("P/E", fmt.Sprintf("%.2f → %.2f", r.BasePE, r.AdjPE), 12)
	PrintKeyValue("Haircut", fmt.Sprintf("%d%%", r.Haircut), 12)
	PrintDoubleSeparator()
}
