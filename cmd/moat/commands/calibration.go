package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/moat/backend/internal/calibration"
)

// calibrationCmd groups calibration subcommands
var calibrationCmd = &cobra.Command{
	Use:   "calibration",
	Short: "Calibration YAML 관리",
}

var calibrationCheckCmd = &cobra.Command{
	Use:   "check [FILE]",
	Short: "Calibration YAML 검증 및 해시 출력",
	Long: `Validates a calibration YAML (unknown fields fail) and prints its hash.
Without FILE the built-in calibration is checked.

Example:
  go run ./cmd/moat calibration check config/calibration.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalibrationCheck,
}

func init() {
	rootCmd.AddCommand(calibrationCmd)
	calibrationCmd.AddCommand(calibrationCheckCmd)
}

func runCalibrationCheck(cmd *cobra.Command, args []string) error {
	source := "builtin"
	cal := calibration.Default()
	if len(args) == 1 {
		source = args[0]
		loaded, _, err := calibration.Load(source)
		if err != nil {
			PrintError(fmt.Sprintf("%s: %v", source, err))
			return err
		}
		cal = loaded
	}

	snap, err := calibration.NewSnapshot(cal, source)
	if err != nil {
		return err
	}

	PrintHeader("Calibration")
	PrintKeyValue("Source", snap.Source, 10)
	PrintKeyValue("Model", snap.ModelID, 10)
	PrintKeyValue("Version", snap.Version, 10)
	PrintKeyValue("Hash", snap.Hash, 10)
	PrintSeparator()

	warnings := calibration.Warn(cal)
	if len(warnings) == 0 {
		PrintSuccess("Calibration is valid")
		return nil
	}

	lines := make([]string, 0, len(warnings))
	for _, w := range warnings {
		lines = append(lines, fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	PrintWarning(fmt.Sprintf("Calibration is valid with %d warning(s)", len(warnings)))
	PrintList(lines)
	return nil
}
