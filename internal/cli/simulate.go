package cli

import (
	"errors"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	simulateAmount string
	simulateChange string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate-alert",
	Short: "Evaluate the alert stage against a synthetic quote",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, change, err := parseSimulation(simulateAmount, simulateChange)
		if err != nil {
			return err
		}
		return getApp().SimulateAlert(cmd.Context(), amount, change)
	},
}

func parseSimulation(amountFlag, changeFlag string) (decimal.Decimal, decimal.Decimal, error) {
	amount, err := decimal.NewFromString(amountFlag)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, errors.New("--amount must be a decimal number")
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, decimal.Decimal{}, errors.New("--amount must be greater than 0")
	}
	change, err := decimal.NewFromString(changeFlag)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, errors.New("--change must be a decimal number")
	}
	return amount, change, nil
}

func init() {
	simulateCmd.Flags().StringVar(&simulateAmount, "amount", "5.75", "Quote amount to evaluate")
	simulateCmd.Flags().StringVar(&simulateChange, "change", "2.5", "Percent change to report")
}
