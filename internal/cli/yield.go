package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(yieldCmd)
	yieldCmd.AddCommand(yieldBalanceCmd)
	yieldCmd.AddCommand(yieldAccrueCmd)
	yieldCmd.AddCommand(yieldSpendCmd)

	yieldCmd.PersistentFlags().String("addr", "http://127.0.0.1:4402", "Address of the running tollgate daemon")
}

var yieldCmd = &cobra.Command{
	Use:   "yield",
	Short: "Manage the daemon's internal yield account",
}

var yieldBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the current yield balance",
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		var body struct {
			Balance int64 `json:"balance"`
		}
		if err := getJSON(addr+"/yield", &body); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%d\n", body.Balance)
		return nil
	},
}

var yieldAccrueCmd = &cobra.Command{
	Use:   "accrue [AMOUNT]",
	Short: "Add yield to the account (omit AMOUNT for a simulated tick)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		var amount int64
		if len(args) == 1 {
			n, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("amount %q is not an integer", args[0])
			}
			amount = n
		}
		var body struct {
			Balance int64 `json:"balance"`
		}
		if err := postYield(addr+"/yield/accrue", amount, &body); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "balance: %d\n", body.Balance)
		return nil
	},
}

var yieldSpendCmd = &cobra.Command{
	Use:   "spend AMOUNT",
	Short: "Spend from the yield account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		amount, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("amount %q is not an integer", args[0])
		}
		var result struct {
			Success   bool   `json:"success"`
			Remaining int64  `json:"remaining"`
			Needed    int64  `json:"needed"`
			Reference string `json:"reference"`
		}
		if err := postYield(addr+"/yield/spend", amount, &result); err != nil {
			return err
		}
		if !result.Success {
			return fmt.Errorf("insufficient yield: have %d, need %d", result.Remaining, result.Needed)
		}
		fmt.Fprintf(os.Stdout, "spent %d, remaining %d, reference %s\n", amount, result.Remaining, result.Reference)
		return nil
	},
}

func postYield(url string, amount int64, v interface{}) error {
	payload, err := json.Marshal(map[string]int64{"amount": amount})
	if err != nil {
		return err
	}
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
