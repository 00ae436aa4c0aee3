package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tollgate-network/tollgate/internal/domain"
)

func init() {
	rootCmd.AddCommand(ledgerCmd)
	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerSummaryCmd)

	ledgerCmd.PersistentFlags().String("addr", "http://127.0.0.1:4402", "Address of the running tollgate daemon")
}

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Inspect the settlement ledger of a running daemon",
}

// ─── ledger list ────────────────────────────────────────────────────────────

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List settlement ledger entries",
	RunE:  runLedgerList,
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	var body struct {
		Entries []domain.LedgerEntry `json:"entries"`
	}
	if err := getJSON(addr+"/ledger", &body); err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tPAYER\tAMOUNT\tOPERATION\tVERIFIED\tDISTRIBUTED")
	for _, e := range body.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%t\t%d\n",
			e.ID, e.Kind, e.Payer, e.Amount, e.OperationID, e.Verified, e.DistributedTotal())
	}
	return w.Flush()
}

// ─── ledger summary ─────────────────────────────────────────────────────────

var ledgerSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show ledger totals and the operator balance",
	RunE:  runLedgerSummary,
}

func runLedgerSummary(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")

	var summary domain.Summary
	if err := getJSON(addr+"/ledger/summary", &summary); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Payments:         %d\n", summary.TotalPayments)
	fmt.Fprintf(os.Stdout, "Total incoming:   %d\n", summary.TotalIncoming)
	fmt.Fprintf(os.Stdout, "Total distributed: %d\n", summary.TotalDistributed)
	fmt.Fprintf(os.Stdout, "Operator balance: %d\n", summary.OperatorBalance)
	return nil
}

// getJSON fetches a daemon endpoint and decodes the JSON body.
func getJSON(url string, v interface{}) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("is the daemon running? %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("daemon returned %s for %s", resp.Status, url)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
