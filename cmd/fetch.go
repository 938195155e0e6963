// File: cmd/fetch.go
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/orderlens/api/schemas"
	"github.com/xkilldash9x/orderlens/internal/api"
	"github.com/xkilldash9x/orderlens/internal/automation"
	"github.com/xkilldash9x/orderlens/internal/observability"
	"github.com/xkilldash9x/orderlens/internal/orders"
)

func newFetchCmd() *cobra.Command {
	var (
		mobile string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Log in interactively and print the order history",
		Long: `fetch runs the whole flow in one process: it submits the mobile number,
prompts for the one-time password on stdin, then extracts and summarizes orders.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(mobile) == "" {
				return errors.New("--mobile is required")
			}
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}

			workflow := newWorkflow(cfg, observability.GetLogger())
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				_ = workflow.Shutdown(ctx)
			}()

			return runFetch(cmd.Context(), workflow, strings.TrimSpace(mobile), cmd.InOrStdin(), cmd.OutOrStdout(), asJSON)
		},
	}

	cmd.Flags().StringVarP(&mobile, "mobile", "m", "", "mobile number registered with the service")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print orders and summaries as JSON")
	return cmd
}

// fetchReport is the --json output.
type fetchReport struct {
	Orders  []schemas.Order         `json:"orders"`
	Months  []schemas.MonthlyBucket `json:"months"`
	Overall schemas.Summary         `json:"overall"`
}

func runFetch(ctx context.Context, wf api.Workflow, mobile string, in io.Reader, out io.Writer, asJSON bool) error {
	login := wf.BeginLogin(ctx, mobile)
	if !login.Success {
		return fmt.Errorf("login failed: %s", login.Message)
	}

	if login.NeedsOTP {
		if err := promptOTP(ctx, wf, login.SessionID, in, out); err != nil {
			wf.Cancel(ctx, login.SessionID)
			return err
		}
	}

	res := wf.ExtractOrders(ctx, login.SessionID)
	if !res.Success && res.ErrorCode != string(automation.ErrCodeEmptyResult) {
		return fmt.Errorf("extraction failed: %s", res.Message)
	}

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(fetchReport{
			Orders:  res.Orders,
			Months:  orders.Monthly(res.Orders),
			Overall: orders.Summarize(res.Orders),
		})
	}
	return printOrders(out, res.Orders)
}

// promptOTP reads codes from in until one is accepted or the session ends.
func promptOTP(ctx context.Context, wf api.Workflow, sessionID string, in io.Reader, out io.Writer) error {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "Enter the one-time password: ")
		line, readErr := reader.ReadString('\n')
		code := strings.TrimSpace(line)
		if code == "" {
			if readErr != nil {
				return fmt.Errorf("no one-time password entered: %w", readErr)
			}
			continue
		}

		res := wf.SubmitOTP(ctx, sessionID, code)
		if res.Success {
			fmt.Fprintln(out, "Verified.")
			return nil
		}
		switch automation.ErrorCode(res.ErrorCode) {
		case automation.ErrCodeVerification, automation.ErrCodeInputNotFound:
			fmt.Fprintln(out, res.Message)
			if readErr != nil {
				return fmt.Errorf("one-time password rejected: %s", res.Message)
			}
		default:
			return fmt.Errorf("one-time password failed: %s", res.Message)
		}
	}
}

func printOrders(out io.Writer, list []schemas.Order) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No orders found.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tRESTAURANT\tAMOUNT")
	for _, o := range list {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\n", o.Date, o.RestaurantName, o.Amount)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "MONTH\tORDERS\tTOTAL\tAVERAGE")
	for _, m := range orders.Monthly(list) {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", monthLabel(m.Month), m.Count, m.Total, m.Average)
	}
	overall := orders.Summarize(list)
	fmt.Fprintf(tw, "ALL\t%d\t%.2f\t%.2f\n", overall.Count, overall.Total, overall.Average)
	return tw.Flush()
}

// monthLabel renders YYYY-MM as "Mar 2024".
func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 2006")
}
