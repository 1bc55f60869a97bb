// Command ledgerctl is a small operator client for a running splitledger
// server.
//
//	ledgerctl token <member>                 mint a bearer token from JWT_SECRET
//	ledgerctl balances <group_id>            print member balances
//	ledgerctl settlements <group_id>         print the settlement plan
//	ledgerctl remind <group_id> <from> <to>  send a settlement reminder
//
// LEDGER_URL (default http://localhost:8080) selects the server and
// LEDGER_TOKEN is sent as the bearer token when set.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"text/tabwriter"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/pkg/ledgerrpc"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	logging.SetupWithLevel(slog.LevelWarn)
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "usage: ledgerctl token|balances|settlements|remind ARGS...")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Stdout, os.Args[1], os.Args[2:]); err != nil {
		cancel()
		slog.Error("Command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer, cmd string, args []string) error {
	if cmd == "token" {
		cfg := config.Load()
		if !cfg.AuthEnabled() {
			return fmt.Errorf("JWT_SECRET is not set")
		}
		token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL).Generate(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, token)
		return nil
	}

	baseURL := os.Getenv("LEDGER_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	var opts []connect.ClientOption
	if token := os.Getenv("LEDGER_TOKEN"); token != "" {
		opts = append(opts, connect.WithInterceptors(bearer(token)))
	}
	client := ledgerrpc.NewLedgerServiceClient(http.DefaultClient, baseURL, opts...)

	switch cmd {
	case "balances":
		resp, err := client.GetBalances(ctx, connect.NewRequest(&ledgerrpc.GetBalancesRequest{GroupID: args[0]}))
		if err != nil {
			return err
		}
		printBalances(out, resp.Msg)
	case "settlements":
		resp, err := client.GetSettlements(ctx, connect.NewRequest(&ledgerrpc.GetSettlementsRequest{GroupID: args[0]}))
		if err != nil {
			return err
		}
		printSettlements(out, resp.Msg)
	case "remind":
		if len(args) < 3 {
			return fmt.Errorf("usage: ledgerctl remind <group_id> <from> <to>")
		}
		resp, err := client.SendReminder(ctx, connect.NewRequest(&ledgerrpc.SendReminderRequest{
			GroupID: args[0], From: args[1], To: args[2],
		}))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "reminded %s to pay %s %s\n", args[1], args[2], resp.Msg.Amount)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func bearer(token string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			req.Header().Set("Authorization", "Bearer "+token)
			return next(ctx, req)
		}
	}
}

func printBalances(out io.Writer, b *ledgerrpc.GetBalancesResponse) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "MEMBER\tPAID\tSHARE\tTRANSFERS\tBALANCE\t")
	for _, m := range b.Members {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n", m.Member, m.Paid, m.Share, m.NetTransfers, m.Balance)
	}
	tw.Flush()
	fmt.Fprintf(out, "total spent: %s\n", b.TotalSpent)
	printWarnings(out, b.Warnings)
}

func printSettlements(out io.Writer, p *ledgerrpc.GetSettlementsResponse) {
	if len(p.Settlements) == 0 {
		fmt.Fprintln(out, "all settled")
	}
	for _, s := range p.Settlements {
		fmt.Fprintf(out, "%s -> %s: %s\n", s.From, s.To, s.Amount)
	}
	printWarnings(out, p.Warnings)
}

func printWarnings(out io.Writer, ws []ledgerrpc.Warning) {
	for _, w := range ws {
		fmt.Fprintf(out, "warning %s: %s\n", w.Kind, w.Message)
	}
}
