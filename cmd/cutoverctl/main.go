package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"market-cutover/pkg/client"
	"market-cutover/pkg/migration"
	"market-cutover/pkg/model"
	"market-cutover/pkg/target"
	"market-cutover/pkg/version"
)

const usage = `usage: cutoverctl [flags] <command> [args]

commands:
  freeze | validate | test-ui | test-integrations | activate
  delete-legacy -approve
  steps | report | detailed | readiness | rules | audit
  snapshots | snapshot ID | restore ID | delete-snapshot ID
  watch
`

func main() {
	defaultController := os.Getenv("CONTROLLER_ADDR")
	if defaultController == "" {
		defaultController = "http://127.0.0.1:8080"
	}
	controller := flag.String("controller", defaultController, "controller base URL (env CONTROLLER_ADDR)")
	token := flag.String("token", os.Getenv("AUTH_TOKEN"), "operator token or JWT (env AUTH_TOKEN)")
	adminKey := flag.String("admin-key", os.Getenv("ADMIN_KEY"), "admin key for restore/delete-snapshot (env ADMIN_KEY)")
	approve := flag.Bool("approve", false, "confirm delete-legacy")
	caFile := flag.String("ca", os.Getenv("CA_FILE"), "CA file for controller TLS (optional)")
	clientCert := flag.String("cert", "", "client TLS certificate (for mTLS)")
	clientKey := flag.String("key", "", "client TLS key (for mTLS)")
	insecure := flag.Bool("insecure", false, "skip TLS verify for controller (not recommended)")
	timeout := flag.Duration("timeout", 2*time.Minute, "request timeout")
	showVersion := flag.Bool("v", false, "print version and exit")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync() //nolint:errcheck

	if *showVersion {
		fmt.Printf("cutoverctl version=%s\n", version.Build)
		return
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	hc, err := client.BuildHTTPClient(*caFile, *clientCert, *clientKey, *insecure)
	if err != nil {
		logger.Fatal("http client build failed", zap.Error(err))
	}
	hc.Timeout = *timeout
	c := client.New(*controller, *token, hc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ok, err := runCommand(ctx, c, flag.Args(), *adminKey, *approve)
	if err != nil {
		logger.Fatal("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
	}
	if !ok {
		os.Exit(1)
	}
}

// runCommand executes one command. ok is false when a step did not complete.
func runCommand(ctx context.Context, c *client.Client, args []string, adminKey string, approve bool) (bool, error) {
	cmd := args[0]
	arg := func() (string, error) {
		if len(args) < 2 {
			return "", fmt.Errorf("%s requires an id", cmd)
		}
		return args[1], nil
	}
	switch cmd {
	case "freeze", "validate", "test-ui", "test-integrations", "activate":
		resp, err := c.Step(ctx, cmd)
		if err != nil {
			return false, err
		}
		return resp.Success, printJSON(resp)
	case "delete-legacy":
		resp, err := c.DeleteLegacy(ctx, approve)
		if err != nil {
			return false, err
		}
		return resp.Success, printJSON(resp)
	case "steps":
		var out []model.MigrationStep
		return true, getAndPrint(ctx, c, "/api/v1/migration/steps", &out)
	case "report":
		var out migration.Report
		return true, getAndPrint(ctx, c, "/api/v1/migration/report", &out)
	case "detailed":
		var out migration.DetailedReport
		return true, getAndPrint(ctx, c, "/api/v1/migration/report/detailed", &out)
	case "readiness":
		var out target.Readiness
		return true, getAndPrint(ctx, c, "/api/v1/target/readiness", &out)
	case "rules":
		var out []model.BusinessRuleStatus
		return true, getAndPrint(ctx, c, "/api/v1/rules", &out)
	case "audit":
		var out []model.AuditEntry
		return true, getAndPrint(ctx, c, "/api/v1/audit", &out)
	case "snapshots":
		var out []model.Snapshot
		if err := c.GetJSON(ctx, "/api/v1/snapshots", &out); err != nil {
			return false, err
		}
		summary := make([]snapshotSummary, len(out))
		for i, s := range out {
			summary[i] = snapshotSummary{ID: s.ID, FreezeDate: s.FreezeDate, Description: s.Description, Metadata: s.Metadata}
		}
		return true, printJSON(summary)
	case "snapshot":
		id, err := arg()
		if err != nil {
			return false, err
		}
		var out model.Snapshot
		return true, getAndPrint(ctx, c, "/api/v1/snapshots/"+id, &out)
	case "restore":
		id, err := arg()
		if err != nil {
			return false, err
		}
		if err := c.RestoreSnapshot(ctx, id, adminKey); err != nil {
			return false, err
		}
		fmt.Printf("snapshot %s restored\n", id)
		return true, nil
	case "delete-snapshot":
		id, err := arg()
		if err != nil {
			return false, err
		}
		if err := c.DeleteSnapshot(ctx, id, adminKey); err != nil {
			return false, err
		}
		fmt.Printf("snapshot %s deleted\n", id)
		return true, nil
	case "watch":
		return true, c.Watch(ctx, func(e model.StepEvent) {
			fmt.Printf("%s %-18s %-11s %s%s\n", e.Timestamp.Format(time.RFC3339), e.Step.ID, e.Step.Status, e.Step.Details, e.Step.ErrorMessage)
		})
	default:
		return false, fmt.Errorf("unknown command %q", cmd)
	}
}

type snapshotSummary struct {
	ID          string                 `json:"id"`
	FreezeDate  time.Time              `json:"freezeDate"`
	Description string                 `json:"description"`
	Metadata    model.SnapshotMetadata `json:"metadata"`
}

func getAndPrint(ctx context.Context, c *client.Client, path string, out interface{}) error {
	if err := c.GetJSON(ctx, path, out); err != nil {
		return err
	}
	return printJSON(out)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
