package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ctiport/bcauth/internal/config"
	"github.com/ctiport/bcauth/internal/fabric"
)

var invokeOrg string

func init() {
	rootCmd.AddCommand(invokeCmd)
	invokeCmd.Flags().StringVar(&invokeOrg, "org", "", "Organization identity (defaults to config default_org)")
}

var invokeCmd = &cobra.Command{
	Use:   "invoke <chaincode> <function> [arg...]",
	Short: "Run a single chaincode invocation",
	Long:  "Builds the peer CLI command for one invocation, runs it through the\nbridge and prints the interpreted result. Exits 1 on an error outcome.",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runInvoke,
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	bridge := fabric.NewBridge(cfg.Bridge.Cooldown(), cfg.Bridge.Timeout())
	ledger := fabric.NewLedger(cfg.Fabric, bridge, nil, nil)

	res := ledger.Call(context.Background(), invokeOrg, args[0], args[1], args[2:])
	out, _ := json.MarshalIndent(map[string]string{
		"outcome": string(res.Outcome),
		"payload": res.Payload,
	}, "", "  ")
	fmt.Println(string(out))

	if res.Err() {
		os.Exit(1)
	}
	return nil
}
