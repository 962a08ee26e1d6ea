package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/factory"
)

// app is the state shared by subcommands once the root has run.
type app struct {
	cfg    *config.Config
	log    *logrus.Logger
	policy factory.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var (
		policyFile string
		logLevel   string
	)

	cmd := &cobra.Command{
		Use:          "payroll",
		Short:        "Seniority and net pay engine",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("policy") {
				cfg.PolicyFile = policyFile
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			a.cfg = cfg
			a.log = cfg.NewLogger()

			a.policy, err = factory.NewPolicyFactory().LoadFile(cfg.PolicyFile)
			if err != nil {
				return fmt.Errorf("load policy: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&policyFile, "policy", "", "Payroll policy JSON file (env POLICY_FILE)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "silent|error|warn|info|debug (env LOG_LEVEL)")

	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newComputeCmd(a))
	cmd.AddCommand(newPriceCmd(a))
	cmd.AddCommand(newPolicyCmd(a))
	return cmd
}

func newPolicyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the policy in force as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), factory.NewPolicyFactory().ToJSON(a.policy))
		},
	}
}
