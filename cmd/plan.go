package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/GoToMarketNow/lawnflow-dispatch/app"
	"github.com/GoToMarketNow/lawnflow-dispatch/config"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/dispatch"
	"github.com/GoToMarketNow/lawnflow-dispatch/core/model"
)

var (
	planBusiness string
	planDate     string
	planMode     string
	planApply    bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a dispatch plan once and print it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVar(&planBusiness, "business", "", "business identifier (required)")
	planCmd.Flags().StringVar(&planDate, "date", "", "plan date YYYY-MM-DD (default today)")
	planCmd.Flags().StringVar(&planMode, "mode", string(model.ModeEvent), "plan mode: nightly or event")
	planCmd.Flags().BoolVar(&planApply, "apply", false, "apply the plan after computing it")
	_ = planCmd.MarkFlagRequired("business")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	date := time.Now()
	if planDate != "" {
		date, err = time.Parse(model.PlanDateLayout, planDate)
		if err != nil {
			return fmt.Errorf("parse date: %w", err)
		}
	}

	ctx := context.Background()
	req := dispatch.Request{
		BusinessID: planBusiness,
		PlanDate:   date,
		Mode:       model.Mode(planMode),
		Actor:      "cli",
	}
	key, err := req.Key()
	if err != nil {
		return err
	}
	plan, err := svc.Orchestrator.Process(ctx, key)
	if err != nil {
		return err
	}
	if planApply {
		if _, err := svc.Orchestrator.ApplyPlan(ctx, plan.ID, "cli"); err != nil {
			return err
		}
		if plan, err = svc.Orchestrator.PlanByKey(ctx, key); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(plan)
}
