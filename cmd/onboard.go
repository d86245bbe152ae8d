package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reka-labs/salesbot/internal/onboard"
	"github.com/reka-labs/salesbot/pkg/completion"
)

var onboardInput onboard.Input

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Set up a new account with its product and targeting",
	Long:  "Creates the account, product, and ideal-customer profile rows. Target industries and pain points are optional; when omitted they are suggested from the product description.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		analyzer := onboard.NewAnalyzer(completion.NewClient(cfg.Completion.Key), cfg.Completion)
		account, err := onboard.Run(ctx, st, analyzer, onboardInput)
		if err != nil {
			return err
		}

		fmt.Printf("Account created: %s (%s)\n", account.ID, account.Email)
		return nil
	},
}

func init() {
	f := onboardCmd.Flags()
	f.StringVar(&onboardInput.Name, "name", "", "contact full name (required)")
	f.StringVar(&onboardInput.Email, "email", "", "contact email, notifications go here (required)")
	f.StringVar(&onboardInput.CompanyName, "company", "", "company name (required)")
	f.StringVar(&onboardInput.Website, "website", "", "company website")
	f.StringVar(&onboardInput.Industry, "industry", "", "company industry")
	f.StringVar(&onboardInput.ProductName, "product", "", "product or service name (required)")
	f.StringVar(&onboardInput.ProductDescription, "description", "", "what the product does and the problems it solves (required)")
	f.StringSliceVar(&onboardInput.TargetIndustries, "target-industries", nil, "industries to prospect in (suggested from the description when omitted)")
	f.StringSliceVar(&onboardInput.PainPoints, "pain-points", nil, "pain points the product solves (suggested when omitted)")
	f.StringVar(&onboardInput.Geography, "geography", "", "target regions or countries")

	rootCmd.AddCommand(onboardCmd)
}
