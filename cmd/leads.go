package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/reka-labs/salesbot/internal/model"
	"github.com/reka-labs/salesbot/internal/store"
)

var (
	leadsStatus  string
	leadsAccount string
	leadsLimit   int
	leadsJSON    bool
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List persisted leads",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if leadsStatus != "" && !model.ValidLeadStatus(model.LeadStatus(leadsStatus)) {
			return eris.Errorf("unknown status %q", leadsStatus)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		leads, err := st.ListLeads(ctx, store.LeadFilter{
			AccountID: leadsAccount,
			Status:    model.LeadStatus(leadsStatus),
			Limit:     leadsLimit,
		})
		if err != nil {
			return err
		}

		if leadsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(leads)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "COMPANY\tWEBSITE\tCONTACT\tSTATUS\tCREATED")
		for _, l := range leads {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				l.CompanyName, l.CompanyWebsite, l.LeadEmail, l.Status,
				l.CreatedAt.Format("2006-01-02"),
			)
		}
		return w.Flush()
	},
}

func init() {
	f := leadsCmd.Flags()
	f.StringVar(&leadsStatus, "status", "", "filter by status (new, qualified, contacted, converted, rejected)")
	f.StringVar(&leadsAccount, "account", "", "filter by account id")
	f.IntVar(&leadsLimit, "limit", 50, "maximum leads to list")
	f.BoolVar(&leadsJSON, "json", false, "output JSON instead of a table")

	rootCmd.AddCommand(leadsCmd)
}
