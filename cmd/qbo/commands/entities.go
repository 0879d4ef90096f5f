package commands

import (
	"github.com/spf13/cobra"

	"github.com/apigrate/quickbooks/internal/constants"
	"github.com/apigrate/quickbooks/pkg/qbo"
)

type entityView struct {
	Handle       string   `json:"handle"       yaml:"handle"`
	Name         string   `json:"name"         yaml:"name"`
	Fragment     string   `json:"fragment"     yaml:"fragment"`
	Report       bool     `json:"report"       yaml:"report"`
	Capabilities []string `json:"capabilities" yaml:"capabilities"`
}

// NewEntitiesCommand creates the entities command.
func NewEntitiesCommand() *cobra.Command {
	var reportsOnly, entitiesOnly bool

	cmd := &cobra.Command{
		Use:     "entities",
		Aliases: []string{"registry"},
		Short:   "List supported entities and reports",
		Long:    "List every accounting entity and report with the operations it supports",
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat()
			if err != nil {
				return err
			}

			var selected []qbo.EntityDescriptor

			for _, d := range qbo.Registry() {
				if (reportsOnly && !d.IsReport()) || (entitiesOnly && d.IsReport()) {
					continue
				}

				selected = append(selected, d)
			}

			if format != constants.FormatTable {
				views := make([]entityView, 0, len(selected))
				for _, d := range selected {
					views = append(views, entityView{
						Handle:       d.Handle,
						Name:         d.Name,
						Fragment:     d.Fragment,
						Report:       d.IsReport(),
						Capabilities: d.Capabilities.Names(),
					})
				}

				return writeValue(cmd.OutOrStdout(), format, views)
			}

			flags := []qbo.Capability{
				qbo.CapabilityQuery, qbo.CapabilityCreate, qbo.CapabilityRead,
				qbo.CapabilityUpdate, qbo.CapabilityDelete, qbo.CapabilityReport,
			}

			rows := make([][]string, 0, len(selected))

			for _, d := range selected {
				row := []string{d.Handle, d.Fragment}
				for _, flag := range flags {
					mark := ""
					if d.Capabilities.Has(flag) {
						mark = constants.CheckMarkSymbol
					}

					row = append(row, mark)
				}

				rows = append(rows, row)
			}

			return renderTable(cmd.OutOrStdout(),
				[]string{"Handle", "Fragment", "Query", "Create", "Read", "Update", "Delete", "Report"}, rows)
		},
	}

	cmd.Flags().BoolVar(&reportsOnly, "reports", false, "list reports only")
	cmd.Flags().BoolVar(&entitiesOnly, "no-reports", false, "list business entities only")

	return cmd
}
