package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search stored kalaam by how the title sounds",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			if maxLimit := appInstance.Config().Search.MaxLimit; maxLimit > 0 && limit > maxLimit {
				limit = maxLimit
			}
			records, err := appInstance.Search(cmd.Context(), strings.Join(args, " "), limit)
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}
			return writeJSON(cmd, records)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (defaults to search.default_limit)")
	return cmd
}
