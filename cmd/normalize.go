package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/kalaam-crawler/internal/phonetic"
)

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "normalize <text>",
		Short:       "Print the phonetic search key for a title",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{annotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), phonetic.Key(strings.Join(args, " ")))
			return err
		},
	}
}
