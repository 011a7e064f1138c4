package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
)

func newExtractCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "extract <url>",
		Short: "Fetch one detail page and print the extracted record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			assembly, err := appInstance.Extract(cmd.Context(), args[0], category)
			if err != nil {
				return fmt.Errorf("extract %s: %w", args[0], err)
			}
			out := struct {
				Record   crawler.Record `json:"record"`
				Warnings []string       `json:"warnings,omitempty"`
			}{Record: assembly.Record}
			for _, w := range assembly.Warnings {
				out.Warnings = append(out.Warnings, string(w))
			}
			return writeJSON(cmd, out)
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "masaib category to attach to the record")
	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
