package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

func newGenerateCommand() *cobra.Command {
	var teacherID string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate next week's bookable slots once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, cleanup, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			var only *string
			if teacherID != "" {
				only = &teacherID
			}

			res, err := a.Generator.GenerateForWeek(cmd.Context(), only)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVar(&teacherID, "teacher", "", "only generate for this teacher id")

	return cmd
}
