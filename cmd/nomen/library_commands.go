package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nomen/internal/filestore"
	"nomen/internal/library"
	"nomen/internal/metadata"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Read files into the record store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			svc := s.library()
			records := make([]*filestore.Record, 0, len(args))
			for _, path := range args {
				rec, err := svc.Import(cmd.Context(), path)
				if err != nil {
					return err
				}
				records = append(records, rec)
			}
			if jsonOutput {
				return writeJSON(cmd, records)
			}
			for _, rec := range records {
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %s (%s)\n", rec.Path, rec.ID)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newScanCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "scan DIR",
		Short: "Import every WAV file below a directory and drop records for removed files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.library().Scan(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			printScan(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func printScan(w io.Writer, result *library.ScanResult) {
	fmt.Fprintf(w, "Imported: %d\n", len(result.Imported))
	fmt.Fprintf(w, "Skipped (not WAV): %d\n", result.Skipped)
	fmt.Fprintf(w, "Removed records: %d\n", result.Removed)
	if len(result.Failed) == 0 {
		return
	}
	fmt.Fprintf(w, "Failed: %d\n", len(result.Failed))
	rows := make([][]string, 0, len(result.Failed))
	for _, f := range result.Failed {
		rows = append(rows, []string{f.Code, f.Path})
	}
	printRows(w, []string{"Code", "Path"}, rows, nil)
}

func newSaveCommand(ctx *commandContext) *cobra.Command {
	var flags metadataFlags
	var copyTo string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "save FILE",
		Short: "Write metadata and refresh the file's record",
		Long: "Save fills creator_id, source_id and library from [settings] when not given,\n" +
			"refuses files changed since import, and with --copy-to writes to a verified\n" +
			"copy instead of the original. Without --set or --custom it writes the values\n" +
			"staged with 'records edit'.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var md *metadata.Metadata
			if !flags.empty() {
				built, err := flags.build()
				if err != nil {
					return err
				}
				md = built
			}
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			result, err := s.library().Save(cmd.Context(), args[0], md, library.SaveOptions{CopyTo: copyTo})
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, result)
			}
			printSaved(cmd.OutOrStdout(), result)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&copyTo, "copy-to", "", "Write to a copy at this path, leaving FILE untouched")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func printSaved(w io.Writer, result *library.SaveResult) {
	fmt.Fprintf(w, "Saved %s\n", result.Target)
	fmt.Fprintf(w, "Verified: %s\n", yesNo(result.Verified))
	fmt.Fprintf(w, "Record: %s (%s)\n", result.Record.ID, result.Record.Status)
}
