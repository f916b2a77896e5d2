package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nomen/internal/config"
	"nomen/internal/faults"
	"nomen/internal/filestore"
	"nomen/internal/metadata"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and edit the record store",
	}
	cmd.AddCommand(newRecordsListCommand(ctx))
	cmd.AddCommand(newRecordsEditCommand(ctx))
	cmd.AddCommand(newRecordsRevertCommand(ctx))
	cmd.AddCommand(newRecordsSaveCommand(ctx))
	cmd.AddCommand(newRecordsDeleteCommand(ctx))
	return cmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	var (
		dir        string
		status     string
		limit      int
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored file records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := filestore.ListOptions{Status: filestore.Status(status), Limit: limit}
			if status != "" && !opts.Status.Valid() {
				return faults.Wrap(faults.ErrValidation, "records", fmt.Sprintf("unknown status %q", status), nil)
			}
			if dir != "" {
				expanded, err := config.ExpandPath(dir)
				if err != nil {
					return err
				}
				opts.Directory = expanded
			}

			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			records, err := s.store.List(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if jsonOutput {
				if records == nil {
					records = []*filestore.Record{}
				}
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				category, _ := rec.Metadata.Get(metadata.Category)
				rows = append(rows, []string{
					rec.ID,
					rec.Path,
					string(rec.Status),
					category,
					fmt.Sprintf("%.2fs", rec.Technical.DurationSeconds),
					humanize.IBytes(uint64(rec.Technical.FileSizeBytes)),
				})
			}
			printRows(cmd.OutOrStdout(),
				[]string{"ID", "Path", "Status", "Category", "Duration", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight},
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "Only records inside this directory")
	cmd.Flags().StringVar(&status, "status", "", "Only records with this status (unmodified, modified, saved)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newRecordsDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Remove records; the files are not touched",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			removed := 0
			for _, id := range args {
				ok, err := s.store.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if ok {
					removed++
				} else {
					fmt.Fprintf(cmd.ErrOrStderr(), "No record %s\n", id)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s record(s)\n", strconv.Itoa(removed))
			return nil
		},
	}
}

func newRecordsEditCommand(ctx *commandContext) *cobra.Command {
	var (
		flags      metadataFlags
		unset      []string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Stage metadata changes in a record without writing the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.empty() && len(unset) == 0 {
				return faults.Wrap(faults.ErrValidation, "records", "nothing to edit; pass --set, --custom or --unset", nil)
			}
			md, err := flags.build()
			if err != nil {
				return err
			}
			keys := make([]metadata.Key, 0, len(unset))
			for _, name := range unset {
				key, ok := metadata.ParseKey(name)
				if !ok {
					return faults.Wrap(faults.ErrValidation, "flags", fmt.Sprintf("unknown field %q", name), nil)
				}
				keys = append(keys, key)
			}

			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.library().Edit(cmd.Context(), args[0], md, keys)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rec)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Record: %s (%s)\n", rec.ID, rec.Status)
			fmt.Fprintf(out, "Changed: %s\n", strings.Join(rec.ChangedFields, ", "))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringArrayVar(&unset, "unset", nil, "Field to clear from the record, repeatable")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newRecordsRevertCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "revert ID",
		Short: "Discard staged changes by reading the file again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			rec, err := s.library().Revert(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, rec)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reverted %s (%s)\n", rec.Path, rec.Status)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func newRecordsSaveCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "save ID...",
		Short: "Write the staged metadata of each record to its file",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, true)
			if err != nil {
				return err
			}
			defer s.close()

			result := s.library().SaveRecords(cmd.Context(), args)
			if jsonOutput {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, saved := range result.Saved {
					printSaved(out, saved)
				}
				for _, failed := range result.Failed {
					fmt.Fprintf(out, "Failed %s [%s]: %v\n", failed.ID, failed.Code, failed.Err)
				}
			}
			if len(result.Failed) > 0 {
				return fmt.Errorf("%d of %d record(s) not saved", len(result.Failed), len(args))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}
