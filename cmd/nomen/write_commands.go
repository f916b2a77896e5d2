package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nomen/internal/faults"
	"nomen/internal/writer"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	var flags metadataFlags
	var verify bool

	cmd := &cobra.Command{
		Use:   "write FILE",
		Short: "Merge metadata into a WAV file in place",
		Long: "Write merges the given fields into the file's bext, iXML and LIST/INFO chunks.\n" +
			"Fields not named on the command line are left as stored. The file is replaced\n" +
			"atomically, so a failed write leaves it untouched.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := flags.build()
			if err != nil {
				return err
			}
			s, err := ctx.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			if !cmd.Flags().Changed("verify") {
				verify = s.cfg.Writer.VerifyAfterWrite
			}
			path := args[0]
			report, err := writer.NewFromConfig(s.cfg, s.logger).WriteMetadata(path, md)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote %d field(s) to %s (%s)\n",
				len(md.Present())+len(md.CustomFields), path, humanize.IBytes(uint64(report.Size)))
			var created []string
			if report.BextCreated {
				created = append(created, "bext")
			}
			if report.IXMLCreated {
				created = append(created, "iXML")
			}
			if report.InfoCreated {
				created = append(created, "LIST/INFO")
			}
			if len(created) > 0 {
				fmt.Fprintf(out, "Created chunks: %s\n", strings.Join(created, ", "))
			}
			if report.ChunksDropped > 0 {
				fmt.Fprintf(out, "Dropped duplicate chunks: %d\n", report.ChunksDropped)
			}
			if report.IXMLFallback != nil {
				fmt.Fprintf(out, "Rebuilt iXML: existing document was %s\n", report.IXMLFallback.Reason)
			}

			if !verify {
				return nil
			}
			result := writer.VerifyWrite(path, md)
			if !result.OK {
				return faults.Wrap(faults.ErrVerification, "verify", strings.Join(result.Errors, "; "), nil)
			}
			fmt.Fprintln(out, "Verified")
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().BoolVar(&verify, "verify", false, "Read the file back and compare (default from writer.verify_after_write)")
	return cmd
}

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	var flags metadataFlags

	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check that a WAV file holds the given metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			md, err := flags.build()
			if err != nil {
				return err
			}
			result := writer.VerifyWrite(args[0], md)
			out := cmd.OutOrStdout()
			if !result.OK {
				for _, msg := range result.Errors {
					fmt.Fprintf(out, "MISMATCH %s\n", msg)
				}
				return faults.Wrap(faults.ErrVerification, "verify", fmt.Sprintf("%d mismatch(es)", len(result.Errors)), nil)
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
