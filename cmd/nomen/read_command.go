package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"nomen/internal/metadata"
	"nomen/internal/reader"
)

func newReadCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "read FILE",
		Short: "Show technical details and metadata of a WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.open(cmd, false)
			if err != nil {
				return err
			}
			defer s.close()

			snap, err := reader.Read(args[0], s.logger)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, snap)
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON")
	return cmd
}

func printSnapshot(w io.Writer, snap *reader.Snapshot) {
	t := snap.Technical
	printSection(w, "Technical", []field{
		{"Path", snap.Path},
		{"Format", t.AudioFormat},
		{"Sample rate", fmt.Sprintf("%d Hz", t.SampleRate)},
		{"Bit depth", strconv.Itoa(int(t.BitDepth))},
		{"Channels", strconv.Itoa(int(t.Channels))},
		{"Frames", humanize.Comma(t.FrameCount)},
		{"Duration", fmt.Sprintf("%.3fs", t.DurationSeconds)},
		{"Size", fmt.Sprintf("%s (%s bytes)", humanize.IBytes(uint64(t.FileSizeBytes)), humanize.Comma(t.FileSizeBytes))},
	})
	if b := snap.Bext; b != nil {
		printSection(w, "Broadcast extension", nonEmpty([]field{
			{"Description", b.Description},
			{"Originator", b.Originator},
			{"Origination date", b.OriginationDate},
			{"Origination time", b.OriginationTime},
			{"Time reference", humanize.Comma(int64(b.TimeReference))},
			{"Coding history", b.CodingHistory},
		}))
	}
	if i := snap.Info; i != nil {
		printSection(w, "RIFF INFO", nonEmpty([]field{
			{"Title", i.Title},
			{"Artist", i.Artist},
			{"Genre", i.Genre},
			{"Comment", i.Comment},
			{"Created", i.CreatedDate},
			{"Software", i.Software},
			{"Copyright", i.Copyright},
			{"Product", i.Product},
			{"Keywords", i.Keywords},
		}))
	}
	printSection(w, "Metadata", metadataFields(snap.Metadata))
}

func metadataFields(md *metadata.Metadata) []field {
	var out []field
	for _, k := range md.Present() {
		v, _ := md.Get(k)
		out = append(out, field{string(k), v})
	}
	for _, tag := range md.CustomTags() {
		out = append(out, field{"custom." + tag, md.CustomFields[tag]})
	}
	return out
}

func nonEmpty(fields []field) []field {
	out := fields[:0]
	for _, f := range fields {
		if f.value != "" {
			out = append(out, f)
		}
	}
	return out
}
