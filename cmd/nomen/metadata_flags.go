package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"nomen/internal/faults"
	"nomen/internal/metadata"
)

type metadataFlags struct {
	sets    []string
	customs []string
}

func (f *metadataFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.sets, "set", nil, "Field assignment key=value, repeatable (an empty value clears the field)")
	cmd.Flags().StringArrayVar(&f.customs, "custom", nil, "Custom USER tag assignment TAG=value, repeatable")
}

// build turns the flags into metadata. Only named keys are present, so
// fields left off the command line are preserved in the file.
func (f *metadataFlags) build() (*metadata.Metadata, error) {
	md := &metadata.Metadata{}
	for _, raw := range f.sets {
		name, value, err := splitAssignment("--set", raw)
		if err != nil {
			return nil, err
		}
		key, ok := metadata.ParseKey(name)
		if !ok {
			return nil, faults.Wrap(faults.ErrValidation, "flags", fmt.Sprintf("unknown field %q", name), nil)
		}
		if err := md.Set(key, value); err != nil {
			return nil, err
		}
	}
	for _, raw := range f.customs {
		tag, value, err := splitAssignment("--custom", raw)
		if err != nil {
			return nil, err
		}
		md.SetCustom(tag, value)
	}
	if err := md.Validate(); err != nil {
		return nil, err
	}
	return md, nil
}

func (f *metadataFlags) empty() bool {
	return len(f.sets) == 0 && len(f.customs) == 0
}

func splitAssignment(flag, raw string) (string, string, error) {
	name, value, ok := strings.Cut(raw, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", faults.Wrap(faults.ErrValidation, "flags", fmt.Sprintf("%s %q must be name=value", flag, raw), nil)
	}
	return name, value, nil
}
