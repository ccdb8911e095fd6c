package cmd

import (
	"fmt"

	"github.com/lehigh-university-libraries/bibmatch/internal/callnumber"
	"github.com/lehigh-university-libraries/bibmatch/internal/matchkey"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newCallNumberCmd() *cobra.Command {
	var assumeLC bool

	cmd := &cobra.Command{
		Use:   "callnumber CLASSIFICATION [CUTTER...]",
		Short: "Split a call number into LC class, sub-class and Cutters",
		Args:  cobra.MinimumNArgs(1),
		Example: `  bibmatch callnumber --lc PS3556.I8 .S32 2001
  bibmatch callnumber 1PS3556.S32`,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed := callnumber.Parse(args[0], args[1:], assumeLC)
			out := struct {
				callnumber.Parsed `yaml:",inline"`
				LC                bool `yaml:"lc"`
			}{parsed, parsed.IsLC()}
			return writeYAML(cmd, out)
		},
	}

	cmd.Flags().BoolVar(&assumeLC, "lc", false, "Treat the classification as Library of Congress")

	return cmd
}

func newCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare KEY KEY",
		Short: "Compare two match keys segment by segment",
		Long: `Score how close two match keys are. Each segment is compared on its
Levenshtein similarity and the scores are combined with fixed weights that
favour title and author.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, b := matchkey.Key(args[0]), matchkey.Key(args[1])
			for _, k := range []matchkey.Key{a, b} {
				if k.Len() < matchkey.FixedWidth {
					return fmt.Errorf("match key too short: %d characters, want at least %d", k.Len(), matchkey.FixedWidth)
				}
			}
			return writeYAML(cmd, matchkey.Compare(a, b))
		},
	}

	return cmd
}

func writeYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
