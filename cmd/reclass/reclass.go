package reclass

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/conslab/sdm/pkg/sdm/raster"
	"github.com/spf13/cobra"
)

func init() {
	CMD.Flags().StringVarP(&flags.rules, "rules", "r", "", "set the rule table as low:high:out,... triples")
	CMD.Flags().StringVarP(&flags.policy, "policy", "p", "", "set the policy for unmatched cells (nodata or keep)")
	CMD.MarkFlagRequired("rules")
	CMD.MarkFlagRequired("policy")
}

var flags = struct {
	rules  string
	policy string
}{}

// CMD defines the sdm reclass command.
var CMD = &cobra.Command{
	Use:   "reclass [flags] IN OUT",
	Short: "Reclassify a categorical raster through an ordered rule table",
	Long: `Reclassify a categorical raster through an ordered rule table.

Each rule maps the half-open value range (low, high] to an output
value; the first matching rule wins.  Cells matching no rule either
become no-data or keep their value, depending on the policy.`,
	Args: cobra.ExactArgs(2),
	Run:  run,
}

func run(_ *cobra.Command, args []string) {
	rules, err := parseRules(flags.rules)
	chk(err)
	policy, err := parsePolicy(flags.policy)
	chk(err)
	l, err := raster.ReadLayer(args[0])
	chk(err)
	out, err := l.Reclassify(rules, policy)
	chk(err)
	chk(raster.WriteLayer(out, args[1]))
}

func parseRules(s string) ([]raster.Rule, error) {
	var rules []raster.Rule
	for _, triple := range strings.Split(s, ",") {
		parts := strings.Split(triple, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("parse rules: bad triple %q", triple)
		}
		var rule raster.Rule
		var err error
		if rule.Low, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return nil, fmt.Errorf("parse rules: bad low %q", parts[0])
		}
		if rule.High, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return nil, fmt.Errorf("parse rules: bad high %q", parts[1])
		}
		if rule.Out, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return nil, fmt.Errorf("parse rules: bad out %q", parts[2])
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

func parsePolicy(s string) (raster.Policy, error) {
	switch s {
	case "nodata":
		return raster.PolicyNoData, nil
	case "keep":
		return raster.PolicyKeep, nil
	}
	return 0, fmt.Errorf("parse policy: %q is neither nodata nor keep", s)
}

func chk(err error) {
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}
