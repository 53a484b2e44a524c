package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ucextract/internal/rules"
)

func newRulesCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect distributor rule sets",
	}
	cmd.AddCommand(newRulesListCommand(ctx))
	cmd.AddCommand(newRulesResolveCommand(ctx))
	return cmd
}

type ruleSetView struct {
	Name               string   `json:"name"`
	Aliases            []string `json:"aliases"`
	InstallationLength string   `json:"installation_length"`
	CustomerLength     string   `json:"customer_length"`
	PreferredLengths   []int    `json:"preferred_lengths"`
	InstallationAnchor []string `json:"installation_anchors"`
	CustomerAnchor     []string `json:"customer_anchors"`
	Exclusions         []string `json:"static_exclusions"`
}

func viewRuleSet(rs *rules.RuleSet) ruleSetView {
	labels := func(anchors []rules.Anchor) []string {
		out := make([]string, 0, len(anchors))
		for _, a := range anchors {
			out = append(out, a.Label+" ("+a.Specificity.String()+")")
		}
		return out
	}
	return ruleSetView{
		Name:               rs.Name,
		Aliases:            nonNil(rs.Aliases),
		InstallationLength: rs.InstallationLength.String(),
		CustomerLength:     rs.CustomerLength.String(),
		PreferredLengths:   append([]int{}, rs.PreferredLengths...),
		InstallationAnchor: labels(rs.InstallationAnchors),
		CustomerAnchor:     labels(rs.CustomerAnchors),
		Exclusions:         nonNil(rs.StaticExclusions),
	}
}

func newRulesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available rule sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}
			views := make([]ruleSetView, 0, len(registry.Names()))
			for _, name := range registry.Names() {
				rs, _ := registry.Get(name)
				views = append(views, viewRuleSet(rs))
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, views)
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				preferred := make([]string, 0, len(v.PreferredLengths))
				for _, n := range v.PreferredLengths {
					preferred = append(preferred, strconv.Itoa(n))
				}
				rows = append(rows, []string{
					v.Name,
					v.InstallationLength,
					strings.Join(preferred, ","),
					v.CustomerLength,
					strings.Join(v.Aliases, ", "),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Name", "UC Digits", "Preferred", "Customer Digits", "Aliases"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft}))
			return nil
		},
	}
}

type resolutionView struct {
	Input   string      `json:"input"`
	Key     string      `json:"key"`
	Match   rules.Match `json:"match"`
	Alias   string      `json:"alias,omitempty"`
	RuleSet ruleSetView `json:"rule_set"`
}

func newRulesResolveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <distributor>",
		Short: "Show which rule set a distributor label selects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := ctx.registry()
			if err != nil {
				return err
			}
			res := registry.Resolve(strings.Join(args, " "))
			view := resolutionView{
				Input:   res.Input,
				Key:     res.Key,
				Match:   res.Match,
				Alias:   res.Alias,
				RuleSet: viewRuleSet(res.RuleSet),
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%q -> %s (%s match", view.Input, view.RuleSet.Name, view.Match)
			if view.Alias != "" && view.Alias != view.RuleSet.Name {
				fmt.Fprintf(out, " on %q", view.Alias)
			}
			fmt.Fprintln(out, ")")
			fmt.Fprintf(out, "UC digits: %s, customer digits: %s\n", view.RuleSet.InstallationLength, view.RuleSet.CustomerLength)
			return nil
		},
	}
}
