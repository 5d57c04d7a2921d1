package cli

import (
	"fmt"
	"os"

	"github.com/shellsentry/shellsentry/internal/audit"

	"github.com/spf13/cobra"
)

var chainCmd = &cobra.Command{
	Use:   "chain <command> [command...]",
	Short: "Analyze an ordered sequence of commands together",
	Long: `Assess each command individually, then look for multi-step attack
shapes across the sequence: reconnaissance before elevation, collect-package-
transfer, download then execute.

  shellsentry chain "whoami" "uname -a" "sudo su -"`,
	Args: cobra.MinimumNArgs(1),
	RunE: chainCommand,
}

func init() {
	rootCmd.AddCommand(chainCmd)
}

func chainCommand(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.close()

	res := sess.validator.AnalyzeChain(args, shellKind())

	fmt.Printf("%s chain of %d commands\n", levelIcon(res.ThreatLevel), len(args))
	for i, command := range args {
		fmt.Printf("  %2d. %s\n", i+1, command)
	}
	fmt.Printf("  Threat level: %s\n", res.ThreatLevel)
	for _, w := range res.BehavioralWarnings {
		fmt.Printf("  ! %s\n", w)
	}
	for _, rec := range res.Recommendations {
		fmt.Printf("  > %s\n", rec)
	}

	if err := sess.logger.Log(audit.Event{
		Chain:          args,
		Shell:          string(shellKind()),
		ThreatLevel:    res.ThreatLevel.String(),
		Allowed:        res.Basic.Allowed,
		Patterns:       patternStrings(res),
		Warnings:       res.BehavioralWarnings,
		AnalysisTimeMS: res.AnalysisTimeMS,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "warning: audit log write failed: %v\n", err)
	}

	if !res.Basic.Allowed {
		os.Exit(1)
	}
	return nil
}
