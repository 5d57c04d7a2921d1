package cli

import (
	"github.com/spf13/cobra"
)

var (
	packPath string
	logPath  string
	profile  string
	shell    string
)

var rootCmd = &cobra.Command{
	Use:   "shellsentry",
	Short: "ShellSentry - advanced command-safety validation",
	Long: `ShellSentry analyzes shell commands before they run: behavioral pattern
scoring, execution-context escalation, multi-command attack-chain detection,
and adaptive learning from operator feedback. Nothing is ever executed;
ShellSentry only assesses.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&packPath, "pack", "", "Path to behavior pack YAML (default: ~/.shellsentry/behavior.yaml)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "Path to audit log file (default: ~/.shellsentry/audit.jsonl)")
	rootCmd.PersistentFlags().StringVar(&profile, "profile", "default", "Analysis profile: default, production, or development")
	rootCmd.PersistentFlags().StringVar(&shell, "shell", "bash", "Shell dialect: bash, zsh, sh, fish, or powershell")
}

func Execute() error {
	return rootCmd.Execute()
}
