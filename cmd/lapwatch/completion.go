package main

import (
	"io"

	"github.com/spf13/cobra"
)

// completionGenerators maps a shell name to its completion script generator.
var completionGenerators = map[string]func(root *cobra.Command, out io.Writer) error{
	"bash": func(root *cobra.Command, out io.Writer) error {
		return root.GenBashCompletionV2(out, true)
	},
	"zsh": func(root *cobra.Command, out io.Writer) error {
		return root.GenZshCompletion(out)
	},
	"fish": func(root *cobra.Command, out io.Writer) error {
		return root.GenFishCompletion(out, true)
	},
	"powershell": func(root *cobra.Command, out io.Writer) error {
		return root.GenPowerShellCompletionWithDesc(out)
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a shell completion script for lapwatch and write it to stdout.

  bash:        source <(lapwatch completion bash)
  zsh:         lapwatch completion zsh > "${fpath[1]}/_lapwatch"
  fish:        lapwatch completion fish | source
  powershell:  lapwatch completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionGenerators[args[0]](cmd.Root(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
