package cli

import (
	"github.com/spf13/cobra"

	"voiceclip/internal/app"
	"voiceclip/internal/config"
)

func NewFileCmd(deps *Dependencies) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "file <audio>",
		Short: "Transcribe an existing audio file to a .txt file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps, false)
			if err != nil {
				return err
			}
			logger := newLogger(cfg, deps.Stderr)
			if err := config.InitCacheDir(&cfg); err != nil {
				logger.Warn("cache disabled", "error", err)
			}
			return app.RunFileMode(cmd.Context(), cfg, args[0], output, logger)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "transcript path (default <name>.txt in the working directory)")
	return cmd
}
