package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"voiceclip/internal/app"
	"voiceclip/internal/config"
)

func NewRunCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Wait for the hotkey and transcribe each recording (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps, true)
			if errors.Is(err, errDefaultWritten) {
				return nil
			}
			if err != nil {
				return err
			}
			logger := newLogger(cfg, deps.Stderr)
			if err := config.InitCacheDir(&cfg); err != nil {
				logger.Warn("cache disabled", "error", err)
			}
			return app.RunRecordMode(cmd.Context(), cfg, deps.Stdin, logger)
		},
	}
}
