package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"voiceclip/internal/config"
)

func NewModelsCmd(deps *Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List whisper model presets and whether they are downloaded",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(deps, false)
			if err != nil {
				return err
			}
			fmt.Fprintf(deps.Stdout, "Models in %s:\n", cfg.ModelDir)
			for _, m := range config.Models {
				status := "missing"
				if _, err := os.Stat(filepath.Join(cfg.ModelDir, m.FileName())); err == nil {
					status = "ok"
				}
				marker := " "
				if string(m) == cfg.Model {
					marker = "*"
				}
				fmt.Fprintf(deps.Stdout, "%s %-10s %-22s %s\n", marker, m, m.FileName(), status)
			}
			return nil
		},
	}
}
