package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/caregiver-faces/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "caregiver-faces",
	Short: "Face registry and recognition for caregiving environments",
	Long: `Caregiver Faces keeps a registry of known faces and tells caregivers,
patients and family members apart. Faces are turned into embeddings by an
extractor service and matched by cosine similarity against the registry.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	slog.SetDefault(newLogger(config.Load().Log))
}
