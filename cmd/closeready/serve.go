package main

import (
	"github.com/spf13/cobra"

	"github.com/eshaffer321/closeready/internal/cli"
)

func serveCmd() *cobra.Command {
	var flags cli.ServeFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API.

Examples:
  closeready serve --port 8085
  closeready serve --config config.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cli.NewApp(globals)
			if err != nil {
				return err
			}
			defer app.Close()

			return cli.RunServe(app, flags)
		},
	}

	cmd.Flags().IntVar(&flags.Port, "port", 0, "port to listen on (default api.port)")

	return cmd
}
