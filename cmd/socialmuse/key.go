package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eringen/socialmuse"
)

var keyCmd = &cobra.Command{
	Use:   "key [api-key]",
	Short: "Select the API key of the workspace, or show whether one is usable",
	Long: `With an argument, stores the API key the workspace generates with. This is
also how a workspace recovers after the provider rejected its key.
Without an argument, reports whether the workspace can generate.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKey,
}

func runKey(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	if len(args) == 0 {
		ok, err := ws.HasSelectedKey(ctx)
		if err != nil {
			return err
		}
		if ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace %q has a usable API key.\n", ws.ID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Workspace %q needs an API key: run socialmuse key <api-key>.\n", ws.ID)
		}
		return nil
	}

	if err := ws.SelectKey(ctx, args[0]); err != nil {
		if errors.Is(err, socialmuse.ErrNoAPIKey) {
			return errors.New("api key is blank")
		}
		return err
	}
	logger.Info("api key selected", zap.String("workspace", ws.ID))
	fmt.Fprintf(cmd.OutOrStdout(), "API key selected for workspace %q.\n", ws.ID)
	return nil
}
