package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eringen/socialmuse"
	"github.com/eringen/socialmuse/views"
)

// imageConcurrency bounds the image calls of one generate run.
const imageConcurrency = 2

var (
	genIdea      string
	genTone      string
	genSize      string
	genImagesDir string
	exportOut    string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a campaign from the command line",
	Long: `Drafts a LinkedIn, Twitter, and Instagram post for an idea and prints the
campaign in export format. With --images, the visual of every post is rendered
concurrently and written as <campaign>-<platform>.png.

Example:
  socialmuse generate --idea "Launch of our eco-friendly water bottle" --tone Witty --images out/`,
	RunE: runGenerate,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the campaigns of the workspace, newest first",
	RunE:  runHistory,
}

var exportCmd = &cobra.Command{
	Use:   "export [campaign-id]",
	Short: "Print or save the export of a stored campaign",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	generateCmd.Flags().StringVar(&genIdea, "idea", "", "campaign idea (required)")
	generateCmd.Flags().StringVar(&genTone, "tone", string(socialmuse.ToneProfessional), "tone: "+toneList())
	generateCmd.Flags().StringVar(&genSize, "size", string(socialmuse.Size1K), "image size: 1K, 2K or 4K")
	generateCmd.Flags().StringVar(&genImagesDir, "images", "", "directory to write post images to")
	_ = generateCmd.MarkFlagRequired("idea")

	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "write to this file instead of stdout")
}

func toneList() string {
	names := make([]string, len(socialmuse.Tones))
	for i, t := range socialmuse.Tones {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// openWorkspace initializes the app without serving and returns the
// workspace selected by --workspace.
func openWorkspace(ctx context.Context) (*socialmuse.App, *socialmuse.Workspace, error) {
	app := socialmuse.New(loadConfig(), views.Funcs(), socialmuse.WithLogger(logger))
	if err := app.Init(ctx); err != nil {
		return nil, nil, err
	}
	ws, err := app.Workspaces.Get(ctx, workspaceID)
	if err != nil {
		_ = app.Shutdown(ctx)
		return nil, nil, err
	}
	return app, ws, nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	tone, err := socialmuse.ParseTone(genTone)
	if err != nil {
		return err
	}
	size, err := socialmuse.ParseImageSize(genSize)
	if err != nil {
		return err
	}

	app, ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	result, err := ws.Generate(ctx, socialmuse.CampaignData{Idea: genIdea, Tone: tone, ImageSize: size})
	if errors.Is(err, socialmuse.ErrNoAPIKey) {
		return fmt.Errorf("workspace %q has no usable API key, select one with socialmuse key <api-key>: %w", ws.ID, err)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", socialmuse.UserMessage(err), err)
	}
	logger.Info("campaign stored", zap.String("campaign", result.ID), zap.String("workspace", ws.ID))

	if genImagesDir != "" {
		if err := writeImages(ctx, ws, result, genImagesDir); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), socialmuse.ExportText(result))
	return nil
}

// writeImages renders the posts' images concurrently. A failed post is
// logged and skipped; the others are still written.
func writeImages(ctx context.Context, ws *socialmuse.Workspace, result socialmuse.CampaignResult, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(imageConcurrency)
	for _, post := range result.Posts {
		platform := post.Platform
		g.Go(func() error {
			uri, err := ws.RenderImage(gctx, result.ID, platform)
			if err != nil {
				logger.Warn("image skipped",
					zap.String("platform", string(platform)),
					zap.String("reason", socialmuse.UserMessage(err)),
					zap.Error(err))
				return nil
			}
			data, err := socialmuse.DecodeDataURI(uri)
			if err != nil {
				return err
			}
			name := filepath.Join(dir, result.ID+"-"+strings.ToLower(string(platform))+".png")
			if err := os.WriteFile(name, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", name, err)
			}
			logger.Info("image written", zap.String("platform", string(platform)), zap.String("path", name))
			return nil
		})
	}
	return g.Wait()
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	state := ws.Snapshot()
	if len(state.History) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No campaigns yet.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tTONE\tIDEA")
	for _, c := range state.History {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, c.CreatedAt().Format("2006-01-02 15:04"), c.Tone, c.Idea)
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	app, ws, err := openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer app.Shutdown(context.Background())

	filename, text, err := ws.ExportCampaign(ctx, args[0])
	if err != nil {
		return err
	}
	if exportOut == "" {
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	}
	if info, err := os.Stat(exportOut); err == nil && info.IsDir() {
		exportOut = filepath.Join(exportOut, filename)
	}
	if err := os.WriteFile(exportOut, []byte(text), 0o644); err != nil {
		return err
	}
	logger.Info("campaign exported", zap.String("path", exportOut))
	return nil
}
