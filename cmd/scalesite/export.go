package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"scalesite/internal/build"
	"scalesite/internal/cms"
	"scalesite/internal/domain/content"
	"scalesite/internal/render"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		out      string
		pageSize int
		workers  int
	)
	cmd := &cobra.Command{
		Use:   "export [collection...]",
		Short: "Write collections to JSON files, skipping unchanged records",
		RunE: func(cmd *cobra.Command, args []string) error {
			variants := content.Variants()
			if len(args) > 0 {
				variants = variants[:0:0]
				for _, arg := range args {
					v, ok := content.ParseVariant(arg)
					if !ok {
						return fmt.Errorf("unknown collection %q", arg)
					}
					variants = append(variants, v)
				}
			}
			if out == "" {
				out = a.cfg.Storage.ExportDir
			}

			b := &build.Builder{
				Source:    cms.NewFromConfig(a.cfg.CMS, a.log),
				Renderer:  render.New(a.cfg.CMS.MediaBase()),
				OutDir:    out,
				PageSize:  pageSize,
				Workers:   workers,
				ConfigKey: a.cfg.CMS.MediaBase(),
				Log:       a.log,
			}
			for _, v := range variants {
				res, err := b.Run(cmd.Context(), v)
				if err != nil {
					return fmt.Errorf("export %s: %w", v.Info().Collection, err)
				}
				for _, w := range res.Warnings {
					a.log.Warn("export warning", zap.String("collection", res.Collection), zap.String("slug", w.Slug), zap.String("msg", w.Msg))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d items, %d written, %d unchanged\n",
					res.Collection, res.Items, res.Written, res.Unchanged)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory, defaults to storage.export_dir")
	cmd.Flags().IntVar(&pageSize, "page-size", 50, "records per CMS request")
	cmd.Flags().IntVar(&workers, "workers", 0, "render workers, 0 for one per CPU")
	return cmd
}
