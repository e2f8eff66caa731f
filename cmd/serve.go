package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfgpkg "github.com/KaramelBytes/insightigraph/internal/config"
	"github.com/KaramelBytes/insightigraph/internal/logging"
	"github.com/KaramelBytes/insightigraph/internal/render"
	"github.com/KaramelBytes/insightigraph/internal/web"
	"github.com/spf13/cobra"
)

var (
	srvAddr        string
	srvMaxUploadMB int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the InsightiGraph web app",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := *currentConfig()
		var env cfgpkg.ServerEnv
		if err := cfgpkg.ParseEnv(&env); err != nil {
			return err
		}
		env.Apply(&c)
		if cmd.Flags().Changed("addr") {
			c.HTTPAddr = srvAddr
		}
		if cmd.Flags().Changed("max-upload-mb") {
			c.MaxUploadMB = srvMaxUploadMB
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, serverConfig(&c))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&srvAddr, "addr", "", "listen address (default from config http_addr)")
	serveCmd.Flags().IntVar(&srvMaxUploadMB, "max-upload-mb", 0, "upload size limit in MB (default from config)")
}

// serverConfig maps the loaded configuration onto the web server's.
func serverConfig(c *cfgpkg.Global) web.Config {
	wc := web.DefaultConfig()
	wc.Addr = c.HTTPAddr
	wc.MaxUploadBytes = int64(c.MaxUploadMB) << 20
	wc.PreviewRows = c.PreviewRows
	wc.CSV.MaxRows = c.MaxRows
	wc.Render = render.Options{Width: c.ChartWidth, Height: c.ChartHeight, EChartsURL: c.EChartsURL}
	if c.SampleRows > 0 {
		wc.Report.SampleRows = c.SampleRows
	}
	wc.Report.Correlations = c.ReportCorrelations
	if c.ReportOutlierThreshold > 0 {
		wc.Report.OutlierThreshold = c.ReportOutlierThreshold
	}
	return wc
}

func runServer(ctx context.Context, wc web.Config) error {
	logging.Info().Add(logging.Component("serve")).Add(logging.Str("addr", wc.Addr)).Msg("starting web app")
	err := web.New(wc).ListenAndServe(ctx)
	logging.Info().Add(logging.Component("serve")).Add(logging.ErrorField(err)).Msg("web app stopped")
	return err
}
