package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	build "github.com/mailpaper/mailpaper/pkg/config"
	"github.com/mailpaper/mailpaper/pkg/utils"
	"github.com/mailpaper/mailpaper/web"
	"github.com/spf13/cobra"
)

var flagDevMode bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the stack and listens for HTTP calls",
	Long: `Starts the stack and listens for HTTP calls
It will accept HTTP requests on localhost:8080 by default.
Use the --port and --host flags to change the listening option.

The SIGINT signal will trigger a graceful stop of mailpaper: it will wait
that current HTTP requests are finished (in a limit of 2 minutes) before
exiting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDevMode {
			build.BuildMode = build.ModeDev
		}

		server, err := web.ListenAndServe()
		if err != nil {
			return err
		}

		fmt.Println("Ready and waiting for connections:")
		group := utils.NewGroupShutdown(server)

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt)
		<-sigs
		fmt.Println("\nReceived interrupt signal:")
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := group.Shutdown(ctx); err != nil {
			return err
		}
		fmt.Println("All settled, bye bye !")
		return nil
	},
}

func init() {
	flags := serveCmd.PersistentFlags()
	flags.BoolVar(&flagDevMode, "dev", false, "Allow to run in dev mode")
	RootCmd.AddCommand(serveCmd)
}
