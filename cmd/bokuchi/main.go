package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/justyntemme/bokuchi/internal/debug"
)

// Version is set during build with -ldflags
var version = "dev"

var (
	flagDebug   bool
	flagNoStore bool
	flagDBPath  string
	flagTrace   []string
	flagMute    []string
)

var rootCmd = &cobra.Command{
	Use:   "bokuchi",
	Short: "Tabbed Markdown editor core",
	Long: `Bokuchi keeps a session of open Markdown documents, saves them safely
when files change on disk, and remembers recently used files.

The commands below drive the same editor core the desktop UI uses.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if !flagDebug && len(flagTrace) == 0 {
			log.SetOutput(io.Discard)
			return
		}
		configureDebug(flagTrace, flagMute)
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		if debug.Enabled {
			log.Printf("Debug categories: %v", debug.ListEnabled())
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of Bokuchi",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Bokuchi version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable verbose debug logging")
	rootCmd.PersistentFlags().StringSliceVar(&flagTrace, "trace", nil, "Log only these debug categories (e.g. SAVE,DETECT)")
	rootCmd.PersistentFlags().StringSliceVar(&flagMute, "mute", nil, "Debug categories to silence")
	rootCmd.PersistentFlags().BoolVar(&flagNoStore, "no-store", false, "Keep the session in memory only")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "Database path (default: user config dir)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newOpenCommand())
	rootCmd.AddCommand(newTabsCommand())
	rootCmd.AddCommand(newSaveCommand())
	rootCmd.AddCommand(newCloseCommand())
	rootCmd.AddCommand(newCheckCommand())
	rootCmd.AddCommand(newRecentCommand())
	rootCmd.AddCommand(newHashCommand())
	rootCmd.AddCommand(newOutlineCommand())
	rootCmd.AddCommand(newExpandCommand())
	rootCmd.AddCommand(newVarsCommand())
	rootCmd.AddCommand(newScanCommand())
	rootCmd.AddCommand(newFindCommand())
	rootCmd.AddCommand(newConfigCommand())
}

// configureDebug turns on every category, or only those in trace, then
// turns off the ones in mute. Names are case-insensitive.
func configureDebug(trace, mute []string) {
	if len(trace) == 0 {
		debug.EnableAll()
	} else {
		debug.DisableAll()
		for _, name := range trace {
			debug.Enable(debug.Category(strings.ToUpper(name)))
		}
	}
	for _, name := range mute {
		debug.Disable(debug.Category(strings.ToUpper(name)))
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
