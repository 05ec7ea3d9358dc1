package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

const helpDescription = `
Pair frames from two camera streams by capture time.

framesync reads two frame index files (one JSON object per line with a
"ts_ns" or "stamp" field and a "ref"), pairs every primary frame with the
secondary frame captured within the tolerance, and writes the pairs as JSON
lines. Frames that can no longer be paired are dropped.

Configure via flags, FRAMESYNC_* environment variables, or
$HOME/.framesync/config.toml (flags win over env, env over file).
`

var exampleUsage = strings.TrimSpace(`
  framesync replay --primary color.idx --secondary depth.idx > pairs.jsonl
  framesync replay --primary color.idx --secondary depth.idx --follow --journal pairs.db
  framesync replay --config ./framesync.toml --tolerance 15ms --max-pending 2000
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	root := &cobra.Command{
		Use:           "framesync",
		Short:         "Pair frames from two timestamped streams",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newReplayCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "framesync: %v\n", err)
		os.Exit(1)
	}
}
