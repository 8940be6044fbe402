// Command tomoflow runs pipeline process files and inspects the backing
// files they write.
//
//	tomoflow run [flags] <process>
//	tomoflow stages
//	tomoflow inspect [flags] <file>
//	tomoflow list [flags] [prefix]
//	tomoflow version
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/kbukum/tomoflow/config"
	"github.com/kbukum/tomoflow/version"

	_ "github.com/kbukum/tomoflow/storage/local"
	_ "github.com/kbukum/tomoflow/storage/memory"
	_ "github.com/kbukum/tomoflow/storage/s3"
)

const appName = "tomoflow"

const usage = `usage: tomoflow <command> [flags] [args]

commands:
  run <process>    load and execute a process file
  stages           list the registered stage IDs
  inspect <file>   print the groups of a backing file
  list [prefix]    list the stored objects under prefix
  version          print the build version
`

func main() {
	if err := execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !stderrors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "tomoflow:", err)
		}
		os.Exit(1)
	}
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("missing command")
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "run":
		return runCommand(ctx, rest, stdout, stderr)
	case "stages":
		return stagesCommand(stdout)
	case "inspect":
		return inspectCommand(ctx, rest, stdout, stderr)
	case "list":
		return listCommand(ctx, rest, stdout, stderr)
	case "version", "--version":
		fmt.Fprintf(stdout, "%s %s\n", appName, version.Get())
		return nil
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// commonFlags are the configuration flags every command accepts.
type commonFlags struct {
	configFile string
	provider   string
	basePath   string
}

func (f *commonFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&f.configFile, "config", "c", "", "configuration file (default: searched)")
	fs.StringVar(&f.provider, "storage", "", "storage provider: local, s3 or memory")
	fs.StringVar(&f.basePath, "base-path", "", "root directory of local storage")
}

// load reads the configuration and applies the flags the user set.
func (f *commonFlags) load(fs *pflag.FlagSet) (*AppConfig, error) {
	var opts []config.LoaderOption
	if f.configFile != "" {
		opts = append(opts, config.WithConfigFile(f.configFile))
	}
	cfg := &AppConfig{}
	if err := config.LoadConfig(appName, cfg, opts...); err != nil {
		return nil, err
	}
	if fs.Changed("storage") {
		cfg.Storage.Provider = f.provider
	}
	if fs.Changed("base-path") {
		cfg.Storage.BasePath = f.basePath
	}
	return cfg, nil
}
