package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/interp"

	"github.com/mkratky/scorebuild/pkg/buildsys"
	"github.com/mkratky/scorebuild/pkg/pipeline"
)

const (
	taskScriptName = "tasks.star"
	cacheName      = ".scorebuild.cache"
)

var runCmd = &cobra.Command{
	Use:   "run [target... | option=value...]",
	Short: "Run the given build targets",
	Long: `Runs the named build targets in order. Without arguments, the available
targets are listed. key=value arguments set options declared by the
project's tasks.star script.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		taskArgs := make([]string, 0)
		options := make(map[string]string)
		dryRun, err := cmd.Flags().GetBool("dry")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		configPath, err := cmd.Flags().GetString("config")
		if err != nil {
			return err
		}

		for _, part := range args {
			pos := strings.Index(part, "=")
			if pos > -1 {
				options[part[:pos]] = part[pos+1:]
			} else {
				taskArgs = append(taskArgs, part)
			}
		}

		logger := zerolog.New(NewConsoleWriter())
		ctx := buildsys.WithLogger(context.Background(), &logger)

		var root string
		if configPath != "" {
			configPath, err = filepath.Abs(configPath)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to resolve the config path")
			}
			root = filepath.Dir(configPath)
		} else {
			root, err = findProjectRoot()
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to locate the project root")
			}
			configPath = filepath.Join(root, pipeline.ConfigFile)
		}

		cfg, err := pipeline.LoadConfig(configPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load the project configuration")
		}

		tasks := pipeline.Tasks(cfg, root)

		scriptTasks, err := loadScriptTasks(ctx, root, options)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load the project task script")
		}
		for name, task := range scriptTasks {
			tasks[name] = task
		}

		for _, name := range taskArgs {
			err = buildsys.RunTask(ctx, root, name, tasks, dryRun, force)
			if err != nil {
				logger.Error().Err(err).Msgf("Failed task %s:", name)

				if code, ok := interp.IsExitStatus(err); ok {
					os.Exit(int(code))
				}
				os.Exit(1)
			}
		}

		if len(taskArgs) == 0 {
			fmt.Println("Available targets:")
			maxNameLen := 0
			sortedNames := make([]string, 0)
			for _, task := range tasks {
				if task.Hidden {
					continue
				}

				nameLen := len(task.Short)
				if nameLen > maxNameLen {
					maxNameLen = nameLen
				}

				sortedNames = append(sortedNames, task.Short)
			}

			sort.Strings(sortedNames)

			lineFmt := fmt.Sprintf(" * %%-%ds %%s\n", maxNameLen+3)
			for _, name := range sortedNames {
				fmt.Printf(lineFmt, name+":", tasks[name].Desc)
			}
		}

		return nil
	},
}

// findProjectRoot returns the nearest parent directory holding a project
// configuration or task script, falling back to the working directory.
func findProjectRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", eris.Wrap(err, "failed to retrieve the current working directory")
	}

	path := wd
	for {
		for _, marker := range []string{pipeline.ConfigFile, taskScriptName} {
			_, err := os.Stat(filepath.Join(path, marker))
			if err == nil {
				return path, nil
			}
			if !eris.Is(err, os.ErrNotExist) {
				return "", eris.Wrapf(err, "failed to check %s", filepath.Join(path, marker))
			}
		}

		parent := filepath.Dir(path)
		if parent == path {
			return wd, nil
		}
		path = parent
	}
}

// loadScriptTasks evaluates the project's tasks.star script, if present.
// When no explicit options are passed and the cached task list is newer
// than the script, the cache is used instead.
func loadScriptTasks(ctx context.Context, root string, options map[string]string) (buildsys.TaskList, error) {
	scriptPath := filepath.Join(root, taskScriptName)
	_, err := os.Stat(scriptPath)
	if err != nil {
		if eris.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "failed to check %s", scriptPath)
	}

	cachePath := filepath.Join(root, cacheName)
	if len(options) == 0 && buildsys.CacheFresh(cachePath, scriptPath) {
		_, tasks, err := buildsys.ReadCache(cachePath)
		if err == nil {
			return tasks, nil
		}
		zerolog.Ctx(ctx).Warn().Err(err).Msg("discarding unreadable task cache")
	}

	tasks, _, err := buildsys.RunScript(ctx, scriptPath, root, options, pipeline.ReservedNames(), true)
	if err != nil {
		return nil, err
	}

	err = buildsys.WriteCache(cachePath, options, tasks)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to write the task cache")
	}

	return tasks, nil
}

func init() {
	runCmd.Flags().BoolP("dry", "n", false, "dry run; only print the commands, don't execute anything")
	runCmd.Flags().BoolP("force", "f", false, "force build; always execute the passed targets even if they don't have to run")
	runCmd.Flags().StringP("config", "c", "", "path to the project configuration (default: scorebuild.yaml in the nearest project root)")

	rootCmd.AddCommand(runCmd)
}
