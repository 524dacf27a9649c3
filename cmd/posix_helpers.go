package cmd

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

// globArgs expands glob patterns on Windows where no shell does it for us.
// On other platforms the arguments are returned untouched.
func globArgs(args []string, allowEmpty bool) ([]string, error) {
	if runtime.GOOS != "windows" {
		return args, nil
	}

	items := []string{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, eris.Wrapf(err, "failed to resolve pattern %s", arg)
		}

		if matches == nil {
			if allowEmpty {
				continue
			}
			return nil, eris.Errorf("pattern %s produced no matches", arg)
		}

		items = append(items, matches...)
	}

	return items, nil
}

func removePaths(items []string, recursive, force bool) error {
	existing := make([]string, 0, len(items))
	for _, item := range items {
		info, err := os.Stat(item)
		if err != nil {
			if force && eris.Is(err, os.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "could not stat %s", item)
		}

		if info.IsDir() && !recursive {
			return eris.Errorf("%s is a directory but -r wasn't passed", item)
		}

		existing = append(existing, item)
	}

	for _, item := range existing {
		err := os.RemoveAll(item)
		if err != nil && (!force || !eris.Is(err, os.ErrNotExist)) {
			return eris.Wrapf(err, "could not delete %s", item)
		}
	}

	return nil
}

func movePaths(items []string, dest string) error {
	dest = filepath.Clean(dest)
	destParent := filepath.Dir(dest)
	info, err := os.Stat(destParent)
	if err != nil {
		return eris.Wrapf(err, "could not find destination directory %s", destParent)
	}

	if !info.IsDir() {
		return eris.Errorf("%s is not a directory", destParent)
	}

	info, err = os.Stat(dest)
	destIsDir := err == nil && info.IsDir()
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to retrieve info about destination %s", dest)
	}

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("can't move multiple items to %s because it is not a directory", dest)
	}

	for _, item := range items {
		itemDest := dest
		if destIsDir {
			itemDest = filepath.Join(dest, filepath.Base(item))
		}

		err = os.Rename(item, itemDest)
		if err != nil {
			return eris.Wrapf(err, "failed to move %s to %s", item, itemDest)
		}
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return eris.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return eris.Wrapf(err, "failed to stat %s", src)
	}

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return eris.Wrapf(err, "failed to create %s", dest)
	}

	_, err = io.Copy(out, in)
	if err != nil {
		out.Close()
		return eris.Wrapf(err, "failed to copy %s to %s", src, dest)
	}

	err = out.Close()
	if err != nil {
		return eris.Wrapf(err, "failed to finish writing %s", dest)
	}

	return nil
}

func copyPaths(items []string, dest string) error {
	info, err := os.Stat(dest)
	destIsDir := err == nil && info.IsDir()
	if err != nil && !eris.Is(err, os.ErrNotExist) {
		return eris.Wrapf(err, "failed to retrieve info about destination %s", dest)
	}

	if len(items) > 1 && !destIsDir {
		return eris.Errorf("can't copy multiple items to %s because it is not a directory", dest)
	}

	for _, item := range items {
		itemDest := dest
		if destIsDir {
			itemDest = filepath.Join(dest, filepath.Base(item))
		}

		err = copyFile(item, itemDest)
		if err != nil {
			return err
		}
	}

	return nil
}

func makeDirs(items []string, parents bool) error {
	for _, item := range items {
		var err error
		if parents {
			err = os.MkdirAll(item, 0770)
		} else {
			err = os.Mkdir(item, 0770)
		}

		if err != nil {
			return eris.Wrapf(err, "failed to create %s", item)
		}
	}

	return nil
}

var mvCmd = &cobra.Command{
	Use:   "mv",
	Short: "Cross-platform implementation of the POSIX mv command",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return eris.New("not enough parameters")
		}

		items, err := globArgs(args[:len(args)-1], false)
		if err != nil {
			return err
		}

		return movePaths(items, args[len(args)-1])
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm",
	Short: "Cross-platform implementation of the POSIX rm command",
	RunE: func(cmd *cobra.Command, args []string) error {
		recursive, err := cmd.Flags().GetBool("recursive")
		if err != nil {
			return err
		}

		force, err := cmd.Flags().GetBool("force")
		if err != nil {
			return err
		}

		items, err := globArgs(args, force)
		if err != nil {
			return err
		}

		return removePaths(items, recursive, force)
	},
}

var cpCmd = &cobra.Command{
	Use:   "cp",
	Short: "Cross-platform implementation of the POSIX cp command",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) < 2 {
			return eris.New("not enough parameters")
		}

		items, err := globArgs(args[:len(args)-1], false)
		if err != nil {
			return err
		}

		return copyPaths(items, args[len(args)-1])
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir",
	Short: "Cross-platform implementation of the POSIX mkdir command",
	RunE: func(cmd *cobra.Command, args []string) error {
		makeParents, err := cmd.Flags().GetBool("parents")
		if err != nil {
			return err
		}

		return makeDirs(args, makeParents)
	},
}

func init() {
	rmCmd.Flags().BoolP("recursive", "r", false, "recursively delete directories")
	rmCmd.Flags().BoolP("force", "f", false, "suppresses errors caused by missing files/folders")
	mkdirCmd.Flags().BoolP("parents", "p", false, "create parent directories as needed")

	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(mkdirCmd)
}
