// File: cmd/shell.go
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-unixfs/internal/device"
	"github.com/deploymenttheory/go-unixfs/internal/interfaces"
	"github.com/deploymenttheory/go-unixfs/internal/services"
)

var shellImagePath string

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive shell over an image",
	Long: `shell loads a formatted image into memory and maps one command per
driver operation. Changes are written back with "save" or on "exit".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("image") {
			shellImagePath = config.ImagePath
		}

		dev, err := device.LoadImage(shellImagePath, config.BlockSize)
		if err != nil {
			return err
		}
		fs := services.NewFileSystemService(dev)

		runShell(fs, func() error {
			return device.SaveImage(shellImagePath, dev)
		})
		return nil
	},
}

func init() {
	shellCmd.Flags().StringVar(&shellImagePath, "image", "unixfs.img", "image file to load")
}

func runShell(fs interfaces.FileSystem, save func() error) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("unixfs> ")
		if !scanner.Scan() {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if fields[0] == "exit" || fields[0] == "quit" {
			if err := save(); err != nil {
				logrus.WithError(err).Error("save failed")
			}
			return
		}
		if err := dispatch(fs, save, fields[0], fields[1:]); err != nil {
			logrus.WithError(err).Error(fields[0])
		}
	}
}

func dispatch(fs interfaces.FileSystem, save func() error, verb string, args []string) error {
	switch verb {
	case "mkfs":
		n, err := parseUint32(args, 0)
		if err != nil {
			return err
		}
		return fs.Mkfs(n)

	case "create", "touch":
		return fs.Create(arg(args, 0))

	case "ln":
		return fs.Link(arg(args, 0), arg(args, 1))

	case "rm", "unlink":
		return fs.Unlink(arg(args, 0))

	case "mkdir":
		return fs.Mkdir(arg(args, 0))

	case "rmdir":
		return fs.Rmdir(arg(args, 0))

	case "symlink":
		return fs.Symlink(arg(args, 0), arg(args, 1))

	case "open":
		handle, err := fs.Open(arg(args, 0))
		if err != nil {
			return err
		}
		fmt.Println(handle)
		return nil

	case "close":
		return fs.Close(arg(args, 0))

	case "read":
		offset, err := parseUint32(args, 1)
		if err != nil {
			return err
		}
		size, err := parseUint32(args, 2)
		if err != nil {
			return err
		}
		data, err := fs.Read(arg(args, 0), offset, size)
		if err != nil {
			return err
		}
		fmt.Printf("%q\n", data)
		return nil

	case "write":
		offset, err := parseUint32(args, 1)
		if err != nil {
			return err
		}
		return fs.Write(arg(args, 0), offset, []byte(strings.Join(args[2:], " ")))

	case "truncate":
		size, err := parseUint32(args, 1)
		if err != nil {
			return err
		}
		return fs.Truncate(arg(args, 0), size)

	case "ls", "readdir":
		path := "."
		if len(args) > 0 {
			path = args[0]
		}
		entries, err := fs.ReadDir(path)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			fmt.Printf("%-10d %s\n", entry.Ino, entry.Name)
		}
		return nil

	case "cd":
		return fs.Cd(arg(args, 0))

	case "pwd":
		path, err := fs.Pwd()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil

	case "stat":
		inode, err := fs.Stat(arg(args, 0))
		if err != nil {
			return err
		}
		fmt.Printf("ino=%d type=%s refs=%d size=%d\n", inode.Ino, inode.Type, inode.Refs, inode.Size)
		return nil

	case "df":
		usage, err := fs.Usage()
		if err != nil {
			return err
		}
		fmt.Printf("blocks: %d/%d free  descriptors: %d/%d free  block size: %d\n",
			usage.FreeBlocks, usage.TotalBlocks,
			usage.FreeDescriptors, usage.TotalDescriptors,
			usage.BlockSize)
		return nil

	case "save":
		return save()

	default:
		return fmt.Errorf("unknown command %q", verb)
	}
}

func arg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func parseUint32(args []string, i int) (uint32, error) {
	if i >= len(args) {
		return 0, fmt.Errorf("missing numeric argument %d", i+1)
	}
	v, err := strconv.ParseUint(args[i], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("bad number %q: %w", args[i], err)
	}
	return uint32(v), nil
}
