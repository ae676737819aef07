// File: cmd/mkfs.go
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/deploymenttheory/go-unixfs/internal/device"
	"github.com/deploymenttheory/go-unixfs/internal/services"
)

var (
	mkfsImagePath   string
	mkfsBlockSize   uint32
	mkfsBlockCount  uint32
	mkfsDescriptors uint32
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs",
	Short: "Format a fresh file-system image",
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := LoadConfig()
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("image") {
			mkfsImagePath = config.ImagePath
		}
		if !cmd.Flags().Changed("block-size") {
			mkfsBlockSize = config.BlockSize
		}
		if !cmd.Flags().Changed("block-count") {
			mkfsBlockCount = config.BlockCount
		}
		if !cmd.Flags().Changed("descriptors") {
			mkfsDescriptors = config.Descriptors
		}

		dev, err := device.NewMemoryDevice(mkfsBlockSize, mkfsBlockCount)
		if err != nil {
			return err
		}
		fs := services.NewFileSystemService(dev)
		if err := fs.Mkfs(mkfsDescriptors); err != nil {
			return err
		}
		if err := device.SaveImage(mkfsImagePath, dev); err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"image":       mkfsImagePath,
			"block_size":  mkfsBlockSize,
			"block_count": mkfsBlockCount,
			"descriptors": mkfsDescriptors,
		}).Info("formatted file system")
		return nil
	},
}

func init() {
	mkfsCmd.Flags().StringVar(&mkfsImagePath, "image", "unixfs.img", "image file to create")
	mkfsCmd.Flags().Uint32Var(&mkfsBlockSize, "block-size", 1024, "bytes per block")
	mkfsCmd.Flags().Uint32Var(&mkfsBlockCount, "block-count", 2048, "blocks on the device")
	mkfsCmd.Flags().Uint32VarP(&mkfsDescriptors, "descriptors", "n", 64, "descriptor table size")
}
