// File: internal/device/image.go
package device

import (
	"fmt"
	"os"
)

// LoadImage reads a raw device image from disk and wraps it in a
// MemoryDevice. Demo-surface convenience; the core never persists across
// restarts on its own.
func LoadImage(path string, blockSize uint32) (*MemoryDevice, error) {
	image, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	dev, err := NewMemoryDeviceFromBytes(blockSize, image)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap image %s: %w", path, err)
	}
	return dev, nil
}

// SaveImage writes the device's raw bytes to an image file.
func SaveImage(path string, dev *MemoryDevice) error {
	if err := os.WriteFile(path, dev.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}
	return nil
}
