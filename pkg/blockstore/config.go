package blockstore

import (
	"errors"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/disk"
)

func (sc *StoreConfig) check() error {
	if sc.Path == "" {
		return errors.New("no path provided in configuration")
	}

	info, err := os.Stat(sc.Path)
	if os.IsNotExist(err) {
		return errors.New("path does not exist")
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return errors.New("path is not a directory")
	}

	if sc.MinimumFreeGB > 0 {
		usage, err := disk.Usage(sc.Path)
		if err != nil {
			return fmt.Errorf("error reading disk usage for %s: %w", sc.Path, err)
		}
		freeGB := usage.Free / (1024 * 1024 * 1024)
		if freeGB < uint64(sc.MinimumFreeGB) {
			return errors.New("not enough space available on disk")
		}
	}

	return nil
}
