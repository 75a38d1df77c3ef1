package cachesaver

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	savev1 "github.com/royalcat/pointpattern/cachesaver/save/v1"
	"github.com/royalcat/pointpattern/geomodel"
)

func Save(d *geomodel.Dataset, w io.Writer) error {
	if err := d.Validate(); err != nil {
		return err
	}

	_, err := w.Write(MAGIC_BYTES)
	if err != nil {
		return err
	}

	err = binary.Write(w, binary.LittleEndian, savev1.COMPATIBILITY_LEVEL)
	if err != nil {
		return err
	}

	cache, err := savev1.CacheFromDataset(d)
	if err != nil {
		return err
	}

	return savev1.Save(w, cache)
}

// SaveFile writes the snapshot to name, zstd compressed when name ends with ".zst".
// The file is written next to the target and renamed so a failed save never leaves a partial snapshot.
func SaveFile(d *geomodel.Dataset, name string) (err error) {
	tmp := name + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("can`t create file error: %w", err)
	}
	defer func() {
		if err != nil {
			file.Close()
			os.Remove(tmp)
		}
	}()

	var w io.Writer = file
	var enc *zstd.Encoder
	if strings.HasSuffix(name, ".zst") {
		enc, err = zstd.NewWriter(file)
		if err != nil {
			return fmt.Errorf("can`t create zstd writer: %w", err)
		}
		w = enc
	}

	err = Save(d, w)
	if err != nil {
		return fmt.Errorf("error saving snapshot: %w", err)
	}

	if enc != nil {
		err = enc.Close()
		if err != nil {
			return fmt.Errorf("error flushing zstd stream: %w", err)
		}
	}

	err = file.Close()
	if err != nil {
		return err
	}

	return os.Rename(tmp, name)
}
