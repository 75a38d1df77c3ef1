package cachesaver

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	savev1 "github.com/royalcat/pointpattern/cachesaver/save/v1"
	"github.com/royalcat/pointpattern/geomodel"
)

var (
	ErrNotSnapshot        = errors.New("not a snapshot file")
	ErrUnsupportedVersion = errors.New("unsupported snapshot compatibility level")
)

func LoadFromReader(reader io.Reader, log *slog.Logger) (*geomodel.Dataset, error) {
	magic := make([]byte, len(MAGIC_BYTES))
	_, err := io.ReadFull(reader, magic)
	if err != nil {
		return nil, fmt.Errorf("error reading magic bytes: %w", err)
	}

	if string(magic) != string(MAGIC_BYTES) {
		return nil, ErrNotSnapshot
	}

	var compatibilityLevel uint32
	err = binary.Read(reader, binary.LittleEndian, &compatibilityLevel)
	if err != nil {
		return nil, fmt.Errorf("error reading compatibility level: %w", err)
	}

	switch compatibilityLevel {
	case savev1.COMPATIBILITY_LEVEL:
		log.Info("Loading v1 snapshot format")
		cache, err := savev1.Load(reader)
		if err != nil {
			return nil, fmt.Errorf("error loading v1 snapshot: %w", err)
		}
		d, err := cache.Dataset()
		if err != nil {
			return nil, fmt.Errorf("error decoding v1 snapshot: %w", err)
		}
		log.Info("Loaded snapshot metadata",
			"version", d.Metadata.Version,
			"run_id", d.Metadata.RunID,
			"crs", d.Metadata.CRS,
			"date_created", d.Metadata.DateCreated,
		)
		return d, nil
	}

	return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, compatibilityLevel)
}

func LoadFile(name string, log *slog.Logger) (*geomodel.Dataset, error) {
	reader, err := openReader(name)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return LoadFromReader(reader, log)
}

func openReader(name string) (io.ReadCloser, error) {
	file, err := os.Open(name)
	if err != nil {
		return nil, fmt.Errorf("can`t open file error: %w", err)
	}

	if strings.HasSuffix(name, ".zst") {
		dec, err := zstd.NewReader(file)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("can`t create zstd reader: %w", err)
		}

		return &zstdReadCloser{dec: dec, file: file}, nil
	}

	return file, nil
}

type zstdReadCloser struct {
	dec  *zstd.Decoder
	file *os.File
}

func (z *zstdReadCloser) Read(p []byte) (int, error) {
	return z.dec.Read(p)
}

func (z *zstdReadCloser) Close() error {
	z.dec.Close()
	return z.file.Close()
}
