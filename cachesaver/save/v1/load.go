package savev1

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

func Load(r io.Reader) (Cache, error) {
	cache := Cache{}

	section, err := readSection(r)
	if err != nil {
		return cache, fmt.Errorf("metadata: %w", err)
	}
	cache.Metadata, err = unmarshalMetadata(section)
	if err != nil {
		return cache, fmt.Errorf("metadata: %w", err)
	}

	section, err = readSection(r)
	if err != nil {
		return cache, fmt.Errorf("strings: %w", err)
	}
	cache.Strings, err = unmarshalStrings(section)
	if err != nil {
		return cache, fmt.Errorf("strings: %w", err)
	}

	section, err = readSection(r)
	if err != nil {
		return cache, fmt.Errorf("fine regions: %w", err)
	}
	cache.Fine, err = unmarshalRegions(section)
	if err != nil {
		return cache, fmt.Errorf("fine regions: %w", err)
	}

	section, err = readSection(r)
	if err != nil {
		return cache, fmt.Errorf("coarse regions: %w", err)
	}
	cache.Coarse, err = unmarshalRegions(section)
	if err != nil {
		return cache, fmt.Errorf("coarse regions: %w", err)
	}

	section, err = readSection(r)
	if err != nil {
		return cache, fmt.Errorf("study area: %w", err)
	}
	cache.Study, err = unmarshalStudy(section)
	if err != nil {
		return cache, fmt.Errorf("study area: %w", err)
	}

	for {
		section, err = readSection(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return cache, fmt.Errorf("points: %w", err)
		}
		cache.Points, err = unmarshalPoints(section, cache.Points)
		if err != nil {
			return cache, fmt.Errorf("points: %w", err)
		}
	}

	return cache, nil
}

// readSection returns io.EOF only when the stream ends cleanly before a section.
func readSection(r io.Reader) ([]byte, error) {
	var size uint32
	err := binary.Read(r, binary.LittleEndian, &size)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, size)
	_, err = io.ReadFull(r, buf)
	if errors.Is(err, io.EOF) {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, err
}
