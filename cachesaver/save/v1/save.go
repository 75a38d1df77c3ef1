package savev1

import (
	"encoding/binary"
	"io"
)

// Points are written in chunks so the reader never holds more than one chunk of raw bytes.
const pointsChunkSize = 1000

func Save(w io.Writer, cache Cache) error {
	sections := [][]byte{
		marshalMetadata(cache.Metadata),
		marshalStrings(cache.Strings),
		marshalRegions(cache.Fine),
		marshalRegions(cache.Coarse),
		marshalStudy(cache.Study),
	}
	for _, section := range sections {
		err := writeSection(w, section)
		if err != nil {
			return err
		}
	}

	for i := 0; i < len(cache.Points); i += pointsChunkSize {
		end := min(i+pointsChunkSize, len(cache.Points))
		err := writeSection(w, marshalPoints(cache.Points[i:end]))
		if err != nil {
			return err
		}
	}

	return nil
}

func writeSection(w io.Writer, data []byte) error {
	err := binary.Write(w, binary.LittleEndian, uint32(len(data)))
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
