package savev1

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field numbers of the v1 messages.
const (
	metadataVersion     protowire.Number = 1
	metadataRunID       protowire.Number = 2
	metadataCRS         protowire.Number = 3
	metadataDateCreated protowire.Number = 4
	metadataSources     protowire.Number = 5

	stringsValue protowire.Number = 1

	regionsItem    protowire.Number = 1
	regionID       protowire.Number = 1
	regionGeometry protowire.Number = 2
	regionAttrs    protowire.Number = 3
	regionCount    protowire.Number = 4

	studyGeometry protowire.Number = 1

	pointsItem protowire.Number = 1
	pointX     protowire.Number = 1
	pointY     protowire.Number = 2
	pointAttrs protowire.Number = 3
)

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendPacked(b []byte, num protowire.Number, vs []uint32) []byte {
	if len(vs) == 0 {
		return b
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	return appendBytes(b, num, packed)
}

func marshalMetadata(m Metadata) []byte {
	var b []byte
	b = appendVarint(b, metadataVersion, uint64(m.Version))
	b = appendString(b, metadataRunID, m.RunID)
	b = appendString(b, metadataCRS, m.CRS)
	b = appendString(b, metadataDateCreated, m.DateCreated)
	for _, s := range m.Sources {
		b = appendString(b, metadataSources, s)
	}
	return b
}

func marshalStrings(strs []string) []byte {
	var b []byte
	for _, s := range strs {
		// empty strings are meaningful table entries
		b = protowire.AppendTag(b, stringsValue, protowire.BytesType)
		b = protowire.AppendString(b, s)
	}
	return b
}

func marshalRegions(regions []Region) []byte {
	var b []byte
	for _, r := range regions {
		var rb []byte
		rb = appendString(rb, regionID, r.ID)
		rb = appendBytes(rb, regionGeometry, r.Geometry)
		rb = appendPacked(rb, regionAttrs, r.Attrs)
		rb = appendVarint(rb, regionCount, uint64(r.Count))
		b = appendBytes(b, regionsItem, rb)
	}
	return b
}

func marshalStudy(geom []byte) []byte {
	if len(geom) == 0 {
		return nil
	}
	return appendBytes(nil, studyGeometry, geom)
}

func marshalPoints(points []Point) []byte {
	var b []byte
	for _, p := range points {
		var pb []byte
		pb = appendDouble(pb, pointX, p.X)
		pb = appendDouble(pb, pointY, p.Y)
		pb = appendPacked(pb, pointAttrs, p.Attrs)
		b = appendBytes(b, pointsItem, pb)
	}
	return b
}

// walk calls fn for each top level field of a message.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, field []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := protowire.ConsumeFieldValue(num, typ, b)
		if m < 0 {
			return protowire.ParseError(m)
		}
		if err := fn(num, typ, b[:m]); err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func consumeBytes(field []byte) ([]byte, error) {
	v, n := protowire.ConsumeBytes(field)
	if n < 0 {
		return nil, protowire.ParseError(n)
	}
	return v, nil
}

func consumeVarint(field []byte) (uint64, error) {
	v, n := protowire.ConsumeVarint(field)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return v, nil
}

func consumeDouble(field []byte) (float64, error) {
	v, n := protowire.ConsumeFixed64(field)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return math.Float64frombits(v), nil
}

func consumePacked(field []byte) ([]uint32, error) {
	packed, err := consumeBytes(field)
	if err != nil {
		return nil, err
	}
	var out []uint32
	for len(packed) > 0 {
		v, n := protowire.ConsumeVarint(packed)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out = append(out, uint32(v))
		packed = packed[n:]
	}
	return out, nil
}

func unmarshalMetadata(b []byte) (Metadata, error) {
	m := Metadata{}
	err := walk(b, func(num protowire.Number, _ protowire.Type, field []byte) error {
		switch num {
		case metadataVersion:
			v, err := consumeVarint(field)
			m.Version = uint32(v)
			return err
		case metadataRunID, metadataCRS, metadataDateCreated, metadataSources:
			v, err := consumeBytes(field)
			if err != nil {
				return err
			}
			switch num {
			case metadataRunID:
				m.RunID = string(v)
			case metadataCRS:
				m.CRS = string(v)
			case metadataDateCreated:
				m.DateCreated = string(v)
			case metadataSources:
				m.Sources = append(m.Sources, string(v))
			}
		}
		return nil
	})
	return m, err
}

func unmarshalStrings(b []byte) ([]string, error) {
	var out []string
	err := walk(b, func(num protowire.Number, _ protowire.Type, field []byte) error {
		if num != stringsValue {
			return nil
		}
		v, err := consumeBytes(field)
		out = append(out, string(v))
		return err
	})
	return out, err
}

func unmarshalRegions(b []byte) ([]Region, error) {
	var out []Region
	err := walk(b, func(num protowire.Number, _ protowire.Type, field []byte) error {
		if num != regionsItem {
			return nil
		}
		rb, err := consumeBytes(field)
		if err != nil {
			return err
		}
		r := Region{}
		err = walk(rb, func(num protowire.Number, _ protowire.Type, field []byte) error {
			var err error
			switch num {
			case regionID:
				var v []byte
				v, err = consumeBytes(field)
				r.ID = string(v)
			case regionGeometry:
				var v []byte
				v, err = consumeBytes(field)
				r.Geometry = append([]byte(nil), v...)
			case regionAttrs:
				r.Attrs, err = consumePacked(field)
			case regionCount:
				var v uint64
				v, err = consumeVarint(field)
				r.Count = uint32(v)
			}
			return err
		})
		out = append(out, r)
		return err
	})
	return out, err
}

func unmarshalStudy(b []byte) ([]byte, error) {
	var out []byte
	err := walk(b, func(num protowire.Number, _ protowire.Type, field []byte) error {
		if num != studyGeometry {
			return nil
		}
		v, err := consumeBytes(field)
		out = append([]byte(nil), v...)
		return err
	})
	return out, err
}

func unmarshalPoints(b []byte, into []Point) ([]Point, error) {
	err := walk(b, func(num protowire.Number, _ protowire.Type, field []byte) error {
		if num != pointsItem {
			return nil
		}
		pb, err := consumeBytes(field)
		if err != nil {
			return err
		}
		p := Point{}
		err = walk(pb, func(num protowire.Number, _ protowire.Type, field []byte) error {
			var err error
			switch num {
			case pointX:
				p.X, err = consumeDouble(field)
			case pointY:
				p.Y, err = consumeDouble(field)
			case pointAttrs:
				p.Attrs, err = consumePacked(field)
			}
			return err
		})
		into = append(into, p)
		return err
	})
	return into, err
}
