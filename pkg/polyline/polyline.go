// Package polyline decodes and encodes route geometries in the Encoded
// Polyline Algorithm Format used by directions providers.
package polyline

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	// DefaultPrecision is the 1e5 factor used by Google style polylines.
	DefaultPrecision = 1e5

	chunkBits    = 5
	chunkMask    = 0x1f
	continuation = 0x20
	charOffset   = 63
	maxChar      = '~'
	// Seven 5-bit chunks already cover any coordinate at 1e6 precision.
	maxChunks = 7
)

// ErrMalformedPolyline is returned when the input cannot be decoded.
var ErrMalformedPolyline = errors.New("malformed polyline")

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Decode decodes an encoded polyline using the default 1e5 precision.
func Decode(encoded string) ([]Point, error) {
	return DecodeWithPrecision(encoded, DefaultPrecision)
}

// DecodeWithPrecision decodes a polyline whose coordinates were scaled by
// factor (1e5 for Google, 1e6 for OSRM/GraphHopper style providers).
func DecodeWithPrecision(encoded string, factor float64) ([]Point, error) {
	points := make([]Point, 0, len(encoded)/4)
	index, lat, lng := 0, 0, 0

	for index < len(encoded) {
		dlat, next, err := decodeValue(encoded, index)
		if err != nil {
			return nil, err
		}
		if next >= len(encoded) {
			return nil, fmt.Errorf("%w: missing longitude at offset %d", ErrMalformedPolyline, next)
		}
		dlng, next, err := decodeValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dlat
		lng += dlng
		points = append(points, Point{
			Latitude:  float64(lat) / factor,
			Longitude: float64(lng) / factor,
		})
	}

	return points, nil
}

// decodeValue reads one zig-zag encoded delta starting at index and returns
// it together with the offset of the next unread byte.
func decodeValue(encoded string, index int) (int, int, error) {
	result, shift, chunks := 0, 0, 0
	for {
		if index >= len(encoded) {
			return 0, index, fmt.Errorf("%w: truncated value at offset %d", ErrMalformedPolyline, index)
		}
		c := encoded[index]
		if c < charOffset || c > maxChar {
			return 0, index, fmt.Errorf("%w: invalid character %q at offset %d", ErrMalformedPolyline, c, index)
		}
		chunks++
		if chunks > maxChunks {
			return 0, index, fmt.Errorf("%w: value too long at offset %d", ErrMalformedPolyline, index)
		}
		b := int(c) - charOffset
		index++
		result |= (b & chunkMask) << shift
		shift += chunkBits
		if b < continuation {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}

// Encode encodes points using the default 1e5 precision.
func Encode(points []Point) string {
	return EncodeWithPrecision(points, DefaultPrecision)
}

// EncodeWithPrecision encodes points scaled by factor.
func EncodeWithPrecision(points []Point, factor float64) string {
	var sb strings.Builder
	prevLat, prevLng := 0, 0
	for _, p := range points {
		lat := int(math.Round(p.Latitude * factor))
		lng := int(math.Round(p.Longitude * factor))
		encodeValue(&sb, lat-prevLat)
		encodeValue(&sb, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return sb.String()
}

func encodeValue(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= continuation {
		sb.WriteByte(byte((continuation | (u & chunkMask)) + charOffset))
		u >>= chunkBits
	}
	sb.WriteByte(byte(u + charOffset))
}
