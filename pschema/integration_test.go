// SPDX-License-Identifier: MIT

package pschema

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

// RoundTripSuite exercises full schema-build -> encode -> decode round
// trips end to end, the way a consumer of the package would use it.
type RoundTripSuite struct {
	suite.Suite
}

func TestRoundTripSuite(t *testing.T) {
	suite.Run(t, new(RoundTripSuite))
}

func (s *RoundTripSuite) SetupTest() {
	ClearRegistry()
}

func (s *RoundTripSuite) TestFlatPacketRoundTrips() {
	schema := Start().
		Uint8("version").
		Uint16BE("length").
		String("name", WithLength(4)).
		Buffer("payload", WithLength(3))

	buf := []byte{0x01, 0x00, 0x0a, 'a', 'b', 'c', 'd', 0xde, 0xad, 0xbe}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)

	rec := decoded.(Record)
	s.Equal(uint8(1), rec["version"])
	s.Equal(uint16(10), rec["length"])
	s.Equal("abcd", rec["name"])
	s.Equal([]byte{0xde, 0xad, 0xbe}, rec["payload"])

	reEncoded, err := schema.Encode(rec)
	s.Require().NoError(err)
	s.Equal(buf, reEncoded)
}

func (s *RoundTripSuite) TestDictionaryArrayWithKey() {
	item := Start().String("k", WithLength(1)).Uint8("v")
	schema := Start().Array("entries", WithLength(2), WithType(item), WithKey("k"))

	buf := []byte{'x', 0x01, 'y', 0x02}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)

	rec := decoded.(Record)
	entries := rec["entries"].(Record)
	s.Equal(Record{"k": "x", "v": uint8(1)}, entries["x"])
	s.Equal(Record{"k": "y", "v": uint8(2)}, entries["y"])
}

func (s *RoundTripSuite) TestChoiceWithDefaultFallback() {
	schema := Start().
		Uint8("tag").
		Choice("body", WithTag("tag"), WithChoices(map[int]any{
			1: "uint8",
			2: "uint16be",
		}), WithDefaultChoice("uint32be"))

	buf := []byte{0x09, 0x00, 0x00, 0x00, 0x2a}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)
	rec := decoded.(Record)
	s.Equal(uint32(42), rec["body"])
}

func (s *RoundTripSuite) TestRecursiveLinkedListAlias() {
	node := Start().
		Uint8("val").
		Uint8("hasNext").
		Choice("next", WithTag("hasNext"), WithChoices(map[int]any{
			0: "uint8",
			1: "node",
		}))
	node.Namely("node")

	buf := []byte{0x01, 0x01, 0x02, 0x01, 0x03, 0x00, 0x00}
	decoded, err := node.Parse(buf)
	s.Require().NoError(err)

	rec := decoded.(Record)
	s.Equal(uint8(1), rec["val"])
	second := rec["next"].(Record)
	s.Equal(uint8(2), second["val"])
	third := second["next"].(Record)
	s.Equal(uint8(3), third["val"])
	s.Equal(uint8(0), third["next"])
}

func (s *RoundTripSuite) TestPointerJumpsWithoutPerturbingSiblingOffsets() {
	schema := Start().
		Uint16BE("targetOffset").
		Pointer("target", WithOffset("targetOffset"), WithType("uint32be")).
		Uint8("trailer")

	buf := []byte{0x00, 0x04, 0x07, 0x00, 0x00, 0x00, 0x00, 0x2a}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)

	rec := decoded.(Record)
	s.Equal(uint16(4), rec["targetOffset"])
	s.Equal(uint32(42), rec["target"])
	s.Equal(uint8(7), rec["trailer"])
}

func (s *RoundTripSuite) TestDescriptorLoadedSchemaMatchesBuilderSchema() {
	built := Start().Uint8("version").String("name", WithLength(3))

	loaded, err := LoadDescriptor([]byte(`
fields:
  - {name: version, type: uint8}
  - {name: name, kind: string, length: 3}
`))
	s.Require().NoError(err)

	buf := []byte{0x02, 'f', 'o', 'o'}
	fromBuilt, err := built.Parse(buf)
	s.Require().NoError(err)
	fromLoaded, err := loaded.Parse(buf)
	s.Require().NoError(err)
	s.Equal(fromBuilt, fromLoaded)
}

func (s *RoundTripSuite) TestStructTargetDecodesAndEncodesSymmetrically() {
	type frame struct {
		Version uint8
		Count   uint16
	}
	schema := Start(RootOptions{Constructor: func() any { return &frame{} }}).
		Uint8("version").
		Uint16BE("count")

	buf := []byte{0x03, 0x00, 0x07}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)

	f, ok := decoded.(*frame)
	s.Require().True(ok)
	s.Equal(uint8(3), f.Version)
	s.Equal(uint16(7), f.Count)

	reEncoded, err := schema.Encode(f)
	s.Require().NoError(err)
	s.Equal(buf, reEncoded)
}

func (s *RoundTripSuite) TestBitPackedHeaderRoundTrips() {
	schema := Start().Bit1("urgent").Bit3("priority").Bit4("kind").Uint8("payload")

	buf := []byte{0b1_101_0110, 0xff}
	decoded, err := schema.Parse(buf)
	s.Require().NoError(err)

	rec := decoded.(Record)
	s.Equal(1, rec["urgent"])
	s.Equal(5, rec["priority"])
	s.Equal(6, rec["kind"])
	s.Equal(uint8(0xff), rec["payload"])

	reEncoded, err := schema.Encode(rec)
	s.Require().NoError(err)
	s.Equal(buf, reEncoded)
}
