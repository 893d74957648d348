// Package manifest serializes pyramid metadata as the imageinfo.xml entry
// every archive carries as its final member.
package manifest

import "encoding/xml"

// ImageInfo is the single XML element describing a produced pyramid.
// Attribute order follows the struct's field order, which encoding/xml
// preserves; attribute names are part of the contract, their order is not.
type ImageInfo struct {
	XMLName   xml.Name `xml:"imageinfo"`
	Derivate  string   `xml:"derivate,attr"`
	Path      string   `xml:"path,attr"`
	Tiles     int      `xml:"tiles,attr"`
	ZoomLevel int      `xml:"zoomLevel,attr"`
	Height    int      `xml:"height,attr"`
	Width     int      `xml:"width,attr"`
}

// Marshal renders info as a single XML element (encoding/xml writes it with
// an explicit end tag), with no surrounding document declaration.
func Marshal(info ImageInfo) ([]byte, error) {
	return xml.Marshal(info)
}
