package bom

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const qrSize = 256

// QRCode encodes a link to a BOM version page as a PNG label for printed sheets.
func QRCode(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("qr: empty url")
	}
	return qrcode.Encode(url, qrcode.Medium, qrSize)
}

// VersionURL is the page address of a BOM version under the public base URL.
func VersionURL(baseURL string, orderID int64, version int) string {
	return fmt.Sprintf("%s/#order/%d?version=%d", baseURL, orderID, version)
}
