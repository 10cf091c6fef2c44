package convert

import (
	"encoding/json"
	"os"
	"strings"

	"bindery/internal/services"
)

// voucherKey is the decryption credential carried by an aaxc voucher.
type voucherKey struct {
	Key string
	IV  string
}

// readVoucher extracts the key/iv pair from a voucher file. The tool writes
// vouchers as JSON with the credentials nested under the license response.
func readVoucher(path string) (voucherKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return voucherKey{}, services.Wrap(services.ErrKeyUnavailable, "convert", "voucher", "read voucher file", err)
	}

	var payload struct {
		ContentLicense struct {
			LicenseResponse struct {
				Key string `json:"key"`
				IV  string `json:"iv"`
			} `json:"license_response"`
		} `json:"content_license"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return voucherKey{}, services.Wrap(services.ErrKeyUnavailable, "convert", "voucher", "parse voucher file", err)
	}

	key := strings.TrimSpace(payload.ContentLicense.LicenseResponse.Key)
	iv := strings.TrimSpace(payload.ContentLicense.LicenseResponse.IV)
	if key == "" || iv == "" {
		return voucherKey{}, services.Wrap(services.ErrKeyUnavailable, "convert", "voucher", "voucher carries no key/iv", nil)
	}
	return voucherKey{Key: key, IV: iv}, nil
}
