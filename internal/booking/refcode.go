package booking

import (
	"strings"

	hashids "github.com/speps/go-hashids/v2"
)

// ReferenceGenerator produces the short human-facing code printed on
// confirmations. Codes are stable for a given booking ID and salt.
type ReferenceGenerator struct {
	h *hashids.HashID
}

func NewReferenceGenerator(salt string) (*ReferenceGenerator, error) {
	hd := hashids.NewData()
	hd.Salt = salt
	hd.MinLength = 8
	hd.Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	h, err := hashids.NewWithData(hd)
	if err != nil {
		return nil, err
	}
	return &ReferenceGenerator{h: h}, nil
}

// Generate encodes the booking ID into a reference like "BK-7NQ2XWPA".
func (g *ReferenceGenerator) Generate(bookingID int64) (string, error) {
	code, err := g.h.EncodeInt64([]int64{bookingID})
	if err != nil {
		return "", err
	}
	return "BK-" + strings.ToUpper(code), nil
}
