package idgen

import (
	"github.com/lithammer/shortuuid/v3"
)

// ShortUUID produces 22 character base57 identifiers.
type ShortUUID struct{}

func (ShortUUID) NewID() string {
	return shortuuid.New()
}
