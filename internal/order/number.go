package order

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	numberPrefix    = "ORDER-"
	numberSuffixLen = 7
	base36          = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewOrderNumber returns ORDER-<unix millis>-<7 random base36 chars>.
func NewOrderNumber(now time.Time) string {
	var b strings.Builder
	b.WriteString(numberPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 10))
	b.WriteByte('-')
	radix := big.NewInt(int64(len(base36)))
	for i := 0; i < numberSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, radix)
		if err != nil {
			panic(err)
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}
