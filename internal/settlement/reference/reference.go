// Package reference produces unique, time-sortable transaction references such as
// TRF0LVB3K2QX8F41A9C.
package reference

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Prefixes used by the settlement flows
const (
	PrefixTransfer           = "TRF"
	PrefixDeposit            = "DEP"
	PrefixEscrow             = "ESC"
	PrefixSplit              = "SPL"
	PrefixCircleContribution = "CCB"
	PrefixCircleWithdrawal   = "CWD"
	PrefixJarFunding         = "JFD"
	PrefixJarWithdrawal      = "JWD"
	PrefixPenalty            = "PNT"
	PrefixBill               = "BIL"
	PrefixCard               = "CRD"
)

// timeWidth keeps the base36 millisecond part fixed-width so references sort by time
const timeWidth = 9

// Generator builds references from a prefix, the current time and a random suffix
type Generator struct {
	now    func() time.Time
	random func() string
}

func NewGenerator() *Generator {
	return &Generator{
		now: time.Now,
		random: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		},
	}
}

// Generate returns an uppercased reference for prefix
func (g *Generator) Generate(prefix string) string {
	ts := strconv.FormatInt(g.now().UnixMilli(), 36)
	if len(ts) < timeWidth {
		ts = strings.Repeat("0", timeWidth-len(ts)) + ts
	}
	return strings.ToUpper(prefix + ts + g.random())
}
