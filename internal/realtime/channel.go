package realtime

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const suffixLen = 9

// NewChannelID builds a process-unique channel identifier for table:
// "<table>-changes-<unix millis>-<9 random chars>".
func NewChannelID(clock clockwork.Clock, table string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:suffixLen]
	return fmt.Sprintf("%s-changes-%d-%s", table, clock.Now().UnixMilli(), suffix)
}
