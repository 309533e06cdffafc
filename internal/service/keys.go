package service

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectKey builds a collision-resistant storage key: owner-scoped path,
// timestamp, random suffix, original extension. The key is what gets
// persisted; signed URLs are minted from it on demand.
func objectKey(ownerID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%d-%s%s", ownerID, time.Now().Unix(), uuid.NewString()[:8], ext)
}
