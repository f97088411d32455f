package middleware

import (
	"github.com/gin-gonic/gin"
)

const responseMetaKey = "responseMeta"

// SetMeta stores a response meta entry that handlers pass to the envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta := Meta(c)
	if meta == nil {
		meta = make(map[string]interface{})
		c.Set(responseMetaKey, meta)
	}
	meta[key] = value
}

// SetCacheHit records whether the response came from the cache.
func SetCacheHit(c *gin.Context, hit bool) {
	SetMeta(c, "cache_hit", hit)
}

// Meta returns the meta collected for the current request, or nil.
func Meta(c *gin.Context) map[string]interface{} {
	value, exists := c.Get(responseMetaKey)
	if !exists {
		return nil
	}
	meta, _ := value.(map[string]interface{})
	return meta
}
