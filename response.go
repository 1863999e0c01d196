package ginrest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeResponse renders a normalized Response onto the Gin context: extra
// headers first (replacing, not appending, so forwarded headers such as
// Content-Length cannot be duplicated), then the JSON body with the status.
func writeResponse(c *gin.Context, resp Response) {
	h := c.Writer.Header()
	for key, values := range resp.Headers {
		h.Del(key)
		for _, v := range values {
			h.Add(key, v)
		}
	}
	c.AbortWithStatusJSON(resp.Status, resp.Body)
}

// cloneData copies a body-override payload so response mutation, such as the
// 404 hint append, never writes back into the error value, which a caller
// may reuse across requests.
func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// cloneHeader copies h so response mutation never writes back into the
// error value, which a caller may reuse.
func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return http.Header{}
	}
	out := make(http.Header, len(h))
	for k, vs := range h {
		out[k] = append([]string(nil), vs...)
	}
	return out
}
