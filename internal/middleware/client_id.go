package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const ClientIDHeader = "X-Client-ID"

// ClientID makes sure every public request carries a customer id. A missing or malformed header
// gets a fresh uuid, echoed back so the browser can keep it.
func ClientID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(ClientIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		c.Set("client_id", id)
		c.Header(ClientIDHeader, id)
		c.Next()
	}
}

func GetClientID(c *gin.Context) string {
	return c.GetString("client_id")
}
