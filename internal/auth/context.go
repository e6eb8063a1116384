package auth

import "github.com/gin-gonic/gin"

const (
	ctxUserID    = "auth_user_id"
	ctxUserEmail = "auth_user_email"
)

func setCurrentUser(c *gin.Context, id Identity) {
	c.Set(ctxUserID, id.ID)
	c.Set(ctxUserEmail, id.Email)
}

// CurrentUser extracts the authenticated identity set by RequireUser.
func CurrentUser(c *gin.Context) (Identity, bool) {
	id, ok := c.Get(ctxUserID)
	if !ok {
		return Identity{}, false
	}
	userID, ok := id.(int64)
	if !ok {
		return Identity{}, false
	}
	return Identity{ID: userID, Email: c.GetString(ctxUserEmail)}, true
}
