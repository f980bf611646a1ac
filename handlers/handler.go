package handlers

import (
	"strconv"
	"strings"

	"pizza-service/apperrors"
	"pizza-service/factory"
	"pizza-service/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// Handler carries the collaborators every endpoint needs
type Handler struct {
	DB      *gorm.DB
	Auth    *middleware.Authenticator
	Factory factory.Client
}

func New(db *gorm.DB, auth *middleware.Authenticator, factoryClient factory.Client) *Handler {
	return &Handler{DB: db, Auth: auth, Factory: factoryClient}
}

func parseID(c *gin.Context, param string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Validation("invalid " + param)
	}
	return uint(id), nil
}

// pagination reads page and limit query params. firstPage is the number
// of the first page (0 or 1 depending on the endpoint).
func pagination(c *gin.Context, firstPage int) (page, limit, offset int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < firstPage {
		page = firstPage
	}
	limit, err = strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - firstPage) * limit
}

// nameLike matches a name column against namePattern
const nameLike = `name LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`, "*", "%")

// namePattern turns the name query param into a LIKE pattern. Only '*' is a
// wildcard; '%' and '_' match themselves.
func namePattern(c *gin.Context) string {
	name := c.Query("name")
	if name == "" {
		return "%"
	}
	return likeEscaper.Replace(name)
}
