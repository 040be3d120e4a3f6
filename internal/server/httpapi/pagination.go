package httpapi

import (
	"net/http"
	"strconv"

	"github.com/dmitrijs2005/tuneshelf/internal/server/models"
)

// pageFromQuery reads ?limit=&page=. Missing or malformed values fall back
// to the defaults applied by models.Page.Normalize.
func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, _ := strconv.Atoi(q.Get("page"))
	return models.Page{Limit: limit, Page: page}.Normalize()
}
