// Public listing endpoints:
//   - GET /reviews       (public reviews, optional sort/tag/q/limit)
//   - GET /reviews/tags  (distinct tags of public reviews)
package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-review-wall/internal/domain"
	"github.com/tbourn/go-review-wall/internal/services"
	"github.com/tbourn/go-review-wall/internal/utils"
)

// maxListLimit caps ?limit on GET /reviews.
const maxListLimit = 500

// TagsResponse lists the distinct tags of public reviews.
type TagsResponse struct {
	Tags []string `json:"tags" example:"friendly,fast"`
}

// ListReviews godoc
// @ID          listReviews
// @Summary     List public reviews
// @Description Returns reviews that have consent and are not private. Responses carry a weak ETag; a matching If-None-Match yields 304.
// @Tags        Reviews
// @Produce     json
//
// @Param       sort           query   string  false  "\"recent\" for newest first; store order otherwise"  Enums(recent)
// @Param       tag            query   string  false  "Only reviews carrying this tag (case-insensitive)"
// @Param       q              query   string  false  "Free-text search over name, review, profile, summary and tags"
// @Param       limit          query   int     false  "Maximum number of reviews (0 = all)"  minimum(0) maximum(500)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
//
// @Success     200  {array}   domain.Review
// @Success     304  "Not modified"
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load reviews"
// @Router      /reviews [get]
func (h *Handlers) ListReviews(c *gin.Context) {
	ctx := c.Request.Context()
	opts := services.ListOptions{
		Sort:  strings.ToLower(strings.TrimSpace(c.Query("sort"))),
		Tag:   c.Query("tag"),
		Query: c.Query("q"),
		Limit: utils.ClampInt(utils.AtoiDefault(c.Query("limit"), 0), 0, maxListLimit),
	}

	if version, err := h.public.Version(ctx); err == nil {
		etag := listETag(version, opts)
		c.Header("ETag", etag)
		c.Header("Cache-Control", "no-cache")
		if matchesETag(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, err := h.public.ListPublic(ctx, opts)
	if err != nil {
		if !failService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Failed to load reviews")
		}
		return
	}
	if items == nil {
		items = []domain.Review{}
	}
	ok(c, http.StatusOK, items)
}

// ListTags godoc
// @ID          listReviewTags
// @Summary     List tags of public reviews
// @Description Distinct tags across public reviews, de-duplicated case-insensitively.
// @Tags        Reviews
// @Produce     json
// @Success     200  {object}  handlers.TagsResponse
// @Failure     500  {object}  handlers.ErrorResponse  "Failed to load tags"
// @Router      /reviews/tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.public.Tags(c.Request.Context())
	if err != nil {
		if !failService(c, err) {
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, "Failed to load tags")
		}
		return
	}
	if tags == nil {
		tags = []string{}
	}
	ok(c, http.StatusOK, TagsResponse{Tags: tags})
}

// listETag derives a weak validator from the store version and the query.
func listETag(version string, opts services.ListOptions) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%s|%d", opts.Sort, strings.ToLower(opts.Tag), opts.Query, opts.Limit)
	return fmt.Sprintf(`W/"reviews-%s-%x"`, strings.ReplaceAll(version, ":", "-"), h.Sum64())
}

func matchesETag(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, cand := range strings.Split(header, ",") {
		cand = strings.TrimSpace(cand)
		if cand == "*" || cand == etag {
			return true
		}
	}
	return false
}
