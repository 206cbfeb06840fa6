package transport

import (
	"context"
	"net/http"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/gin-gonic/gin"
)

// JSON adapts a typed endpoint to a gin handler. The request struct is filled
// from the path (uri tags), then the query string (form tags) or the JSON body.
func JSON[Req any, Resp any](m *ErrorMapper, code int, fn func(context.Context, *Req) (Resp, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := new(Req)
		if err := bind(c, req); err != nil {
			m.Gin(c, model.Validationf("%v", err))
			return
		}
		resp, err := fn(requestContext(c), req)
		if err != nil {
			m.Gin(c, err)
			return
		}
		c.JSON(code, resp)
	}
}

func bind(c *gin.Context, req interface{}) error {
	if len(c.Params) > 0 {
		if err := c.ShouldBindUri(req); err != nil {
			return err
		}
	}
	switch c.Request.Method {
	case http.MethodGet, http.MethodDelete:
		return c.ShouldBindQuery(req)
	}
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(req)
}
