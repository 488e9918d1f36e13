package audit

import (
	"commandr/bizerror"
	"net/http"

	"github.com/gin-gonic/gin"
)

func RegisterSecurityEventsHandler(r *gin.Engine, recorder *Recorder, middleWares ...gin.HandlerFunc) {
	g := r.Group("/v1/security-events", middleWares...)
	g.GET("", recorder.HandleQueryEvents)
}

func (r *Recorder) HandleQueryEvents(c *gin.Context) {
	q := EventQuery{}
	if err := c.ShouldBindQuery(&q); err != nil {
		panic(&bizerror.ErrBadParam{Cause: err})
	}
	events, err := r.Query(c.Request.Context(), q)
	if err != nil {
		panic(err)
	}
	c.JSON(http.StatusOK, events)
}
