package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-portal/internal/middleware"
	"github.com/jwalitptl/clinic-portal/internal/model"
	"github.com/jwalitptl/clinic-portal/internal/service/notification"
	apperrors "github.com/jwalitptl/clinic-portal/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

// Fail hands err to the error middleware, which renders it.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BadRequest reports a request that could not be bound.
func BadRequest(c *gin.Context, err error) {
	Fail(c, BindError(err, "invalid request"))
}

// BindError classifies a binding failure: a body cut off by the size limit
// is 413, anything else a validation error carrying message.
func BindError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return apperrors.TooLarge(tooLarge.Limit, err)
	}
	return apperrors.Validation(message, err)
}

// Notify emits n on the request's client channel, if the request has one.
func Notify(c *gin.Context, n model.Notification) {
	client := middleware.CurrentClient(c)
	if client == nil || client.Notifier == nil {
		return
	}
	client.Notifier.Notify(context.WithoutCancel(c.Request.Context()), n)
}

// NotifyError turns err into the error notification shown to the user.
func NotifyError(c *gin.Context, err error) {
	Notify(c, notification.Error(apperrors.PublicMessage(err)))
}
