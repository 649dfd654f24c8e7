package middleware

import (
	"github.com/emicklei/go-restful/v3"
)

// ErrorResponse is the error envelope every endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func HandleError(resp *restful.Response, err error, code int) {
	resp.WriteHeaderAndEntity(code, ErrorResponse{
		Error: err.Error(),
		Code:  code,
	})
}
