package response

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Response is the envelope every endpoint answers with.
// Exactly one of Data or Error is meaningful. Notice accompanies a successful answer
// that the client should explain, such as an empty selection.
type Response struct {
	Data       interface{} `json:"data"`
	Error      *ErrorBody  `json:"error,omitempty"`
	Notice     *ErrorBody  `json:"notice,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Metadata   Metadata    `json:"metadata"`
}

// ErrorBody carries a stable machine code, its English message and optional per-field detail.
type ErrorBody struct {
	Code    ErrCode           `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// Pagination describes one page of a list endpoint.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// NewPagination computes the page count for total items split into pages of perPage.
func NewPagination(page, perPage, total int) *Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return &Pagination{Page: page, PerPage: perPage, TotalItems: total, TotalPages: pages}
}

type Metadata struct {
	RequestID string `json:"request_id"`
	Timestamp string `json:"timestamp"`
}

func Success(c *gin.Context, statusCode int, data interface{}) {
	send(c, statusCode, Response{Data: data}, false)
}

func SuccessWithPagination(c *gin.Context, statusCode int, data interface{}, pagination *Pagination) {
	send(c, statusCode, Response{Data: data, Pagination: pagination}, false)
}

// SuccessWithNotice answers with data plus an informational code and its message.
func SuccessWithNotice(c *gin.Context, statusCode int, data interface{}, code ErrCode) {
	send(c, statusCode, Response{Data: data, Notice: errorBody(code, nil)}, false)
}

// Fail answers with an error code and its default message.
func Fail(c *gin.Context, statusCode int, code ErrCode) {
	send(c, statusCode, Response{Error: errorBody(code, nil)}, false)
}

// FailWithFields answers with an error code plus field -> message detail,
// e.g. {"question_count": "must not exceed 12"}.
func FailWithFields(c *gin.Context, statusCode int, code ErrCode, fields map[string]string) {
	send(c, statusCode, Response{Error: errorBody(code, fields)}, false)
}

// AbortFail is Fail for middleware: later handlers in the chain do not run.
func AbortFail(c *gin.Context, statusCode int, code ErrCode) {
	send(c, statusCode, Response{Error: errorBody(code, nil)}, true)
}

func errorBody(code ErrCode, fields map[string]string) *ErrorBody {
	return &ErrorBody{Code: code, Message: GetMessage(code), Fields: fields}
}

func send(c *gin.Context, statusCode int, body Response, abort bool) {
	body.Metadata = Metadata{
		RequestID: RequestID(c),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if abort {
		c.AbortWithStatusJSON(statusCode, body)
		return
	}
	c.JSON(statusCode, body)
}

// RequestID returns the id assigned by RequestIDMiddleware, or a fresh one for
// contexts that never went through it.
func RequestID(c *gin.Context) string {
	if id := c.GetString(ContextKeyRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}
