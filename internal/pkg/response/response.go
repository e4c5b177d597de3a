package response

import (
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/webapi/proxyutil"
)

// codeErr carries an errcode value through proxyutil so every failure
// lands in the envelope as {code, message}.
type codeErr struct {
	code uint32
	msg  string
}

func (e codeErr) Error() string {
	return e.msg
}

func (e codeErr) Code() uint32 {
	return e.code
}

func AsCodeErr(code uint32, msg string) error {
	return codeErr{code: code, msg: msg}
}

// Success writes data inside the standard response envelope.
func Success(c *gin.Context, data interface{}) {
	proxyutil.SuccessJson(c, data)
}

// Error writes a failure envelope. The HTTP status stays 200; clients
// read the embedded code.
func Error(c *gin.Context, code int, message string) {
	proxyutil.FailJson(c, 200, AsCodeErr(uint32(code), message))
}
