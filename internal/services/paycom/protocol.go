// Package paycom implements the billing provider's JSON-RPC webhook
// protocol: envelope codec, provider error codes and the transaction state
// machine behind the six merchant-API methods.
package paycom

import (
	"encoding/json"
	"fmt"
)

// Request is the inbound JSON-RPC envelope. ID is echoed back untouched.
type Request struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	ID     interface{}     `json:"id"`
}

// Response is the outbound envelope: exactly one of Result or Error is set.
type Response struct {
	Result interface{} `json:"result,omitempty"`
	Error  *Error      `json:"error,omitempty"`
	ID     interface{} `json:"id"`
}

func NewResultResponse(id, result interface{}) *Response {
	return &Response{Result: result, ID: id}
}

func NewErrorResponse(id interface{}, err *Error) *Response {
	return &Response{Error: err, ID: id}
}

// Message is the provider's multi-language error message object. The three
// fields are a fixed wire shape, all of them always populated.
type Message struct {
	UZ string `json:"uz"`
	RU string `json:"ru"`
	EN string `json:"en"`
}

// Error is a provider protocol error. Message is either a plain string or a
// Message object, depending on the code; the provider branches on Code.
type Error struct {
	Code    int         `json:"code"`
	Message interface{} `json:"message,omitempty"`
	Data    string      `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("paycom error %d: %v", e.Code, e.Message)
}

// Provider error codes. The provider's own retry state machine branches on
// these values, so they must match exactly.
const (
	CodeUnauthorized        = -32504
	CodeMethodNotFound      = -32601
	CodeInternalError       = -32400
	CodeUserNotFound        = -31050
	CodeIncorrectAmount     = -31001
	CodeTransactionNotFound = -31003
)

func ErrUnauthorized() *Error {
	return &Error{Code: CodeUnauthorized, Message: "Unauthorized"}
}

func ErrMethodNotFound(method string) *Error {
	return &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: method}
}

func ErrInternal() *Error {
	return &Error{Code: CodeInternalError, Message: "Internal error"}
}

func ErrUserNotFound() *Error {
	return &Error{
		Code: CodeUserNotFound,
		Message: Message{
			UZ: "Foydalanuvchi topilmadi",
			RU: "Пользователь не найден",
			EN: "User not found",
		},
		Data: "user_id",
	}
}

func ErrIncorrectAmount() *Error {
	return &Error{
		Code: CodeIncorrectAmount,
		Message: Message{
			UZ: "Noto'g'ri summa",
			RU: "Неверная сумма",
			EN: "Incorrect amount",
		},
		Data: "amount",
	}
}

func ErrTransactionNotFound() *Error {
	return &Error{Code: CodeTransactionNotFound, Message: "Transaction not found"}
}
