package client

import (
	"fmt"

	"github.com/juju/errors"
	"zabbix-rpc/message"
)

// ErrNoToken means user.login succeeded but its result was null or empty.
var ErrNoToken = errors.New("login returned no token")

// ErrorHandler receives error replies that Invoke swallowed.
type ErrorHandler func(method string, err *message.Error)

// LoginError is returned by New with WithStrictLogin when the server rejects the login
// or accepts it without a token. Err is a *message.Error or ErrNoToken.
type LoginError struct {
	User string
	Err  error
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("login as %q rejected: %v", e.User, e.Err)
}

func (e *LoginError) Unwrap() error {
	return e.Err
}
