package maildoc

import "errors"

// ErrParse is wrapped by all the errors of the parser that come from a
// malformed mail or an unavailable remote service (Tika, Gotenberg). It
// allows the callers to map them to a 422 response.
var ErrParse = errors.New("maildoc: cannot parse the mail")
