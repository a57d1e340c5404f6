package errors

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Raw messages the backend (and the browser runtime) produce for known failures.
const (
	msgInvalidCredentials = "Invalid credentials"
	msgFailedToFetch      = "Failed to fetch"
	msgUserExists         = "User already exists"
	msgNullUser           = "Cannot return null for non-nullable field Query.user."
	msgNullCv             = "Cannot return null for non-nullable field Query.cv."
	msgBadRequest         = "Bad Request Exception"
	msgUnauthorized       = "Unauthorized"
)

// exactMessages maps exact backend messages to kinds. Codes are accepted too so an
// already-serialized kind re-classifies to itself.
var exactMessages = map[string]Kind{
	msgInvalidCredentials:           KindInvalidCredentials,
	msgFailedToFetch:                KindNoNetworkConnection,
	msgUserExists:                   KindEmailDuplicate,
	msgNullUser:                     KindNotFoundUser,
	msgNullCv:                       KindNotFoundCv,
	msgBadRequest:                   KindBadInputData,
	msgUnauthorized:                 KindUnauthorized,
	string(KindNotFoundUser):        KindNotFoundUser,
	string(KindNotFoundCv):          KindNotFoundCv,
	string(KindUnauthorized):        KindUnauthorized,
	string(KindNoNetworkConnection): KindNoNetworkConnection,
}

// langChunkPrefixes maps locale bundle load failures to their kinds.
var langChunkPrefixes = []struct {
	prefix string
	kind   Kind
}{
	{"Loading chunk en", KindLangEnLoad},
	{"Loading chunk de", KindLangDeLoad},
	{"Loading chunk ru", KindLangRuLoad},
}

// BackendMessager is implemented by transport errors that carry the server's message.
type BackendMessager interface {
	BackendMessage() string
}

// ClassifyMessage maps a raw message to its kind.
func ClassifyMessage(msg string) Kind {
	msg = strings.TrimSpace(msg)
	if k, ok := exactMessages[msg]; ok {
		return k
	}
	for _, p := range langChunkPrefixes {
		if strings.HasPrefix(msg, p.prefix) {
			return p.kind
		}
	}
	return KindUnexpected
}

// Classify is the single boundary where raw failures become taxonomy kinds.
// Classified errors pass through untouched so the Unauthorized Signal is never lost.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}

	var bm BackendMessager
	if errors.As(err, &bm) {
		return &Error{Kind: ClassifyMessage(bm.BackendMessage()), Message: bm.BackendMessage(), Cause: err}
	}

	if isTransportFailure(err) {
		return Wrap(err, KindNoNetworkConnection)
	}

	return &Error{Kind: ClassifyMessage(err.Error()), Cause: err}
}

func isTransportFailure(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
