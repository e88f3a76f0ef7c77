package httpclient

import (
	"crypto/tls"
	"errors"
	"net/url"

	"newsnexus/internal/domain/entity"
	"newsnexus/internal/resilience/retry"
)

var (
	errTimeout    = errors.New("timeout")
	errConnection = errors.New("connection error")
)

// classify maps a fetch error to a short label for metrics, matching
// the failure-reason taxonomy in spec §4.1.
func classify(err error) string {
	switch {
	case errors.Is(err, errTimeout):
		return "timeout"
	case errors.Is(err, errConnection):
		return "connection_error"
	case isTLSError(err):
		return "tls_error"
	default:
		var httpErr *retry.HTTPError
		if errors.As(err, &httpErr) {
			return "http_error"
		}
		return "parse_error"
	}
}

// toKindedError maps a classified fetch error onto the domain's
// typed ErrorKind taxonomy so callers never need to inspect raw
// error chains.
func toKindedError(err error) *entity.KindedError {
	switch classify(err) {
	case "timeout":
		return entity.NewKindedError(entity.ErrKindUpstreamTimeout, err.Error())
	case "tls_error":
		return entity.NewKindedError(entity.ErrKindUpstreamTLSError, err.Error())
	case "http_error":
		return entity.NewKindedError(entity.ErrKindUpstreamHTTPError, err.Error())
	case "connection_error":
		return entity.NewKindedError(entity.ErrKindUpstreamHTTPError, err.Error())
	default:
		return entity.NewKindedError(entity.ErrKindParseError, err.Error())
	}
}

func isTLSError(err error) bool {
	var tlsErr tls.RecordHeaderError
	if errors.As(err, &tlsErr) {
		return true
	}
	var certErr *tls.CertificateVerificationError
	return errors.As(err, &certErr)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
