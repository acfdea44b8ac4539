package problem

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// statusCodeClientClosed is the de facto status for codes.Canceled; it has no
// canonical reason phrase in net/http.
const statusCodeClientClosed = 499

// grpcHTTPStatus maps gRPC codes to their closest HTTP equivalents, following
// the grpc-gateway convention.
var grpcHTTPStatus = map[codes.Code]int{
	codes.OK:                 http.StatusOK,
	codes.Canceled:           statusCodeClientClosed,
	codes.Unknown:            http.StatusInternalServerError,
	codes.InvalidArgument:    http.StatusBadRequest,
	codes.DeadlineExceeded:   http.StatusGatewayTimeout,
	codes.NotFound:           http.StatusNotFound,
	codes.AlreadyExists:      http.StatusConflict,
	codes.PermissionDenied:   http.StatusForbidden,
	codes.ResourceExhausted:  http.StatusTooManyRequests,
	codes.FailedPrecondition: http.StatusBadRequest,
	codes.Aborted:            http.StatusConflict,
	codes.OutOfRange:         http.StatusBadRequest,
	codes.Unimplemented:      http.StatusNotImplemented,
	codes.Internal:           http.StatusInternalServerError,
	codes.Unavailable:        http.StatusServiceUnavailable,
	codes.DataLoss:           http.StatusInternalServerError,
	codes.Unauthenticated:    http.StatusUnauthorized,
}

// FromGRPCCode returns a problem document for a gRPC status code mapped to
// its closest HTTP equivalent.
func FromGRPCCode(code codes.Code) Details[NoExtensions] {
	httpStatus, ok := grpcHTTPStatus[code]
	if !ok {
		httpStatus = http.StatusInternalServerError
	}
	d := FromStatus(httpStatus)
	if d.Title == "" {
		d = d.WithTitle(code.String())
	}
	return d
}

// FromGRPCError converts a gRPC error into a problem document, carrying the
// status message as detail. Non-status errors map to a plain 500 problem.
func FromGRPCError(err error) Details[NoExtensions] {
	if err == nil {
		return New()
	}
	s, ok := status.FromError(err)
	if !ok {
		return FromStatus(http.StatusInternalServerError).WithDetail(err.Error())
	}
	d := FromGRPCCode(s.Code())
	if msg := s.Message(); msg != "" {
		d = d.WithDetail(msg)
	}
	return d
}
