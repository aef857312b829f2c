package callexec

import (
	"strconv"

	"google.golang.org/grpc/codes"
)

// canonicalGrpcMessage fills in a default grpc_message from the canonical
// gRPC status code table when the server supplied a status but no message,
// ported from pkg/grpc/types.go's GRPCStatusCode table onto the real
// google.golang.org/grpc/codes package rather than a hand-rolled map.
func canonicalGrpcMessage(status, message string) string {
	if message != "" || status == "" || status == "unknown" {
		return message
	}
	n, err := strconv.Atoi(status)
	if err != nil {
		return message
	}
	return codes.Code(n).String()
}
