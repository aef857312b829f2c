package callexec

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	spb "google.golang.org/genproto/googleapis/rpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// decodeStatusDetails extracts the grpc-status-details-bin trailer
// (falling back to the header, for trailers-only responses) and renders
// its google.rpc.Status details as human-readable strings. This mirrors
// pkg/grpc/server.go's buildErrorDetails family in reverse: decode
// instead of build.
func decodeStatusDetails(resp *http.Response) []string {
	raw := resp.Trailer.Get("grpc-status-details-bin")
	if raw == "" {
		raw = resp.Header.Get("grpc-status-details-bin")
	}
	if raw == "" {
		return nil
	}

	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(raw); err != nil {
			return nil
		}
	}

	var st spb.Status
	if err := proto.Unmarshal(data, &st); err != nil {
		return nil
	}

	details := make([]string, 0, len(st.GetDetails()))
	for _, any := range st.GetDetails() {
		details = append(details, renderDetail(any))
	}
	return details
}

func renderDetail(a *anypb.Any) string {
	switch {
	case a.MessageIs(&errdetails.BadRequest{}):
		var d errdetails.BadRequest
		if a.UnmarshalTo(&d) == nil {
			return fmt.Sprintf("BadRequest: %d field violation(s)", len(d.GetFieldViolations()))
		}
	case a.MessageIs(&errdetails.ErrorInfo{}):
		var d errdetails.ErrorInfo
		if a.UnmarshalTo(&d) == nil {
			return fmt.Sprintf("ErrorInfo: reason=%s domain=%s", d.GetReason(), d.GetDomain())
		}
	case a.MessageIs(&errdetails.RetryInfo{}):
		var d errdetails.RetryInfo
		if a.UnmarshalTo(&d) == nil {
			return fmt.Sprintf("RetryInfo: retry_delay=%s", d.GetRetryDelay().AsDuration())
		}
	case a.MessageIs(&errdetails.QuotaFailure{}):
		var d errdetails.QuotaFailure
		if a.UnmarshalTo(&d) == nil {
			return fmt.Sprintf("QuotaFailure: %d violation(s)", len(d.GetViolations()))
		}
	case a.MessageIs(&errdetails.DebugInfo{}):
		var d errdetails.DebugInfo
		if a.UnmarshalTo(&d) == nil {
			return fmt.Sprintf("DebugInfo: %s", d.GetDetail())
		}
	}
	return fmt.Sprintf("detail: %s", a.GetTypeUrl())
}
