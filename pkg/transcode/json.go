package transcode

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// JSONToDynamic deserializes jsonBody against desc, producing a dynamic
// protobuf message whose shape is governed entirely by the descriptor.
func JSONToDynamic(desc protoreflect.MessageDescriptor, jsonBody []byte) (*dynamicpb.Message, error) {
	msg := dynamicpb.NewMessage(desc)
	if err := protojson.Unmarshal(jsonBody, msg); err != nil {
		return nil, fmt.Errorf("transcode: json to proto: %w", err)
	}
	return msg, nil
}

// DynamicToJSON serializes a dynamic message to descriptor-guided JSON
// (enums as strings, json_name for field keys).
func DynamicToJSON(msg proto.Message) ([]byte, error) {
	out, err := protojson.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("transcode: proto to json: %w", err)
	}
	return out, nil
}

// EncodeRequest runs the forward path: JSON -> dynamic message -> wire
// bytes -> framed gRPC message.
func EncodeRequest(inputDesc protoreflect.MessageDescriptor, jsonBody []byte) ([]byte, error) {
	msg, err := JSONToDynamic(inputDesc, jsonBody)
	if err != nil {
		return nil, err
	}
	wire, err := proto.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("transcode: marshal wire: %w", err)
	}
	return EncodeFrame(wire), nil
}

// DecodeFrame runs the reverse path for one frame: wire bytes -> dynamic
// message -> JSON. A non-zero compression flag is rejected rather than
// reinterpreted.
func DecodeFrame(outputDesc protoreflect.MessageDescriptor, frame Frame) ([]byte, error) {
	if frame.CompressionFlag != 0 {
		return nil, ErrUnsupportedCompression
	}
	msg := dynamicpb.NewMessage(outputDesc)
	if err := proto.Unmarshal(frame.Payload, msg); err != nil {
		return nil, fmt.Errorf("transcode: unmarshal wire: %w", err)
	}
	return DynamicToJSON(msg)
}
