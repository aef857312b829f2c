// Package transcode implements descriptor-guided JSON <-> protobuf
// conversion and gRPC length-prefix frame codec used by the transport and
// call executor layers.
package transcode
