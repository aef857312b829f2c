package schema

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// MethodType is the derived streaming shape of an RPC method, per the
// (client_streaming, server_streaming) truth table.
type MethodType string

const (
	MethodTypeUnary           MethodType = "unary"
	MethodTypeServerStreaming MethodType = "server_streaming"
	MethodTypeClientStreaming MethodType = "client_streaming"
	MethodTypeBidiStreaming   MethodType = "bidirectional_streaming"
)

// DeriveMethodType maps the streaming flags to a MethodType.
func DeriveMethodType(clientStreaming, serverStreaming bool) MethodType {
	switch {
	case !clientStreaming && !serverStreaming:
		return MethodTypeUnary
	case !clientStreaming && serverStreaming:
		return MethodTypeServerStreaming
	case clientStreaming && !serverStreaming:
		return MethodTypeClientStreaming
	default:
		return MethodTypeBidiStreaming
	}
}

// MethodSummary is the UI-facing record for one RPC method.
type MethodSummary struct {
	Name            string     `json:"name"`
	InputType       string     `json:"input_type"`
	OutputType      string     `json:"output_type"`
	ClientStreaming bool       `json:"client_streaming"`
	ServerStreaming bool       `json:"server_streaming"`
	MethodType      MethodType `json:"method_type"`
	SampleRequest   string     `json:"sample_request,omitempty"`
}

// ServiceSummary is the UI-facing record for one service.
type ServiceSummary struct {
	Name    string          `json:"name"`
	Package string          `json:"package,omitempty"`
	Methods []MethodSummary `json:"methods"`
}

// DescriptorPool is an immutable, queryable view over a compiled
// FileDescriptorSet. It is safe for concurrent reads and is shared,
// never mutated, across the lifetime of a call or an open stream.
type DescriptorPool struct {
	files *protoregistry.Files
}

// NewDescriptorPool materializes a DescriptorPool from a raw
// FileDescriptorSet, as produced by decoding protoc's
// --descriptor_set_out output.
func NewDescriptorPool(set *descriptorpb.FileDescriptorSet) (*DescriptorPool, error) {
	files, err := protodesc.NewFiles(set)
	if err != nil {
		return nil, fmt.Errorf("schema: build descriptor pool: %w", err)
	}
	return &DescriptorPool{files: files}, nil
}

// Files exposes the underlying registry for callers that need raw
// protoreflect access (e.g. the sample synthesizer, the transcoder).
func (p *DescriptorPool) Files() *protoregistry.Files {
	return p.files
}

// FindService looks up a service by fully qualified name
// ("package.Service") or, failing that, by a bare service name if it
// resolves unambiguously across all files in the pool.
func (p *DescriptorPool) FindService(name string) (protoreflect.ServiceDescriptor, error) {
	if d, err := p.files.FindDescriptorByName(protoreflect.FullName(name)); err == nil {
		if sd, ok := d.(protoreflect.ServiceDescriptor); ok {
			return sd, nil
		}
	}

	var match protoreflect.ServiceDescriptor
	var rangeErr error
	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			sd := services.Get(i)
			if string(sd.Name()) != name {
				continue
			}
			if match != nil {
				rangeErr = ErrAmbiguousName
				return false
			}
			match = sd
		}
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return match, nil
}

// FindMessage looks up a message type by fully qualified name or, failing
// that, by a bare name if it resolves unambiguously across all files.
func (p *DescriptorPool) FindMessage(name string) (protoreflect.MessageDescriptor, error) {
	if d, err := p.files.FindDescriptorByName(protoreflect.FullName(name)); err == nil {
		if md, ok := d.(protoreflect.MessageDescriptor); ok {
			return md, nil
		}
	}

	var match protoreflect.MessageDescriptor
	var rangeErr error
	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		messages := fd.Messages()
		for i := 0; i < messages.Len(); i++ {
			md := messages.Get(i)
			if string(md.Name()) != name {
				continue
			}
			if match != nil {
				rangeErr = ErrAmbiguousName
				return false
			}
			match = md
		}
		return true
	})
	if rangeErr != nil {
		return nil, rangeErr
	}
	if match == nil {
		return nil, fmt.Errorf("%w: %s", ErrMessageNotFound, name)
	}
	return match, nil
}

// FindMethod looks up a method on a service by simple name.
func FindMethod(sd protoreflect.ServiceDescriptor, name string) (protoreflect.MethodDescriptor, error) {
	md := sd.Methods().ByName(protoreflect.Name(name))
	if md == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrMethodNotFound, sd.FullName(), name)
	}
	return md, nil
}

// Services lists every service in the pool as a ServiceSummary, each with
// its methods' derived MethodType populated but SampleRequest left empty
// (callers fill it in via the sample synthesizer when needed).
func (p *DescriptorPool) Services() []ServiceSummary {
	var out []ServiceSummary
	p.files.RangeFiles(func(fd protoreflect.FileDescriptor) bool {
		services := fd.Services()
		for i := 0; i < services.Len(); i++ {
			out = append(out, summarizeService(services.Get(i)))
		}
		return true
	})
	return out
}

func summarizeService(sd protoreflect.ServiceDescriptor) ServiceSummary {
	methods := sd.Methods()
	summary := ServiceSummary{
		Name:    string(sd.Name()),
		Package: string(sd.ParentFile().Package()),
		Methods: make([]MethodSummary, 0, methods.Len()),
	}
	for i := 0; i < methods.Len(); i++ {
		md := methods.Get(i)
		summary.Methods = append(summary.Methods, MethodSummary{
			Name:            string(md.Name()),
			InputType:       string(md.Input().FullName()),
			OutputType:      string(md.Output().FullName()),
			ClientStreaming: md.IsStreamingClient(),
			ServerStreaming: md.IsStreamingServer(),
			MethodType:      DeriveMethodType(md.IsStreamingClient(), md.IsStreamingServer()),
		})
	}
	return summary
}

// FullMethodPath builds the HTTP/2 ":path" pseudo-header for an RPC, per
// spec's URI construction rule: "/{package}.{Service}/{Method}", or
// "/{Service}/{Method}" when the declaring file has no package.
func FullMethodPath(sd protoreflect.ServiceDescriptor, methodName string) string {
	pkg := string(sd.ParentFile().Package())
	var qualified string
	if pkg == "" {
		qualified = string(sd.Name())
	} else {
		qualified = pkg + "." + string(sd.Name())
	}
	return "/" + strings.TrimPrefix(qualified, ".") + "/" + methodName
}
