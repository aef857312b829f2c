package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/descriptorpb"
)

func TestDeriveMethodType_TruthTable(t *testing.T) {
	cases := []struct {
		clientStreaming, serverStreaming bool
		want                             MethodType
	}{
		{false, false, MethodTypeUnary},
		{false, true, MethodTypeServerStreaming},
		{true, false, MethodTypeClientStreaming},
		{true, true, MethodTypeBidiStreaming},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveMethodType(tc.clientStreaming, tc.serverStreaming))
	}
}

func boolPtr(b bool) *bool { return &b }

func echoFileDescriptorSet() *descriptorpb.FileDescriptorSet {
	syntax := "proto3"
	return &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{
				Name:    strPtr("echo.proto"),
				Package: strPtr("echo"),
				Syntax:  &syntax,
				MessageType: []*descriptorpb.DescriptorProto{
					{
						Name: strPtr("Msg"),
						Field: []*descriptorpb.FieldDescriptorProto{
							{
								Name:     strPtr("text"),
								Number:   int32Ptr(1),
								Type:     typePtr(descriptorpb.FieldDescriptorProto_TYPE_STRING),
								Label:    labelPtr(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
								JsonName: strPtr("text"),
							},
						},
					},
				},
				Service: []*descriptorpb.ServiceDescriptorProto{
					{
						Name: strPtr("Echo"),
						Method: []*descriptorpb.MethodDescriptorProto{
							{
								Name:       strPtr("Say"),
								InputType:  strPtr(".echo.Msg"),
								OutputType: strPtr(".echo.Msg"),
							},
							{
								Name:            strPtr("Stream"),
								InputType:       strPtr(".echo.Msg"),
								OutputType:      strPtr(".echo.Msg"),
								ServerStreaming: boolPtr(true),
							},
						},
					},
				},
			},
		},
	}
}

func strPtr(s string) *string                                                     { return &s }
func int32Ptr(i int32) *int32                                                      { return &i }
func typePtr(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type { return &t }
func labelPtr(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}

func TestDescriptorPool_ServicesAndMethodTypes(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)

	services := pool.Services()
	assert.Len(t, services, 1)
	assert.Equal(t, "Echo", services[0].Name)
	assert.Equal(t, "echo", services[0].Package)
	assert.Len(t, services[0].Methods, 2)
	assert.Equal(t, MethodTypeUnary, services[0].Methods[0].MethodType)
	assert.Equal(t, MethodTypeServerStreaming, services[0].Methods[1].MethodType)
}

func TestDescriptorPool_FindServiceByFullyQualifiedName(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)

	sd, err := pool.FindService("echo.Echo")
	assert.NoError(t, err)
	assert.Equal(t, "Echo", string(sd.Name()))
}

func TestDescriptorPool_FindServiceBySimpleName(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)

	sd, err := pool.FindService("Echo")
	assert.NoError(t, err)
	assert.Equal(t, "Echo", string(sd.Name()))
}

func TestDescriptorPool_FindServiceNotFound(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)

	_, err = pool.FindService("Missing")
	assert.ErrorIs(t, err, ErrServiceNotFound)
}

func TestFindMethod(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)
	sd, err := pool.FindService("Echo")
	assert.NoError(t, err)

	md, err := FindMethod(sd, "Say")
	assert.NoError(t, err)
	assert.Equal(t, "Say", string(md.Name()))

	_, err = FindMethod(sd, "Missing")
	assert.ErrorIs(t, err, ErrMethodNotFound)
}

func TestDescriptorPool_FindMessage(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)

	md, err := pool.FindMessage("echo.Msg")
	assert.NoError(t, err)
	assert.Equal(t, "Msg", string(md.Name()))

	md, err = pool.FindMessage("Msg")
	assert.NoError(t, err)
	assert.Equal(t, "Msg", string(md.Name()))

	_, err = pool.FindMessage("Missing")
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestFullMethodPath(t *testing.T) {
	pool, err := NewDescriptorPool(echoFileDescriptorSet())
	assert.NoError(t, err)
	sd, err := pool.FindService("Echo")
	assert.NoError(t, err)

	assert.Equal(t, "/echo.Echo/Say", FullMethodPath(sd, "Say"))
}
