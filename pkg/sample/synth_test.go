package sample

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
)

func strPtr(s string) *string { return &s }
func i32Ptr(i int32) *int32   { return &i }

func fieldType(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}

func label(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}

func TestSynthesize_ScalarDefaults(t *testing.T) {
	syntax := "proto3"
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{
				Name:    strPtr("m.proto"),
				Package: strPtr("m"),
				Syntax:  &syntax,
				MessageType: []*descriptorpb.DescriptorProto{
					{
						Name: strPtr("Scalars"),
						Field: []*descriptorpb.FieldDescriptorProto{
							{Name: strPtr("flag"), Number: i32Ptr(1), Type: fieldType(descriptorpb.FieldDescriptorProto_TYPE_BOOL), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), JsonName: strPtr("flag")},
							{Name: strPtr("text"), Number: i32Ptr(2), Type: fieldType(descriptorpb.FieldDescriptorProto_TYPE_STRING), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), JsonName: strPtr("text")},
							{Name: strPtr("blob"), Number: i32Ptr(3), Type: fieldType(descriptorpb.FieldDescriptorProto_TYPE_BYTES), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), JsonName: strPtr("blob")},
							{Name: strPtr("count"), Number: i32Ptr(4), Type: fieldType(descriptorpb.FieldDescriptorProto_TYPE_INT32), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), JsonName: strPtr("count")},
							{Name: strPtr("tags"), Number: i32Ptr(5), Type: fieldType(descriptorpb.FieldDescriptorProto_TYPE_STRING), Label: label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED), JsonName: strPtr("tags")},
						},
					},
				},
			},
		},
	}

	files, err := protodesc.NewFiles(set)
	require.NoError(t, err)
	fd, err := files.FindFileByPath("m.proto")
	require.NoError(t, err)
	md := fd.Messages().ByName("Scalars")
	require.NotNil(t, md)

	out := Synthesize(md)
	assert.Equal(t, false, out["flag"])
	assert.Equal(t, "", out["text"])
	assert.Equal(t, placeholderBytes, out["blob"])
	assert.Equal(t, 0, out["count"])
	assert.Equal(t, []interface{}{}, out["tags"])
}

func TestSynthesize_SelfReferentialTerminates(t *testing.T) {
	syntax := "proto3"
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{
				Name:    strPtr("tree.proto"),
				Package: strPtr("tree"),
				Syntax:  &syntax,
				MessageType: []*descriptorpb.DescriptorProto{
					{
						Name: strPtr("Node"),
						Field: []*descriptorpb.FieldDescriptorProto{
							{
								Name:     strPtr("child"),
								Number:   i32Ptr(1),
								Type:     fieldType(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE),
								Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
								TypeName: strPtr(".tree.Node"),
								JsonName: strPtr("child"),
							},
						},
					},
				},
			},
		},
	}

	files, err := protodesc.NewFiles(set)
	require.NoError(t, err)
	fd, err := files.FindFileByPath("tree.proto")
	require.NoError(t, err)
	md := fd.Messages().ByName("Node")
	require.NotNil(t, md)

	out := Synthesize(md)
	depth := 0
	cur := out
	for {
		child, ok := cur["child"].(map[string]interface{})
		if !ok {
			break
		}
		if len(child) == 0 {
			break
		}
		cur = child
		depth++
		require.LessOrEqual(t, depth, MaxDepth+1, "synthesizer did not terminate within the depth cap")
	}
	assert.LessOrEqual(t, depth, MaxDepth)
}

func TestSynthesize_EnumDefaultsToFirstValue(t *testing.T) {
	syntax := "proto3"
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{
			{
				Name:    strPtr("e.proto"),
				Package: strPtr("e"),
				Syntax:  &syntax,
				EnumType: []*descriptorpb.EnumDescriptorProto{
					{
						Name: strPtr("Color"),
						Value: []*descriptorpb.EnumValueDescriptorProto{
							{Name: strPtr("RED"), Number: i32Ptr(0)},
							{Name: strPtr("GREEN"), Number: i32Ptr(1)},
						},
					},
				},
				MessageType: []*descriptorpb.DescriptorProto{
					{
						Name: strPtr("Paint"),
						Field: []*descriptorpb.FieldDescriptorProto{
							{
								Name:     strPtr("color"),
								Number:   i32Ptr(1),
								Type:     fieldType(descriptorpb.FieldDescriptorProto_TYPE_ENUM),
								Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
								TypeName: strPtr(".e.Color"),
								JsonName: strPtr("color"),
							},
						},
					},
				},
			},
		},
	}

	files, err := protodesc.NewFiles(set)
	require.NoError(t, err)
	fd, err := files.FindFileByPath("e.proto")
	require.NoError(t, err)
	md := fd.Messages().ByName("Paint")
	require.NotNil(t, md)

	out := Synthesize(md)
	assert.Equal(t, "RED", out["color"])
}
