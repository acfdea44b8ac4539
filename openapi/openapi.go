// Package openapi describes problem details responses for OpenAPI documents,
// including the flattened extension members of a payload type.
package openapi

import (
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/theroutercompany/problem"
)

// Schema returns the schema of a problem document carrying the given
// extension payload. Extension members appear as top-level properties,
// matching the flattened wire shape. Pass problem.NoExtensions{} for the
// plain document.
func Schema(extensions any) *openapi3.Schema {
	schema := openapi3.NewObjectSchema().
		WithProperty("type", openapi3.NewStringSchema().WithFormat("uri-reference")).
		WithProperty("status", openapi3.NewIntegerSchema()).
		WithProperty("title", openapi3.NewStringSchema()).
		WithProperty("detail", openapi3.NewStringSchema()).
		WithProperty("instance", openapi3.NewStringSchema().WithFormat("uri-reference"))
	schema.Description = "RFC 9457 problem details"

	if extensions == nil {
		return schema
	}

	t := reflect.TypeOf(extensions)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := jsonName(field)
			if name == "" {
				continue
			}
			schema.WithProperty(name, fieldSchema(field.Type))
		}
	case reflect.Map:
		// Dynamic payloads contribute unknown members.
		schema.AdditionalProperties = openapi3.AdditionalProperties{Has: openapi3.BoolPtr(true)}
	}

	return schema
}

// Response describes a problem response with the problem+json media type.
func Response(description string, extensions any) *openapi3.Response {
	media := openapi3.NewMediaType().WithSchema(Schema(extensions))
	return openapi3.NewResponse().
		WithDescription(description).
		WithContent(openapi3.Content{problem.ContentTypeJSON: media})
}

func fieldSchema(t reflect.Type) *openapi3.Schema {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return openapi3.NewStringSchema()
	case reflect.Bool:
		return openapi3.NewBoolSchema()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return openapi3.NewIntegerSchema()
	case reflect.Float32, reflect.Float64:
		return openapi3.NewFloat64Schema()
	case reflect.Slice, reflect.Array:
		return openapi3.NewArraySchema().WithItems(fieldSchema(t.Elem()))
	case reflect.Struct:
		schema := openapi3.NewObjectSchema()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			if name := jsonName(field); name != "" {
				schema.WithProperty(name, fieldSchema(field.Type))
			}
		}
		return schema
	default:
		return openapi3.NewObjectSchema()
	}
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return field.Name
	}
	return name
}
