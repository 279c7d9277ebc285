// Package schema decodes and validates request bodies for the board API.
package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Media fields are optional, but a key that is present must hold a non-empty
// string.
type Media struct {
	File *string `json:"file,omitempty" validate:"omitnil,min=1"`
	Type *string `json:"type,omitempty" validate:"omitnil,oneof=image/gif image/jpeg image/png"`
}

type NewPost struct {
	Title    string `json:"title" validate:"required"`
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Content  string `json:"content" validate:"required"`
	Media    *Media `json:"media"`
}

type Comment struct {
	Username string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Comment  string `json:"comment" validate:"required"`
}

type Vote struct {
	Username string   `json:"username" validate:"required,min=3,max=30,alphanum"`
	Vote     *float64 `json:"vote" validate:"omitempty,gte=-1,lte=1"`
}

// Value is the vote cast; an omitted vote counts as 0.
func (v *Vote) Value() float64 {
	if v.Vote == nil {
		return 0
	}
	return *v.Vote
}

// ValidationError rejects a request body before any state is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func ParseNewPost(body []byte) (*NewPost, error) {
	in := &NewPost{}
	if err := parse(body, in); err != nil {
		return nil, err
	}
	return in, nil
}

func ParseComment(body []byte) (*Comment, error) {
	in := &Comment{}
	if err := parse(body, in); err != nil {
		return nil, err
	}
	return in, nil
}

func ParseVote(body []byte) (*Vote, error) {
	in := &Vote{}
	if err := parse(body, in); err != nil {
		return nil, err
	}
	return in, nil
}

func parse(body []byte, dst any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return &ValidationError{Message: `"value" must be of type object`}
	}

	if err := checkKeys(trimmed, reflect.TypeOf(dst), ""); err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return decodeError(err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &ValidationError{Message: "request body must contain a single JSON object"}
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return &ValidationError{Message: fieldMessage(fieldErrs[0])}
		}
		return err
	}
	return nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &typeErr):
		return &ValidationError{Message: typeMessage(typeErr.Field, typeErr.Type)}
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &ValidationError{Message: "request body must be valid JSON"}
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.TrimPrefix(err.Error(), "json: unknown field ")
		return &ValidationError{Message: fmt.Sprintf("%s is not allowed", field)}
	}
	return &ValidationError{Message: err.Error()}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// checkKeys walks a raw object alongside the struct type t. It rejects
// explicit nulls and keys t does not declare, naming them by their full path.
// Bodies that are not objects are left to the decoder to report.
func checkKeys(raw []byte, t reflect.Type, prefix string) error {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		if name == "" {
			continue
		}
		known[name] = true

		value, ok := fields[name]
		if !ok {
			continue
		}
		path := prefix + name
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return &ValidationError{Message: typeMessage(path, f.Type)}
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct {
			if err := checkKeys(value, ft, path+"."); err != nil {
				return err
			}
		}
	}

	unknown := make([]string, 0)
	for key := range fields {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return &ValidationError{Message: fmt.Sprintf("%q is not allowed", prefix+unknown[0])}
	}
	return nil
}

func typeMessage(field string, t reflect.Type) string {
	kind := kindName(t)
	if kind == "object" {
		return fmt.Sprintf("%q must be of type object", field)
	}
	return fmt.Sprintf("%q must be a %s", field, kind)
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int64:
		return "number"
	case reflect.Struct, reflect.Map:
		return "object"
	}
	return t.Kind().String()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	label := fmt.Sprintf("%q", field)

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "min":
		if fe.Param() == "1" {
			return label + " is not allowed to be empty"
		}
		return fmt.Sprintf("%s length must be at least %s characters long", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s length must be less than or equal to %s characters long", label, fe.Param())
	case "alphanum":
		return label + " must only contain alpha-numeric characters"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", label, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", label, fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", label, fe.Tag())
}
