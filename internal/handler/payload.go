package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sumire/devtrack/internal/domain"
)

const maxBodyBytes = 1 << 20

// bindPayload decodes a JSON object body into dst and records the set of keys
// the client sent, which drives partial updates. An empty body is an empty
// object. A value of the wrong type is not an error here; it is recorded on
// dst and reported once the target record has been resolved and authorized.
func bindPayload(c echo.Context, dst domain.Payload) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", domain.ErrInvalidInput, err)
	}
	if len(body) > maxBodyBytes {
		return fmt.Errorf("%w: body too large", domain.ErrInvalidInput)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		dst.Present(domain.NewFields(), nil)
		return nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("%w: body must be a JSON object", domain.ErrInvalidInput)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	fields := domain.NewFields(keys...)

	var invalid error
	if err := json.Unmarshal(body, dst); err != nil {
		invalid = wrongType(dst, fields, raw, err)
	}
	dst.Present(fields, invalid)
	return nil
}

// wrongType names the first key whose value does not decode into its field.
func wrongType(dst any, fields domain.Fields, raw map[string]json.RawMessage, err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &domain.ValidationError{Field: typeErr.Field, Message: "has the wrong type"}
	}
	// Custom unmarshalers such as decimal.Decimal do not say which key
	// failed, so decode the keys one at a time into a scratch value.
	scratch := reflect.New(reflect.TypeOf(dst).Elem()).Interface()
	for _, k := range fields {
		one, _ := json.Marshal(map[string]json.RawMessage{k: raw[k]})
		if json.Unmarshal(one, scratch) != nil {
			return &domain.ValidationError{Field: k, Message: "has the wrong type"}
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}

// pathID parses a numeric path parameter. Anything else cannot name an
// existing record.
func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrNotFound
	}
	return id, nil
}
