// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package profiles

import (
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/absmach/jelly/permissions"
	"github.com/absmach/jelly/pkg/errors"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prefixes of permission entries in argument names and json keys.
const (
	PermissionNamePrefix = "Permission."
	PermissionKeyPrefix  = "p."
)

// PermissionMapKey is the json key of the whole permission map.
const PermissionMapKey = "p"

var validate = validator.New()

// Field describes a scalar profile field.
type Field struct {
	// Name is the field name used by argument maps.
	Name string
	// Key is the json and document key.
	Key string
	// ReadOnly fields cannot be changed once the profile exists.
	ReadOnly bool

	parse func(s string) (any, error)
	cast  func(v any) (any, bool)
	rules string
}

// Profile fields in parsing order.
var (
	FieldID           = Field{Name: "Id", Key: "_id", ReadOnly: true, parse: parseOID, cast: castOID, rules: "required"}
	FieldChannelOID   = Field{Name: "ChannelOid", Key: "c", ReadOnly: true, parse: parseOID, cast: castOID, rules: "required"}
	FieldName         = Field{Name: "Name", Key: "n", parse: parseString, cast: castString, rules: "required"}
	FieldColor        = Field{Name: "Color", Key: "col", parse: parseColor, cast: castColor, rules: "gte=0,lte=16777215"}
	FieldLevel        = Field{Name: "PermissionLevel", Key: "pls", parse: parseLevel, cast: castLevel, rules: "gte=0,lte=2"}
	FieldPromoVote    = Field{Name: "PromoVote", Key: "promo", parse: parseInt, cast: castInt, rules: "gte=0"}
	FieldEmailKeyword = Field{Name: "EmailKeyword", Key: "e-kw", parse: parseKeywords, cast: castKeywords, rules: "dive,required"}
)

var fields = []Field{
	FieldID,
	FieldChannelOID,
	FieldName,
	FieldColor,
	FieldLevel,
	FieldPromoVote,
	FieldEmailKeyword,
}

// Fields returns the scalar profile fields in parsing order.
func Fields() []Field {
	ret := make([]Field, len(fields))
	copy(ret, fields)
	return ret
}

// FieldByName returns the field with the given argument name.
func FieldByName(name string) (Field, bool) {
	for _, f := range fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// FieldByKey returns the field with the given json key.
func FieldByKey(key string) (Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// Parse converts the textual form of a value. It returns ErrTypeMismatch
// when s cannot represent the field type and ErrInvalidValue when the
// value fails validation.
func (f Field) Parse(s string) (any, error) {
	v, err := f.parse(s)
	if err != nil {
		return nil, err
	}
	return f.Cast(v)
}

// Cast checks that v has the field type and passes validation, returning
// the value in the stored form.
func (f Field) Cast(v any) (any, error) {
	cast, ok := f.cast(v)
	if !ok {
		return nil, ErrTypeMismatch
	}
	if f.rules != "" {
		if err := validate.Var(cast, f.rules); err != nil {
			return nil, errors.Wrap(ErrInvalidValue, err)
		}
	}
	return cast, nil
}

// PermissionName returns the argument name of a permission entry.
func PermissionName(c permissions.Code) string {
	return PermissionNamePrefix + c.Key()
}

// PermissionKey returns the json key of a permission entry.
func PermissionKey(c permissions.Code) string {
	return PermissionKeyPrefix + c.Key()
}

// ParsePermissionEntry splits a permission entry name or key by prefix.
// It reports false when s is not a permission entry and returns
// permissions.ErrInvalidCode when the code is not known.
func ParsePermissionEntry(s, prefix string) (permissions.Code, bool, error) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false, nil
	}
	c, err := permissions.ParseCode(strings.TrimPrefix(s, prefix))
	return c, true, err
}

// ParseBool accepts true/t/yes/y/1 and false/f/no/n/0 in any case.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, nil
	case "false", "f", "no", "n", "0":
		return false, nil
	default:
		return false, ErrTypeMismatch
	}
}

func parseOID(s string) (any, error) {
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrInvalidValue
	}
	return id, nil
}

func parseString(s string) (any, error) {
	return s, nil
}

func parseColor(s string) (any, error) {
	c, err := ParseColor(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidValue, err)
	}
	return c, nil
}

func parseLevel(s string) (any, error) {
	l, err := permissions.ParseLevel(s)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidValue, err)
	}
	return l, nil
}

func parseInt(s string) (any, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil, ErrTypeMismatch
	}
	return n, nil
}

func parseKeywords(s string) (any, error) {
	kws := []string{}
	for _, kw := range strings.Split(s, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			kws = append(kws, kw)
		}
	}
	return kws, nil
}

func castOID(v any) (any, bool) {
	switch id := v.(type) {
	case primitive.ObjectID:
		return id, true
	case *primitive.ObjectID:
		if id == nil {
			return primitive.NilObjectID, true
		}
		return *id, true
	default:
		return nil, false
	}
}

func castString(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	return strings.TrimSpace(s), true
}

func castColor(v any) (any, bool) {
	if c, ok := v.(Color); ok {
		return c, true
	}
	n, ok := toInt(v)
	if !ok {
		return nil, false
	}
	return Color(n), true
}

func castLevel(v any) (any, bool) {
	if l, ok := v.(permissions.Level); ok {
		return l, true
	}
	n, ok := toInt(v)
	if !ok {
		return nil, false
	}
	return permissions.Level(n), true
}

func castInt(v any) (any, bool) {
	n, ok := toInt(v)
	if !ok {
		return nil, false
	}
	return n, true
}

func castKeywords(v any) (any, bool) {
	switch kws := v.(type) {
	case []string:
		ret := make([]string, 0, len(kws))
		for _, kw := range kws {
			ret = append(ret, strings.TrimSpace(kw))
		}
		return ret, true
	case []any:
		ret := make([]string, 0, len(kws))
		for _, kw := range kws {
			s, ok := kw.(string)
			if !ok {
				return nil, false
			}
			ret = append(ret, strings.TrimSpace(s))
		}
		return ret, true
	default:
		return nil, false
	}
}

func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if rv.Uint() > math.MaxInt32 {
			return 0, false
		}
		return int(rv.Uint()), true
	default:
		return 0, false
	}
}
