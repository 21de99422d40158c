// Copyright 2019 The Vearch Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package fault

func InvalidParam(format string, args ...interface{}) *Error {
	return Newf(ErrInvalidParam, format, args...)
}

func SchemaError(format string, args ...interface{}) *Error {
	return Newf(ErrSchema, format, args...)
}

func SchemaMismatch(format string, args ...interface{}) *Error {
	return Newf(ErrSchemaMismatch, format, args...)
}

func DimensionMismatch(field string, expected, actual int) *Error {
	return Newf(ErrDimensionMismatch, "dimension mismatch on field %s: expected %d, got %d", field, expected, actual).
		WithDetail("expected", expected).
		WithDetail("actual", actual)
}

func InvalidFilter(filter string, cause error) *Error {
	return Wrapf(ErrInvalidFilter, cause, "invalid filter expression %q", filter)
}

func UnsupportedIndexType(indexType, field, dataType string) *Error {
	return Newf(ErrUnsupportedIndexType, "index type %s is not supported on field %s of type %s", indexType, field, dataType)
}

func Authentication(reason string) *Error {
	return Newf(ErrAuthentication, "authentication failed: %s", reason)
}

func CollectionNotFound(name string) *Error {
	return Newf(ErrCollectionNotFound, "collection not found: %s", name)
}

func FieldNotFound(collection, field string) *Error {
	return Newf(ErrFieldNotFound, "field %s not found in collection %s", field, collection)
}

func IndexNotFound(collection, field string) *Error {
	return Newf(ErrIndexNotFound, "no index on field %s of collection %s", field, collection)
}

func AlreadyExists(format string, args ...interface{}) *Error {
	return Newf(ErrAlreadyExists, format, args...)
}

func NotLoaded(collection string) *Error {
	return Newf(ErrNotLoaded, "collection %s is not loaded", collection)
}

func Conflict(format string, args ...interface{}) *Error {
	return Newf(ErrConflict, format, args...)
}

func Timeout(operation string) *Error {
	return Newf(ErrTimeout, "operation timeout: %s", operation)
}

func Connection(cause error, format string, args ...interface{}) *Error {
	return Wrapf(ErrConnection, cause, format, args...)
}

func Internal(message string) *Error {
	return New(ErrInternal, message)
}

func Storage(operation string, cause error) *Error {
	return Wrapf(ErrStorage, cause, "storage error in %s", operation)
}
