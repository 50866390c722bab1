// Package crud implements the generic dispatch engine behind resource
// endpoints. A Resource declares schemas and authorization levels for each of
// the five operations; Handlers supply the resource-specific logic. The
// dispatcher validates input, enforces the caller's access level, invokes the
// handler and serializes the result through the resource's read schema.
package crud

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/tessera-id/tessera/apierr"
	"github.com/tessera-id/tessera/authn"
	"github.com/tessera-id/tessera/schema"
)

type Operation string

const (
	OpCreate Operation = "create"
	OpRead   Operation = "read"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
	OpList   Operation = "list"
)

// Docs holds documentation metadata for one operation of a resource.
type Docs struct {
	Summary     string
	Description string
	Tags        []string
}

// Resource describes a named resource: its schemas, the minimum access level
// per operation and documentation metadata. Descriptors are fixed at
// registration time and shared across all requests.
type Resource struct {
	Name string

	Params schema.Object
	Query  schema.Object

	// Per-operation body schemas. Read doubles as the output schema that
	// create, read, update and list results are serialized through.
	Create schema.Object
	Read   schema.Object
	Update schema.Object
	Delete schema.Object

	// Minimum caller type per operation. Operations without an entry
	// default to client access.
	Access map[Operation]authn.Type

	Docs map[Operation]Docs
}

// Request carries validated input into a handler.
type Request struct {
	Auth   authn.Auth
	Data   map[string]any
	Query  map[string]any
	Params map[string]any
}

// RawRequest is the unvalidated transport-level input.
type RawRequest struct {
	Auth   authn.Auth
	Body   map[string]any
	Query  map[string]any
	Params map[string]any
}

// Result is the two-part outcome of a create, read or update handler. View
// is serialized through the resource's read schema. RevealOnce carries data
// returned only at this invocation (freshly minted secrets) and is attached
// to the response verbatim, never re-validated.
type Result struct {
	View       map[string]any
	RevealOnce map[string]any
}

// ListResult is the outcome of a list handler. When IsPaginated is false the
// full result set is returned in one response.
type ListResult struct {
	Items       []map[string]any
	IsPaginated bool
}

// Handlers plugs resource-specific logic into the dispatcher. A nil handler
// marks the operation unsupported.
type Handlers struct {
	OnCreate func(ctx context.Context, req Request) (*Result, error)
	OnRead   func(ctx context.Context, req Request) (*Result, error)
	OnUpdate func(ctx context.Context, req Request) (*Result, error)
	OnDelete func(ctx context.Context, req Request) error
	OnList   func(ctx context.Context, req Request) (*ListResult, error)
}

// Response is the dispatcher's serialized output. Exactly one of Body or
// Items is meaningful, depending on the operation.
type Response struct {
	Body        map[string]any
	Items       []map[string]any
	IsPaginated bool
}

// InvocationError wraps any error raised by a resource handler so callers
// can distinguish handler failures from dispatcher failures. The original
// cause is preserved and reachable through errors.Is / errors.As.
type InvocationError struct {
	Resource  string
	Operation Operation
	Cause     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("%s %s handler: %v", e.Resource, e.Operation, e.Cause)
}

func (e *InvocationError) Unwrap() error { return e.Cause }

// UnsupportedOperationError is returned when a resource does not implement
// the requested operation.
type UnsupportedOperationError struct {
	Resource  string
	Operation Operation
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("resource %s does not support %s", e.Resource, e.Operation)
}

func (e *UnsupportedOperationError) Code() string    { return apierr.CodeUnsupportedOp }
func (e *UnsupportedOperationError) HTTPStatus() int { return http.StatusBadRequest }

// Dispatcher binds a resource descriptor to its handlers.
type Dispatcher struct {
	resource Resource
	handlers Handlers
}

func NewDispatcher(resource Resource, handlers Handlers) *Dispatcher {
	return &Dispatcher{resource: resource, handlers: handlers}
}

func (d *Dispatcher) Resource() Resource { return d.resource }

var accessRank = map[authn.Type]int{
	authn.TypeClient: 0,
	authn.TypeServer: 1,
	authn.TypeAdmin:  2,
}

func (d *Dispatcher) allowed(op Operation, callerType authn.Type) bool {
	required := authn.TypeClient
	if d.resource.Access != nil {
		if t, ok := d.resource.Access[op]; ok {
			required = t
		}
	}
	return accessRank[callerType] >= accessRank[required]
}

// Invoke validates raw input for the operation, runs the handler and
// serializes its result. Domain errors raised by the handler are passed
// through wrapped in an InvocationError; the dispatcher never reclassifies
// them.
func (d *Dispatcher) Invoke(ctx context.Context, op Operation, raw RawRequest) (*Response, error) {
	if !d.supported(op) {
		return nil, &UnsupportedOperationError{Resource: d.resource.Name, Operation: op}
	}

	if !d.allowed(op, raw.Auth.Type) {
		return nil, apierr.NewForbidden(fmt.Sprintf("%s access required for %s %s", d.requiredAccess(op), d.resource.Name, op))
	}

	req := Request{Auth: raw.Auth}

	var err error
	if op == OpRead || op == OpUpdate || op == OpDelete {
		if req.Params, err = validateOptional(d.resource.Params, raw.Params); err != nil {
			return nil, err
		}
	}
	if req.Query, err = validateOptional(d.resource.Query, raw.Query); err != nil {
		return nil, err
	}
	if req.Data, err = validateOptional(d.bodySchema(op), raw.Body); err != nil {
		return nil, err
	}

	switch op {
	case OpCreate:
		return d.invokeMutation(ctx, op, req, d.handlers.OnCreate)
	case OpRead:
		return d.invokeMutation(ctx, op, req, d.handlers.OnRead)
	case OpUpdate:
		return d.invokeMutation(ctx, op, req, d.handlers.OnUpdate)
	case OpDelete:
		if err := d.handlers.OnDelete(ctx, req); err != nil {
			return nil, &InvocationError{Resource: d.resource.Name, Operation: op, Cause: err}
		}
		return &Response{Body: map[string]any{"success": true}}, nil
	case OpList:
		result, err := d.handlers.OnList(ctx, req)
		if err != nil {
			return nil, &InvocationError{Resource: d.resource.Name, Operation: op, Cause: err}
		}
		items := make([]map[string]any, 0, len(result.Items))
		for _, item := range result.Items {
			serialized, err := d.serializeView(item)
			if err != nil {
				return nil, err
			}
			items = append(items, serialized)
		}
		return &Response{Items: items, IsPaginated: result.IsPaginated}, nil
	}
	return nil, &UnsupportedOperationError{Resource: d.resource.Name, Operation: op}
}

func (d *Dispatcher) invokeMutation(ctx context.Context, op Operation, req Request, handler func(context.Context, Request) (*Result, error)) (*Response, error) {
	result, err := handler(ctx, req)
	if err != nil {
		return nil, &InvocationError{Resource: d.resource.Name, Operation: op, Cause: err}
	}

	body, err := d.serializeView(result.View)
	if err != nil {
		return nil, err
	}

	// Reveal-once data bypasses the read schema so one-time secrets can be
	// returned on creation without ever being retrievable again.
	for k, v := range result.RevealOnce {
		body[k] = v
	}
	return &Response{Body: body}, nil
}

// serializeView runs a handler's returned view through the read schema. The
// view is produced by our own handlers, so a violation here is a
// post-operation invariant failure, not caller input.
func (d *Dispatcher) serializeView(view map[string]any) (map[string]any, error) {
	if d.resource.Read == nil {
		return view, nil
	}
	serialized, err := d.resource.Read.Validate(view)
	if err != nil {
		return nil, errors.Wrapf(apierr.NewInternalServerError(fmt.Sprintf("%s returned a view violating its read schema", d.resource.Name)), "%v", err)
	}
	return serialized, nil
}

func (d *Dispatcher) supported(op Operation) bool {
	switch op {
	case OpCreate:
		return d.handlers.OnCreate != nil
	case OpRead:
		return d.handlers.OnRead != nil
	case OpUpdate:
		return d.handlers.OnUpdate != nil
	case OpDelete:
		return d.handlers.OnDelete != nil
	case OpList:
		return d.handlers.OnList != nil
	}
	return false
}

func (d *Dispatcher) bodySchema(op Operation) schema.Object {
	switch op {
	case OpCreate:
		return d.resource.Create
	case OpUpdate:
		return d.resource.Update
	case OpDelete:
		return d.resource.Delete
	}
	return nil
}

func (d *Dispatcher) requiredAccess(op Operation) authn.Type {
	if d.resource.Access != nil {
		if t, ok := d.resource.Access[op]; ok {
			return t
		}
	}
	return authn.TypeClient
}

func validateOptional(obj schema.Object, raw map[string]any) (map[string]any, error) {
	if obj == nil {
		return raw, nil
	}
	return obj.Validate(raw)
}
